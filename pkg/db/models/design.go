package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// Design is a vendor-uploaded artwork that must pass moderation before any
// product carrying it can be published.
type Design struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null"`
	Name            string               `gorm:"column:name;not null"`
	Description     *string              `gorm:"column:description"`
	Category        enums.DesignCategory `gorm:"column:category;type:design_category;not null"`
	ImageURL        string               `gorm:"column:image_url;not null"`
	StorageKey      string               `gorm:"column:storage_key;not null"`
	ContentHash     string               `gorm:"column:content_hash;not null;index"`
	WidthPx         int                  `gorm:"column:width_px;not null"`
	HeightPx        int                  `gorm:"column:height_px;not null"`
	FileFormat      string               `gorm:"column:file_format;not null"`
	Tags            pq.StringArray       `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	Status          enums.DesignStatus   `gorm:"column:status;type:design_status;not null;default:'draft'"`
	RejectionReason *string              `gorm:"column:rejection_reason"`
	SubmittedAt     *time.Time           `gorm:"column:submitted_at"`
	ValidatedAt     *time.Time           `gorm:"column:validated_at"`
	ValidatedBy     *uuid.UUID           `gorm:"column:validated_by;type:uuid"`
	DeletedAt       *time.Time           `gorm:"column:deleted_at;index"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
