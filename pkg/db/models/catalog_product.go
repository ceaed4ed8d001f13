package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CatalogProduct is a base garment or item vendors customize.
type CatalogProduct struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Slug         string         `gorm:"column:slug;not null;uniqueIndex"`
	ImageURLs    pq.StringArray `gorm:"column:image_urls;type:text[];not null;default:ARRAY[]::text[]"`
	ColorOptions pq.StringArray `gorm:"column:color_options;type:text[];not null;default:ARRAY[]::text[]"`
	SizeOptions  pq.StringArray `gorm:"column:size_options;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
