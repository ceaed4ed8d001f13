package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// VendorProduct is a catalog product customized with a vendor design.
type VendorProduct struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID                  `gorm:"column:vendor_id;type:uuid;not null"`
	DesignID             *uuid.UUID                 `gorm:"column:design_id;type:uuid;index"`
	CatalogProductID     uuid.UUID                  `gorm:"column:catalog_product_id;type:uuid;not null"`
	Name                 string                     `gorm:"column:name;not null"`
	Description          *string                    `gorm:"column:description"`
	Price                decimal.Decimal            `gorm:"column:price;type:numeric(12,2);not null"`
	StockQty             int                        `gorm:"column:stock_qty;not null;default:0"`
	Colors               pq.StringArray             `gorm:"column:colors;type:text[];not null;default:ARRAY[]::text[]"`
	Sizes                pq.StringArray             `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	Status               enums.ProductStatus        `gorm:"column:status;type:product_status;not null;default:'draft'"`
	DesignValidated      bool                       `gorm:"column:design_validated;not null;default:false"`
	ValidatedAt          *time.Time                 `gorm:"column:validated_at"`
	ValidatedBy          *uuid.UUID                 `gorm:"column:validated_by;type:uuid"`
	PostValidationAction enums.PostValidationAction `gorm:"column:post_validation_action;type:post_validation_action;not null;default:'to_draft'"`
	Placements           []ProductPlacement         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	DeletedAt            *time.Time                 `gorm:"column:deleted_at;index"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
