package models

import (
	"github.com/google/uuid"
)

// ProductPlacement positions a design on one catalog product image.
type ProductPlacement struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ImageIndex      int       `gorm:"column:image_index;not null"`
	OffsetX         float64   `gorm:"column:offset_x;not null"`
	OffsetY         float64   `gorm:"column:offset_y;not null"`
	Scale           float64   `gorm:"column:scale;not null;default:1"`
	RotationDeg     float64   `gorm:"column:rotation_deg;not null;default:0"`
	NaturalWidthPx  int       `gorm:"column:natural_width_px;not null"`
	NaturalHeightPx int       `gorm:"column:natural_height_px;not null"`
}
