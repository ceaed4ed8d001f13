package vendorproducts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/printhaus/printhaus-backend/pkg/pagination"
)

// Repository exposes persistence helpers for vendor products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.VendorProduct) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorProduct, error)
	Update(ctx context.Context, product *models.VendorProduct) error
	UpdateTx(ctx context.Context, tx *gorm.DB, product *models.VendorProduct) error
	ReplacePlacements(ctx context.Context, productID uuid.UUID, placements []models.ProductPlacement) error
	ListByVendor(ctx context.Context, params listProductsParams) ([]models.VendorProduct, *pagination.Cursor, error)
	ListByDesign(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error)
	SoftDelete(ctx context.Context, id, vendorID uuid.UUID, now time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a vendor products repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listProductsParams struct {
	VendorID uuid.UUID
	Status   enums.ProductStatus
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, product *models.VendorProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorProduct, error) {
	var product models.VendorProduct
	err := r.db.WithContext(ctx).
		Preload("Placements").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) Update(ctx context.Context, product *models.VendorProduct) error {
	return r.db.WithContext(ctx).Omit("Placements").Save(product).Error
}

func (r *repositoryImpl) UpdateTx(ctx context.Context, tx *gorm.DB, product *models.VendorProduct) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.WithContext(ctx).Omit("Placements").Save(product).Error
}

func (r *repositoryImpl) ReplacePlacements(ctx context.Context, productID uuid.UUID, placements []models.ProductPlacement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductPlacement{}).Error; err != nil {
			return err
		}
		if len(placements) == 0 {
			return nil
		}
		for i := range placements {
			placements[i].ProductID = productID
		}
		return tx.Create(&placements).Error
	})
}

func (r *repositoryImpl) ListByVendor(ctx context.Context, params listProductsParams) ([]models.VendorProduct, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.VendorProduct{}).
		Preload("Placements").
		Where("vendor_id = ? AND deleted_at IS NULL", params.VendorID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var products []models.VendorProduct
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > normalized {
		products = products[:normalized]
		last := products[normalized-1]
		return products, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return products, nil, nil
}

// ListByDesign returns every live product referencing the design in ascending
// id order, which keeps cascade processing deterministic.
func (r *repositoryImpl) ListByDesign(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := r.db.WithContext(ctx).
		Where("design_id = ? AND deleted_at IS NULL", designID).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *repositoryImpl) SoftDelete(ctx context.Context, id, vendorID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.VendorProduct{}).
		Where("id = ? AND vendor_id = ? AND deleted_at IS NULL", id, vendorID).
		UpdateColumn("deleted_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
