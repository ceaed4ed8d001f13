package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
)

// Repository exposes read access to the base product catalog.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogProduct, error)
	FindBySlug(ctx context.Context, slug string) (*models.CatalogProduct, error)
	ListActive(ctx context.Context) ([]models.CatalogProduct, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) ListActive(ctx context.Context) ([]models.CatalogProduct, error) {
	var products []models.CatalogProduct
	err := r.db.WithContext(ctx).
		Where("is_active = TRUE").
		Order("name ASC").
		Find(&products).Error
	return products, err
}
