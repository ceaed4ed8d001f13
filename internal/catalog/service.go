package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
)

// Service exposes catalog browsing for vendors building products.
type Service interface {
	List(ctx context.Context) ([]models.CatalogProduct, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CatalogProduct, error)
}

type service struct {
	repo Repository
}

// NewService wires catalog dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.CatalogProduct, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog products")
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.CatalogProduct, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog product")
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog product not found")
	}
	return product, nil
}
