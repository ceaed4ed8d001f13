package vendorproducts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/internal/validation"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/outbox/payloads"
	"github.com/printhaus/printhaus-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type designLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
}

type catalogLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogProduct, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns vendor product CRUD and the manual publish path.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.VendorProduct, error)
	Update(ctx context.Context, vendorID, productID uuid.UUID, input UpdateInput) (*models.VendorProduct, error)
	Publish(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorProduct, error)
	Get(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorProduct, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Delete(ctx context.Context, vendorID, productID uuid.UUID) error
}

type service struct {
	repo    Repository
	designs designLookup
	catalog catalogLookup
	tx      txRunner
	events  eventEmitter
	logg    *logger.Logger
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo    Repository
	Designs designLookup
	Catalog catalogLookup
	Tx      txRunner
	Events  eventEmitter
	Logger  *logger.Logger
}

// NewService wires the vendor product service dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor products repository required")
	}
	if params.Designs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "designs lookup required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog lookup required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	return &service{
		repo:    params.Repo,
		designs: params.Designs,
		catalog: params.Catalog,
		tx:      params.Tx,
		events:  params.Events,
		logg:    params.Logger,
	}, nil
}

// PlacementInput positions the design on one catalog product image.
type PlacementInput struct {
	ImageIndex      int     `json:"image_index"`
	OffsetX         float64 `json:"offset_x"`
	OffsetY         float64 `json:"offset_y"`
	Scale           float64 `json:"scale"`
	RotationDeg     float64 `json:"rotation_deg"`
	NaturalWidthPx  int     `json:"natural_width_px"`
	NaturalHeightPx int     `json:"natural_height_px"`
}

// CreateInput models a new vendor product.
type CreateInput struct {
	VendorID             uuid.UUID
	DesignID             uuid.UUID
	CatalogProductID     uuid.UUID
	Name                 string
	Description          *string
	Price                decimal.Decimal
	StockQty             int
	Colors               []string
	Sizes                []string
	PostValidationAction enums.PostValidationAction
	Placements           []PlacementInput
}

// UpdateInput carries vendor-editable product fields. Nil leaves the current
// value untouched; Placements replaces the full set when non-nil.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	StockQty    *int
	Colors      []string
	Sizes       []string
	Placements  []PlacementInput
}

// ListParams configures vendor product listing.
type ListParams struct {
	VendorID uuid.UUID
	Status   enums.ProductStatus
	Limit    int
	Cursor   string
}

// ListResult wraps returned products and the cursor for the next page.
type ListResult struct {
	Items  []models.VendorProduct `json:"items"`
	Cursor string                 `json:"cursor"`
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.VendorProduct, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.DesignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design id required")
	}
	if input.CatalogProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog product id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.PostValidationAction == "" || !input.PostValidationAction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid post validation action")
	}

	design, err := s.designs.FindByID(ctx, input.DesignID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	if design == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	if design.VendorID != input.VendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "design belongs to another vendor")
	}

	base, err := s.catalog.FindByID(ctx, input.CatalogProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog product")
	}
	if base == nil || !base.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog product not found")
	}

	if err := validateOptionSubset("colors", input.Colors, base.ColorOptions); err != nil {
		return nil, err
	}
	if err := validateOptionSubset("sizes", input.Sizes, base.SizeOptions); err != nil {
		return nil, err
	}
	placements, err := buildPlacements(input.Placements, len(base.ImageURLs))
	if err != nil {
		return nil, err
	}

	designID := input.DesignID
	product := &models.VendorProduct{
		VendorID:             input.VendorID,
		DesignID:             &designID,
		CatalogProductID:     input.CatalogProductID,
		Name:                 name,
		Description:          input.Description,
		Price:                input.Price,
		StockQty:             input.StockQty,
		Colors:               pq.StringArray(input.Colors),
		Sizes:                pq.StringArray(input.Sizes),
		Status:               enums.ProductStatusDraft,
		DesignValidated:      design.Status == enums.DesignStatusValidated,
		PostValidationAction: input.PostValidationAction,
		Placements:           placements,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist vendor product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, vendorID, productID uuid.UUID, input UpdateInput) (*models.VendorProduct, error) {
	product, err := s.loadOwned(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == enums.ProductStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "published products cannot be edited").
			WithDetails(map[string]any{"entity": "vendor_product", "from": product.Status.String(), "event": "edit"})
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.StockQty = *input.StockQty
	}

	if input.Colors != nil || input.Sizes != nil || input.Placements != nil {
		base, err := s.catalog.FindByID(ctx, product.CatalogProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog product")
		}
		if base == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog product not found")
		}
		if input.Colors != nil {
			if err := validateOptionSubset("colors", input.Colors, base.ColorOptions); err != nil {
				return nil, err
			}
			product.Colors = pq.StringArray(input.Colors)
		}
		if input.Sizes != nil {
			if err := validateOptionSubset("sizes", input.Sizes, base.SizeOptions); err != nil {
				return nil, err
			}
			product.Sizes = pq.StringArray(input.Sizes)
		}
		if input.Placements != nil {
			placements, err := buildPlacements(input.Placements, len(base.ImageURLs))
			if err != nil {
				return nil, err
			}
			if err := s.repo.ReplacePlacements(ctx, product.ID, placements); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace placements")
			}
			product.Placements = placements
		}
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor product")
	}
	return product, nil
}

// Publish moves a product to published outside the cascade. The design-level
// requirement must already be satisfied.
func (s *service) Publish(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorProduct, error) {
	product, err := s.loadOwned(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}
	if !product.DesignValidated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "design has not been validated").
			WithDetails(map[string]any{"entity": "vendor_product", "from": product.Status.String(), "event": validation.ProductEventPublish.String()})
	}

	next, err := validation.NextProductStatus(product.Status, validation.ProductEventPublish)
	if err != nil {
		return nil, stateConflict(err)
	}

	fromStatus := product.Status
	product.Status = next

	var designID uuid.UUID
	if product.DesignID != nil {
		designID = *product.DesignID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, product); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductStatusChanged,
			AggregateType: enums.AggregateVendorProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: vendorID, Role: enums.UserRoleVendor.String()},
			Version:       1,
			Data: payloads.ProductStatusChangedEvent{
				ProductID:  product.ID,
				DesignID:   designID,
				VendorID:   product.VendorID,
				FromStatus: fromStatus,
				ToStatus:   product.Status,
				Action:     "manual_publish",
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product publish")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": product.ID.String()})
		s.logg.Info(logCtx, "vendor product published")
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorProduct, error) {
	return s.loadOwned(ctx, vendorID, productID)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status filter")
	}

	query := listProductsParams{
		VendorID: params.VendorID,
		Status:   params.Status,
		Limit:    params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByVendor(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor products")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Delete(ctx context.Context, vendorID, productID uuid.UUID) error {
	if vendorID == uuid.Nil || productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id and product id required")
	}
	found, err := s.repo.SoftDelete(ctx, productID, vendorID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vendor product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor product not found")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, vendorID, productID uuid.UUID) (*models.VendorProduct, error) {
	if vendorID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id and product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor product not found")
	}
	if product.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
	}
	return product, nil
}

func validateOptionSubset(field string, selected []string, available pq.StringArray) error {
	if len(selected) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(available))
	for _, option := range available {
		allowed[option] = true
	}
	for _, option := range selected {
		if !allowed[option] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s option %q is not offered by the catalog product", field, option))
		}
	}
	return nil
}

func buildPlacements(inputs []PlacementInput, imageCount int) ([]models.ProductPlacement, error) {
	placements := make([]models.ProductPlacement, 0, len(inputs))
	for _, in := range inputs {
		if in.ImageIndex < 0 || in.ImageIndex >= imageCount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("placement image index %d out of range", in.ImageIndex))
		}
		if in.Scale <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "placement scale must be positive")
		}
		if in.NaturalWidthPx <= 0 || in.NaturalHeightPx <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "placement natural dimensions must be positive")
		}
		placements = append(placements, models.ProductPlacement{
			ImageIndex:      in.ImageIndex,
			OffsetX:         in.OffsetX,
			OffsetY:         in.OffsetY,
			Scale:           in.Scale,
			RotationDeg:     in.RotationDeg,
			NaturalWidthPx:  in.NaturalWidthPx,
			NaturalHeightPx: in.NaturalHeightPx,
		})
	}
	return placements, nil
}

func stateConflict(err error) error {
	var trErr *validation.TransitionError
	if errors.As(err, &trErr) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, trErr.Error()).WithDetails(trErr.Details())
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "illegal state transition")
}
