package vendorproducts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/pagination"
)

type stubRepo struct {
	byID    map[uuid.UUID]*models.VendorProduct
	created []*models.VendorProduct
	updated []*models.VendorProduct
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[uuid.UUID]*models.VendorProduct{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, product *models.VendorProduct) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.created = append(s.created, product)
	s.byID[product.ID] = product
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.VendorProduct, error) {
	return s.byID[id], nil
}

func (s *stubRepo) Update(_ context.Context, product *models.VendorProduct) error {
	s.updated = append(s.updated, product)
	s.byID[product.ID] = product
	return nil
}

func (s *stubRepo) UpdateTx(ctx context.Context, _ *gorm.DB, product *models.VendorProduct) error {
	return s.Update(ctx, product)
}

func (s *stubRepo) ReplacePlacements(_ context.Context, productID uuid.UUID, placements []models.ProductPlacement) error {
	if p, ok := s.byID[productID]; ok {
		p.Placements = placements
	}
	return nil
}

func (s *stubRepo) ListByVendor(_ context.Context, params listProductsParams) ([]models.VendorProduct, *pagination.Cursor, error) {
	var rows []models.VendorProduct
	for _, p := range s.byID {
		if p.VendorID == params.VendorID {
			rows = append(rows, *p)
		}
	}
	return rows, nil, nil
}

func (s *stubRepo) ListByDesign(_ context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	return nil, nil
}

func (s *stubRepo) SoftDelete(_ context.Context, id, vendorID uuid.UUID, now time.Time) (bool, error) {
	p, ok := s.byID[id]
	if !ok || p.VendorID != vendorID {
		return false, nil
	}
	p.DeletedAt = &now
	return true, nil
}

type stubDesigns struct {
	byID map[uuid.UUID]*models.Design
}

func (s *stubDesigns) FindByID(_ context.Context, id uuid.UUID) (*models.Design, error) {
	return s.byID[id], nil
}

type stubCatalog struct {
	byID map[uuid.UUID]*models.CatalogProduct
}

func (s *stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.CatalogProduct, error) {
	return s.byID[id], nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	emitter  *stubEmitter
	vendorID uuid.UUID
	design   *models.Design
	catalog  *models.CatalogProduct
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	vendorID := uuid.New()
	design := &models.Design{ID: uuid.New(), VendorID: vendorID, Status: enums.DesignStatusValidated}
	catalog := &models.CatalogProduct{
		ID:           uuid.New(),
		Name:         "Classic Tee",
		Slug:         "classic-tee",
		ImageURLs:    pq.StringArray{"front.png", "back.png"},
		ColorOptions: pq.StringArray{"black", "white"},
		SizeOptions:  pq.StringArray{"s", "m", "l"},
		IsActive:     true,
	}

	repo := newStubRepo()
	emitter := &stubEmitter{}
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Designs: &stubDesigns{byID: map[uuid.UUID]*models.Design{design.ID: design}},
		Catalog: &stubCatalog{byID: map[uuid.UUID]*models.CatalogProduct{catalog.ID: catalog}},
		Tx:      stubTx{},
		Events:  emitter,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return &fixture{
		svc:      svc,
		repo:     repo,
		emitter:  emitter,
		vendorID: vendorID,
		design:   design,
		catalog:  catalog,
	}
}

func (f *fixture) createInput() CreateInput {
	return CreateInput{
		VendorID:             f.vendorID,
		DesignID:             f.design.ID,
		CatalogProductID:     f.catalog.ID,
		Name:                 "Wave Tee",
		Price:                decimal.NewFromFloat(24.99),
		StockQty:             10,
		Colors:               []string{"black"},
		Sizes:                []string{"m", "l"},
		PostValidationAction: enums.PostValidationAutoPublish,
		Placements: []PlacementInput{
			{ImageIndex: 0, OffsetX: 0.1, OffsetY: 0.2, Scale: 0.5, NaturalWidthPx: 800, NaturalHeightPx: 600},
		},
	}
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product, err := f.svc.Create(context.Background(), f.createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.Status != enums.ProductStatusDraft {
		t.Fatalf("expected draft, got %s", product.Status)
	}
	if !product.DesignValidated {
		t.Fatal("expected design_validated=true for validated design")
	}
	if len(product.Placements) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(product.Placements))
	}
}

func TestCreateProductUnvalidatedDesign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.design.Status = enums.DesignStatusPending

	product, err := f.svc.Create(context.Background(), f.createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.DesignValidated {
		t.Fatal("expected design_validated=false for pending design")
	}
}

func TestCreateProductRejectsUnknownColor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.createInput()
	input.Colors = []string{"neon-green"}

	_, err := f.svc.Create(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateProductRejectsOutOfRangePlacement(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.createInput()
	input.Placements = []PlacementInput{
		{ImageIndex: 5, Scale: 1, NaturalWidthPx: 100, NaturalHeightPx: 100},
	}

	_, err := f.svc.Create(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateProductRejectsForeignDesign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := f.createInput()
	input.VendorID = uuid.New()

	_, err := f.svc.Create(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPublishRequiresValidatedDesign(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	designID := f.design.ID
	product := &models.VendorProduct{
		ID:       uuid.New(),
		VendorID: f.vendorID,
		DesignID: &designID,
		Status:   enums.ProductStatusDraft,
	}
	f.repo.byID[product.ID] = product

	_, err := f.svc.Publish(context.Background(), f.vendorID, product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if product.Status != enums.ProductStatusDraft {
		t.Fatal("failed publish must not mutate status")
	}
}

func TestPublishSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	designID := f.design.ID
	product := &models.VendorProduct{
		ID:              uuid.New(),
		VendorID:        f.vendorID,
		DesignID:        &designID,
		Status:          enums.ProductStatusDraft,
		DesignValidated: true,
	}
	f.repo.byID[product.ID] = product

	updated, err := f.svc.Publish(context.Background(), f.vendorID, product.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if updated.Status != enums.ProductStatusPublished {
		t.Fatalf("expected published, got %s", updated.Status)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventProductStatusChanged {
		t.Fatalf("expected product_status_changed event, got %+v", f.emitter.events)
	}
}

func TestPublishedProductCannotRepublish(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := &models.VendorProduct{
		ID:              uuid.New(),
		VendorID:        f.vendorID,
		Status:          enums.ProductStatusPublished,
		DesignValidated: true,
	}
	f.repo.byID[product.ID] = product

	_, err := f.svc.Publish(context.Background(), f.vendorID, product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdatePublishedProductFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := &models.VendorProduct{
		ID:       uuid.New(),
		VendorID: f.vendorID,
		Status:   enums.ProductStatusPublished,
	}
	f.repo.byID[product.ID] = product

	name := "New Name"
	_, err := f.svc.Update(context.Background(), f.vendorID, product.ID, UpdateInput{Name: &name})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateDraftProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := &models.VendorProduct{
		ID:               uuid.New(),
		VendorID:         f.vendorID,
		CatalogProductID: f.catalog.ID,
		Status:           enums.ProductStatusDraft,
		Name:             "Old",
		Price:            decimal.NewFromInt(10),
	}
	f.repo.byID[product.ID] = product

	price := decimal.NewFromFloat(19.99)
	updated, err := f.svc.Update(context.Background(), f.vendorID, product.ID, UpdateInput{
		Price:  &price,
		Colors: []string{"white"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Price.Equal(price) {
		t.Fatalf("expected price %s, got %s", price, updated.Price)
	}
	if len(updated.Colors) != 1 || updated.Colors[0] != "white" {
		t.Fatalf("unexpected colors %v", updated.Colors)
	}
}

func TestDeleteNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.svc.Delete(context.Background(), f.vendorID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
