package designs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/pagination"
)

type stubRepo struct {
	byID     map[uuid.UUID]*models.Design
	byHash   map[string]*models.Design
	created  []*models.Design
	updated  []*models.Design
	softDel  bool
	swept    int64
	createFn func(design *models.Design) error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byID:   map[uuid.UUID]*models.Design{},
		byHash: map[string]*models.Design{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, design *models.Design) error {
	if s.createFn != nil {
		return s.createFn(design)
	}
	if design.ID == uuid.Nil {
		design.ID = uuid.New()
	}
	s.created = append(s.created, design)
	s.byID[design.ID] = design
	s.byHash[design.ContentHash] = design
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Design, error) {
	return s.byID[id], nil
}

func (s *stubRepo) FindByContentHash(_ context.Context, hash string) (*models.Design, error) {
	return s.byHash[hash], nil
}

func (s *stubRepo) Update(_ context.Context, design *models.Design) error {
	s.updated = append(s.updated, design)
	s.byID[design.ID] = design
	return nil
}

func (s *stubRepo) UpdateTx(ctx context.Context, _ *gorm.DB, design *models.Design) error {
	return s.Update(ctx, design)
}

func (s *stubRepo) ListByVendor(_ context.Context, params listDesignsParams) ([]models.Design, *pagination.Cursor, error) {
	var rows []models.Design
	for _, d := range s.byID {
		if d.VendorID == params.VendorID {
			rows = append(rows, *d)
		}
	}
	return rows, nil, nil
}

func (s *stubRepo) ListPendingReview(_ context.Context, params listPendingParams) ([]models.Design, *pagination.Cursor, error) {
	var rows []models.Design
	for _, d := range s.byID {
		if d.Status == enums.DesignStatusPending {
			rows = append(rows, *d)
		}
	}
	return rows, nil, nil
}

func (s *stubRepo) SoftDelete(_ context.Context, id, vendorID uuid.UUID, now time.Time) (bool, error) {
	d, ok := s.byID[id]
	if !ok || d.VendorID != vendorID {
		return false, nil
	}
	d.DeletedAt = &now
	s.softDel = true
	return true, nil
}

func (s *stubRepo) SweepUnreferenced(_ context.Context, cutoff time.Time) (int64, error) {
	return s.swept, nil
}

type stubStore struct {
	uploads map[string][]byte
	lastKey string
}

func (s *stubStore) Upload(_ context.Context, bucket, object, contentType string, data []byte) error {
	if s.uploads == nil {
		s.uploads = map[string][]byte{}
	}
	s.uploads[object] = data
	s.lastKey = object
	return nil
}

func (s *stubStore) ObjectURL(bucket, object string) string {
	return "https://storage.googleapis.com/" + bucket + "/" + object
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

func newTestService(t *testing.T, repo *stubRepo, store *stubStore, emitter *stubEmitter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Tx:          stubTx{},
		Store:       store,
		Events:      emitter,
		Bucket:      "bucket",
		MaxUploadMB: 1,
		MinWidthPx:  2,
		MinHeightPx: 2,
		SweepMinAge: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testPNG(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestResolveOrCreateCreatesDraft(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	store := &stubStore{}
	svc := newTestService(t, repo, store, &stubEmitter{})

	result, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		VendorID: uuid.New(),
		Name:     "Wave Logo",
		Category: enums.DesignCategoryLogo,
		Tags:     []string{"Ocean", "ocean", " blue "},
		Payload:  testPNG(t, 4, 4, 1),
	})
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if !result.WasCreated {
		t.Fatal("expected wasCreated=true")
	}
	if result.Design.Status != enums.DesignStatusDraft {
		t.Fatalf("expected draft status, got %s", result.Design.Status)
	}
	if result.Design.ContentHash == "" {
		t.Fatal("content hash missing")
	}
	if store.lastKey != "designs/"+result.Design.ContentHash+".png" {
		t.Fatalf("unexpected storage key %q", store.lastKey)
	}
	if len(result.Design.Tags) != 2 {
		t.Fatalf("expected deduped tags, got %v", result.Design.Tags)
	}
	if result.Design.WidthPx != 4 || result.Design.HeightPx != 4 {
		t.Fatalf("unexpected dimensions %dx%d", result.Design.WidthPx, result.Design.HeightPx)
	}
}

func TestResolveOrCreateDedupesByContent(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	store := &stubStore{}
	svc := newTestService(t, repo, store, &stubEmitter{})

	payload := testPNG(t, 4, 4, 7)
	first, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		VendorID: uuid.New(),
		Name:     "First",
		Category: enums.DesignCategoryIllustration,
		Payload:  payload,
	})
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	second, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		VendorID: uuid.New(),
		Name:     "Second",
		Category: enums.DesignCategoryIllustration,
		Payload:  payload,
	})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if second.WasCreated {
		t.Fatal("expected wasCreated=false on duplicate upload")
	}
	if second.Design.ID != first.Design.ID {
		t.Fatalf("expected same design id, got %s and %s", first.Design.ID, second.Design.ID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected single row, got %d", len(repo.created))
	}
}

func TestResolveOrCreateRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), &stubStore{}, &stubEmitter{})
	_, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		VendorID: uuid.New(),
		Name:     "Empty",
		Category: enums.DesignCategoryLogo,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidAsset {
		t.Fatalf("expected invalid asset error, got %v", err)
	}
}

func TestResolveOrCreateRejectsCorruptPayload(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), &stubStore{}, &stubEmitter{})
	_, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		VendorID: uuid.New(),
		Name:     "Broken",
		Category: enums.DesignCategoryLogo,
		Payload:  []byte("definitely not an image"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidAsset {
		t.Fatalf("expected invalid asset error, got %v", err)
	}
}

func TestResolveOrCreateRejectsTinyImage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), &stubStore{}, &stubEmitter{})
	_, err := svc.ResolveOrCreate(context.Background(), ResolveInput{
		VendorID: uuid.New(),
		Name:     "Tiny",
		Category: enums.DesignCategoryLogo,
		Payload:  testPNG(t, 1, 1, 3),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidAsset {
		t.Fatalf("expected invalid asset error, got %v", err)
	}
}

func TestSubmitForValidation(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	emitter := &stubEmitter{}
	svc := newTestService(t, repo, &stubStore{}, emitter)

	vendorID := uuid.New()
	design := &models.Design{ID: uuid.New(), VendorID: vendorID, Status: enums.DesignStatusDraft}
	repo.byID[design.ID] = design

	updated, err := svc.SubmitForValidation(context.Background(), vendorID, design.ID)
	if err != nil {
		t.Fatalf("SubmitForValidation: %v", err)
	}
	if updated.Status != enums.DesignStatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	if updated.SubmittedAt == nil {
		t.Fatal("submitted_at not stamped")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventDesignSubmitted {
		t.Fatalf("expected design_submitted event, got %+v", emitter.events)
	}
}

func TestSubmitForValidationIllegalFromPending(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, &stubStore{}, &stubEmitter{})

	vendorID := uuid.New()
	design := &models.Design{ID: uuid.New(), VendorID: vendorID, Status: enums.DesignStatusPending}
	repo.byID[design.ID] = design

	_, err := svc.SubmitForValidation(context.Background(), vendorID, design.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.updated) != 0 {
		t.Fatal("illegal transition must not persist")
	}
}

func TestResubmitClearsDecision(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, &stubStore{}, &stubEmitter{})

	vendorID := uuid.New()
	reason := "poor quality"
	validatedBy := uuid.New()
	then := time.Now().Add(-time.Hour)
	design := &models.Design{
		ID:              uuid.New(),
		VendorID:        vendorID,
		Status:          enums.DesignStatusRejected,
		RejectionReason: &reason,
		ValidatedAt:     &then,
		ValidatedBy:     &validatedBy,
	}
	repo.byID[design.ID] = design

	updated, err := svc.Resubmit(context.Background(), vendorID, design.ID)
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if updated.Status != enums.DesignStatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}
	if updated.RejectionReason != nil || updated.ValidatedAt != nil || updated.ValidatedBy != nil {
		t.Fatal("resubmit must clear the previous decision")
	}
}

func TestResubmitValidatedFails(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, &stubStore{}, &stubEmitter{})

	vendorID := uuid.New()
	design := &models.Design{ID: uuid.New(), VendorID: vendorID, Status: enums.DesignStatusValidated}
	repo.byID[design.ID] = design

	_, err := svc.Resubmit(context.Background(), vendorID, design.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateMetadataFrozenAfterModeration(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, &stubStore{}, &stubEmitter{})

	vendorID := uuid.New()
	design := &models.Design{ID: uuid.New(), VendorID: vendorID, Status: enums.DesignStatusValidated, Name: "Locked"}
	repo.byID[design.ID] = design

	name := "New Name"
	_, err := svc.UpdateMetadata(context.Background(), vendorID, design.ID, UpdateInput{Name: &name})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if design.Name != "Locked" {
		t.Fatal("metadata must not change")
	}
}

func TestUpdateMetadataWhilePending(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, &stubStore{}, &stubEmitter{})

	vendorID := uuid.New()
	design := &models.Design{ID: uuid.New(), VendorID: vendorID, Status: enums.DesignStatusPending, Name: "Old"}
	repo.byID[design.ID] = design

	name := "New"
	updated, err := svc.UpdateMetadata(context.Background(), vendorID, design.ID, UpdateInput{
		Name: &name,
		Tags: []string{"fresh"},
	})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if updated.Name != "New" {
		t.Fatalf("expected name updated, got %q", updated.Name)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "fresh" {
		t.Fatalf("unexpected tags %v", updated.Tags)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, &stubStore{}, &stubEmitter{})

	design := &models.Design{ID: uuid.New(), VendorID: uuid.New(), Status: enums.DesignStatusDraft}
	repo.byID[design.ID] = design

	_, err := svc.SubmitForValidation(context.Background(), uuid.New(), design.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), &stubStore{}, &stubEmitter{})
	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
