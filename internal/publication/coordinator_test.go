package publication

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
)

type stubDesignRepo struct {
	byID      map[uuid.UUID]*models.Design
	updateErr error
	updates   int
}

func (s *stubDesignRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Design, error) {
	return s.byID[id], nil
}

func (s *stubDesignRepo) UpdateTx(_ context.Context, _ *gorm.DB, design *models.Design) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	s.byID[design.ID] = design
	return nil
}

type stubProductRepo struct {
	products  []*models.VendorProduct
	failIDs   map[uuid.UUID]error
	updateLog []uuid.UUID
}

func (s *stubProductRepo) ListByDesign(_ context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	var out []models.VendorProduct
	for _, p := range s.products {
		if p.DesignID != nil && *p.DesignID == designID && p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *stubProductRepo) UpdateTx(_ context.Context, _ *gorm.DB, product *models.VendorProduct) error {
	if err, ok := s.failIDs[product.ID]; ok {
		return err
	}
	s.updateLog = append(s.updateLog, product.ID)
	for _, p := range s.products {
		if p.ID == product.ID {
			*p = *product
		}
	}
	return nil
}

type stubLocker struct {
	held     map[string]bool
	acquires int
	releases int
}

func (s *stubLocker) AcquireDecisionLock(_ context.Context, designID string, _ time.Duration) (string, bool, error) {
	s.acquires++
	if s.held[designID] {
		return "", false, nil
	}
	return "token", true, nil
}

func (s *stubLocker) ReleaseDecisionLock(_ context.Context, designID, token string) error {
	s.releases++
	return nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type notifyCall struct {
	recipientID uuid.UUID
	kind        enums.NotificationType
}

type stubNotifier struct {
	calls []notifyCall
	err   error
}

func (s *stubNotifier) Notify(_ context.Context, recipientID uuid.UUID, kind enums.NotificationType, title, message string) error {
	s.calls = append(s.calls, notifyCall{recipientID: recipientID, kind: kind})
	return s.err
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type harness struct {
	coordinator *Coordinator
	designs     *stubDesignRepo
	products    *stubProductRepo
	locker      *stubLocker
	emitter     *stubEmitter
	notifier    *stubNotifier
	design      *models.Design
	validatorID uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	design := &models.Design{
		ID:       uuid.New(),
		VendorID: uuid.New(),
		Name:     "Wave",
		Status:   enums.DesignStatusPending,
	}
	designRepo := &stubDesignRepo{byID: map[uuid.UUID]*models.Design{design.ID: design}}
	productRepo := &stubProductRepo{failIDs: map[uuid.UUID]error{}}
	locker := &stubLocker{held: map[string]bool{}}
	emitter := &stubEmitter{}
	notifier := &stubNotifier{}

	coordinator, err := NewCoordinator(CoordinatorParams{
		Designs:  designRepo,
		Products: productRepo,
		Tx:       stubTx{},
		Locker:   locker,
		Events:   emitter,
		Notifier: notifier,
		LockTTL:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	return &harness{
		coordinator: coordinator,
		designs:     designRepo,
		products:    productRepo,
		locker:      locker,
		emitter:     emitter,
		notifier:    notifier,
		design:      design,
		validatorID: uuid.New(),
	}
}

func (h *harness) addProduct(action enums.PostValidationAction, status enums.ProductStatus) *models.VendorProduct {
	designID := h.design.ID
	product := &models.VendorProduct{
		ID:                   uuid.New(),
		VendorID:             h.design.VendorID,
		DesignID:             &designID,
		Status:               status,
		PostValidationAction: action,
	}
	h.products.products = append(h.products.products, product)
	return product
}

func TestApproveCascade(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	autoPublish := h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)
	toDraft := h.addProduct(enums.PostValidationToDraft, enums.ProductStatusDraft)

	result, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	if result.Design.Status != enums.DesignStatusValidated {
		t.Fatalf("expected validated design, got %s", result.Design.Status)
	}
	if result.Design.ValidatedBy == nil || *result.Design.ValidatedBy != h.validatorID {
		t.Fatal("validator identity not stamped")
	}
	if result.Design.ValidatedAt == nil {
		t.Fatal("approval must stamp validated_at")
	}

	if autoPublish.Status != enums.ProductStatusPublished {
		t.Fatalf("auto_publish product should be published, got %s", autoPublish.Status)
	}
	if !autoPublish.DesignValidated {
		t.Fatal("auto_publish product should be design_validated")
	}
	if toDraft.Status != enums.ProductStatusDraft {
		t.Fatalf("to_draft product should stay draft, got %s", toDraft.Status)
	}
	if !toDraft.DesignValidated {
		t.Fatal("to_draft product should be design_validated")
	}

	if len(result.ProductResults) != 2 {
		t.Fatalf("expected 2 product results, got %d", len(result.ProductResults))
	}
	for _, pr := range result.ProductResults {
		if pr.Outcome != ProductOutcomeOK {
			t.Fatalf("expected OK outcome, got %+v", pr)
		}
	}
}

func TestRejectIsNoOpOnProducts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	p1 := h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)
	p2 := h.addProduct(enums.PostValidationToDraft, enums.ProductStatusPending)

	result, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionReject,
		ValidatorID: h.validatorID,
		Reason:      "poor quality",
	})
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	if result.Design.Status != enums.DesignStatusRejected {
		t.Fatalf("expected rejected design, got %s", result.Design.Status)
	}
	if result.Design.RejectionReason == nil || *result.Design.RejectionReason != "poor quality" {
		t.Fatal("rejection reason not stored")
	}
	if result.Design.ValidatedAt != nil {
		t.Fatal("rejection must not stamp validated_at")
	}
	if result.Design.ValidatedBy == nil || *result.Design.ValidatedBy != h.validatorID {
		t.Fatal("rejecting validator identity not stamped")
	}
	if len(result.ProductResults) != 0 {
		t.Fatalf("reject must not cascade, got %d results", len(result.ProductResults))
	}
	if p1.Status != enums.ProductStatusDraft || p1.DesignValidated {
		t.Fatal("p1 must be unchanged")
	}
	if p2.Status != enums.ProductStatusPending || p2.DesignValidated {
		t.Fatal("p2 must be unchanged")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionReject,
		ValidatorID: h.validatorID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIllegalTransitionLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.design.Status = enums.DesignStatusDraft
	h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)

	_, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["from"] != "draft" || details["event"] != "approve" {
		t.Fatalf("unexpected details: %v", details)
	}

	if h.designs.updates != 0 {
		t.Fatal("illegal transition must not persist the design")
	}
	if len(h.products.updateLog) != 0 {
		t.Fatal("illegal transition must not touch products")
	}
	if len(h.notifier.calls) != 0 {
		t.Fatal("illegal transition must not notify")
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	p1 := h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)
	p2 := h.addProduct(enums.PostValidationToDraft, enums.ProductStatusDraft)
	h.products.failIDs[p2.ID] = errors.New("row locked")

	result, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	if err != nil {
		t.Fatalf("partial cascade failure must not fail the decision: %v", err)
	}

	if result.Design.Status != enums.DesignStatusValidated {
		t.Fatal("design decision must survive cascade failures")
	}

	byProduct := map[uuid.UUID]ProductResult{}
	for _, pr := range result.ProductResults {
		byProduct[pr.ProductID] = pr
	}
	if byProduct[p1.ID].Outcome != ProductOutcomeOK {
		t.Fatalf("p1 should be OK, got %+v", byProduct[p1.ID])
	}
	if byProduct[p2.ID].Outcome != ProductOutcomeFailed || byProduct[p2.ID].Error == "" {
		t.Fatalf("p2 should be FAILED with error, got %+v", byProduct[p2.ID])
	}
	if p1.Status != enums.ProductStatusPublished {
		t.Fatal("p1 update must be committed despite p2 failing")
	}
}

func TestCascadeProcessesAscendingIDOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)
	}

	result, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	if !sort.SliceIsSorted(result.ProductResults, func(i, j int) bool {
		return result.ProductResults[i].ProductID.String() < result.ProductResults[j].ProductID.String()
	}) {
		t.Fatal("product results must be in ascending id order")
	}
}

func TestConcurrentDecisionBlocked(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.locker.held[h.design.ID.String()] = true

	_, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if h.designs.updates != 0 {
		t.Fatal("blocked decision must not persist anything")
	}
}

func TestLockReleasedAfterDecision(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	}); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
	if h.locker.releases != 1 {
		t.Fatalf("expected one lock release, got %d", h.locker.releases)
	}
}

func TestNotificationsDedupedPerVendor(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)

	otherVendor := uuid.New()
	designID := h.design.ID
	h.products.products = append(h.products.products, &models.VendorProduct{
		ID:                   uuid.New(),
		VendorID:             otherVendor,
		DesignID:             &designID,
		Status:               enums.ProductStatusDraft,
		PostValidationAction: enums.PostValidationToDraft,
	})

	if _, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	}); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	if len(h.notifier.calls) != 2 {
		t.Fatalf("expected 2 notifications (owner + distinct product owner), got %d", len(h.notifier.calls))
	}
	if h.notifier.calls[0].recipientID != h.design.VendorID || h.notifier.calls[0].kind != enums.NotificationDesignApproved {
		t.Fatalf("first notification should go to the design owner, got %+v", h.notifier.calls[0])
	}
	if h.notifier.calls[1].recipientID != otherVendor || h.notifier.calls[1].kind != enums.NotificationProductUpdated {
		t.Fatalf("second notification should go to the other product owner, got %+v", h.notifier.calls[1])
	}
}

func TestNotificationFailureDoesNotFailDecision(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.notifier.err = errors.New("smtp down")
	h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)

	result, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	if err != nil {
		t.Fatalf("notification failure must not fail the decision: %v", err)
	}
	if result.Design.Status != enums.DesignStatusValidated {
		t.Fatal("design must be validated")
	}
}

func TestDecisionEventsEmitted(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.addProduct(enums.PostValidationAutoPublish, enums.ProductStatusDraft)

	if _, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    h.design.ID,
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	}); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	if len(h.emitter.events) != 2 {
		t.Fatalf("expected design_validated + product_status_changed events, got %d", len(h.emitter.events))
	}
	if h.emitter.events[0].EventType != enums.EventDesignValidated {
		t.Fatalf("first event should be design_validated, got %s", h.emitter.events[0].EventType)
	}
	if h.emitter.events[1].EventType != enums.EventProductStatusChanged {
		t.Fatalf("second event should be product_status_changed, got %s", h.emitter.events[1].EventType)
	}
	for _, event := range h.emitter.events {
		if event.Actor == nil || event.Actor.UserID != h.validatorID {
			t.Fatalf("event actor should carry the validator id, got %+v", event.Actor)
		}
		if event.Actor.Role != enums.UserRoleAdmin.String() {
			t.Fatalf("event actor should carry the admin role, got %q", event.Actor.Role)
		}
	}
}

func TestNotFoundDesign(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.coordinator.ApplyDecision(context.Background(), DecisionInput{
		DesignID:    uuid.New(),
		Decision:    enums.ValidationDecisionApprove,
		ValidatorID: h.validatorID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
