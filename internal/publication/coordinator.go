// Package publication orchestrates admin validation decisions: the design
// transition commits atomically, then the decision cascades to every product
// referencing the design, best effort per product.
package publication

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/internal/validation"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type designRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, design *models.Design) error
}

type productRepository interface {
	ListByDesign(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, product *models.VendorProduct) error
}

type decisionLocker interface {
	AcquireDecisionLock(ctx context.Context, designID string, ttl time.Duration) (string, bool, error)
	ReleaseDecisionLock(ctx context.Context, designID, token string) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier is the outbound port for vendor-facing outcome notifications.
// Implementations must be best effort: a notify failure never affects the
// committed decision.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, kind enums.NotificationType, title, message string) error
}

// ProductOutcome classifies one cascade item result.
type ProductOutcome string

const (
	ProductOutcomeOK     ProductOutcome = "OK"
	ProductOutcomeFailed ProductOutcome = "FAILED"
)

// ProductResult reports what happened to one product during the cascade.
type ProductResult struct {
	ProductID uuid.UUID      `json:"product_id"`
	Outcome   ProductOutcome `json:"outcome"`
	Error     string         `json:"error,omitempty"`
}

// DecisionResult is the full outcome of applying a validation decision.
type DecisionResult struct {
	Design         *models.Design  `json:"design"`
	ProductResults []ProductResult `json:"product_results"`
}

// DecisionInput carries a single validation decision.
type DecisionInput struct {
	DesignID    uuid.UUID
	Decision    enums.ValidationDecision
	ValidatorID uuid.UUID
	Reason      string
}

// Coordinator applies validation decisions. Decisions for the same design are
// serialized through a redis lock; different designs proceed concurrently.
type Coordinator struct {
	designs  designRepository
	products productRepository
	tx       txRunner
	locker   decisionLocker
	events   eventEmitter
	notifier Notifier
	metrics  *metrics.ValidationMetrics
	logg     *logger.Logger
	lockTTL  time.Duration
}

// CoordinatorParams carries the dependencies for NewCoordinator.
type CoordinatorParams struct {
	Designs  designRepository
	Products productRepository
	Tx       txRunner
	Locker   decisionLocker
	Events   eventEmitter
	Notifier Notifier
	Metrics  *metrics.ValidationMetrics
	Logger   *logger.Logger
	LockTTL  time.Duration
}

// NewCoordinator wires the publication coordinator.
func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.Designs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "designs repository required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "products repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "decision locker required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	if params.LockTTL <= 0 {
		params.LockTTL = 30 * time.Second
	}
	return &Coordinator{
		designs:  params.Designs,
		products: params.Products,
		tx:       params.Tx,
		locker:   params.Locker,
		events:   params.Events,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		lockTTL:  params.LockTTL,
	}, nil
}

// ApplyDecision runs one validation decision end to end: lock, design
// transition (all-or-nothing), per-product cascade (best effort, ascending id
// order), notifications (best effort, after commit).
func (c *Coordinator) ApplyDecision(ctx context.Context, input DecisionInput) (*DecisionResult, error) {
	if input.DesignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design id required")
	}
	if input.ValidatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validator id required")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	if input.Decision == enums.ValidationDecisionReject && input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	token, acquired, err := c.locker.AcquireDecisionLock(ctx, input.DesignID.String(), c.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire decision lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another decision for this design is in progress")
	}
	defer func() {
		if releaseErr := c.locker.ReleaseDecisionLock(ctx, input.DesignID.String(), token); releaseErr != nil && c.logg != nil {
			logCtx := c.logg.WithDesignID(ctx, input.DesignID.String())
			c.logg.Warn(logCtx, "decision lock release failed")
		}
	}()

	started := time.Now()
	result, err := c.applyLocked(ctx, input)
	if err != nil {
		return nil, err
	}

	c.metrics.IncDecision(input.Decision.String())
	c.metrics.ObserveDecisionDuration(input.Decision.String(), time.Since(started))

	c.notifyOutcome(ctx, input, result)
	return result, nil
}

func (c *Coordinator) applyLocked(ctx context.Context, input DecisionInput) (*DecisionResult, error) {
	design, err := c.designs.FindByID(ctx, input.DesignID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	if design == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}

	event := validation.DesignEventApprove
	if input.Decision == enums.ValidationDecisionReject {
		event = validation.DesignEventReject
	}
	next, err := validation.NextDesignStatus(design.Status, event)
	if err != nil {
		return nil, stateConflict(err)
	}

	now := time.Now().UTC()
	design.Status = next
	design.ValidatedBy = &input.ValidatorID
	if input.Decision == enums.ValidationDecisionReject {
		reason := input.Reason
		design.RejectionReason = &reason
		design.ValidatedAt = nil
	} else {
		design.RejectionReason = nil
		design.ValidatedAt = &now
	}

	// Step 1: the design transition is all-or-nothing.
	err = c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.designs.UpdateTx(ctx, tx, design); err != nil {
			return err
		}
		return c.events.Emit(ctx, tx, c.decisionEvent(design, input, now))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist design decision")
	}

	result := &DecisionResult{Design: design, ProductResults: []ProductResult{}}
	if input.Decision != enums.ValidationDecisionApprove {
		return result, nil
	}

	// Step 2: cascade. Each product updates independently; one failure never
	// rolls back the design decision or the other products.
	products, err := c.products.ListByDesign(ctx, design.ID)
	if err != nil {
		if c.logg != nil {
			logCtx := c.logg.WithDesignID(ctx, design.ID.String())
			c.logg.Error(logCtx, "cascade product listing failed", err)
		}
		return result, nil
	}

	var cascadeErrs error
	for i := range products {
		product := &products[i]
		itemResult := c.cascadeOne(ctx, design, product, input.ValidatorID, now)
		result.ProductResults = append(result.ProductResults, itemResult)
		c.metrics.IncCascadeProduct(string(itemResult.Outcome))
		if itemResult.Outcome == ProductOutcomeFailed {
			cascadeErrs = multierr.Append(cascadeErrs, errors.New(itemResult.Error))
		}
	}
	if cascadeErrs != nil && c.logg != nil {
		logCtx := c.logg.WithDesignID(ctx, design.ID.String())
		c.logg.Error(logCtx, "cascade completed with failures", cascadeErrs)
	}
	return result, nil
}

func (c *Coordinator) cascadeOne(ctx context.Context, design *models.Design, product *models.VendorProduct, validatorID uuid.UUID, now time.Time) ProductResult {
	event := validation.ProductEventCascadeToDraft
	action := enums.PostValidationToDraft
	if product.PostValidationAction == enums.PostValidationAutoPublish {
		event = validation.ProductEventCascadePublish
		action = enums.PostValidationAutoPublish
	}

	next, err := validation.NextProductStatus(product.Status, event)
	if err != nil {
		return ProductResult{ProductID: product.ID, Outcome: ProductOutcomeFailed, Error: err.Error()}
	}

	fromStatus := product.Status
	product.Status = next
	product.DesignValidated = true
	product.ValidatedAt = &now
	product.ValidatedBy = &validatorID

	err = c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.products.UpdateTx(ctx, tx, product); err != nil {
			return err
		}
		if fromStatus == product.Status {
			return nil
		}
		return c.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductStatusChanged,
			AggregateType: enums.AggregateVendorProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: validatorID, Role: enums.UserRoleAdmin.String()},
			Version:       1,
			Data: payloads.ProductStatusChangedEvent{
				ProductID:  product.ID,
				DesignID:   design.ID,
				VendorID:   product.VendorID,
				FromStatus: fromStatus,
				ToStatus:   product.Status,
				Action:     action.String(),
			},
		})
	})
	if err != nil {
		product.Status = fromStatus
		return ProductResult{ProductID: product.ID, Outcome: ProductOutcomeFailed, Error: err.Error()}
	}
	return ProductResult{ProductID: product.ID, Outcome: ProductOutcomeOK}
}

func (c *Coordinator) decisionEvent(design *models.Design, input DecisionInput, now time.Time) outbox.DomainEvent {
	actor := &outbox.ActorRef{UserID: input.ValidatorID, Role: enums.UserRoleAdmin.String()}
	if input.Decision == enums.ValidationDecisionApprove {
		return outbox.DomainEvent{
			EventType:     enums.EventDesignValidated,
			AggregateType: enums.AggregateDesign,
			AggregateID:   design.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.DesignValidatedEvent{
				DesignID:    design.ID,
				VendorID:    design.VendorID,
				ValidatedBy: input.ValidatorID,
				ValidatedAt: now,
			},
		}
	}
	return outbox.DomainEvent{
		EventType:     enums.EventDesignRejected,
		AggregateType: enums.AggregateDesign,
		AggregateID:   design.ID,
		Actor:         actor,
		Version:       1,
		Data: payloads.DesignRejectedEvent{
			DesignID:    design.ID,
			VendorID:    design.VendorID,
			ValidatedBy: input.ValidatorID,
			Reason:      input.Reason,
			RejectedAt:  now,
		},
	}
}

// notifyOutcome tells the design owner, plus each distinct product owner, what
// happened. Failures are logged and dropped.
func (c *Coordinator) notifyOutcome(ctx context.Context, input DecisionInput, result *DecisionResult) {
	if c.notifier == nil {
		return
	}

	design := result.Design
	kind := enums.NotificationDesignApproved
	title := "Design approved"
	message := "Your design " + design.Name + " passed review."
	if input.Decision == enums.ValidationDecisionReject {
		kind = enums.NotificationDesignRejected
		title = "Design rejected"
		message = "Your design " + design.Name + " was rejected: " + input.Reason
	}

	notified := map[uuid.UUID]bool{}
	c.notify(ctx, design.VendorID, kind, title, message)
	notified[design.VendorID] = true

	if input.Decision != enums.ValidationDecisionApprove {
		return
	}

	// Product owners can differ from the design owner when a validated design
	// is reused; each distinct owner hears about their products once.
	owners, err := c.productOwners(ctx, design.ID)
	if err != nil {
		if c.logg != nil {
			logCtx := c.logg.WithDesignID(ctx, design.ID.String())
			c.logg.Warn(logCtx, "cascade owner lookup for notifications failed")
		}
		return
	}
	for _, owner := range owners {
		if notified[owner] {
			continue
		}
		notified[owner] = true
		c.notify(ctx, owner, enums.NotificationProductUpdated, "Products updated",
			"Products using the design "+design.Name+" were updated after review.")
	}
}

func (c *Coordinator) productOwners(ctx context.Context, designID uuid.UUID) ([]uuid.UUID, error) {
	products, err := c.products.ListByDesign(ctx, designID)
	if err != nil {
		return nil, err
	}
	owners := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		owners = append(owners, product.VendorID)
	}
	return owners, nil
}

func (c *Coordinator) notify(ctx context.Context, recipientID uuid.UUID, kind enums.NotificationType, title, message string) {
	if err := c.notifier.Notify(ctx, recipientID, kind, title, message); err != nil && c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{"recipient_id": recipientID.String()})
		c.logg.Warn(logCtx, "outcome notification failed")
	}
}

func stateConflict(err error) error {
	var trErr *validation.TransitionError
	if errors.As(err, &trErr) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, trErr.Error()).WithDetails(trErr.Details())
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "illegal state transition")
}
