package designs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/internal/validation"
	"github.com/printhaus/printhaus-backend/pkg/assets"
	dbpkg "github.com/printhaus/printhaus-backend/pkg/db"
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

type assetStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error
	ObjectURL(bucket, object string) string
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the design lifecycle from upload through moderation hand-off.
type Service interface {
	ResolveOrCreate(ctx context.Context, input ResolveInput) (*ResolveResult, error)
	SubmitForValidation(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error)
	Resubmit(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error)
	UpdateMetadata(ctx context.Context, vendorID, designID uuid.UUID, input UpdateInput) (*models.Design, error)
	Get(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListPendingReview(ctx context.Context, params pagination.Params) (*ListResult, error)
	Delete(ctx context.Context, vendorID, designID uuid.UUID) error
	SweepOrphans(ctx context.Context) (int64, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	store       assetStore
	events      eventEmitter
	logg        *logger.Logger
	bucket      string
	maxBytes    int64
	minWidthPx  int
	minHeightPx int
	sweepMinAge time.Duration
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Store       assetStore
	Events      eventEmitter
	Logger      *logger.Logger
	Bucket      string
	MaxUploadMB int
	MinWidthPx  int
	MinHeightPx int
	SweepMinAge time.Duration
}

// NewService wires the design service dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "designs repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "asset store required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	if params.Bucket == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "asset bucket required")
	}
	if params.MaxUploadMB <= 0 {
		params.MaxUploadMB = 25
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		store:       params.Store,
		events:      params.Events,
		logg:        params.Logger,
		bucket:      params.Bucket,
		maxBytes:    int64(params.MaxUploadMB) * 1024 * 1024,
		minWidthPx:  params.MinWidthPx,
		minHeightPx: params.MinHeightPx,
		sweepMinAge: params.SweepMinAge,
	}, nil
}

// ResolveInput models an upload request: the decoded bytes plus metadata.
type ResolveInput struct {
	VendorID    uuid.UUID
	Name        string
	Description *string
	Category    enums.DesignCategory
	Tags        []string
	Payload     []byte
}

// ResolveResult reports the resolved design and whether a new row was created.
type ResolveResult struct {
	Design     *models.Design `json:"design"`
	WasCreated bool           `json:"was_created"`
}

// ListParams configures vendor design listing.
type ListParams struct {
	VendorID uuid.UUID
	Status   enums.DesignStatus
	Limit    int
	Cursor   string
}

// ListResult wraps returned designs and the cursor for the next page.
type ListResult struct {
	Items  []models.Design `json:"items"`
	Cursor string          `json:"cursor"`
}

// UpdateInput carries the vendor-editable metadata fields. Nil pointers leave
// the current value untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Tags        []string
}

// ResolveOrCreate fingerprints the payload and either reuses the existing
// design with that hash or creates a new draft row after storing the asset.
func (s *service) ResolveOrCreate(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Category == "" || !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid design category")
	}
	if len(input.Payload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAsset, "design payload is empty")
	}
	if int64(len(input.Payload)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAsset, fmt.Sprintf("design payload exceeds %d bytes", s.maxBytes))
	}

	info, err := assets.Probe(input.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAsset, err, "probe design payload")
	}
	if info.WidthPx < s.minWidthPx || info.HeightPx < s.minHeightPx {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAsset,
			fmt.Sprintf("image must be at least %dx%d px", s.minWidthPx, s.minHeightPx))
	}

	hash, err := assets.Fingerprint(input.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAsset, err, "fingerprint design payload")
	}

	existing, err := s.repo.FindByContentHash(ctx, hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup design by hash")
	}
	if existing != nil {
		return &ResolveResult{Design: existing, WasCreated: false}, nil
	}

	storageKey := fmt.Sprintf("designs/%s.%s", hash, info.Format)
	if err := s.store.Upload(ctx, s.bucket, storageKey, info.MimeType, input.Payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store design asset")
	}

	design := &models.Design{
		VendorID:    input.VendorID,
		Name:        name,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    s.store.ObjectURL(s.bucket, storageKey),
		StorageKey:  storageKey,
		ContentHash: hash,
		WidthPx:     info.WidthPx,
		HeightPx:    info.HeightPx,
		FileFormat:  info.Format,
		Tags:        normalizeTags(input.Tags),
		Status:      enums.DesignStatusDraft,
	}

	if err := s.repo.Create(ctx, design); err != nil {
		// A concurrent upload of the same bytes can win the insert race; the
		// unique index makes this loser re-read the winner's row.
		if dbpkg.IsUniqueViolation(err, "ux_designs_content_hash_live") {
			winner, lookupErr := s.repo.FindByContentHash(ctx, hash)
			if lookupErr == nil && winner != nil {
				return &ResolveResult{Design: winner, WasCreated: false}, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist design")
	}

	if s.logg != nil {
		logCtx := s.logg.WithDesignID(ctx, design.ID.String())
		s.logg.Info(logCtx, "design created")
	}
	return &ResolveResult{Design: design, WasCreated: true}, nil
}

// SubmitForValidation moves a draft design into the moderation queue.
func (s *service) SubmitForValidation(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error) {
	return s.transition(ctx, vendorID, designID, validation.DesignEventSubmit)
}

// Resubmit returns a rejected design to the moderation queue, clearing the
// previous decision.
func (s *service) Resubmit(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error) {
	return s.transition(ctx, vendorID, designID, validation.DesignEventResubmit)
}

func (s *service) transition(ctx context.Context, vendorID, designID uuid.UUID, event validation.DesignEvent) (*models.Design, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if designID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "design id required")
	}

	design, err := s.loadOwned(ctx, vendorID, designID)
	if err != nil {
		return nil, err
	}

	next, err := validation.NextDesignStatus(design.Status, event)
	if err != nil {
		return nil, stateConflict(err)
	}

	now := time.Now().UTC()
	design.Status = next
	design.SubmittedAt = &now
	design.RejectionReason = nil
	design.ValidatedAt = nil
	design.ValidatedBy = nil

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, design); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDesignSubmitted,
			AggregateType: enums.AggregateDesign,
			AggregateID:   design.ID,
			Actor:         &outbox.ActorRef{UserID: vendorID, Role: enums.UserRoleVendor.String()},
			Version:       1,
			Data: payloads.DesignSubmittedEvent{
				DesignID:    design.ID,
				VendorID:    design.VendorID,
				SubmittedAt: now,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist design submission")
	}
	return design, nil
}

// UpdateMetadata lets the owning vendor edit name/description/tags while the
// design has not been validated yet.
func (s *service) UpdateMetadata(ctx context.Context, vendorID, designID uuid.UUID, input UpdateInput) (*models.Design, error) {
	design, err := s.loadOwned(ctx, vendorID, designID)
	if err != nil {
		return nil, err
	}
	if design.Status != enums.DesignStatusDraft && design.Status != enums.DesignStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "design metadata is frozen after moderation").
			WithDetails(map[string]any{"entity": "design", "from": design.Status.String(), "event": "edit"})
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		design.Name = name
	}
	if input.Description != nil {
		design.Description = input.Description
	}
	if input.Tags != nil {
		design.Tags = normalizeTags(input.Tags)
	}

	if err := s.repo.Update(ctx, design); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update design")
	}
	return design, nil
}

func (s *service) Get(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error) {
	return s.loadOwned(ctx, vendorID, designID)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid design status filter")
	}

	query := listDesignsParams{
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list designs")
	}
	return listResult(rows, next), nil
}

func (s *service) ListPendingReview(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query := listPendingParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListPendingReview(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending designs")
	}
	return listResult(rows, next), nil
}

func (s *service) Delete(ctx context.Context, vendorID, designID uuid.UUID) error {
	if vendorID == uuid.Nil || designID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id and design id required")
	}
	found, err := s.repo.SoftDelete(ctx, designID, vendorID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete design")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	return nil
}

// SweepOrphans hard-deletes designs that were soft-deleted longer than the
// configured age ago and are no longer referenced by any live product.
func (s *service) SweepOrphans(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.sweepMinAge)
	count, err := s.repo.SweepUnreferenced(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep orphaned designs")
	}
	if s.logg != nil && count > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"swept": count})
		s.logg.Info(logCtx, "orphaned designs removed")
	}
	return count, nil
}

func (s *service) loadOwned(ctx context.Context, vendorID, designID uuid.UUID) (*models.Design, error) {
	design, err := s.repo.FindByID(ctx, designID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load design")
	}
	if design == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "design not found")
	}
	if vendorID != uuid.Nil && design.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "design belongs to another vendor")
	}
	return design, nil
}

func listResult(rows []models.Design, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}
}

func stateConflict(err error) error {
	var trErr *validation.TransitionError
	if errors.As(err, &trErr) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, trErr.Error()).WithDetails(trErr.Details())
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "illegal state transition")
}

func normalizeTags(tags []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
