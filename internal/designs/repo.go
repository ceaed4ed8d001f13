package designs

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

// Repository exposes persistence helpers for designs. Soft-deleted rows are
// invisible to every lookup except the sweep.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, design *models.Design) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
	FindByContentHash(ctx context.Context, hash string) (*models.Design, error)
	Update(ctx context.Context, design *models.Design) error
	UpdateTx(ctx context.Context, tx *gorm.DB, design *models.Design) error
	ListByVendor(ctx context.Context, params listDesignsParams) ([]models.Design, *pagination.Cursor, error)
	ListPendingReview(ctx context.Context, params listPendingParams) ([]models.Design, *pagination.Cursor, error)
	SoftDelete(ctx context.Context, id, vendorID uuid.UUID, now time.Time) (bool, error)
	SweepUnreferenced(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a designs repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listDesignsParams struct {
	VendorID uuid.UUID
	Status   enums.DesignStatus
	Limit    int
	Cursor   *pagination.Cursor
}

type listPendingParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, design *models.Design) error {
	return r.db.WithContext(ctx).Create(design).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	var design models.Design
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&design).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &design, nil
}

// FindByContentHash implements the dedup contract: draft, pending and
// validated live rows count as duplicates. Rejected or deleted designs never
// block a re-upload.
func (r *repositoryImpl) FindByContentHash(ctx context.Context, hash string) (*models.Design, error) {
	var design models.Design
	err := r.db.WithContext(ctx).
		Where("content_hash = ? AND status IN ? AND deleted_at IS NULL",
			hash,
			[]enums.DesignStatus{enums.DesignStatusDraft, enums.DesignStatusPending, enums.DesignStatusValidated},
		).
		Order("created_at ASC").
		First(&design).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &design, nil
}

func (r *repositoryImpl) Update(ctx context.Context, design *models.Design) error {
	return r.db.WithContext(ctx).Save(design).Error
}

func (r *repositoryImpl) UpdateTx(ctx context.Context, tx *gorm.DB, design *models.Design) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.WithContext(ctx).Save(design).Error
}

func (r *repositoryImpl) ListByVendor(ctx context.Context, params listDesignsParams) ([]models.Design, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Design{}).
		Where("vendor_id = ? AND deleted_at IS NULL", params.VendorID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var designs []models.Design
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&designs).Error; err != nil {
		return nil, nil, err
	}

	if len(designs) > normalized {
		designs = designs[:normalized]
		last := designs[normalized-1]
		return designs, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return designs, nil, nil
}

// ListPendingReview returns the admin moderation queue, oldest submission first.
func (r *repositoryImpl) ListPendingReview(ctx context.Context, params listPendingParams) ([]models.Design, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Design{}).
		Where("status = ? AND deleted_at IS NULL", enums.DesignStatusPending)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var designs []models.Design
	if err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&designs).Error; err != nil {
		return nil, nil, err
	}

	if len(designs) > normalized {
		designs = designs[:normalized]
		last := designs[normalized-1]
		return designs, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return designs, nil, nil
}

func (r *repositoryImpl) SoftDelete(ctx context.Context, id, vendorID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Design{}).
		Where("id = ? AND vendor_id = ? AND deleted_at IS NULL", id, vendorID).
		UpdateColumn("deleted_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SweepUnreferenced hard-deletes designs that were soft-deleted before cutoff
// and have no live vendor product pointing at them. Referenced designs are
// never removed regardless of age.
func (r *repositoryImpl) SweepUnreferenced(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM vendor_products vp WHERE vp.design_id = designs.id AND vp.deleted_at IS NULL)").
		Delete(&models.Design{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
