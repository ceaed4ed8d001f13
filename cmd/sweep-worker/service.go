package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/outbox/payloads"
)

const (
	sweepJobName     = "design_sweep"
	sweepLockScope   = "sweep"
	sweepLockID      = "designs"
	defaultSweepTick = time.Hour
)

// sweepRunNamespace seeds the deterministic aggregate id for each sweep
// window so repeated runs within the same window emit one event at most.
var sweepRunNamespace = uuid.MustParse("4f1c3f8a-1f2e-4e3d-9b52-7a6f0cc2d901")

type sweeper interface {
	SweepOrphans(ctx context.Context) (int64, error)
}

type runLock interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	LockKey(scope, id string) string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Sweeper  sweeper
	Lock     runLock
	Tx       txRunner
	Events   eventEmitter
	Metrics  *metrics.JobMetrics
	Interval time.Duration
	MinAge   time.Duration
}

// Service periodically garbage-collects orphaned designs. A redis lock keyed
// by the tick window keeps concurrent worker instances from double-sweeping.
type Service struct {
	logg       *logger.Logger
	sweeper    sweeper
	lock       runLock
	tx         txRunner
	events     eventEmitter
	jobMetrics *metrics.JobMetrics
	interval   time.Duration
	minAge     time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Sweeper == nil {
		return nil, errors.New("sweeper is required")
	}
	if params.Lock == nil {
		return nil, errors.New("run lock is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Events == nil {
		return nil, errors.New("event emitter is required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultSweepTick
	}
	return &Service{
		logg:       params.Logger,
		sweeper:    params.Sweeper,
		lock:       params.Lock,
		tx:         params.Tx,
		events:     params.Events,
		jobMetrics: params.Metrics,
		interval:   interval,
		minAge:     params.MinAge,
	}, nil
}

// Run executes one sweep immediately and then once per interval until the
// context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.runOnce(ctx, time.Now().UTC()); err != nil {
		s.logg.Error(ctx, "design sweep failed", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "sweep worker context canceled")
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.runOnce(ctx, now.UTC()); err != nil {
				s.logg.Error(ctx, "design sweep failed", err)
			}
		}
	}
}

func (s *Service) runOnce(ctx context.Context, now time.Time) error {
	window := now.Truncate(s.interval)
	acquired, err := s.lock.SetNX(ctx, s.lockKey(window), "1", s.interval)
	if err != nil {
		return fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		s.logg.Info(ctx, "sweep window already claimed, skipping")
		return nil
	}

	started := time.Now()
	swept, err := s.sweeper.SweepOrphans(ctx)
	s.jobMetrics.ObserveDuration(sweepJobName, time.Since(started))
	if err != nil {
		s.jobMetrics.IncFailure(sweepJobName)
		return err
	}
	s.jobMetrics.IncSuccess(sweepJobName)

	logCtx := s.logg.WithFields(ctx, map[string]any{"swept": swept, "window": window.Format(time.RFC3339)})
	s.logg.Info(logCtx, "design sweep completed")

	if swept == 0 {
		return nil
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDesignSweepCompleted,
			AggregateType: enums.AggregateDesign,
			AggregateID:   sweepRunID(window),
			Data: payloads.DesignSweepCompletedEvent{
				SweptCount: int(swept),
				Cutoff:     now.Add(-s.minAge),
			},
		})
	})
}

func (s *Service) lockKey(window time.Time) string {
	return s.lock.LockKey(sweepLockScope, fmt.Sprintf("%s:%d", sweepLockID, window.Unix()))
}

// sweepRunID derives one aggregate id per sweep window.
func sweepRunID(window time.Time) uuid.UUID {
	return uuid.NewSHA1(sweepRunNamespace, []byte(window.Format(time.RFC3339)))
}
