package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/outbox/payloads"
)

type fakeSweeper struct {
	swept int64
	err   error
	calls int
}

func (f *fakeSweeper) SweepOrphans(ctx context.Context) (int64, error) {
	f.calls++
	return f.swept, f.err
}

type fakeLock struct {
	acquired bool
	err      error
	keys     []string
}

func (f *fakeLock) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.acquired, f.err
}

func (f *fakeLock) LockKey(scope, id string) string {
	return fmt.Sprintf("ph:lock:%s:%s", scope, id)
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func newSweepService(t *testing.T, sw *fakeSweeper, lock *fakeLock, emitter *fakeEmitter) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "sweep-test", Output: io.Discard}),
		Sweeper:  sw,
		Lock:     lock,
		Tx:       fakeTx{},
		Events:   emitter,
		Interval: time.Hour,
		MinAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func TestRunOnceSweepsAndEmits(t *testing.T) {
	sw := &fakeSweeper{swept: 3}
	lock := &fakeLock{acquired: true}
	emitter := &fakeEmitter{}
	service := newSweepService(t, sw, lock, emitter)

	now := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	if err := service.runOnce(context.Background(), now); err != nil {
		t.Fatalf("runOnce returned error: %v", err)
	}

	if sw.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", sw.calls)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one emitted event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventDesignSweepCompleted {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.DesignSweepCompletedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.SweptCount != 3 {
		t.Fatalf("unexpected swept count %d", payload.SweptCount)
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	sw := &fakeSweeper{swept: 5}
	lock := &fakeLock{acquired: false}
	emitter := &fakeEmitter{}
	service := newSweepService(t, sw, lock, emitter)

	if err := service.runOnce(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("runOnce returned error: %v", err)
	}
	if sw.calls != 0 {
		t.Fatalf("expected no sweep when lock is held, got %d calls", sw.calls)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events when lock is held")
	}
}

func TestRunOnceNoEventWhenNothingSwept(t *testing.T) {
	sw := &fakeSweeper{swept: 0}
	lock := &fakeLock{acquired: true}
	emitter := &fakeEmitter{}
	service := newSweepService(t, sw, lock, emitter)

	if err := service.runOnce(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("runOnce returned error: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no event for an empty sweep")
	}
}

func TestRunOnceReportsSweepError(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("db down")}
	lock := &fakeLock{acquired: true}
	emitter := &fakeEmitter{}
	service := newSweepService(t, sw, lock, emitter)

	if err := service.runOnce(context.Background(), time.Now().UTC()); err == nil {
		t.Fatalf("expected sweep error to propagate")
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no event after a failed sweep")
	}
}

func TestSweepRunIDIsStablePerWindow(t *testing.T) {
	window := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	if sweepRunID(window) != sweepRunID(window) {
		t.Fatalf("expected deterministic run id for the same window")
	}
	if sweepRunID(window) == sweepRunID(window.Add(time.Hour)) {
		t.Fatalf("expected distinct run ids across windows")
	}
}
