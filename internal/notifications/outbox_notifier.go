package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OutboxNotifier enqueues notification_requested events through the outbox so
// delivery survives process crashes. The notification worker turns each event
// into an in-app row.
type OutboxNotifier struct {
	tx     txRunner
	events eventEmitter
}

// NewOutboxNotifier wires the outbox-backed notifier.
func NewOutboxNotifier(tx txRunner, events eventEmitter) (*OutboxNotifier, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	return &OutboxNotifier{tx: tx, events: events}, nil
}

// Notify records a pending notification for the recipient.
func (n *OutboxNotifier) Notify(ctx context.Context, recipientID uuid.UUID, kind enums.NotificationType, title, message string) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}
	if title == "" || message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and message required")
	}

	return n.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return n.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   recipientID,
			Version:       1,
			Data: payloads.NotificationRequestedEvent{
				RecipientID: recipientID,
				Type:        kind,
				Title:       title,
				Message:     message,
			},
		})
	})
}
