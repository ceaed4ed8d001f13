package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// DesignSubmittedEvent signals a design entered the review queue.
type DesignSubmittedEvent struct {
	DesignID    uuid.UUID `json:"design_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// DesignValidatedEvent is emitted when an admin approves a design.
type DesignValidatedEvent struct {
	DesignID    uuid.UUID `json:"design_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	ValidatedBy uuid.UUID `json:"validated_by"`
	ValidatedAt time.Time `json:"validated_at"`
}

// DesignRejectedEvent is emitted when an admin rejects a design.
type DesignRejectedEvent struct {
	DesignID    uuid.UUID `json:"design_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	ValidatedBy uuid.UUID `json:"validated_by"`
	Reason      string    `json:"reason,omitempty"`
	RejectedAt  time.Time `json:"rejected_at"`
}

// ProductStatusChangedEvent reports one product moved by the cascade or a
// manual publish. Action is the cascade action name or "manual_publish".
type ProductStatusChangedEvent struct {
	ProductID  uuid.UUID           `json:"product_id"`
	DesignID   uuid.UUID           `json:"design_id"`
	VendorID   uuid.UUID           `json:"vendor_id"`
	FromStatus enums.ProductStatus `json:"from_status"`
	ToStatus   enums.ProductStatus `json:"to_status"`
	Action     string              `json:"action"`
}

// NotificationRequestedEvent tells the notification worker to write an in-app row.
type NotificationRequestedEvent struct {
	RecipientID uuid.UUID              `json:"recipient_id"`
	Type        enums.NotificationType `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Link        string                 `json:"link,omitempty"`
}

// DesignSweepCompletedEvent summarizes a garbage-collection pass over orphaned designs.
type DesignSweepCompletedEvent struct {
	SweptCount int       `json:"swept_count"`
	Cutoff     time.Time `json:"cutoff"`
}
