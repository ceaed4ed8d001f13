package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDesign        OutboxAggregateType = "design"
	AggregateVendorProduct OutboxAggregateType = "vendor_product"
	AggregateNotification  OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDesign,
	AggregateVendorProduct,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventDesignSubmitted        OutboxEventType = "design_submitted"
	EventDesignValidated        OutboxEventType = "design_validated"
	EventDesignRejected         OutboxEventType = "design_rejected"
	EventProductStatusChanged   OutboxEventType = "product_status_changed"
	EventNotificationRequested  OutboxEventType = "notification_requested"
	EventDesignSweepCompleted   OutboxEventType = "design_sweep_completed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventDesignSubmitted,
	EventDesignValidated,
	EventDesignRejected,
	EventProductStatusChanged,
	EventNotificationRequested,
	EventDesignSweepCompleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
