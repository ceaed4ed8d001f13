// Package validation encodes the legal lifecycle transitions for designs and
// vendor products. The tables here are the single source of truth: callers
// compute the next state through NextDesignStatus/NextProductStatus and never
// assign statuses directly.
package validation

import (
	"fmt"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// DesignEvent names a moderation-axis transition for a design.
type DesignEvent string

const (
	DesignEventSubmit   DesignEvent = "submit"
	DesignEventApprove  DesignEvent = "approve"
	DesignEventReject   DesignEvent = "reject"
	DesignEventResubmit DesignEvent = "resubmit"
)

func (e DesignEvent) String() string {
	return string(e)
}

// ProductEvent names a publication-axis transition for a vendor product.
type ProductEvent string

const (
	ProductEventSubmit         ProductEvent = "submit"
	ProductEventPublish        ProductEvent = "publish"
	ProductEventCascadePublish ProductEvent = "cascade_publish"
	ProductEventCascadeToDraft ProductEvent = "cascade_to_draft"
)

func (e ProductEvent) String() string {
	return string(e)
}

// TransitionError reports an illegal (state, event) pair. No state is mutated
// when one is returned.
type TransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: cannot apply %q from state %q", e.Entity, e.Event, e.From)
}

// Details returns the structured fields surfaced to API clients.
func (e *TransitionError) Details() map[string]any {
	return map[string]any{
		"entity": e.Entity,
		"from":   e.From,
		"event":  e.Event,
	}
}

var designTransitions = map[enums.DesignStatus]map[DesignEvent]enums.DesignStatus{
	enums.DesignStatusDraft: {
		DesignEventSubmit: enums.DesignStatusPending,
	},
	enums.DesignStatusPending: {
		DesignEventApprove: enums.DesignStatusValidated,
		DesignEventReject:  enums.DesignStatusRejected,
	},
	enums.DesignStatusRejected: {
		DesignEventResubmit: enums.DesignStatusPending,
	},
}

// NextDesignStatus returns the state a design moves to when event fires, or a
// TransitionError when the edge is not in the guard table.
func NextDesignStatus(from enums.DesignStatus, event DesignEvent) (enums.DesignStatus, error) {
	if targets, ok := designTransitions[from]; ok {
		if next, ok := targets[event]; ok {
			return next, nil
		}
	}
	return "", &TransitionError{Entity: "design", From: from.String(), Event: event.String()}
}

// Published products may only move back to draft through the cascade's
// to-draft action; vendors cannot un-publish directly.
var productTransitions = map[enums.ProductStatus]map[ProductEvent]enums.ProductStatus{
	enums.ProductStatusDraft: {
		ProductEventSubmit:         enums.ProductStatusPending,
		ProductEventPublish:        enums.ProductStatusPublished,
		ProductEventCascadePublish: enums.ProductStatusPublished,
		ProductEventCascadeToDraft: enums.ProductStatusDraft,
	},
	enums.ProductStatusPending: {
		ProductEventPublish:        enums.ProductStatusPublished,
		ProductEventCascadePublish: enums.ProductStatusPublished,
		ProductEventCascadeToDraft: enums.ProductStatusDraft,
	},
	enums.ProductStatusPublished: {
		ProductEventCascadeToDraft: enums.ProductStatusDraft,
	},
}

// NextProductStatus returns the state a product moves to when event fires, or
// a TransitionError when the edge is not in the guard table. Publish events
// additionally require the product's design to be validated; that guard lives
// with the callers because it depends on the linked design row.
func NextProductStatus(from enums.ProductStatus, event ProductEvent) (enums.ProductStatus, error) {
	if targets, ok := productTransitions[from]; ok {
		if next, ok := targets[event]; ok {
			return next, nil
		}
	}
	return "", &TransitionError{Entity: "vendor_product", From: from.String(), Event: event.String()}
}
