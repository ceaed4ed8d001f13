package validation

import (
	"errors"
	"testing"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

func TestNextDesignStatusLegalEdges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from  enums.DesignStatus
		event DesignEvent
		want  enums.DesignStatus
	}{
		{enums.DesignStatusDraft, DesignEventSubmit, enums.DesignStatusPending},
		{enums.DesignStatusPending, DesignEventApprove, enums.DesignStatusValidated},
		{enums.DesignStatusPending, DesignEventReject, enums.DesignStatusRejected},
		{enums.DesignStatusRejected, DesignEventResubmit, enums.DesignStatusPending},
	}

	for _, tc := range cases {
		got, err := NextDesignStatus(tc.from, tc.event)
		if err != nil {
			t.Fatalf("NextDesignStatus(%s, %s): %v", tc.from, tc.event, err)
		}
		if got != tc.want {
			t.Fatalf("NextDesignStatus(%s, %s) = %s, want %s", tc.from, tc.event, got, tc.want)
		}
	}
}

func TestNextDesignStatusTotality(t *testing.T) {
	t.Parallel()

	legal := map[enums.DesignStatus]map[DesignEvent]bool{
		enums.DesignStatusDraft:    {DesignEventSubmit: true},
		enums.DesignStatusPending:  {DesignEventApprove: true, DesignEventReject: true},
		enums.DesignStatusRejected: {DesignEventResubmit: true},
	}

	states := []enums.DesignStatus{
		enums.DesignStatusDraft,
		enums.DesignStatusPending,
		enums.DesignStatusValidated,
		enums.DesignStatusRejected,
	}
	events := []DesignEvent{DesignEventSubmit, DesignEventApprove, DesignEventReject, DesignEventResubmit}

	for _, state := range states {
		for _, event := range events {
			_, err := NextDesignStatus(state, event)
			if legal[state][event] {
				if err != nil {
					t.Fatalf("expected (%s, %s) to be legal: %v", state, event, err)
				}
				continue
			}
			if err == nil {
				t.Fatalf("expected (%s, %s) to be illegal", state, event)
			}
			var trErr *TransitionError
			if !errors.As(err, &trErr) {
				t.Fatalf("expected TransitionError, got %T", err)
			}
			if trErr.From != state.String() || trErr.Event != event.String() {
				t.Fatalf("transition error fields mismatch: %+v", trErr)
			}
		}
	}
}

func TestValidatedDesignCannotResubmit(t *testing.T) {
	t.Parallel()

	if _, err := NextDesignStatus(enums.DesignStatusValidated, DesignEventResubmit); err == nil {
		t.Fatal("expected resubmit from validated to fail")
	}
}

func TestNextProductStatusLegalEdges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from  enums.ProductStatus
		event ProductEvent
		want  enums.ProductStatus
	}{
		{enums.ProductStatusDraft, ProductEventSubmit, enums.ProductStatusPending},
		{enums.ProductStatusDraft, ProductEventPublish, enums.ProductStatusPublished},
		{enums.ProductStatusDraft, ProductEventCascadePublish, enums.ProductStatusPublished},
		{enums.ProductStatusDraft, ProductEventCascadeToDraft, enums.ProductStatusDraft},
		{enums.ProductStatusPending, ProductEventPublish, enums.ProductStatusPublished},
		{enums.ProductStatusPending, ProductEventCascadePublish, enums.ProductStatusPublished},
		{enums.ProductStatusPending, ProductEventCascadeToDraft, enums.ProductStatusDraft},
		{enums.ProductStatusPublished, ProductEventCascadeToDraft, enums.ProductStatusDraft},
	}

	for _, tc := range cases {
		got, err := NextProductStatus(tc.from, tc.event)
		if err != nil {
			t.Fatalf("NextProductStatus(%s, %s): %v", tc.from, tc.event, err)
		}
		if got != tc.want {
			t.Fatalf("NextProductStatus(%s, %s) = %s, want %s", tc.from, tc.event, got, tc.want)
		}
	}
}

func TestPublishedProductOnlyDowngradesViaCascade(t *testing.T) {
	t.Parallel()

	for _, event := range []ProductEvent{ProductEventSubmit, ProductEventPublish, ProductEventCascadePublish} {
		if _, err := NextProductStatus(enums.ProductStatusPublished, event); err == nil {
			t.Fatalf("expected (%s, %s) to be illegal", enums.ProductStatusPublished, event)
		}
	}

	got, err := NextProductStatus(enums.ProductStatusPublished, ProductEventCascadeToDraft)
	if err != nil {
		t.Fatalf("cascade to draft from published: %v", err)
	}
	if got != enums.ProductStatusDraft {
		t.Fatalf("expected draft, got %s", got)
	}
}

func TestRejectedProductHasNoOutgoingEdges(t *testing.T) {
	t.Parallel()

	for _, event := range []ProductEvent{ProductEventSubmit, ProductEventPublish, ProductEventCascadePublish, ProductEventCascadeToDraft} {
		if _, err := NextProductStatus(enums.ProductStatusRejected, event); err == nil {
			t.Fatalf("expected (%s, %s) to be illegal", enums.ProductStatusRejected, event)
		}
	}
}

func TestTransitionErrorDetails(t *testing.T) {
	t.Parallel()

	_, err := NextDesignStatus(enums.DesignStatusDraft, DesignEventApprove)
	var trErr *TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	details := trErr.Details()
	if details["entity"] != "design" || details["from"] != "draft" || details["event"] != "approve" {
		t.Fatalf("unexpected details: %v", details)
	}
}
