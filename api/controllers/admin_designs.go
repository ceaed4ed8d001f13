package controllers

import (
	"net/http"
	"strings"

	"github.com/printhaus/printhaus-backend/api/responses"
	"github.com/printhaus/printhaus-backend/api/validators"
	"github.com/printhaus/printhaus-backend/internal/designs"
	"github.com/printhaus/printhaus-backend/internal/publication"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/pagination"
)

type decisionBody struct {
	Decision string `json:"decision" validate:"required"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=2000"`
}

// AdminPendingDesigns lists designs awaiting review, oldest first.
func AdminPendingDesigns(svc designs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPendingReview(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminDesignDecision applies an approve or reject decision and reports the
// per-product cascade outcome.
func AdminDesignDecision(coordinator *publication.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		validatorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		designID, err := pathID(r, "designId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body decisionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseValidationDecision(body.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		result, err := coordinator.ApplyDecision(r.Context(), publication.DecisionInput{
			DesignID:    designID,
			Decision:    decision,
			ValidatorID: validatorID,
			Reason:      strings.TrimSpace(body.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
