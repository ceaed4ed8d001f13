package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printhaus/printhaus-backend/api/responses"
	"github.com/printhaus/printhaus-backend/api/validators"
	"github.com/printhaus/printhaus-backend/internal/vendorproducts"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
)

type placementBody struct {
	ImageIndex      int     `json:"image_index" validate:"min=0"`
	OffsetX         float64 `json:"offset_x"`
	OffsetY         float64 `json:"offset_y"`
	Scale           float64 `json:"scale" validate:"required"`
	RotationDeg     float64 `json:"rotation_deg"`
	NaturalWidthPx  int     `json:"natural_width_px" validate:"required,min=1"`
	NaturalHeightPx int     `json:"natural_height_px" validate:"required,min=1"`
}

type productCreateBody struct {
	DesignID             string          `json:"design_id" validate:"required,uuid"`
	CatalogProductID     string          `json:"catalog_product_id" validate:"required,uuid"`
	Name                 string          `json:"name" validate:"required,min=1,max=200"`
	Description          *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price                decimal.Decimal `json:"price" validate:"required"`
	StockQty             int             `json:"stock_qty" validate:"min=0"`
	Colors               []string        `json:"colors,omitempty"`
	Sizes                []string        `json:"sizes,omitempty"`
	PostValidationAction string          `json:"post_validation_action" validate:"required"`
	Placements           []placementBody `json:"placements,omitempty" validate:"omitempty,dive"`
}

type productUpdateBody struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	StockQty    *int             `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	Colors      []string         `json:"colors,omitempty"`
	Sizes       []string         `json:"sizes,omitempty"`
	Placements  []placementBody  `json:"placements,omitempty" validate:"omitempty,dive"`
}

func placementInputs(bodies []placementBody) []vendorproducts.PlacementInput {
	if bodies == nil {
		return nil
	}
	placements := make([]vendorproducts.PlacementInput, 0, len(bodies))
	for _, b := range bodies {
		placements = append(placements, vendorproducts.PlacementInput{
			ImageIndex:      b.ImageIndex,
			OffsetX:         b.OffsetX,
			OffsetY:         b.OffsetY,
			Scale:           b.Scale,
			RotationDeg:     b.RotationDeg,
			NaturalWidthPx:  b.NaturalWidthPx,
			NaturalHeightPx: b.NaturalHeightPx,
		})
	}
	return placements
}

// ProductCreate builds a vendor product on top of a design and catalog base.
func ProductCreate(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productCreateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParsePostValidationAction(body.PostValidationAction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid post_validation_action"))
			return
		}

		designID, err := uuid.Parse(body.DesignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid design_id"))
			return
		}
		catalogID, err := uuid.Parse(body.CatalogProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catalog_product_id"))
			return
		}

		product, err := svc.Create(r.Context(), vendorproducts.CreateInput{
			VendorID:             vendorID,
			DesignID:             designID,
			CatalogProductID:     catalogID,
			Name:                 body.Name,
			Description:          body.Description,
			Price:                body.Price,
			StockQty:             body.StockQty,
			Colors:               body.Colors,
			Sizes:                body.Sizes,
			PostValidationAction: action,
			Placements:           placementInputs(body.Placements),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate edits an unpublished vendor product.
func ProductUpdate(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productUpdateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), vendorID, productID, vendorproducts.UpdateInput{
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price,
			StockQty:    body.StockQty,
			Colors:      body.Colors,
			Sizes:       body.Sizes,
			Placements:  placementInputs(body.Placements),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductPublish manually publishes a product whose design is validated.
func ProductPublish(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Publish(r.Context(), vendorID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductGet returns one of the vendor's products.
func ProductGet(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), vendorID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductList returns the vendor's products with optional status filtering.
func ProductList(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := vendorproducts.ListParams{
			VendorID: vendorID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDelete soft deletes a vendor product.
func ProductDelete(svc vendorproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), vendorID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
