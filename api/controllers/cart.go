package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/api/middleware"
	"github.com/localbasket/localbasket-backend/api/responses"
	"github.com/localbasket/localbasket-backend/api/validators"
	cartsvc "github.com/localbasket/localbasket-backend/internal/cart"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

type upsertCartItemRequest struct {
	ProductID          uuid.UUID `json:"product_id" validate:"required"`
	ShopID             uuid.UUID `json:"shop_id"`
	Name               string    `json:"name"`
	UnitPricePaise     int       `json:"unit_price_paise" validate:"min=0"`
	OriginalPricePaise *int      `json:"original_price_paise"`
	Quantity           int       `json:"quantity" validate:"min=0"`
	Available          *bool     `json:"available"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

type setPointsRequest struct {
	Points int `json:"points" validate:"min=0"`
}

// CartFetch returns the customer's active cart, creating one on first use.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		record, err := svc.GetActiveCart(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartUpsertItem adds or updates one cart line. Quantity zero removes it.
func CartUpsertItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload upsertCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available := true
		if payload.Available != nil {
			available = *payload.Available
		}

		record, err := svc.UpsertItem(r.Context(), middleware.CustomerIDFromContext(r.Context()), cartsvc.ItemInput{
			ProductID:          payload.ProductID,
			ShopID:             payload.ShopID,
			Name:               payload.Name,
			UnitPricePaise:     payload.UnitPricePaise,
			OriginalPricePaise: payload.OriginalPricePaise,
			Quantity:           payload.Quantity,
			Available:          available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartApplyDiscount validates and attaches a discount code to the cart,
// replacing any code already applied.
func CartApplyDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ApplyDiscount(r.Context(), middleware.CustomerIDFromContext(r.Context()), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartClearDiscount removes the applied discount code from the cart.
func CartClearDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		record, err := svc.ClearDiscount(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartSetPoints stores the number of loyalty points the customer wants to
// redeem. The quote and checkout re-cap the request against the balance.
func CartSetPoints(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload setPointsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SetPointsToRedeem(r.Context(), middleware.CustomerIDFromContext(r.Context()), payload.Points)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartQuote returns the full price breakdown for the active cart.
func CartQuote(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		quote, err := svc.Quote(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
