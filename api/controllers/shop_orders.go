package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/api/middleware"
	"github.com/localbasket/localbasket-backend/api/responses"
	"github.com/localbasket/localbasket-backend/api/validators"
	internalorders "github.com/localbasket/localbasket-backend/internal/orders"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

type itemDecisionRequest struct {
	OrderItemID      uuid.UUID `json:"order_item_id" validate:"required"`
	Available        bool      `json:"available"`
	AdjustedQuantity *int      `json:"adjusted_quantity"`
}

type reviewOrderRequest struct {
	Decisions []itemDecisionRequest `json:"decisions" validate:"required,min=1,dive"`
}

type advanceOrderRequest struct {
	Target string `json:"target" validate:"required"`
}

// ShopOrderQueue lists the shop's incoming and in-flight orders.
func ShopOrderQueue(repo internalorders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListShopOrders(r.Context(), middleware.ShopIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shop orders"))
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list, params.Limit))
	}
}

// ShopOrderReview records per-item availability decisions on a new order.
// Any unavailable item or quantity change routes the order to the customer
// for approval at the recomputed total.
func ShopOrderReview(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID.String())
		var payload reviewOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		decisions := make([]internalorders.ItemDecision, 0, len(payload.Decisions))
		for _, d := range payload.Decisions {
			decisions = append(decisions, internalorders.ItemDecision{
				OrderItemID:      d.OrderItemID,
				Available:        d.Available,
				AdjustedQuantity: d.AdjustedQuantity,
			})
		}

		order, err := svc.Review(ctx, internalorders.ReviewInput{
			OrderID:   orderID,
			ShopID:    middleware.ShopIDFromContext(ctx),
			Decisions: decisions,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ShopOrderAdvance moves an order to the requested lifecycle status.
func ShopOrderAdvance(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID.String())
		var payload advanceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Target)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		order, err := svc.AdvanceStatus(ctx, internalorders.AdvanceInput{
			OrderID: orderID,
			ShopID:  middleware.ShopIDFromContext(ctx),
			Target:  target,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
