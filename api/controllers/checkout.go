package controllers

import (
	"net/http"

	"github.com/localbasket/localbasket-backend/api/middleware"
	"github.com/localbasket/localbasket-backend/api/responses"
	checkoutsvc "github.com/localbasket/localbasket-backend/internal/checkout"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

// Checkout converts the customer's active cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		order, err := svc.Execute(r.Context(), checkoutsvc.Input{
			CustomerID: middleware.CustomerIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
