package controllers

import (
	"net/http"

	"github.com/localbasket/localbasket-backend/api/middleware"
	"github.com/localbasket/localbasket-backend/api/responses"
	loyaltysvc "github.com/localbasket/localbasket-backend/internal/loyalty"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

// LoyaltyAccount returns the customer's points balance and tier.
func LoyaltyAccount(svc loyaltysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		account, err := svc.GetAccount(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"customer_id":     account.CustomerID,
			"points_balance":  account.PointsBalance,
			"lifetime_points": account.LifetimePoints,
			"tier":            account.Tier,
		})
	}
}
