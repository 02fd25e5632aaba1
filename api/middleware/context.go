package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/api/responses"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

type contextKey string

const (
	ctxCustomerID contextKey = "customer_id"
	ctxShopID     contextKey = "shop_id"

	customerIDHeader = "X-Customer-Id"
	shopIDHeader     = "X-Shop-Id"
)

// ActorContext lifts the caller identity headers into the request context.
// Identity verification lives at the gateway; this service trusts the headers
// it is handed.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := r.Header.Get(customerIDHeader); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id header"))
					return
				}
				ctx = context.WithValue(ctx, ctxCustomerID, id)
				if logg != nil {
					ctx = logg.WithCustomerID(ctx, id.String())
				}
			}

			if raw := r.Header.Get(shopIDHeader); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop id header"))
					return
				}
				ctx = context.WithValue(ctx, ctxShopID, id)
				if logg != nil {
					ctx = logg.WithShopID(ctx, id.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CustomerIDFromContext returns the customer identity, or uuid.Nil when absent.
func CustomerIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxCustomerID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// ShopIDFromContext returns the shop identity, or uuid.Nil when absent.
func ShopIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxShopID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithCustomerID injects the customer identity into the context.
func WithCustomerID(ctx context.Context, customerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// WithShopID injects the shop identity into the context.
func WithShopID(ctx context.Context, shopID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxShopID, shopID)
}

// RequireCustomer rejects requests missing the customer identity header.
func RequireCustomer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CustomerIDFromContext(r.Context()) == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer context required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireShop rejects requests missing the shop identity header.
func RequireShop(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShopIDFromContext(r.Context()) == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shop context required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
