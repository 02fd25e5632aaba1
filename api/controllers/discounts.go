package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/api/responses"
	discountsvc "github.com/localbasket/localbasket-backend/internal/discounts"
	pkgerrors "github.com/localbasket/localbasket-backend/pkg/errors"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

// DiscountPreview resolves a code without applying it, so the storefront can
// show the percentage before the customer commits.
func DiscountPreview(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code query parameter required"))
			return
		}

		shopID := uuid.Nil
		if raw := strings.TrimSpace(r.URL.Query().Get("shop_id")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop id"))
				return
			}
			shopID = parsed
		}

		record, err := svc.Validate(r.Context(), code, shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"code":        record.Code,
			"percentage":  record.Percentage,
			"description": record.Description,
		})
	}
}
