package controllers

import (
	"net/http"

	"github.com/kiranakart/checkout-backend/api/middleware"
	"github.com/kiranakart/checkout-backend/api/responses"
	"github.com/kiranakart/checkout-backend/api/validators"
	promosvc "github.com/kiranakart/checkout-backend/internal/promo"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/logger"
)

type promoValidateRequest struct {
	Code          string `json:"code" validate:"required"`
	CartTotal     int64  `json:"cart_total_paise" validate:"min=0"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// PromoValidate checks a promo code against the current cart.
func PromoValidate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		var payload promoValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.Validate(r.Context(), promosvc.ValidateRequest{
			Code:          payload.Code,
			CustomerID:    middleware.CustomerIDFromContext(r.Context()),
			CartTotal:     payload.CartTotal,
			PaymentMethod: payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discount)
	}
}
