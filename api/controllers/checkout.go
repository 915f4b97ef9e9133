package controllers

import (
	"net/http"

	"github.com/kiranakart/checkout-backend/api/middleware"
	"github.com/kiranakart/checkout-backend/api/responses"
	"github.com/kiranakart/checkout-backend/api/validators"
	"github.com/kiranakart/checkout-backend/internal/cartgroup"
	"github.com/kiranakart/checkout-backend/internal/delivery"
	"github.com/kiranakart/checkout-backend/internal/order"
	"github.com/kiranakart/checkout-backend/internal/tax"
	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	"github.com/kiranakart/checkout-backend/pkg/types"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
)

type quoteRequest struct {
	Address       *types.Address   `json:"address,omitempty"`
	Lines         []types.CartLine `json:"lines"`
	DiscountPaise int64            `json:"discount_paise" validate:"min=0"`
	PaymentMethod string           `json:"payment_method" validate:"required"`
}

type taxSummary struct {
	SubtotalPaise int64 `json:"subtotal_paise"`
	CGSTPaise     int64 `json:"cgst_paise"`
	SGSTPaise     int64 `json:"sgst_paise"`
	IGSTPaise     int64 `json:"igst_paise"`
	TotalTaxPaise int64 `json:"total_tax_paise"`
	InterState    bool  `json:"inter_state"`
}

type quoteResponse struct {
	Skipped          bool                          `json:"skipped"`
	SkipReason       string                        `json:"skip_reason,omitempty"`
	FromCache        bool                          `json:"from_cache,omitempty"`
	MeaningfulChange bool                          `json:"meaningful_change,omitempty"`
	Delivery         *upstream.DeliveryQuoteResult `json:"delivery,omitempty"`
	Tax              *taxSummary                   `json:"tax,omitempty"`
	GrandTotalPaise  int64                         `json:"grand_total_paise,omitempty"`
}

// CheckoutQuote prices delivery and tax for the current cart snapshot.
func CheckoutQuote(deliverySvc *delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteHandler(deliverySvc, logg, false)
}

// CheckoutQuoteRetry is CheckoutQuote with the failed-address memo cleared
// first, for the storefront's explicit retry button.
func CheckoutQuoteRetry(deliverySvc *delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return quoteHandler(deliverySvc, logg, true)
}

func quoteHandler(deliverySvc *delivery.Service, logg *logger.Logger, retry bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deliverySvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, ok := enums.ParsePaymentMethod(payload.PaymentMethod)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method"))
			return
		}

		net := netTotal(payload.Lines) - payload.DiscountPaise
		if net < 0 {
			net = 0
		}
		in := delivery.Input{
			Address:       payload.Address,
			Lines:         payload.Lines,
			NetTotalPaise: net,
			PaymentMethod: method,
		}

		var (
			outcome delivery.Outcome
			err     error
		)
		if retry {
			outcome, err = deliverySvc.Retry(r.Context(), in)
		} else {
			outcome, err = deliverySvc.Quote(r.Context(), in)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := quoteResponse{
			Skipped:          outcome.Skipped,
			SkipReason:       string(outcome.SkipReason),
			FromCache:        outcome.FromCache,
			MeaningfulChange: outcome.MeaningfulChange,
			Delivery:         outcome.Result,
		}
		if outcome.Result != nil {
			resp.Tax, resp.GrandTotalPaise = priceSummary(payload, method, outcome.Result)
		}
		responses.WriteSuccess(w, resp)
	}
}

func priceSummary(payload quoteRequest, method enums.PaymentMethod, quote *upstream.DeliveryQuoteResult) (*taxSummary, int64) {
	sellerState := ""
	result := cartgroup.Partition(payload.Lines)
	for _, id := range result.WarehouseIDs() {
		group := result.Groups[id]
		if group.Warehouse != nil && group.Warehouse.Address != "" {
			sellerState = tax.ResolveState(group.Warehouse.Address)
			break
		}
	}
	buyerState := ""
	if payload.Address != nil {
		buyerState = payload.Address.State
	}

	taxes := tax.ComputeForStates(payload.Lines, sellerState, buyerState)
	summary := &taxSummary{
		SubtotalPaise: taxes.SubtotalPaise,
		CGSTPaise:     taxes.CGSTPaise,
		SGSTPaise:     taxes.SGSTPaise,
		IGSTPaise:     taxes.IGSTPaise,
		TotalTaxPaise: taxes.TotalTaxPaise,
		InterState:    taxes.InterState,
	}

	codPaise := int64(0)
	if method.IsCOD() {
		codPaise = quote.CODCharge
	}
	grand := order.CeilToRupee(taxes.SubtotalPaise + taxes.TotalTaxPaise - payload.DiscountPaise + quote.DeliveryCharge + codPaise)
	return summary, grand
}

func netTotal(lines []types.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.LineTotalPaise()
	}
	return total
}

type validateRequest struct {
	Address       *types.Address                `json:"address,omitempty"`
	Lines         []types.CartLine              `json:"lines"`
	PaymentMethod string                        `json:"payment_method" validate:"required"`
	Delivery      *upstream.DeliveryQuoteResult `json:"delivery,omitempty"`
}

type validateResponse struct {
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors,omitempty"`
}

// CheckoutValidate runs the submit preconditions without submitting, so the
// storefront can surface slot errors as the customer edits the cart.
func CheckoutValidate(checker *validation.Checker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "validation unavailable"))
			return
		}

		var payload validateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, ok := enums.ParsePaymentMethod(payload.PaymentMethod)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method"))
			return
		}

		errs := checker.Evaluate(validation.Input{
			PaymentMethod: method,
			Lines:         payload.Lines,
			Address:       payload.Address,
			Delivery:      payload.Delivery,
		})

		resp := validateResponse{OK: errs.OK()}
		if len(errs) > 0 {
			resp.Errors = make(map[string]string, len(errs))
			for slot, msg := range errs {
				resp.Errors[string(slot)] = msg
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

type submitRequest struct {
	Lines         []types.CartLine              `json:"lines" validate:"required,min=1"`
	Address       *types.Address                `json:"address" validate:"required"`
	PaymentMethod string                        `json:"payment_method" validate:"required"`
	Delivery      *upstream.DeliveryQuoteResult `json:"delivery" validate:"required"`
	DiscountPaise int64                         `json:"discount_paise" validate:"min=0"`
	PromoCode     string                        `json:"promo_code,omitempty"`
}

// CheckoutSubmit places the order upstream on the customer's behalf.
func CheckoutSubmit(orderSvc *order.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orderSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, ok := enums.ParsePaymentMethod(payload.PaymentMethod)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method"))
			return
		}

		result, err := orderSvc.Submit(r.Context(), order.SubmitInput{
			Bearer:        middleware.BearerFromContext(r.Context()),
			CustomerID:    middleware.CustomerIDFromContext(r.Context()),
			CustomerName:  middleware.CustomerNameFromContext(r.Context()),
			CustomerPhone: middleware.CustomerPhoneFromContext(r.Context()),
			Lines:         payload.Lines,
			Address:       payload.Address,
			PaymentMethod: method,
			Delivery:      payload.Delivery,
			DiscountPaise: payload.DiscountPaise,
			PromoCode:     payload.PromoCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
