package controllers

import (
	"net/http"
	"strings"

	"github.com/kiranakart/checkout-backend/api/middleware"
	"github.com/kiranakart/checkout-backend/api/responses"
	"github.com/kiranakart/checkout-backend/api/validators"
	addresssvc "github.com/kiranakart/checkout-backend/internal/address"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/logger"
)

const maxSuggestQueryLen = 120

// AddressList returns the customer's saved addresses with the checkout
// session's active selection marked.
func AddressList(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		addresses, err := svc.List(r.Context(), middleware.BearerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := addresssvc.SelectActive(addresses)
		var activeID *int64
		if active != nil {
			activeID = &active.ID
		}
		responses.WriteSuccess(w, map[string]any{
			"addresses":         addresses,
			"active_address_id": activeID,
		})
	}
}

// AddressCreate saves a new address to the upstream address book.
func AddressCreate(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		var payload addresssvc.CreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), middleware.BearerFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AddressSuggest autocompletes address input against the places API.
func AddressSuggest(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSuggestQueryLen)
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}

		suggestions, err := svc.Suggest(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"suggestions": suggestions})
	}
}

// AddressResolve expands a place suggestion into a prefilled address form.
func AddressResolve(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		placeID := strings.TrimSpace(r.URL.Query().Get("place_id"))
		if placeID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter place_id is required"))
			return
		}

		resolved, err := svc.Resolve(r.Context(), placeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
