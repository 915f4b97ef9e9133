package upstream

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
)

// noWarehouseMarker is the substring the pricing endpoint embeds when no
// warehouse serves the customer's pincode. It is load-bearing: the storefront
// opens a dedicated "delivery unavailable" dialog for this case instead of a
// generic toast.
const noWarehouseMarker = "no warehouse available"

// DeliveryQuoteRequest is the payload the delivery pricing endpoint expects.
type DeliveryQuoteRequest struct {
	Lat           float64             `json:"lat"`
	Lng           float64             `json:"lng"`
	CartTotal     int64               `json:"cart_total_paise"`
	PaymentMethod string              `json:"payment_method"`
	WarehouseID   string              `json:"warehouse_id"`
	Pincode       string              `json:"pincode"`
	Items         []DeliveryQuoteItem `json:"items"`
}

// DeliveryQuoteItem is the line snapshot sent alongside a quote request.
type DeliveryQuoteItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// WarehouseSettings is the warehouse delivery configuration snapshot returned
// with each quote.
type WarehouseSettings struct {
	WarehouseID       string  `json:"warehouse_id"`
	WarehouseName     string  `json:"warehouse_name"`
	IsDeliveryEnabled *bool   `json:"is_delivery_enabled,omitempty"`
	Is24x7Delivery    bool    `json:"is_24x7_delivery"`
	FreeDeliveryMin   int64   `json:"free_delivery_min_paise"`
	DeliveryRadiusKM  float64 `json:"delivery_radius_km"`
}

// DeliveryQuoteResult carries the priced delivery outcome.
type DeliveryQuoteResult struct {
	DistanceKM           float64           `json:"distance_km"`
	DurationMinutes      int               `json:"duration_minutes"`
	DeliveryCharge       int64             `json:"delivery_charge_paise"`
	CODCharge            int64             `json:"cod_charge_paise"`
	TotalCharge          int64             `json:"total_charge_paise"`
	IsFreeDelivery       bool              `json:"is_free_delivery"`
	FreeDeliveryMin      int64             `json:"free_delivery_min_paise"`
	AmountToFreeDelivery int64             `json:"amount_to_free_delivery_paise"`
	CalculationMethod    string            `json:"calculation_method"`
	Warehouse            WarehouseSettings `json:"warehouse"`
}

type deliveryQuoteEnvelope struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Result  *DeliveryQuoteResult `json:"result,omitempty"`
}

// DeliveryQuote prices delivery for the given address/cart tuple. A
// business-level refusal with the no-warehouse marker maps to
// CodeDeliveryUnavailable; every other refusal maps to CodeDependency.
func (c *Client) DeliveryQuote(ctx context.Context, req DeliveryQuoteRequest) (*DeliveryQuoteResult, error) {
	var envelope deliveryQuoteEnvelope
	if err := c.do(ctx, http.MethodPost, "/internal/v1/delivery/price", "", req, &envelope); err != nil {
		return nil, err
	}

	if !envelope.Success {
		if strings.Contains(strings.ToLower(envelope.Error), noWarehouseMarker) {
			return nil, pkgerrors.New(pkgerrors.CodeDeliveryUnavailable, envelope.Error).WithDetails(map[string]any{
				"pincode": req.Pincode,
			})
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery pricing rejected: "+envelope.Error)
	}
	if envelope.Result == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery pricing returned no result")
	}
	return envelope.Result, nil
}
