package upstream

import (
	"context"
	"net/http"

	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/types"
)

// OrderLine is the denormalized line snapshot included in an order payload.
type OrderLine struct {
	ProductID        string  `json:"product_id"`
	VariantID        string  `json:"variant_id,omitempty"`
	Name             string  `json:"name"`
	UnitPricePaise   int64   `json:"unit_price_paise"`
	Quantity         int     `json:"quantity"`
	TaxRate          float64 `json:"tax_rate,omitempty"`
	TaxName          string  `json:"tax_name,omitempty"`
	PriceIncludesTax bool    `json:"price_includes_tax"`
	WarehouseID      string  `json:"warehouse_id"`
}

// OrderPayload is the write-once object posted to order creation. It is
// assembled exactly once per submission and never mutated afterwards.
type OrderPayload struct {
	CustomerID      string        `json:"customer_id"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	Lines           []OrderLine   `json:"lines"`
	Address         types.Address `json:"address"`
	PaymentMethod   string        `json:"payment_method"`
	WarehouseID     string        `json:"warehouse_id"`
	WarehouseName   string        `json:"warehouse_name,omitempty"`
	SubtotalPaise   int64         `json:"subtotal_paise"`
	DiscountPaise   int64         `json:"discount_paise"`
	TaxPaise        int64         `json:"tax_paise"`
	DeliveryPaise   int64         `json:"delivery_paise"`
	CODChargePaise  int64         `json:"cod_charge_paise"`
	GrandTotalPaise int64         `json:"grand_total_paise"`
	PromoCode       string        `json:"promo_code,omitempty"`
}

// CreatedOrder is the order creation response used by the success screen.
type CreatedOrder struct {
	OrderID         string `json:"order_id"`
	GrandTotalPaise int64  `json:"grand_total_paise"`
	ETAMinutes      int    `json:"eta_minutes"`
}

type createOrderEnvelope struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Order   *CreatedOrder `json:"order,omitempty"`
}

// CreateOrder posts the payload on behalf of the customer's bearer token.
func (c *Client) CreateOrder(ctx context.Context, bearer string, payload OrderPayload) (*CreatedOrder, error) {
	if bearer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer token is required to place an order")
	}

	var envelope createOrderEnvelope
	if err := c.do(ctx, http.MethodPost, "/internal/v1/orders", bearer, payload, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order creation rejected: "+envelope.Error)
	}
	return envelope.Order, nil
}
