package upstream

import (
	"context"
	"net/http"

	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
)

// PromoValidateRequest carries the code plus the cart snapshot used to check
// eligibility.
type PromoValidateRequest struct {
	Code          string `json:"code"`
	CustomerID    string `json:"customer_id"`
	CartTotal     int64  `json:"cart_total_paise"`
	PaymentMethod string `json:"payment_method"`
}

// PromoDiscount is the validated discount.
type PromoDiscount struct {
	Code          string `json:"code"`
	DiscountPaise int64  `json:"discount_paise"`
	DiscountType  string `json:"discount_type"`
}

type promoEnvelope struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Discount *PromoDiscount `json:"discount,omitempty"`
}

// ValidatePromo checks a promo code against the cart snapshot.
func (c *Client) ValidatePromo(ctx context.Context, req PromoValidateRequest) (*PromoDiscount, error) {
	var envelope promoEnvelope
	if err := c.do(ctx, http.MethodPost, "/internal/v1/promo/validate", "", req, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Discount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code rejected: "+envelope.Error)
	}
	return envelope.Discount, nil
}

// ApplyPromo records a redemption against the created order. Callers treat
// failures as best-effort; a redemption miss never rolls back an order.
func (c *Client) ApplyPromo(ctx context.Context, code, customerID, orderID string) error {
	payload := map[string]string{
		"code":        code,
		"customer_id": customerID,
		"order_id":    orderID,
	}
	return c.do(ctx, http.MethodPost, "/internal/v1/promo/apply", "", payload, nil)
}
