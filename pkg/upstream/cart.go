package upstream

import (
	"context"
	"net/http"

	"github.com/kiranakart/checkout-backend/pkg/types"
)

// CartCheckItem is the normalized line sent to the cart delivery validation
// endpoint.
type CartCheckItem struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
}

// CartCheckRequest asks the platform whether each line can be delivered to
// the given address.
type CartCheckRequest struct {
	Items   []CartCheckItem `json:"items"`
	Address types.Address   `json:"address"`
}

// CartCheckVerdict is the per-item deliverability outcome.
type CartCheckVerdict struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Deliverable bool   `json:"deliverable"`
	Reason      string `json:"reason,omitempty"`
}

type cartCheckEnvelope struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Items   []CartCheckVerdict `json:"items"`
}

// ValidateCartDelivery checks every cart line against the selected address.
func (c *Client) ValidateCartDelivery(ctx context.Context, req CartCheckRequest) ([]CartCheckVerdict, error) {
	var envelope cartCheckEnvelope
	if err := c.do(ctx, http.MethodPost, "/internal/v1/cart/validate-delivery", "", req, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}
