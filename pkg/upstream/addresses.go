package upstream

import (
	"context"
	"net/http"

	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/types"
)

type addressListEnvelope struct {
	Addresses []types.Address `json:"addresses"`
}

type addressCreateEnvelope struct {
	Address *types.Address `json:"address"`
}

// ListAddresses fetches the customer's address book.
func (c *Client) ListAddresses(ctx context.Context, bearer string) ([]types.Address, error) {
	if bearer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer token is required")
	}
	var envelope addressListEnvelope
	if err := c.do(ctx, http.MethodGet, "/internal/v1/user/addresses", bearer, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Addresses, nil
}

// CreateAddress stores a new address in the customer's address book.
func (c *Client) CreateAddress(ctx context.Context, bearer string, address types.Address) (*types.Address, error) {
	if bearer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer token is required")
	}
	var envelope addressCreateEnvelope
	if err := c.do(ctx, http.MethodPost, "/internal/v1/user/addresses", bearer, address, &envelope); err != nil {
		return nil, err
	}
	if envelope.Address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "address creation returned no address")
	}
	return envelope.Address, nil
}
