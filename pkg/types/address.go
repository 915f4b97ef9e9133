package types

import (
	"strings"
	"time"

	"github.com/kiranakart/checkout-backend/pkg/enums"
)

// Address is a customer delivery address as the upstream address book stores
// it. Addresses are created and listed through the upstream API; this service
// never mutates one beyond selecting it for a checkout session.
type Address struct {
	ID           int64             `json:"id"`
	Type         enums.AddressType `json:"type"`
	Building     string            `json:"building"`
	Floor        string            `json:"floor,omitempty"`
	Area         string            `json:"area"`
	Landmark     string            `json:"landmark,omitempty"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	Country      string            `json:"country"`
	Pincode      string            `json:"pincode"`
	Phone        string            `json:"phone,omitempty"`
	Instructions string            `json:"instructions,omitempty"`
	Lat          *float64          `json:"lat,omitempty"`
	Lng          *float64          `json:"lng,omitempty"`
	IsDefault    bool              `json:"is_default"`
	CreatedAt    time.Time         `json:"created_at,omitzero"`
	UpdatedAt    time.Time         `json:"updated_at,omitzero"`
}

// HasCoordinates reports whether the address carries a usable lat/lng pair.
func (a Address) HasCoordinates() bool {
	return a.Lat != nil && a.Lng != nil && !(*a.Lat == 0 && *a.Lng == 0)
}

// HasPincode reports whether a non-blank pincode is present.
func (a Address) HasPincode() bool {
	return strings.TrimSpace(a.Pincode) != ""
}
