package address

import (
	"context"
	"strings"

	"github.com/kiranakart/checkout-backend/pkg/enums"
	"github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/maps"
	"github.com/kiranakart/checkout-backend/pkg/types"
)

// Book is the upstream address book surface.
type Book interface {
	ListAddresses(ctx context.Context, bearer string) ([]types.Address, error)
	CreateAddress(ctx context.Context, bearer string, address types.Address) (*types.Address, error)
}

// Places is the address-entry assistance surface.
type Places interface {
	Suggest(ctx context.Context, input string) ([]maps.Suggestion, error)
	Resolve(ctx context.Context, placeID string) (*maps.ResolvedPlace, error)
}

type Service interface {
	List(ctx context.Context, bearer string) ([]types.Address, error)
	Create(ctx context.Context, bearer string, req CreateRequest) (*types.Address, error)
	Suggest(ctx context.Context, query string) ([]maps.Suggestion, error)
	Resolve(ctx context.Context, placeID string) (*types.Address, error)
}

type service struct {
	book   Book
	places Places
}

func NewService(book Book, places Places) Service {
	return &service{book: book, places: places}
}

// CreateRequest is a new address as submitted by the customer.
type CreateRequest struct {
	Type         string   `json:"type"`
	Building     string   `json:"building"`
	Floor        string   `json:"floor,omitempty"`
	Area         string   `json:"area"`
	Landmark     string   `json:"landmark,omitempty"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Country      string   `json:"country,omitempty"`
	Pincode      string   `json:"pincode"`
	Phone        string   `json:"phone"`
	Instructions string   `json:"instructions,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	IsDefault    bool     `json:"is_default"`
}

func (s *service) List(ctx context.Context, bearer string) ([]types.Address, error) {
	if s == nil || s.book == nil {
		return nil, errors.New(errors.CodeDependency, "address book unavailable")
	}
	return s.book.ListAddresses(ctx, bearer)
}

func (s *service) Create(ctx context.Context, bearer string, req CreateRequest) (*types.Address, error) {
	if s == nil || s.book == nil {
		return nil, errors.New(errors.CodeDependency, "address book unavailable")
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	addrType, ok := enums.ParseAddressType(req.Type)
	if !ok {
		addrType = enums.AddressTypeOther
	}
	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = "India"
	}

	return s.book.CreateAddress(ctx, bearer, types.Address{
		Type:         addrType,
		Building:     strings.TrimSpace(req.Building),
		Floor:        strings.TrimSpace(req.Floor),
		Area:         strings.TrimSpace(req.Area),
		Landmark:     strings.TrimSpace(req.Landmark),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Country:      country,
		Pincode:      strings.TrimSpace(req.Pincode),
		Phone:        strings.TrimSpace(req.Phone),
		Instructions: strings.TrimSpace(req.Instructions),
		Lat:          req.Lat,
		Lng:          req.Lng,
		IsDefault:    req.IsDefault,
	})
}

func (s *service) Suggest(ctx context.Context, query string) ([]maps.Suggestion, error) {
	if s == nil || s.places == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	return s.places.Suggest(ctx, query)
}

// Resolve turns a place id into a prefilled address for the creation form.
func (s *service) Resolve(ctx context.Context, placeID string) (*types.Address, error) {
	if s == nil || s.places == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	place, err := s.places.Resolve(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, errors.New(errors.CodeDependency, "place details missing")
	}
	if place.Lat == 0 && place.Lng == 0 {
		return nil, errors.New(errors.CodeDependency, "place location missing")
	}

	area := place.FormattedAddress
	if idx := strings.Index(area, ","); idx > 0 {
		area = strings.TrimSpace(area[:idx])
	}

	lat, lng := place.Lat, place.Lng
	return &types.Address{
		Type:    enums.AddressTypeHome,
		Area:    area,
		City:    place.City,
		State:   place.State,
		Country: "India",
		Pincode: place.Pincode,
		Lat:     &lat,
		Lng:     &lng,
	}, nil
}

func validateCreate(req CreateRequest) error {
	missing := []string{}
	if strings.TrimSpace(req.Building) == "" {
		missing = append(missing, "building")
	}
	if strings.TrimSpace(req.Area) == "" {
		missing = append(missing, "area")
	}
	if strings.TrimSpace(req.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(req.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(req.Pincode) == "" {
		missing = append(missing, "pincode")
	}
	if strings.TrimSpace(req.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return errors.New(errors.CodeValidation, "missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}
	if pin := strings.TrimSpace(req.Pincode); len(pin) != 6 || !isDigits(pin) {
		return errors.New(errors.CodeValidation, "pincode must be a 6-digit number")
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// SelectActive picks the session's active address: the default-flagged one
// wins, otherwise the first in the list.
func SelectActive(addresses []types.Address) *types.Address {
	if len(addresses) == 0 {
		return nil
	}
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	return &addresses[0]
}
