package promo

import (
	"context"
	"strings"

	"github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
)

// Verifier is the upstream promo surface.
type Verifier interface {
	ValidatePromo(ctx context.Context, req upstream.PromoValidateRequest) (*upstream.PromoDiscount, error)
	ApplyPromo(ctx context.Context, code, customerID, orderID string) error
}

type Service interface {
	Validate(ctx context.Context, req ValidateRequest) (*upstream.PromoDiscount, error)
	Redeem(ctx context.Context, code, customerID, orderID string)
}

// ValidateRequest is a promo check for the current cart.
type ValidateRequest struct {
	Code          string
	CustomerID    string
	CartTotal     int64
	PaymentMethod string
}

type service struct {
	verifier Verifier
	logg     *logger.Logger
}

func NewService(verifier Verifier, logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "promo"})
	}
	return &service{verifier: verifier, logg: logg}
}

func (s *service) Validate(ctx context.Context, req ValidateRequest) (*upstream.PromoDiscount, error) {
	if s == nil || s.verifier == nil {
		return nil, errors.New(errors.CodeDependency, "promo service unavailable")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, errors.New(errors.CodeValidation, "promo code is required")
	}
	return s.verifier.ValidatePromo(ctx, upstream.PromoValidateRequest{
		Code:          code,
		CustomerID:    req.CustomerID,
		CartTotal:     req.CartTotal,
		PaymentMethod: req.PaymentMethod,
	})
}

// Redeem records the redemption against a created order. It is best-effort:
// the order already exists, so a failed redemption is logged and dropped.
func (s *service) Redeem(ctx context.Context, code, customerID, orderID string) {
	if s == nil || s.verifier == nil {
		return
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return
	}
	if err := s.verifier.ApplyPromo(ctx, code, customerID, orderID); err != nil {
		ctx = s.logg.WithOrderID(ctx, orderID)
		s.logg.Warn(ctx, "promo redemption failed after order creation")
	}
}
