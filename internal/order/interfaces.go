package order

import (
	"context"

	"github.com/kiranakart/checkout-backend/pkg/db/models"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
	"gorm.io/gorm"
)

// Creator is the upstream order creation surface.
type Creator interface {
	CreateOrder(ctx context.Context, bearer string, payload upstream.OrderPayload) (*upstream.CreatedOrder, error)
}

// CartChecker is the upstream per-item deliverability surface.
type CartChecker interface {
	ValidateCartDelivery(ctx context.Context, req upstream.CartCheckRequest) ([]upstream.CartCheckVerdict, error)
}

// Redeemer records promo redemptions after order creation.
type Redeemer interface {
	Redeem(ctx context.Context, code, customerID, orderID string)
}

// Repository persists the local write-once order audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSubmittedOrder(ctx context.Context, order *models.SubmittedOrder) (*models.SubmittedOrder, error)
	FindByUpstreamOrderID(ctx context.Context, upstreamOrderID string) (*models.SubmittedOrder, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.SubmittedOrder, error)
}
