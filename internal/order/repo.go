package order

import (
	"context"
	"errors"

	"github.com/kiranakart/checkout-backend/pkg/db/models"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSubmittedOrder(ctx context.Context, order *models.SubmittedOrder) (*models.SubmittedOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByUpstreamOrderID(ctx context.Context, upstreamOrderID string) (*models.SubmittedOrder, error) {
	var record models.SubmittedOrder
	err := r.db.WithContext(ctx).
		Where("upstream_order_id = ?", upstreamOrderID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.SubmittedOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []models.SubmittedOrder
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
