package order

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kiranakart/checkout-backend/internal/cartgroup"
	"github.com/kiranakart/checkout-backend/internal/tax"
	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/db/models"
	"github.com/kiranakart/checkout-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	"github.com/kiranakart/checkout-backend/pkg/metrics"
	"github.com/kiranakart/checkout-backend/pkg/types"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
)

// SubmitInput is everything a submission needs, captured at the moment the
// customer confirms the order.
type SubmitInput struct {
	Bearer        string
	CustomerID    string
	CustomerName  string
	CustomerPhone string
	Lines         []types.CartLine
	Address       *types.Address
	PaymentMethod enums.PaymentMethod
	Delivery      *upstream.DeliveryQuoteResult
	DiscountPaise int64
	PromoCode     string
}

// SubmitResult feeds the storefront's success screen.
type SubmitResult struct {
	OrderID         string `json:"order_id"`
	GrandTotalPaise int64  `json:"grand_total_paise"`
	PaymentMethod   string `json:"payment_method"`
	ETAMinutes      int    `json:"eta_minutes"`
}

// Service assembles and submits orders. A per-customer guard prevents double
// submission while one is in flight.
type Service struct {
	creator   Creator
	checker   CartChecker
	redeemer  Redeemer
	repo      Repository
	validator *validation.Checker
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService builds the order service.
func NewService(creator Creator, checker CartChecker, redeemer Redeemer, repo Repository, validator *validation.Checker, logg *logger.Logger, checkoutMetrics *metrics.CheckoutMetrics) *Service {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "order"})
	}
	return &Service{
		creator:   creator,
		checker:   checker,
		redeemer:  redeemer,
		repo:      repo,
		validator: validator,
		logg:      logg,
		metrics:   checkoutMetrics,
		inFlight:  make(map[string]struct{}),
	}
}

// Submit runs the full validation pipeline, awaits the per-item deliverability
// check, posts the order upstream, and records the audit row. The promo
// redemption and the audit write are both best-effort once the upstream order
// exists.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if !s.acquire(in.CustomerID) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "An order is already being placed. Please wait.")
	}
	defer s.release(in.CustomerID)

	ctx = s.logg.WithCustomerID(ctx, in.CustomerID)

	if errs := s.validator.Evaluate(validation.Input{
		PaymentMethod: in.PaymentMethod,
		Lines:         in.Lines,
		Address:       in.Address,
		Delivery:      in.Delivery,
	}); !errs.OK() {
		slot, msg, _ := errs.First()
		s.metrics.IncValidationFailure(string(slot))
		s.metrics.IncSubmission("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"check": string(slot)})
	}

	if err := s.awaitDeliverability(ctx, in); err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, err
	}

	payload, err := s.assemblePayload(in)
	if err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, err
	}

	created, err := s.creator.CreateOrder(ctx, in.Bearer, *payload)
	if err != nil {
		s.metrics.IncSubmission("failed")
		s.logg.Error(ctx, "order creation failed", err)
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, created.OrderID)
	s.metrics.IncSubmission("accepted")

	if s.redeemer != nil && in.PromoCode != "" {
		s.redeemer.Redeem(ctx, in.PromoCode, in.CustomerID, created.OrderID)
	}

	s.recordAudit(ctx, created.OrderID, in, payload)

	s.logg.Info(ctx, "order submitted")
	return &SubmitResult{
		OrderID:         created.OrderID,
		GrandTotalPaise: payload.GrandTotalPaise,
		PaymentMethod:   string(in.PaymentMethod),
		ETAMinutes:      created.ETAMinutes,
	}, nil
}

// awaitDeliverability runs the per-item backend check right before
// submission. Cached verdicts are never trusted here.
func (s *Service) awaitDeliverability(ctx context.Context, in SubmitInput) error {
	if s.checker == nil || in.Address == nil {
		return nil
	}

	items := make([]upstream.CartCheckItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		items = append(items, upstream.CartCheckItem{
			ProductID:   line.ProductID,
			Name:        line.Name,
			WarehouseID: cartgroup.ResolveWarehouseID(line),
			Quantity:    line.Quantity,
		})
	}

	verdicts, err := s.checker.ValidateCartDelivery(ctx, upstream.CartCheckRequest{
		Items:   items,
		Address: *in.Address,
	})
	if err != nil {
		return err
	}

	var undeliverable []string
	for _, verdict := range verdicts {
		if !verdict.Deliverable {
			undeliverable = append(undeliverable, verdict.Name)
		}
	}
	if len(undeliverable) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeUndeliverable, "Some items cannot be delivered to this address.").
		WithDetails(map[string]any{
			"items": undeliverable,
			"options": []string{
				"switch_to_online_payment",
				"remove_items",
				"change_address",
			},
		})
}

func (s *Service) assemblePayload(in SubmitInput) (*upstream.OrderPayload, error) {
	grouped := cartgroup.Partition(in.Lines)
	valid, _ := cartgroup.SplitByValidity(grouped.WarehouseIDs())
	if len(valid) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "The cart must contain items from exactly one warehouse.")
	}
	warehouseID := valid[0]

	warehouseName := ""
	sellerState := ""
	if group := grouped.Groups[warehouseID]; group != nil && group.Warehouse != nil {
		warehouseName = group.Warehouse.Name
		sellerState = tax.ResolveState(group.Warehouse.Address)
	}
	if in.Delivery != nil && in.Delivery.Warehouse.WarehouseName != "" {
		warehouseName = in.Delivery.Warehouse.WarehouseName
	}

	taxResult := tax.ComputeForStates(in.Lines, sellerState, in.Address.State)

	var deliveryPaise, codPaise int64
	if in.Delivery != nil {
		deliveryPaise = in.Delivery.DeliveryCharge
		codPaise = in.Delivery.CODCharge
	}
	if !in.PaymentMethod.IsCOD() {
		codPaise = 0
	}

	lines := make([]upstream.OrderLine, 0, len(in.Lines))
	for _, line := range in.Lines {
		ol := upstream.OrderLine{
			ProductID:        line.ProductID,
			VariantID:        line.VariantID,
			Name:             line.Name,
			UnitPricePaise:   line.UnitPricePaise,
			Quantity:         line.Quantity,
			PriceIncludesTax: line.PriceIncludesTax,
			WarehouseID:      cartgroup.ResolveWarehouseID(line),
		}
		if line.Tax != nil {
			ol.TaxRate = line.Tax.Rate
			ol.TaxName = line.Tax.Name
		}
		lines = append(lines, ol)
	}

	grand := CeilToRupee(taxResult.SubtotalPaise + taxResult.TotalTaxPaise - in.DiscountPaise + deliveryPaise + codPaise)

	return &upstream.OrderPayload{
		CustomerID:      in.CustomerID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		Lines:           lines,
		Address:         *in.Address,
		PaymentMethod:   string(in.PaymentMethod),
		WarehouseID:     warehouseID,
		WarehouseName:   warehouseName,
		SubtotalPaise:   taxResult.SubtotalPaise,
		DiscountPaise:   in.DiscountPaise,
		TaxPaise:        taxResult.TotalTaxPaise,
		DeliveryPaise:   deliveryPaise,
		CODChargePaise:  codPaise,
		GrandTotalPaise: grand,
		PromoCode:       in.PromoCode,
	}, nil
}

// recordAudit stores the local write-once copy of what was submitted. The
// upstream order already exists, so a failed write is logged, not surfaced.
func (s *Service) recordAudit(ctx context.Context, orderID string, in SubmitInput, payload *upstream.OrderPayload) {
	if s.repo == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.logg.Error(ctx, "marshal order audit payload", err)
		return
	}

	record := &models.SubmittedOrder{
		UpstreamOrderID: orderID,
		CustomerID:      in.CustomerID,
		AddressID:       in.Address.ID,
		PaymentMethod:   payload.PaymentMethod,
		WarehouseID:     payload.WarehouseID,
		WarehouseName:   payload.WarehouseName,
		SubtotalPaise:   payload.SubtotalPaise,
		DiscountPaise:   payload.DiscountPaise,
		TaxPaise:        payload.TaxPaise,
		DeliveryPaise:   payload.DeliveryPaise,
		CODChargePaise:  payload.CODChargePaise,
		GrandTotalPaise: payload.GrandTotalPaise,
		Payload:         string(raw),
	}
	if payload.PromoCode != "" {
		code := payload.PromoCode
		record.PromoCode = &code
	}

	if _, err := s.repo.CreateSubmittedOrder(ctx, record); err != nil {
		s.logg.Error(ctx, "persist order audit record", err)
	}
}

func (s *Service) acquire(customerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[customerID]; busy {
		return false
	}
	s.inFlight[customerID] = struct{}{}
	return true
}

func (s *Service) release(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, customerID)
}

// CeilToRupee rounds paise up to the next whole rupee so cash handling never
// deals in fractions.
func CeilToRupee(paise int64) int64 {
	if paise <= 0 {
		return 0
	}
	if rem := paise % 100; rem != 0 {
		return paise + (100 - rem)
	}
	return paise
}
