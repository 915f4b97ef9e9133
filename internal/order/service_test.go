package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/db/models"
	"github.com/kiranakart/checkout-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/types"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
	"gorm.io/gorm"
)

const warehouseID = "64a1f2c3d4e5f6a7b8c9d0e1"

type middayClock struct{}

func (middayClock) Now() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
}

type stubCreator struct {
	mu        sync.Mutex
	calls     int
	payload   *upstream.OrderPayload
	err       error
	block     chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
}

func (c *stubCreator) CreateOrder(ctx context.Context, bearer string, payload upstream.OrderPayload) (*upstream.CreatedOrder, error) {
	if c.entered != nil {
		c.enterOnce.Do(func() { close(c.entered) })
	}
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.payload = &payload
	if c.err != nil {
		return nil, c.err
	}
	return &upstream.CreatedOrder{OrderID: "ORD-1201", GrandTotalPaise: payload.GrandTotalPaise, ETAMinutes: 35}, nil
}

type stubChecker struct {
	verdicts []upstream.CartCheckVerdict
	err      error
	called   bool
}

func (c *stubChecker) ValidateCartDelivery(ctx context.Context, req upstream.CartCheckRequest) ([]upstream.CartCheckVerdict, error) {
	c.called = true
	if c.err != nil {
		return nil, c.err
	}
	if c.verdicts != nil {
		return c.verdicts, nil
	}
	verdicts := make([]upstream.CartCheckVerdict, 0, len(req.Items))
	for _, item := range req.Items {
		verdicts = append(verdicts, upstream.CartCheckVerdict{ProductID: item.ProductID, Name: item.Name, Deliverable: true})
	}
	return verdicts, nil
}

type stubRedeemer struct {
	redeemed []string
}

func (r *stubRedeemer) Redeem(ctx context.Context, code, customerID, orderID string) {
	r.redeemed = append(r.redeemed, code+"/"+orderID)
}

type memoryRepo struct {
	mu      sync.Mutex
	records []*models.SubmittedOrder
}

func (r *memoryRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *memoryRepo) CreateSubmittedOrder(ctx context.Context, order *models.SubmittedOrder) (*models.SubmittedOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, order)
	return order, nil
}

func (r *memoryRepo) FindByUpstreamOrderID(ctx context.Context, upstreamOrderID string) (*models.SubmittedOrder, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (r *memoryRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.SubmittedOrder, error) {
	return nil, nil
}

func floatPtr(v float64) *float64 { return &v }

func submitInput() SubmitInput {
	return SubmitInput{
		Bearer:        "customer-jwt",
		CustomerID:    "cus-1",
		CustomerName:  "Asha Nair",
		PaymentMethod: enums.PaymentMethodUPI,
		Address: &types.Address{
			ID:      7,
			City:    "Mumbai",
			State:   "Maharashtra",
			Pincode: "400069",
			Lat:     floatPtr(19.1197),
			Lng:     floatPtr(72.8468),
		},
		Lines: []types.CartLine{
			{
				ProductID:        "p1",
				Name:             "Basmati Rice 5kg",
				UnitPricePaise:   19940,
				Quantity:         1,
				PriceIncludesTax: false,
				Tax:              &types.TaxInfo{Name: "GST", Rate: 5},
				WarehouseID:      warehouseID,
				Warehouse: &types.WarehouseRef{
					ID:      warehouseID,
					Name:    "Andheri East",
					Address: "Plot 14, MIDC, Andheri East, Mumbai, Maharashtra 400093",
				},
			},
		},
		Delivery: &upstream.DeliveryQuoteResult{
			DeliveryCharge: 0,
			CODCharge:      1500,
			Warehouse: upstream.WarehouseSettings{
				WarehouseID:   warehouseID,
				WarehouseName: "Andheri East",
			},
		},
	}
}

func newTestOrderService(creator *stubCreator, checker *stubChecker, redeemer Redeemer, repo Repository) *Service {
	validator := validation.New(config.WarehouseConfig{OpenMinute: 360, CloseMinute: 1380}, middayClock{})
	return NewService(creator, checker, redeemer, repo, validator, nil, nil)
}

func TestSubmitHappyPath(t *testing.T) {
	creator := &stubCreator{}
	checker := &stubChecker{}
	repo := &memoryRepo{}
	svc := newTestOrderService(creator, checker, &stubRedeemer{}, repo)

	result, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.OrderID != "ORD-1201" {
		t.Fatalf("unexpected order id %q", result.OrderID)
	}
	if !checker.called {
		t.Fatal("deliverability must be awaited before submission")
	}

	// 199.40 at 5% exclusive: tax 9.97, no delivery, no COD charge for UPI.
	// ceil(199.40 + 9.97) = 210.00.
	if result.GrandTotalPaise != 21000 {
		t.Fatalf("expected grand total 21000, got %d", result.GrandTotalPaise)
	}
	if creator.payload.CODChargePaise != 0 {
		t.Fatalf("UPI order must not carry a COD charge, got %d", creator.payload.CODChargePaise)
	}
	if creator.payload.WarehouseID != warehouseID || creator.payload.WarehouseName != "Andheri East" {
		t.Fatalf("unexpected warehouse on payload: %q %q", creator.payload.WarehouseID, creator.payload.WarehouseName)
	}

	if len(repo.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(repo.records))
	}
	if repo.records[0].UpstreamOrderID != "ORD-1201" {
		t.Fatalf("audit record not linked to upstream order: %+v", repo.records[0])
	}
}

func TestSubmitCODKeepsSurcharge(t *testing.T) {
	creator := &stubCreator{}
	svc := newTestOrderService(creator, &stubChecker{}, nil, nil)

	in := submitInput()
	in.PaymentMethod = enums.PaymentMethodCOD
	result, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if creator.payload.CODChargePaise != 1500 {
		t.Fatalf("expected COD surcharge kept, got %d", creator.payload.CODChargePaise)
	}
	// ceil(199.40 + 9.97 + 15.00) = 225.00.
	if result.GrandTotalPaise != 22500 {
		t.Fatalf("expected grand total 22500, got %d", result.GrandTotalPaise)
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	creator := &stubCreator{}
	svc := newTestOrderService(creator, &stubChecker{}, nil, nil)

	in := submitInput()
	in.Address = nil
	_, err := svc.Submit(context.Background(), in)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatal("failed validation must not reach order creation")
	}
}

func TestSubmitUndeliverableItemsOpenModal(t *testing.T) {
	creator := &stubCreator{}
	checker := &stubChecker{verdicts: []upstream.CartCheckVerdict{
		{ProductID: "p1", Name: "Basmati Rice 5kg", Deliverable: false, Reason: "out of zone"},
	}}
	svc := newTestOrderService(creator, checker, nil, nil)

	_, err := svc.Submit(context.Background(), submitInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUndeliverable {
		t.Fatalf("expected CodeUndeliverable, got %v", err)
	}
	details, _ := typed.Details().(map[string]any)
	items, _ := details["items"].([]string)
	if len(items) != 1 || items[0] != "Basmati Rice 5kg" {
		t.Fatalf("expected flagged item in details, got %v", details)
	}
	if creator.calls != 0 {
		t.Fatal("undeliverable cart must not reach order creation")
	}
}

func TestSubmitRedeemsPromoBestEffort(t *testing.T) {
	redeemer := &stubRedeemer{}
	svc := newTestOrderService(&stubCreator{}, &stubChecker{}, redeemer, nil)

	in := submitInput()
	in.PromoCode = "FRESH50"
	in.DiscountPaise = 5000
	result, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(redeemer.redeemed) != 1 || redeemer.redeemed[0] != "FRESH50/ORD-1201" {
		t.Fatalf("expected redemption, got %v", redeemer.redeemed)
	}
	// ceil(199.40 + 9.97 - 50.00) = 160.00.
	if result.GrandTotalPaise != 16000 {
		t.Fatalf("expected discounted total 16000, got %d", result.GrandTotalPaise)
	}
}

func TestSubmitReentrancyGuard(t *testing.T) {
	creator := &stubCreator{block: make(chan struct{}), entered: make(chan struct{})}
	svc := newTestOrderService(creator, &stubChecker{}, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Submit(context.Background(), submitInput())
	}()

	select {
	case <-creator.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached order creation")
	}

	_, err := svc.Submit(context.Background(), submitInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while first submission is in flight, got %v", err)
	}

	close(creator.block)
	<-done
	if creator.calls != 1 {
		t.Fatalf("expected a single creation call, got %d", creator.calls)
	}
}

func TestSubmitUpstreamFailureSurfaces(t *testing.T) {
	creator := &stubCreator{err: pkgerrors.New(pkgerrors.CodeTimeout, "orders timed out")}
	svc := newTestOrderService(creator, &stubChecker{}, nil, nil)

	_, err := svc.Submit(context.Background(), submitInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestCeilToRupee(t *testing.T) {
	cases := []struct {
		paise int64
		want  int64
	}{
		{20937, 21000},
		{21000, 21000},
		{1, 100},
		{0, 0},
		{-50, 0},
	}
	for _, tc := range cases {
		if got := CeilToRupee(tc.paise); got != tc.want {
			t.Errorf("CeilToRupee(%d) = %d, want %d", tc.paise, got, tc.want)
		}
	}
}
