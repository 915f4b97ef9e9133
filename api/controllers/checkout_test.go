package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kiranakart/checkout-backend/api/middleware"
	"github.com/kiranakart/checkout-backend/internal/delivery"
	ordersvc "github.com/kiranakart/checkout-backend/internal/order"
	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/db/models"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
	"gorm.io/gorm"
)

const testWarehouseID = "64a1f2c3d4e5f6a7b8c9d0e1"

type middayClock struct{}

func (middayClock) Now() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
}

type stubQuoter struct {
	result *upstream.DeliveryQuoteResult
	err    error
	calls  int
}

func (q *stubQuoter) DeliveryQuote(ctx context.Context, req upstream.DeliveryQuoteRequest) (*upstream.DeliveryQuoteResult, error) {
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	return q.result, nil
}

type stubCreator struct {
	order *upstream.CreatedOrder
	err   error
}

func (c *stubCreator) CreateOrder(ctx context.Context, bearer string, payload upstream.OrderPayload) (*upstream.CreatedOrder, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.order, nil
}

type stubCartChecker struct{}

func (stubCartChecker) ValidateCartDelivery(ctx context.Context, req upstream.CartCheckRequest) ([]upstream.CartCheckVerdict, error) {
	return nil, nil
}

type stubRedeemer struct{}

func (stubRedeemer) Redeem(ctx context.Context, code, customerID, orderID string) {}

type memoryOrdersRepo struct {
	created []models.SubmittedOrder
}

func (m *memoryOrdersRepo) WithTx(tx *gorm.DB) ordersvc.Repository {
	return m
}

func (m *memoryOrdersRepo) CreateSubmittedOrder(ctx context.Context, record *models.SubmittedOrder) (*models.SubmittedOrder, error) {
	m.created = append(m.created, *record)
	return record, nil
}

func (m *memoryOrdersRepo) FindByUpstreamOrderID(ctx context.Context, upstreamOrderID string) (*models.SubmittedOrder, error) {
	for i := range m.created {
		if m.created[i].UpstreamOrderID == upstreamOrderID {
			return &m.created[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (m *memoryOrdersRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.SubmittedOrder, error) {
	return m.created, nil
}

func quoteBody() string {
	return `{
		"payment_method": "upi",
		"address": {"id": 7, "state": "Maharashtra", "pincode": "400069", "lat": 19.1197, "lng": 72.8468},
		"lines": [{
			"product_id": "p1",
			"name": "Basmati Rice 5kg",
			"unit_price_paise": 19940,
			"quantity": 1,
			"tax": {"name": "GST", "rate": 5},
			"warehouse_id": "` + testWarehouseID + `",
			"warehouse": {"id": "` + testWarehouseID + `", "name": "Andheri East", "address": "Plot 14, MIDC, Andheri East, Mumbai, Maharashtra 400093"}
		}]
	}`
}

func newQuoteService(quoter *stubQuoter) *delivery.Service {
	cfg := config.DeliveryConfig{QuoteWindow: 5 * time.Second, FailureMemoTTL: 30 * time.Minute}
	return delivery.NewService(quoter, cfg, middayClock{}, nil, nil)
}

func TestCheckoutQuoteReturnsPriceSummary(t *testing.T) {
	quoter := &stubQuoter{result: &upstream.DeliveryQuoteResult{
		DistanceKM:     3.2,
		DeliveryCharge: 2500,
		CODCharge:      1500,
		Warehouse:      upstream.WarehouseSettings{WarehouseID: testWarehouseID, WarehouseName: "Andheri East"},
	}}
	handler := CheckoutQuote(newQuoteService(quoter), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(quoteBody()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Skipped {
		t.Fatalf("expected a priced quote, got skip %q", payload.Data.SkipReason)
	}
	if payload.Data.Delivery == nil || payload.Data.Delivery.DeliveryCharge != 2500 {
		t.Fatalf("unexpected delivery in response: %+v", payload.Data.Delivery)
	}
	if payload.Data.Tax == nil {
		t.Fatal("expected tax summary")
	}
	// 19940 + 997 GST, intra-state split.
	if payload.Data.Tax.TotalTaxPaise != 997 {
		t.Fatalf("unexpected tax %d", payload.Data.Tax.TotalTaxPaise)
	}
	if payload.Data.Tax.IGSTPaise != 0 {
		t.Fatalf("expected intra-state split, got IGST %d", payload.Data.Tax.IGSTPaise)
	}
	// 19940 + 997 + 2500 delivery, UPI skips the COD surcharge, ceiled to the
	// next rupee.
	if payload.Data.GrandTotalPaise != 23500 {
		t.Fatalf("unexpected grand total %d", payload.Data.GrandTotalPaise)
	}
}

func TestCheckoutQuoteFreeDeliveryOmitsCharge(t *testing.T) {
	quoter := &stubQuoter{result: &upstream.DeliveryQuoteResult{
		DistanceKM:     1.1,
		DeliveryCharge: 0,
		CODCharge:      1500,
		IsFreeDelivery: true,
		Warehouse:      upstream.WarehouseSettings{WarehouseID: testWarehouseID, WarehouseName: "Andheri East"},
	}}
	handler := CheckoutQuote(newQuoteService(quoter), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(quoteBody()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Delivery == nil || !payload.Data.Delivery.IsFreeDelivery {
		t.Fatalf("expected free delivery flag, got %+v", payload.Data.Delivery)
	}
	if payload.Data.Delivery.DeliveryCharge != 0 {
		t.Fatalf("free delivery must carry a zero charge, got %d", payload.Data.Delivery.DeliveryCharge)
	}
	// 19940 + 997 GST with no delivery component, ceiled to the next rupee.
	if payload.Data.GrandTotalPaise != 21000 {
		t.Fatalf("unexpected grand total %d", payload.Data.GrandTotalPaise)
	}
}

func TestCheckoutQuoteEmptyCartIsSilentSkip(t *testing.T) {
	quoter := &stubQuoter{result: &upstream.DeliveryQuoteResult{}}
	handler := CheckoutQuote(newQuoteService(quoter), nil)

	body := `{"payment_method":"upi","lines":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Data.Skipped || payload.Data.SkipReason != string(delivery.SkipEmptyCart) {
		t.Fatalf("expected empty cart skip, got %+v", payload.Data)
	}
	if quoter.calls != 0 {
		t.Fatalf("expected no upstream call, got %d", quoter.calls)
	}
}

func TestCheckoutQuoteRejectsUnknownTender(t *testing.T) {
	handler := CheckoutQuote(newQuoteService(&stubQuoter{}), nil)

	body := `{"payment_method":"cheque","lines":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func submitBody() string {
	return `{
		"payment_method": "upi",
		"address": {"id": 7, "state": "Maharashtra", "pincode": "400069", "lat": 19.1197, "lng": 72.8468},
		"lines": [{
			"product_id": "p1",
			"name": "Basmati Rice 5kg",
			"unit_price_paise": 19940,
			"quantity": 1,
			"tax": {"name": "GST", "rate": 5},
			"warehouse_id": "` + testWarehouseID + `",
			"warehouse": {"id": "` + testWarehouseID + `", "name": "Andheri East", "address": "Plot 14, MIDC, Andheri East, Mumbai, Maharashtra 400093"}
		}],
		"delivery": {
			"delivery_charge_paise": 2500,
			"cod_charge_paise": 1500,
			"warehouse": {"warehouse_id": "` + testWarehouseID + `", "warehouse_name": "Andheri East"}
		}
	}`
}

func newSubmitService(creator *stubCreator, repo *memoryOrdersRepo) *ordersvc.Service {
	validator := validation.New(config.WarehouseConfig{OpenMinute: 360, CloseMinute: 1380}, middayClock{})
	return ordersvc.NewService(creator, stubCartChecker{}, stubRedeemer{}, repo, validator, nil, nil)
}

func TestCheckoutSubmitCreatesOrder(t *testing.T) {
	creator := &stubCreator{order: &upstream.CreatedOrder{OrderID: "ORD-1201", ETAMinutes: 35}}
	repo := &memoryOrdersRepo{}
	handler := CheckoutSubmit(newSubmitService(creator, repo), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/submit", strings.NewReader(submitBody()))
	ctx := middleware.WithCustomerID(req.Context(), "cust_1")
	ctx = middleware.WithBearer(ctx, "customer-jwt")
	req = req.WithContext(ctx)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data ordersvc.SubmitResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.OrderID != "ORD-1201" {
		t.Fatalf("unexpected order id %q", payload.Data.OrderID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one audit record, got %d", len(repo.created))
	}
}

func TestCheckoutSubmitRequiresDeliveryQuote(t *testing.T) {
	creator := &stubCreator{order: &upstream.CreatedOrder{OrderID: "ORD-1"}}
	handler := CheckoutSubmit(newSubmitService(creator, &memoryOrdersRepo{}), nil)

	body := `{
		"payment_method": "upi",
		"address": {"id": 7, "state": "Maharashtra", "pincode": "400069"},
		"lines": [{"product_id": "p1", "name": "Milk", "unit_price_paise": 3000, "quantity": 1}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/submit", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
