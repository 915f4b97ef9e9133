package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	addresssvc "github.com/kiranakart/checkout-backend/internal/address"
	"github.com/kiranakart/checkout-backend/internal/delivery"
	ordersvc "github.com/kiranakart/checkout-backend/internal/order"
	promosvc "github.com/kiranakart/checkout-backend/internal/promo"
	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/db/models"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	"github.com/kiranakart/checkout-backend/pkg/maps"
	pkgredis "github.com/kiranakart/checkout-backend/pkg/redis"
	"github.com/kiranakart/checkout-backend/pkg/types"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAddressService struct{}

func (stubAddressService) List(ctx context.Context, bearer string) ([]types.Address, error) {
	return []types.Address{}, nil
}

func (stubAddressService) Create(ctx context.Context, bearer string, req addresssvc.CreateRequest) (*types.Address, error) {
	return &types.Address{}, nil
}

func (stubAddressService) Suggest(ctx context.Context, query string) ([]maps.Suggestion, error) {
	return nil, nil
}

func (stubAddressService) Resolve(ctx context.Context, placeID string) (*types.Address, error) {
	return &types.Address{}, nil
}

type stubPromoService struct{}

func (stubPromoService) Validate(ctx context.Context, req promosvc.ValidateRequest) (*upstream.PromoDiscount, error) {
	return &upstream.PromoDiscount{Code: req.Code}, nil
}

func (stubPromoService) Redeem(ctx context.Context, code, customerID, orderID string) {}

type stubQuoter struct{}

func (stubQuoter) DeliveryQuote(ctx context.Context, req upstream.DeliveryQuoteRequest) (*upstream.DeliveryQuoteResult, error) {
	return &upstream.DeliveryQuoteResult{}, nil
}

type stubOrdersRepo struct {
	orders []models.SubmittedOrder
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) ordersvc.Repository {
	return s
}

func (s *stubOrdersRepo) CreateSubmittedOrder(ctx context.Context, record *models.SubmittedOrder) (*models.SubmittedOrder, error) {
	return record, nil
}

func (s *stubOrdersRepo) FindByUpstreamOrderID(ctx context.Context, upstreamOrderID string) (*models.SubmittedOrder, error) {
	for i := range s.orders {
		if s.orders[i].UpstreamOrderID == upstreamOrderID {
			return &s.orders[i], nil
		}
	}
	return nil, nil
}

func (s *stubOrdersRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.SubmittedOrder, error) {
	return s.orders, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "kiranakart-auth"},
		Warehouse: config.WarehouseConfig{
			OpenMinute:  360,
			CloseMinute: 1380,
		},
		Delivery: config.DeliveryConfig{
			QuoteWindow:    5 * time.Second,
			FailureMemoTTL: 30 * time.Minute,
		},
	}
}

func newTestRouter(cfg *config.Config, repo ordersvc.Repository) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	deliveryService := delivery.NewService(stubQuoter{}, cfg.Delivery, nil, logg, nil)
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*pkgredis.Client)(nil),
		stubAddressService{},
		stubPromoService{},
		deliveryService,
		nil, // order service unused by these routes
		repo,
		validation.New(cfg.Warehouse, nil),
	)
}

func buildToken(t *testing.T, cfg *config.Config, subject string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.JWT.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), &stubOrdersRepo{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubOrdersRepo{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrderHistorySucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	repo := &stubOrdersRepo{orders: []models.SubmittedOrder{{UpstreamOrderID: "ord_1", CustomerID: "cust_1"}}}
	router := newTestRouter(cfg, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "cust_1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "ord_1") {
		t.Fatalf("expected order in payload, got %s", resp.Body.String())
	}
}

func TestCheckoutValidateReportsSlots(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubOrdersRepo{})

	body := `{"payment_method":"upi","lines":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/validate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "cust_1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			OK     bool              `json:"ok"`
			Errors map[string]string `json:"errors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.OK {
		t.Fatal("expected validation failures without address and quote")
	}
	if _, ok := payload.Data.Errors[string(validation.SlotAddressRequired)]; !ok {
		t.Fatalf("expected address slot error, got %v", payload.Data.Errors)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), &stubOrdersRepo{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
