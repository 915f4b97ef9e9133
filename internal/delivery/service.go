package delivery

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/kiranakart/checkout-backend/internal/cartgroup"
	"github.com/kiranakart/checkout-backend/pkg/cache"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/enums"
	pkgerrors "github.com/kiranakart/checkout-backend/pkg/errors"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	"github.com/kiranakart/checkout-backend/pkg/metrics"
	"github.com/kiranakart/checkout-backend/pkg/types"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
)

// meaningfulDistanceKM is the distance delta below which a recomputed quote is
// considered a no-op for notification purposes.
const meaningfulDistanceKM = 0.1

// SkipReason explains why a quote request was absorbed without an upstream
// call and without a user-visible error.
type SkipReason string

const (
	SkipEmptyCart        SkipReason = "empty_cart"
	SkipNoWarehouses     SkipReason = "no_warehouses"
	SkipAllIDsInvalid    SkipReason = "all_warehouse_ids_invalid"
	SkipInFlight         SkipReason = "calculation_in_flight"
	SkipPreviouslyFailed SkipReason = "address_previously_failed"
)

// Quoter is the upstream surface the service needs.
type Quoter interface {
	DeliveryQuote(ctx context.Context, req upstream.DeliveryQuoteRequest) (*upstream.DeliveryQuoteResult, error)
}

// Input is one quote request.
type Input struct {
	Address       *types.Address
	Lines         []types.CartLine
	NetTotalPaise int64
	PaymentMethod enums.PaymentMethod
}

// Outcome is the result of a quote attempt. Exactly one of Result or
// SkipReason is meaningful when Quote returns without error.
type Outcome struct {
	Result     *upstream.DeliveryQuoteResult
	Skipped    bool
	SkipReason SkipReason
	FromCache  bool
	// MeaningfulChange is set when the quote differs enough from the prior
	// one that the storefront should notify the customer.
	MeaningfulChange bool
	InvalidLines     int
}

// Service prices delivery for a checkout session. Quotes for an identical
// (address, net total, tender, warehouse set) tuple are served from a short
// cache window, and addresses whose quotes failed are memoized so automatic
// recalculation effects do not hammer the pricing API.
type Service struct {
	quoter      Quoter
	clock       cache.Clock
	logg        *logger.Logger
	metrics     *metrics.CheckoutMetrics
	quotes      *cache.TTL[*upstream.DeliveryQuoteResult]
	failures    *cache.TTL[string]
	quoteWindow time.Duration
	failureTTL  time.Duration

	// The service is shared across customers: the in-flight guard is keyed by
	// quote key and the prior result by address, never held as a single value.
	mu       sync.Mutex
	inFlight map[string]struct{}
	history  map[string]*upstream.DeliveryQuoteResult
}

// NewService builds the delivery service.
func NewService(quoter Quoter, cfg config.DeliveryConfig, clock cache.Clock, logg *logger.Logger, checkoutMetrics *metrics.CheckoutMetrics) *Service {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "delivery"})
	}
	return &Service{
		quoter:      quoter,
		clock:       clock,
		logg:        logg,
		metrics:     checkoutMetrics,
		quotes:      cache.NewTTL[*upstream.DeliveryQuoteResult](clock),
		failures:    cache.NewTTL[string](clock),
		quoteWindow: cfg.QuoteWindow,
		failureTTL:  cfg.FailureMemoTTL,
		inFlight:    make(map[string]struct{}),
		history:     make(map[string]*upstream.DeliveryQuoteResult),
	}
}

// Quote prices delivery for the input. Transient conditions (empty cart, cart
// being cleared, an identical calculation already in flight, a memoized failed
// address)
// are absorbed as skips; genuine input problems and upstream failures return
// coded errors.
func (s *Service) Quote(ctx context.Context, in Input) (Outcome, error) {
	if len(in.Lines) == 0 {
		return Outcome{Skipped: true, SkipReason: SkipEmptyCart}, nil
	}

	grouped := cartgroup.Partition(in.Lines)
	if len(grouped.Groups) == 0 {
		return Outcome{Skipped: true, SkipReason: SkipNoWarehouses, InvalidLines: grouped.InvalidLines}, nil
	}

	valid, invalid := cartgroup.SplitByValidity(grouped.WarehouseIDs())
	if len(valid) == 0 {
		// Every id is a placeholder. Indistinguishable from a cart mid-clear.
		return Outcome{Skipped: true, SkipReason: SkipAllIDsInvalid, InvalidLines: grouped.InvalidLines}, nil
	}
	if len(invalid) > 0 {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation,
			"Some items in your cart could not be matched to a warehouse. Please remove and re-add them.").
			WithDetails(map[string]any{"invalid_warehouse_ids": invalid})
	}
	if len(valid) > 1 {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeMixedWarehouse,
			"Mixed warehouse orders are not allowed. Please order from one store at a time.")
	}
	warehouseID := valid[0]

	if err := validateAddress(in.Address); err != nil {
		return Outcome{}, err
	}

	if memoed, _ := s.failures.Get(failureKey(in.Address)); memoed != "" {
		return Outcome{Skipped: true, SkipReason: SkipPreviouslyFailed}, nil
	}

	key := quoteKey(in, warehouseID)
	if cached, ok := s.quotes.Get(key); ok {
		s.metrics.IncQuoteCacheHit()
		return Outcome{Result: cached, FromCache: true}, nil
	}
	s.metrics.IncQuoteCacheMiss()

	s.mu.Lock()
	if _, busy := s.inFlight[key]; busy {
		s.mu.Unlock()
		return Outcome{Skipped: true, SkipReason: SkipInFlight}, nil
	}
	s.inFlight[key] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	req := upstream.DeliveryQuoteRequest{
		Lat:           *in.Address.Lat,
		Lng:           *in.Address.Lng,
		CartTotal:     in.NetTotalPaise,
		PaymentMethod: in.PaymentMethod.Tag(),
		WarehouseID:   warehouseID,
		Pincode:       in.Address.Pincode,
		Items:         snapshotLines(in.Lines),
	}

	ctx = s.logg.WithWarehouseID(ctx, warehouseID)

	start := s.clock.Now()
	result, err := s.quoter.DeliveryQuote(ctx, req)
	s.metrics.ObserveUpstream("delivery_quote", s.clock.Now().Sub(start))
	if err != nil {
		s.failures.Set(failureKey(in.Address), "failed", s.failureTTL)
		s.logg.Error(ctx, "delivery quote failed", err)
		return Outcome{}, err
	}

	s.quotes.Set(key, result, s.quoteWindow)
	s.failures.Delete(failureKey(in.Address))

	histKey := failureKey(in.Address)
	s.mu.Lock()
	changed := meaningfulChange(s.history[histKey], result)
	s.history[histKey] = result
	s.mu.Unlock()

	ctx = s.logg.WithFields(ctx, map[string]any{
		"distance_km":        result.DistanceKM,
		"total_charge_paise": result.TotalCharge,
	})
	s.logg.Debug(ctx, "delivery quote computed")

	return Outcome{Result: result, MeaningfulChange: changed}, nil
}

// Retry clears the failure memo for the address and quotes again. This is the
// explicit user-initiated path after a failed calculation.
func (s *Service) Retry(ctx context.Context, in Input) (Outcome, error) {
	if in.Address != nil {
		s.failures.Delete(failureKey(in.Address))
	}
	return s.Quote(ctx, in)
}

// OnAddressChange clears every failure memo. Selecting a different address is
// treated as the customer starting over.
func (s *Service) OnAddressChange() {
	s.failures.Clear()
}

func validateAddress(address *types.Address) error {
	if address == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please select a delivery address first.")
	}
	if !address.HasCoordinates() {
		return pkgerrors.New(pkgerrors.CodeValidation, "The selected address has no location. Please re-add it using the map.")
	}
	if !address.HasPincode() {
		return pkgerrors.New(pkgerrors.CodeValidation, "The selected address has no pincode. Please update it.")
	}
	return nil
}

func snapshotLines(lines []types.CartLine) []upstream.DeliveryQuoteItem {
	items := make([]upstream.DeliveryQuoteItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, upstream.DeliveryQuoteItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
		})
	}
	return items
}

func quoteKey(in Input, warehouseID string) string {
	return strings.Join([]string{
		failureKey(in.Address),
		fmt.Sprintf("%d", in.NetTotalPaise),
		in.PaymentMethod.Tag(),
		warehouseID,
	}, "|")
}

// failureKey conflates coordinates and address id on purpose: a coordinate
// edit produces a fresh key, so the memo naturally stops applying.
func failureKey(address *types.Address) string {
	if address == nil {
		return ""
	}
	lat, lng := 0.0, 0.0
	if address.Lat != nil {
		lat = *address.Lat
	}
	if address.Lng != nil {
		lng = *address.Lng
	}
	return fmt.Sprintf("%.6f_%.6f_%d", lat, lng, address.ID)
}

func meaningfulChange(prev, next *upstream.DeliveryQuoteResult) bool {
	if next == nil {
		return false
	}
	if prev == nil {
		return true
	}
	if math.Abs(prev.DistanceKM-next.DistanceKM) > meaningfulDistanceKM {
		return true
	}
	return prev.Warehouse.WarehouseName != next.Warehouse.WarehouseName
}
