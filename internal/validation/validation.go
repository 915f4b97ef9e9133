package validation

import (
	"fmt"
	"strings"

	"github.com/kiranakart/checkout-backend/pkg/cache"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/enums"
	"github.com/kiranakart/checkout-backend/pkg/types"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
)

// Slot names one validation check. Slots are independent so one check's
// outcome never clobbers another's.
type Slot string

const (
	SlotCODNotAvailable      Slot = "cod_not_available"
	SlotDeliveryNotAvailable Slot = "delivery_not_available"
	SlotWarehouseClosed      Slot = "warehouse_not_operational"
	SlotAddressRequired      Slot = "address_required"
)

// submitPriority is the order failures surface to the customer at submission
// time: delivery area first, then COD, then hours, then address.
var submitPriority = []Slot{
	SlotDeliveryNotAvailable,
	SlotCODNotAvailable,
	SlotWarehouseClosed,
	SlotAddressRequired,
}

// Errors holds one user-facing message per failed check. An absent slot means
// the check passed.
type Errors map[Slot]string

// OK reports whether every check passed.
func (e Errors) OK() bool {
	return len(e) == 0
}

// First returns the highest-priority failure for toast selection.
func (e Errors) First() (Slot, string, bool) {
	for _, slot := range submitPriority {
		if msg, ok := e[slot]; ok {
			return slot, msg, true
		}
	}
	return "", "", false
}

// Input is the checkout state the reducer evaluates. The async cart
// deliverability check is not part of this reducer; the order submitter
// awaits it separately right before submission.
type Input struct {
	PaymentMethod enums.PaymentMethod
	Lines         []types.CartLine
	Address       *types.Address
	Delivery      *upstream.DeliveryQuoteResult
}

// Checker evaluates the checkout validation checks. The clock is injected so
// the operating-hours check is testable at fixed instants.
type Checker struct {
	clock      cache.Clock
	openMinute int
	closeMin   int
}

// New builds a Checker from the warehouse operating window configuration.
func New(cfg config.WarehouseConfig, clock cache.Clock) *Checker {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Checker{
		clock:      clock,
		openMinute: cfg.OpenMinute,
		closeMin:   cfg.CloseMinute,
	}
}

// Evaluate runs every check against the input and returns the failed slots.
// It is a pure function of the input and the injected clock.
func (c *Checker) Evaluate(in Input) Errors {
	errs := Errors{}

	if msg := c.checkCOD(in); msg != "" {
		errs[SlotCODNotAvailable] = msg
	}
	if msg := c.checkDeliveryArea(in); msg != "" {
		errs[SlotDeliveryNotAvailable] = msg
	}
	if msg := c.checkOperatingHours(in); msg != "" {
		errs[SlotWarehouseClosed] = msg
	}
	if in.Address == nil {
		errs[SlotAddressRequired] = "Please select a delivery address to continue."
	}

	return errs
}

func (c *Checker) checkCOD(in Input) string {
	if !in.PaymentMethod.IsCOD() {
		return ""
	}
	var blocked []string
	for _, line := range in.Lines {
		if !line.IsCODAvailable() {
			blocked = append(blocked, line.Name)
		}
	}
	if len(blocked) == 0 {
		return ""
	}
	return fmt.Sprintf("Cash on delivery is not available for: %s. Please switch to online payment or remove these items.", strings.Join(blocked, ", "))
}

func (c *Checker) checkDeliveryArea(in Input) string {
	if in.Address == nil || in.Delivery == nil {
		return "Delivery is not available yet. Please select a deliverable address."
	}
	enabled := in.Delivery.Warehouse.IsDeliveryEnabled
	if enabled != nil && !*enabled {
		return "Delivery is currently disabled for this area. Please select a different address."
	}
	return ""
}

func (c *Checker) checkOperatingHours(in Input) string {
	if in.Delivery != nil && in.Delivery.Warehouse.Is24x7Delivery {
		return ""
	}
	now := c.clock.Now()
	minute := now.Hour()*60 + now.Minute()
	if minute >= c.openMinute && minute < c.closeMin {
		return ""
	}
	return fmt.Sprintf("The warehouse is currently closed. Orders are accepted between %s and %s.",
		formatMinute(c.openMinute), formatMinute(c.closeMin))
}

func formatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
