package enums

import "strings"

// PaymentMethod is the customer's selected tender.
type PaymentMethod string

const (
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
)

// ParsePaymentMethod normalizes free-form input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, bool) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if method.IsValid() {
		return method, true
	}
	return "", false
}

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetBanking:
		return true
	}
	return false
}

// IsCOD reports whether the tender is cash on delivery.
func (m PaymentMethod) IsCOD() bool {
	return m == PaymentMethodCOD
}

// Tag is the two-value payment tag the delivery pricing endpoint expects.
func (m PaymentMethod) Tag() string {
	if m.IsCOD() {
		return "cod"
	}
	return "online"
}
