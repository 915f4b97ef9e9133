package enums

import "strings"

// AddressType categorizes entries in the customer address book.
type AddressType string

const (
	AddressTypeHome   AddressType = "home"
	AddressTypeOffice AddressType = "office"
	AddressTypeHotel  AddressType = "hotel"
	AddressTypeOther  AddressType = "other"
)

func ParseAddressType(value string) (AddressType, bool) {
	typ := AddressType(strings.ToLower(strings.TrimSpace(value)))
	if typ.IsValid() {
		return typ, true
	}
	return "", false
}

func (t AddressType) IsValid() bool {
	switch t {
	case AddressTypeHome, AddressTypeOffice, AddressTypeHotel, AddressTypeOther:
		return true
	}
	return false
}
