package types

// TaxInfo is the GST rate attached to a product by the catalog.
type TaxInfo struct {
	Name string  `json:"name,omitempty"`
	Rate float64 `json:"rate"`
}

// WarehouseRef is the warehouse snapshot the catalog embeds on each product.
type WarehouseRef struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	Address           string `json:"address,omitempty"`
	Is24x7Delivery    bool   `json:"is_24x7_delivery,omitempty"`
	IsDeliveryEnabled *bool  `json:"is_delivery_enabled,omitempty"`
}

// CartLine is one product line in the checkout cart. Prices are integer paise.
type CartLine struct {
	ProductID        string        `json:"product_id"`
	Name             string        `json:"name"`
	UnitPricePaise   int64         `json:"unit_price_paise"`
	Quantity         int           `json:"quantity"`
	VariantID        string        `json:"variant_id,omitempty"`
	CODAvailable     *bool         `json:"cod_available,omitempty"`
	PriceIncludesTax bool          `json:"price_includes_tax"`
	Tax              *TaxInfo      `json:"tax,omitempty"`
	WarehouseID      string        `json:"warehouse_id,omitempty"`
	Warehouse        *WarehouseRef `json:"warehouse,omitempty"`
}

// IsCODAvailable treats an unset flag as available; only an explicit false
// blocks cash on delivery.
func (l CartLine) IsCODAvailable() bool {
	return l.CODAvailable == nil || *l.CODAvailable
}

// LineTotalPaise is the quantity-extended price for the line.
func (l CartLine) LineTotalPaise() int64 {
	return l.UnitPricePaise * int64(l.Quantity)
}
