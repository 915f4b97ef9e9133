package tax

import (
	"github.com/shopspring/decimal"

	"github.com/kiranakart/checkout-backend/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// LineTax is the per-line tax breakdown.
type LineTax struct {
	ProductID string
	TaxName   string
	Rate      float64
	// BasePaise is the tax-exclusive price for the full line quantity.
	BasePaise int64
	TaxPaise  int64
}

// Result aggregates the GST breakdown for one cart. Intra-state orders carry
// CGST+SGST, inter-state orders carry IGST; the two families are mutually
// exclusive.
type Result struct {
	SubtotalPaise int64
	CGSTPaise     int64
	SGSTPaise     int64
	IGSTPaise     int64
	TotalTaxPaise int64
	InterState    bool
	Lines         []LineTax
}

// Compute derives the GST breakdown for the given cart lines. It is a pure
// function of its inputs.
//
// A line without a tax rate contributes its full price to the subtotal with
// zero tax. A tax-inclusive line has its base derived by dividing out the
// rate; a tax-exclusive line is taxed additively on the listed price.
func Compute(lines []types.CartLine, interState bool) Result {
	result := Result{
		InterState: interState,
		Lines:      make([]LineTax, 0, len(lines)),
	}

	totalTax := decimal.Zero
	subtotal := decimal.Zero

	for _, line := range lines {
		price := decimal.NewFromInt(line.LineTotalPaise())

		lt := LineTax{ProductID: line.ProductID}
		if line.Tax == nil || line.Tax.Rate <= 0 {
			lt.BasePaise = price.IntPart()
			subtotal = subtotal.Add(price)
			result.Lines = append(result.Lines, lt)
			continue
		}

		lt.TaxName = line.Tax.Name
		lt.Rate = line.Tax.Rate
		rate := decimal.NewFromFloat(line.Tax.Rate).Div(oneHundred)

		var base, tax decimal.Decimal
		if line.PriceIncludesTax {
			base = price.Div(decimal.NewFromInt(1).Add(rate)).Round(0)
			tax = price.Sub(base)
		} else {
			base = price
			tax = price.Mul(rate).Round(0)
		}

		lt.BasePaise = base.IntPart()
		lt.TaxPaise = tax.IntPart()
		subtotal = subtotal.Add(base)
		totalTax = totalTax.Add(tax)
		result.Lines = append(result.Lines, lt)
	}

	result.SubtotalPaise = subtotal.IntPart()
	result.TotalTaxPaise = totalTax.IntPart()

	if interState {
		result.IGSTPaise = result.TotalTaxPaise
		return result
	}
	// Even split; an odd paisa lands on CGST.
	result.SGSTPaise = result.TotalTaxPaise / 2
	result.CGSTPaise = result.TotalTaxPaise - result.SGSTPaise
	return result
}

// ComputeForStates resolves the inter/intra-state decision from the two state
// names and computes the breakdown. Unknown states on either side are treated
// as inter-state so tax is never under-collected.
func ComputeForStates(lines []types.CartLine, sellerState, buyerState string) Result {
	return Compute(lines, !SameState(sellerState, buyerState))
}
