package tax

import (
	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/enums"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Context carries the inputs that decide which GST rate applies to a line.
// The vendor-level service code wins over the item's HSN code; explicit
// rates win over table defaults at each step.
type Context struct {
	ServiceCode *string
	ServiceRate *decimal.Decimal
	HSNCode     *string
	HSNRate     *decimal.Decimal
}

// Result reports the computed tax for one line.
type Result struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Source enums.RateSource
}

// LineTax computes the GST amount for a line subtotal. The amount is
// rounded half-up to two decimal places.
func LineTax(subtotal decimal.Decimal, tc Context) Result {
	rate, source := resolveRate(tc)
	amount := subtotal.Mul(rate).Div(hundred).Round(2)
	return Result{Amount: amount, Rate: rate, Source: source}
}

func resolveRate(tc Context) (decimal.Decimal, enums.RateSource) {
	if tc.ServiceCode != nil && *tc.ServiceCode != "" {
		if tc.ServiceRate != nil {
			return *tc.ServiceRate, enums.RateSourceServiceCode
		}
		return DefaultSACRate(*tc.ServiceCode), enums.RateSourceServiceCode
	}
	if tc.HSNCode != nil && *tc.HSNCode != "" {
		if tc.HSNRate != nil {
			return *tc.HSNRate, enums.RateSourceItemHSN
		}
		return DefaultHSNRate(*tc.HSNCode), enums.RateSourceItemHSN
	}
	return decimal.Zero, enums.RateSourceNone
}

// SplitTax apportions a computed GST total. Intra-state sales split the
// total into equal CGST and SGST halves; SGST takes the remainder so the
// pair always sums exactly to the total. Inter-state sales carry the full
// amount as IGST.
func SplitTax(total decimal.Decimal, split enums.TaxSplit) (cgst, sgst, igst decimal.Decimal) {
	if split == enums.TaxSplitInterState {
		return decimal.Zero.Round(2), decimal.Zero.Round(2), total.Round(2)
	}
	cgst = total.Div(two).Round(2)
	sgst = total.Sub(cgst).Round(2)
	return cgst, sgst, decimal.Zero.Round(2)
}
