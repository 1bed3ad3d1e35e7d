package tax

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/enums"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func TestLineTaxRoundsHalfUp(t *testing.T) {
	// 33.33 * 18% = 5.9994, which must round up to 6.00.
	res := LineTax(dec("33.33"), Context{
		HSNCode: strPtr("2106"),
		HSNRate: decPtr("18"),
	})
	if !res.Amount.Equal(dec("6.00")) {
		t.Fatalf("expected 6.00, got %s", res.Amount)
	}
	if !res.Rate.Equal(dec("18")) {
		t.Fatalf("expected rate 18, got %s", res.Rate)
	}
	if res.Source != enums.RateSourceItemHSN {
		t.Fatalf("expected item_hsn source, got %s", res.Source)
	}
}

func TestLineTaxResolutionOrder(t *testing.T) {
	cases := []struct {
		name       string
		ctx        Context
		wantRate   string
		wantSource enums.RateSource
	}{
		{
			name: "service code with explicit rate beats item hsn",
			ctx: Context{
				ServiceCode: strPtr("996331"),
				ServiceRate: decPtr("12"),
				HSNCode:     strPtr("2106"),
				HSNRate:     decPtr("18"),
			},
			wantRate:   "12",
			wantSource: enums.RateSourceServiceCode,
		},
		{
			name: "service code falls back to table default",
			ctx: Context{
				ServiceCode: strPtr("996331"),
				HSNCode:     strPtr("2106"),
				HSNRate:     decPtr("18"),
			},
			wantRate:   "5",
			wantSource: enums.RateSourceServiceCode,
		},
		{
			name: "unknown service code is permissive zero",
			ctx: Context{
				ServiceCode: strPtr("999999"),
			},
			wantRate:   "0",
			wantSource: enums.RateSourceServiceCode,
		},
		{
			name: "item hsn explicit rate beats table",
			ctx: Context{
				HSNCode: strPtr("2202"),
				HSNRate: decPtr("12"),
			},
			wantRate:   "12",
			wantSource: enums.RateSourceItemHSN,
		},
		{
			name: "item hsn table default",
			ctx: Context{
				HSNCode: strPtr("2202"),
			},
			wantRate:   "28",
			wantSource: enums.RateSourceItemHSN,
		},
		{
			name:       "no codes means zero tax",
			ctx:        Context{},
			wantRate:   "0",
			wantSource: enums.RateSourceNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := LineTax(dec("100.00"), tc.ctx)
			if !res.Rate.Equal(dec(tc.wantRate)) {
				t.Fatalf("expected rate %s, got %s", tc.wantRate, res.Rate)
			}
			if res.Source != tc.wantSource {
				t.Fatalf("expected source %s, got %s", tc.wantSource, res.Source)
			}
		})
	}
}

func TestSplitTaxIntraState(t *testing.T) {
	cgst, sgst, igst := SplitTax(dec("10.01"), enums.TaxSplitIntraState)
	// Half of 10.01 is 5.005; CGST rounds half-up to 5.01 and SGST takes
	// the 5.00 remainder so the pair still sums to the total.
	if !cgst.Equal(dec("5.01")) {
		t.Fatalf("expected cgst 5.01, got %s", cgst)
	}
	if !sgst.Equal(dec("5.00")) {
		t.Fatalf("expected sgst 5.00, got %s", sgst)
	}
	if !igst.IsZero() {
		t.Fatalf("expected igst 0, got %s", igst)
	}
	if !cgst.Add(sgst).Equal(dec("10.01")) {
		t.Fatalf("cgst+sgst should equal total")
	}
}

func TestSplitTaxInterState(t *testing.T) {
	cgst, sgst, igst := SplitTax(dec("18.00"), enums.TaxSplitInterState)
	if !cgst.IsZero() || !sgst.IsZero() {
		t.Fatalf("expected zero cgst/sgst, got %s/%s", cgst, sgst)
	}
	if !igst.Equal(dec("18.00")) {
		t.Fatalf("expected igst 18.00, got %s", igst)
	}
}

func TestDefaultRateLookups(t *testing.T) {
	if got := DefaultHSNRate("1905"); !got.Equal(dec("18")) {
		t.Fatalf("expected 18 for 1905, got %s", got)
	}
	if got := DefaultHSNRate("  2106 "); !got.Equal(dec("18")) {
		t.Fatalf("expected trimmed lookup to work, got %s", got)
	}
	if got := DefaultHSNRate("0000"); !got.IsZero() {
		t.Fatalf("expected zero for unknown hsn, got %s", got)
	}
	if got := DefaultSACRate("996334"); !got.Equal(dec("18")) {
		t.Fatalf("expected 18 for 996334, got %s", got)
	}
	if got := DefaultSACRate(""); !got.IsZero() {
		t.Fatalf("expected zero for empty sac, got %s", got)
	}
}
