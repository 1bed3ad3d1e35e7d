package enums

import "fmt"

// TaxSplit selects how a computed GST total is apportioned.
type TaxSplit string

const (
	TaxSplitIntraState TaxSplit = "intra_state"
	TaxSplitInterState TaxSplit = "inter_state"
)

var validTaxSplits = []TaxSplit{
	TaxSplitIntraState,
	TaxSplitInterState,
}

// String implements fmt.Stringer.
func (t TaxSplit) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxSplit.
func (t TaxSplit) IsValid() bool {
	for _, candidate := range validTaxSplits {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxSplit converts raw input into a TaxSplit.
func ParseTaxSplit(value string) (TaxSplit, error) {
	for _, candidate := range validTaxSplits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax split %q", value)
}

// RateSource identifies where a resolved tax rate came from.
type RateSource string

const (
	RateSourceServiceCode RateSource = "service_code"
	RateSourceItemHSN     RateSource = "item_hsn"
	RateSourceNone        RateSource = "none"
)

// String implements fmt.Stringer.
func (r RateSource) String() string {
	return string(r)
}
