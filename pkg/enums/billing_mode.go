package enums

import "fmt"

// BillingMode distinguishes GST invoices from plain receipts.
type BillingMode string

const (
	BillingModeGST    BillingMode = "gst"
	BillingModeNonGST BillingMode = "non_gst"
)

var validBillingModes = []BillingMode{
	BillingModeGST,
	BillingModeNonGST,
}

// String implements fmt.Stringer.
func (b BillingMode) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingMode.
func (b BillingMode) IsValid() bool {
	for _, candidate := range validBillingModes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingMode converts raw input into a BillingMode.
func ParseBillingMode(value string) (BillingMode, error) {
	for _, candidate := range validBillingModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing mode %q", value)
}
