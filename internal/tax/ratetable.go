package tax

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

//go:embed hsn_to_gst.json
var hsnTableJSON []byte

//go:embed sac_to_gst.json
var sacTableJSON []byte

type rateEntry struct {
	Description   string           `json:"description"`
	GSTPercentage decimal.Decimal  `json:"gst_percentage"`
	Default       *decimal.Decimal `json:"default,omitempty"`
}

var (
	tableOnce sync.Once
	tableErr  error
	hsnTable  map[string]rateEntry
	sacTable  map[string]rateEntry
)

func loadTables() error {
	tableOnce.Do(func() {
		if err := json.Unmarshal(hsnTableJSON, &hsnTable); err != nil {
			tableErr = fmt.Errorf("parse hsn rate table: %w", err)
			return
		}
		if err := json.Unmarshal(sacTableJSON, &sacTable); err != nil {
			tableErr = fmt.Errorf("parse sac rate table: %w", err)
		}
	})
	return tableErr
}

// DefaultHSNRate returns the table rate for an HSN code, or zero when the
// code is unknown. Unknown codes are permissive: the caller still gets a
// usable result with a zero rate.
func DefaultHSNRate(code string) decimal.Decimal {
	if loadTables() != nil {
		return decimal.Zero
	}
	entry, ok := hsnTable[strings.TrimSpace(code)]
	if !ok {
		return decimal.Zero
	}
	return entry.GSTPercentage
}

// DefaultSACRate returns the table rate for a SAC code, or zero when the
// code is unknown. An entry's explicit default takes precedence.
func DefaultSACRate(code string) decimal.Decimal {
	if loadTables() != nil {
		return decimal.Zero
	}
	entry, ok := sacTable[strings.TrimSpace(code)]
	if !ok {
		return decimal.Zero
	}
	if entry.Default != nil {
		return *entry.Default
	}
	return entry.GSTPercentage
}
