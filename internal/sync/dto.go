package sync

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/posbill/billsync-backend/pkg/db/types"
	"github.com/posbill/billsync-backend/pkg/enums"
)

// Timestamp tolerates the loose ISO8601 variants offline terminals emit,
// including zone-less stamps, which are read as UTC. Absent, null, or
// unparseable values resolve to server time when the operation is applied,
// so one bad clock never rejects a batch.
type Timestamp struct {
	t *time.Time
}

// TimestampOf wraps a concrete time.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{t: &t}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.t = nil
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		utc := parsed.UTC()
		ts.t = &utc
		return nil
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// Time returns the parsed value, or nil when absent or unparseable.
func (ts Timestamp) Time() *time.Time {
	return ts.t
}

// ItemPayload carries the terminal's view of a catalog item.
type ItemPayload struct {
	Name          string            `json:"name" validate:"required"`
	Description   *string           `json:"description"`
	Price         decimal.Decimal   `json:"price"`
	MRPPrice      *decimal.Decimal  `json:"mrp_price"`
	PriceType     enums.PriceType   `json:"price_type"`
	HSNCode       *string           `json:"hsn_code"`
	HSNRate       *decimal.Decimal  `json:"hsn_rate"`
	SKU           *string           `json:"sku"`
	Barcode       *string           `json:"barcode"`
	StockQuantity *decimal.Decimal  `json:"stock_quantity"`
	CategoryIDs   dbtypes.UUIDArray `json:"category_ids"`
	IsActive      *bool             `json:"is_active"`
	SortOrder     *int              `json:"sort_order"`
}

// CategoryPayload carries the terminal's view of a category.
type CategoryPayload struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

// ItemOperation is one reconciliation request for an item.
type ItemOperation struct {
	EntityID  uuid.UUID           `json:"entity_id"`
	Operation enums.SyncOperation `json:"operation"`
	Timestamp Timestamp           `json:"timestamp"`
	Payload   *ItemPayload        `json:"payload"`
}

// CategoryOperation is one reconciliation request for a category.
type CategoryOperation struct {
	EntityID  uuid.UUID           `json:"entity_id"`
	Operation enums.SyncOperation `json:"operation"`
	Timestamp Timestamp           `json:"timestamp"`
	Payload   *CategoryPayload    `json:"payload"`
}

// OperationResult reports the outcome of one operation. Data carries the
// server's current state for skipped updates so the terminal can converge.
type OperationResult struct {
	EntityID  uuid.UUID           `json:"entity_id"`
	Operation enums.SyncOperation `json:"operation"`
	Status    enums.SyncStatus    `json:"status"`
	Data      any                 `json:"data,omitempty"`
	Error     *string             `json:"error,omitempty"`
	Retryable bool                `json:"retryable,omitempty"`
}

// BatchResult aggregates a reconciliation batch. The batch is reported as
// processed even when individual operations failed.
type BatchResult struct {
	Synced  int               `json:"synced"`
	Errors  int               `json:"errors"`
	Results []OperationResult `json:"results"`
}

// ItemState is the server-side snapshot returned for skipped updates.
type ItemState struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   *string           `json:"description,omitempty"`
	Price         decimal.Decimal   `json:"price"`
	MRPPrice      *decimal.Decimal  `json:"mrp_price,omitempty"`
	PriceType     enums.PriceType   `json:"price_type"`
	HSNCode       *string           `json:"hsn_code,omitempty"`
	HSNRate       *decimal.Decimal  `json:"hsn_rate,omitempty"`
	SKU           *string           `json:"sku,omitempty"`
	Barcode       *string           `json:"barcode,omitempty"`
	StockQuantity *decimal.Decimal  `json:"stock_quantity,omitempty"`
	CategoryIDs   dbtypes.UUIDArray `json:"category_ids"`
	IsActive      bool              `json:"is_active"`
	SortOrder     int               `json:"sort_order"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CategoryState is the server-side snapshot returned for skipped updates.
type CategoryState struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	UpdatedAt   time.Time `json:"updated_at"`
}
