package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/enums"
)

// BillLine captures the snapshot of each item on a bill. Item fields are
// copied at sale time so later catalog edits never alter issued bills.
type BillLine struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BillID          uuid.UUID        `gorm:"column:bill_id;type:uuid;not null"`
	ItemID          *uuid.UUID       `gorm:"column:item_id;type:uuid"`
	OriginalItemID  *uuid.UUID       `gorm:"column:original_item_id;type:uuid"`
	ItemName        string           `gorm:"column:item_name;not null"`
	ItemDescription *string          `gorm:"column:item_description"`
	Price           decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	MRPPrice        *decimal.Decimal `gorm:"column:mrp_price;type:numeric(12,2)"`
	PriceType       enums.PriceType  `gorm:"column:price_type;not null;default:'exclusive'"`
	Quantity        decimal.Decimal  `gorm:"column:quantity;type:numeric(12,3);not null"`
	Subtotal        decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	HSNCode         *string          `gorm:"column:hsn_code"`
	GSTPercentage   decimal.Decimal  `gorm:"column:gst_percentage;type:numeric(5,2);not null"`
	TaxAmount       decimal.Decimal  `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Unit            *string          `gorm:"column:unit"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
}
