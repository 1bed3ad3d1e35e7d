package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/enums"
)

// Bill is a finalized sale. InvoiceNumber is unique per vendor and is
// either allocated by the server or carried in from an offline terminal.
type Bill struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID           uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null"`
	DeviceID           *string           `gorm:"column:device_id"`
	InvoiceNumber      string            `gorm:"column:invoice_number;not null"`
	BillNumber         string            `gorm:"column:bill_number;not null"`
	BillDate           time.Time         `gorm:"column:bill_date;not null"`
	CustomerName       *string           `gorm:"column:customer_name"`
	CustomerPhone      *string           `gorm:"column:customer_phone"`
	CustomerEmail      *string           `gorm:"column:customer_email"`
	CustomerAddress    *string           `gorm:"column:customer_address"`
	BillingMode        enums.BillingMode `gorm:"column:billing_mode;not null;default:'gst'"`
	Subtotal           decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalTax           decimal.Decimal   `gorm:"column:total_tax;type:numeric(12,2);not null"`
	CGSTAmount         decimal.Decimal   `gorm:"column:cgst_amount;type:numeric(12,2);not null"`
	SGSTAmount         decimal.Decimal   `gorm:"column:sgst_amount;type:numeric(12,2);not null"`
	IGSTAmount         decimal.Decimal   `gorm:"column:igst_amount;type:numeric(12,2);not null"`
	TotalAmount        decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMode        enums.PaymentMode `gorm:"column:payment_mode;not null;default:'cash'"`
	PaymentReference   *string           `gorm:"column:payment_reference"`
	AmountPaid         decimal.Decimal   `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	ChangeAmount       decimal.Decimal   `gorm:"column:change_amount;type:numeric(12,2);not null"`
	DiscountAmount     decimal.Decimal   `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	DiscountPercentage decimal.Decimal   `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	Notes              *string           `gorm:"column:notes"`
	TableNumber        *string           `gorm:"column:table_number"`
	Lines              []BillLine        `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
	SyncedAt           *time.Time        `gorm:"column:synced_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
