package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
)

// LineInput is one bill line as submitted by a device. Prices are unit
// prices at sale time; tax is computed server side unless an explicit
// GST percentage is supplied.
type LineInput struct {
	ItemID          *uuid.UUID       `json:"item_id"`
	ItemName        string           `json:"item_name" validate:"required"`
	ItemDescription *string          `json:"item_description"`
	Price           decimal.Decimal  `json:"price"`
	MRPPrice        *decimal.Decimal `json:"mrp_price"`
	PriceType       enums.PriceType  `json:"price_type"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"required"`
	HSNCode         *string          `json:"hsn_code"`
	GSTPercentage   *decimal.Decimal `json:"gst_percentage"`
	Unit            *string          `json:"unit"`
}

// CreateBillInput creates a new bill. Invoice numbers are always assigned
// by the server; clients must not send one on this path.
type CreateBillInput struct {
	InvoiceNumber      *string           `json:"invoice_number"`
	DeviceID           *string           `json:"device_id"`
	BillDate           *time.Time        `json:"bill_date"`
	CustomerName       *string           `json:"customer_name"`
	CustomerPhone      *string           `json:"customer_phone"`
	CustomerEmail      *string           `json:"customer_email"`
	CustomerAddress    *string           `json:"customer_address"`
	BillingMode        enums.BillingMode `json:"billing_mode"`
	TaxSplit           enums.TaxSplit    `json:"tax_split"`
	PaymentMode        enums.PaymentMode `json:"payment_mode"`
	PaymentReference   *string           `json:"payment_reference"`
	AmountPaid         decimal.Decimal   `json:"amount_paid"`
	DiscountAmount     decimal.Decimal   `json:"discount_amount"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage"`
	Notes              *string           `json:"notes"`
	TableNumber        *string           `json:"table_number"`
	Lines              []LineInput       `json:"lines" validate:"required,min=1,dive"`
}

// IngestLineInput is a line from an already-finalized offline bill. The
// client's computed figures are kept as-is.
type IngestLineInput struct {
	ItemID          *uuid.UUID       `json:"item_id"`
	OriginalItemID  *uuid.UUID       `json:"original_item_id"`
	ItemName        string           `json:"item_name" validate:"required"`
	ItemDescription *string          `json:"item_description"`
	Price           decimal.Decimal  `json:"price"`
	MRPPrice        *decimal.Decimal `json:"mrp_price"`
	PriceType       enums.PriceType  `json:"price_type"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"required"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	HSNCode         *string          `json:"hsn_code"`
	GSTPercentage   decimal.Decimal  `json:"gst_percentage"`
	TaxAmount       decimal.Decimal  `json:"tax_amount"`
	Unit            *string          `json:"unit"`
}

// IngestBillInput replays a bill that was finalized on a device while
// offline. The invoice number is the client's and is required.
type IngestBillInput struct {
	InvoiceNumber      string            `json:"invoice_number"`
	BillNumber         *string           `json:"bill_number"`
	DeviceID           *string           `json:"device_id"`
	BillDate           *time.Time        `json:"bill_date"`
	CustomerName       *string           `json:"customer_name"`
	CustomerPhone      *string           `json:"customer_phone"`
	CustomerEmail      *string           `json:"customer_email"`
	CustomerAddress    *string           `json:"customer_address"`
	BillingMode        enums.BillingMode `json:"billing_mode"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	TotalTax           decimal.Decimal   `json:"total_tax"`
	CGSTAmount         decimal.Decimal   `json:"cgst_amount"`
	SGSTAmount         decimal.Decimal   `json:"sgst_amount"`
	IGSTAmount         decimal.Decimal   `json:"igst_amount"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	PaymentMode        enums.PaymentMode `json:"payment_mode"`
	PaymentReference   *string           `json:"payment_reference"`
	AmountPaid         decimal.Decimal   `json:"amount_paid"`
	ChangeAmount       decimal.Decimal   `json:"change_amount"`
	DiscountAmount     decimal.Decimal   `json:"discount_amount"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage"`
	Notes              *string           `json:"notes"`
	TableNumber        *string           `json:"table_number"`
	Lines              []IngestLineInput `json:"lines" validate:"required,min=1,dive"`
}

// LineDTO is the wire shape of a stored bill line.
type LineDTO struct {
	ID              uuid.UUID        `json:"id"`
	ItemID          *uuid.UUID       `json:"item_id,omitempty"`
	OriginalItemID  *uuid.UUID       `json:"original_item_id,omitempty"`
	ItemName        string           `json:"item_name"`
	ItemDescription *string          `json:"item_description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	MRPPrice        *decimal.Decimal `json:"mrp_price,omitempty"`
	PriceType       enums.PriceType  `json:"price_type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	HSNCode         *string          `json:"hsn_code,omitempty"`
	GSTPercentage   decimal.Decimal  `json:"gst_percentage"`
	TaxAmount       decimal.Decimal  `json:"tax_amount"`
	Unit            *string          `json:"unit,omitempty"`
}

// BillDTO is the wire shape of a stored bill.
type BillDTO struct {
	ID                 uuid.UUID         `json:"id"`
	VendorID           uuid.UUID         `json:"vendor_id"`
	DeviceID           *string           `json:"device_id,omitempty"`
	InvoiceNumber      string            `json:"invoice_number"`
	BillNumber         string            `json:"bill_number"`
	BillDate           time.Time         `json:"bill_date"`
	CustomerName       *string           `json:"customer_name,omitempty"`
	CustomerPhone      *string           `json:"customer_phone,omitempty"`
	CustomerEmail      *string           `json:"customer_email,omitempty"`
	CustomerAddress    *string           `json:"customer_address,omitempty"`
	BillingMode        enums.BillingMode `json:"billing_mode"`
	Subtotal           decimal.Decimal   `json:"subtotal"`
	TotalTax           decimal.Decimal   `json:"total_tax"`
	CGSTAmount         decimal.Decimal   `json:"cgst_amount"`
	SGSTAmount         decimal.Decimal   `json:"sgst_amount"`
	IGSTAmount         decimal.Decimal   `json:"igst_amount"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	PaymentMode        enums.PaymentMode `json:"payment_mode"`
	PaymentReference   *string           `json:"payment_reference,omitempty"`
	AmountPaid         decimal.Decimal   `json:"amount_paid"`
	ChangeAmount       decimal.Decimal   `json:"change_amount"`
	DiscountAmount     decimal.Decimal   `json:"discount_amount"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage"`
	Notes              *string           `json:"notes,omitempty"`
	TableNumber        *string           `json:"table_number,omitempty"`
	SyncedAt           *time.Time        `json:"synced_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Lines              []LineDTO         `json:"lines"`
}

// IngestResult is the outcome of one ingested bill.
type IngestResult struct {
	Bill        *BillDTO `json:"bill"`
	Redelivered bool     `json:"redelivered"`
}

func toLineDTO(line models.BillLine) LineDTO {
	return LineDTO{
		ID:              line.ID,
		ItemID:          line.ItemID,
		OriginalItemID:  line.OriginalItemID,
		ItemName:        line.ItemName,
		ItemDescription: line.ItemDescription,
		Price:           line.Price,
		MRPPrice:        line.MRPPrice,
		PriceType:       line.PriceType,
		Quantity:        line.Quantity,
		Subtotal:        line.Subtotal,
		HSNCode:         line.HSNCode,
		GSTPercentage:   line.GSTPercentage,
		TaxAmount:       line.TaxAmount,
		Unit:            line.Unit,
	}
}

func toBillDTO(bill *models.Bill) *BillDTO {
	if bill == nil {
		return nil
	}
	out := &BillDTO{
		ID:                 bill.ID,
		VendorID:           bill.VendorID,
		DeviceID:           bill.DeviceID,
		InvoiceNumber:      bill.InvoiceNumber,
		BillNumber:         bill.BillNumber,
		BillDate:           bill.BillDate,
		CustomerName:       bill.CustomerName,
		CustomerPhone:      bill.CustomerPhone,
		CustomerEmail:      bill.CustomerEmail,
		CustomerAddress:    bill.CustomerAddress,
		BillingMode:        bill.BillingMode,
		Subtotal:           bill.Subtotal,
		TotalTax:           bill.TotalTax,
		CGSTAmount:         bill.CGSTAmount,
		SGSTAmount:         bill.SGSTAmount,
		IGSTAmount:         bill.IGSTAmount,
		TotalAmount:        bill.TotalAmount,
		PaymentMode:        bill.PaymentMode,
		PaymentReference:   bill.PaymentReference,
		AmountPaid:         bill.AmountPaid,
		ChangeAmount:       bill.ChangeAmount,
		DiscountAmount:     bill.DiscountAmount,
		DiscountPercentage: bill.DiscountPercentage,
		Notes:              bill.Notes,
		TableNumber:        bill.TableNumber,
		SyncedAt:           bill.SyncedAt,
		CreatedAt:          bill.CreatedAt,
		UpdatedAt:          bill.UpdatedAt,
		Lines:              make([]LineDTO, 0, len(bill.Lines)),
	}
	for _, line := range bill.Lines {
		out.Lines = append(out.Lines, toLineDTO(line))
	}
	return out
}
