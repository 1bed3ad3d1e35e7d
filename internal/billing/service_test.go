package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/config"
	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

func newBillingService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	repo := NewRepository(db)
	txr := gormTxRunner{db: db}
	gen, err := NewSequenceGenerator(repo, txr, testSequenceConfig(), nil)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	svc, err := NewService(repo, txr, gen, nil, config.IdempotencyConfig{TTL: time.Hour}, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateBillRejectsClientInvoiceNumber(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)

	_, err := svc.CreateBill(context.Background(), vendor.ID, CreateBillInput{
		InvoiceNumber: strPtr("CLIENT-001"),
		Lines: []LineInput{
			{ItemName: "Vada Pav", Price: dec("25.00"), Quantity: dec("1")},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateBillComputesExclusiveTaxAndIntraSplit(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)

	bill, err := svc.CreateBill(context.Background(), vendor.ID, CreateBillInput{
		BillingMode: enums.BillingModeGST,
		TaxSplit:    enums.TaxSplitIntraState,
		Lines: []LineInput{{
			ItemName:      "Paneer Tikka",
			Price:         dec("33.33"),
			Quantity:      dec("1"),
			PriceType:     enums.PriceTypeExclusive,
			HSNCode:       strPtr("2106"),
			GSTPercentage: decPtr("18"),
		}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	if !bill.Lines[0].TaxAmount.Equal(dec("6.00")) {
		t.Fatalf("expected line tax 6.00, got %s", bill.Lines[0].TaxAmount)
	}
	if !bill.TotalTax.Equal(dec("6.00")) {
		t.Fatalf("expected total tax 6.00, got %s", bill.TotalTax)
	}
	if !bill.CGSTAmount.Equal(dec("3.00")) || !bill.SGSTAmount.Equal(dec("3.00")) {
		t.Fatalf("unexpected split cgst=%s sgst=%s", bill.CGSTAmount, bill.SGSTAmount)
	}
	if !bill.IGSTAmount.IsZero() {
		t.Fatalf("expected zero igst, got %s", bill.IGSTAmount)
	}
	// Exclusive pricing adds the tax on top.
	if !bill.TotalAmount.Equal(dec("39.33")) {
		t.Fatalf("expected total 39.33, got %s", bill.TotalAmount)
	}
	if bill.InvoiceNumber == "" || bill.BillNumber == "" {
		t.Fatalf("expected server-assigned numbers, got %q %q", bill.InvoiceNumber, bill.BillNumber)
	}
}

func TestCreateBillInclusivePricingKeepsTotal(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)

	bill, err := svc.CreateBill(context.Background(), vendor.ID, CreateBillInput{
		BillingMode: enums.BillingModeGST,
		TaxSplit:    enums.TaxSplitIntraState,
		Lines: []LineInput{{
			ItemName:      "Thali",
			Price:         dec("118.00"),
			Quantity:      dec("1"),
			PriceType:     enums.PriceTypeInclusive,
			HSNCode:       strPtr("2106"),
			GSTPercentage: decPtr("18"),
		}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	// Tax is reported but already inside the price.
	if !bill.TotalTax.Equal(dec("21.24")) {
		t.Fatalf("expected reported tax 21.24, got %s", bill.TotalTax)
	}
	if !bill.TotalAmount.Equal(dec("118.00")) {
		t.Fatalf("expected total 118.00, got %s", bill.TotalAmount)
	}
}

func TestCreateBillUsesVendorServiceCodeOverHSN(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, func(v *models.Vendor) {
		v.ServiceCode = strPtr("9963")
		v.ServiceRate = decPtr("5")
	})

	bill, err := svc.CreateBill(context.Background(), vendor.ID, CreateBillInput{
		BillingMode: enums.BillingModeGST,
		Lines: []LineInput{{
			ItemName:      "Masala Chai",
			Price:         dec("100.00"),
			Quantity:      dec("2"),
			HSNCode:       strPtr("2106"),
			GSTPercentage: decPtr("18"),
		}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if !bill.Lines[0].GSTPercentage.Equal(dec("5")) {
		t.Fatalf("expected vendor service rate 5, got %s", bill.Lines[0].GSTPercentage)
	}
	if !bill.Lines[0].TaxAmount.Equal(dec("10.00")) {
		t.Fatalf("expected tax 10.00, got %s", bill.Lines[0].TaxAmount)
	}
}

func TestCreateBillNonGSTSkipsTax(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)

	bill, err := svc.CreateBill(context.Background(), vendor.ID, CreateBillInput{
		BillingMode: enums.BillingModeNonGST,
		Lines: []LineInput{{
			ItemName:      "Lime Soda",
			Price:         dec("30.00"),
			Quantity:      dec("1"),
			HSNCode:       strPtr("2202"),
			GSTPercentage: decPtr("12"),
		}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if !bill.TotalTax.IsZero() {
		t.Fatalf("expected zero tax, got %s", bill.TotalTax)
	}
	if !bill.TotalAmount.Equal(dec("30.00")) {
		t.Fatalf("expected total 30.00, got %s", bill.TotalAmount)
	}
}

func ingestInput(invoiceNumber string) IngestBillInput {
	return IngestBillInput{
		InvoiceNumber: invoiceNumber,
		BillingMode:   enums.BillingModeGST,
		Subtotal:      dec("200.00"),
		TotalTax:      dec("36.00"),
		CGSTAmount:    dec("18.00"),
		SGSTAmount:    dec("18.00"),
		IGSTAmount:    dec("0"),
		TotalAmount:   dec("236.00"),
		Lines: []IngestLineInput{{
			ItemName:      "Biryani",
			Price:         dec("200.00"),
			Quantity:      dec("1"),
			Subtotal:      dec("200.00"),
			GSTPercentage: dec("18"),
			TaxAmount:     dec("36.00"),
		}},
	}
}

func TestIngestSyncedBillRequiresInvoiceNumber(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)

	_, _, err := svc.IngestSyncedBill(context.Background(), vendor.ID, ingestInput("  "))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIngestSyncedBillIsIdempotent(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)
	ctx := context.Background()

	first, redelivered, err := svc.IngestSyncedBill(ctx, vendor.ID, ingestInput("DEV1-0007"))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if redelivered {
		t.Fatal("first delivery flagged as redelivery")
	}
	if first.SyncedAt == nil {
		t.Fatal("expected synced_at stamped")
	}

	second, redelivered, err := svc.IngestSyncedBill(ctx, vendor.ID, ingestInput("DEV1-0007"))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !redelivered {
		t.Fatal("expected redelivery flag on second ingest")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same bill, got %s then %s", first.ID, second.ID)
	}

	var lineCount int64
	if err := db.Model(&models.BillLine{}).Where("bill_id = ?", first.ID).Count(&lineCount).Error; err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if lineCount != 1 {
		t.Fatalf("expected 1 line after redelivery, got %d", lineCount)
	}
}

func TestReplaceBillLinesRecomputesTotals(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)
	ctx := context.Background()

	bill, _, err := svc.IngestSyncedBill(ctx, vendor.ID, ingestInput("DEV2-0001"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	updated, err := svc.ReplaceBillLines(ctx, vendor.ID, bill.ID, []IngestLineInput{
		{
			ItemName:      "Biryani",
			Price:         dec("200.00"),
			Quantity:      dec("1"),
			Subtotal:      dec("200.00"),
			GSTPercentage: dec("18"),
			TaxAmount:     dec("36.00"),
		},
		{
			ItemName:      "Raita",
			Price:         dec("40.00"),
			Quantity:      dec("1"),
			Subtotal:      dec("40.00"),
			GSTPercentage: dec("5"),
			TaxAmount:     dec("2.00"),
		},
	})
	if err != nil {
		t.Fatalf("replace lines: %v", err)
	}
	if len(updated.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(updated.Lines))
	}
	if !updated.Subtotal.Equal(dec("240.00")) {
		t.Fatalf("expected subtotal 240.00, got %s", updated.Subtotal)
	}
	if !updated.TotalTax.Equal(dec("38.00")) {
		t.Fatalf("expected total tax 38.00, got %s", updated.TotalTax)
	}
}

func TestReplaceBillLinesUnknownBill(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)

	_, err := svc.ReplaceBillLines(context.Background(), vendor.ID, uuid.New(), []IngestLineInput{{
		ItemName: "Papad",
		Price:    dec("10.00"),
		Quantity: dec("1"),
	}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListBillsFiltersAndPaginates(t *testing.T) {
	db := setupBillingTestDB(t)
	svc := newBillingService(t, db)
	vendor := seedVendor(t, db, nil)
	ctx := context.Background()

	for _, inv := range []string{"DEV3-0001", "DEV3-0002", "DEV3-0003"} {
		if _, _, err := svc.IngestSyncedBill(ctx, vendor.ID, ingestInput(inv)); err != nil {
			t.Fatalf("ingest %s: %v", inv, err)
		}
	}

	page, err := svc.ListBills(ctx, vendor.ID, pagination.Params{Limit: 2}, BillFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Bills) != 2 {
		t.Fatalf("expected 2 bills, got %d", len(page.Bills))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor on a full page")
	}

	rest, err := svc.ListBills(ctx, vendor.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor}, BillFilters{})
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest.Bills) != 1 {
		t.Fatalf("expected 1 remaining bill, got %d", len(rest.Bills))
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected empty cursor at end, got %q", rest.NextCursor)
	}

	cutoff := time.Now().UTC().Add(time.Minute)
	none, err := svc.ListBills(ctx, vendor.ID, pagination.Params{}, BillFilters{SyncedAfter: &cutoff})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(none.Bills) != 0 {
		t.Fatalf("expected no bills synced after cutoff, got %d", len(none.Bills))
	}
}
