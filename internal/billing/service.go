package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/internal/tax"
	"github.com/posbill/billsync-backend/pkg/config"
	"github.com/posbill/billsync-backend/pkg/db"
	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/metrics"
	"github.com/posbill/billsync-backend/pkg/pagination"
	"github.com/posbill/billsync-backend/pkg/redis"
)

const uqVendorInvoice = "uq_bills_vendor_invoice"

// Service is the bill orchestration surface. CreateBill is the online,
// server-numbered path; IngestSyncedBill replays bills finalized offline.
type Service interface {
	CreateBill(ctx context.Context, vendorID uuid.UUID, input CreateBillInput) (*BillDTO, error)
	IngestSyncedBill(ctx context.Context, vendorID uuid.UUID, input IngestBillInput) (*BillDTO, bool, error)
	ReplaceBillLines(ctx context.Context, vendorID, billID uuid.UUID, lines []IngestLineInput) (*BillDTO, error)
	GetBill(ctx context.Context, vendorID, billID uuid.UUID) (*BillDTO, error)
	ListBills(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters BillFilters) (*BillListResult, error)
}

// BillListResult is one cursor page of bills.
type BillListResult struct {
	Bills      []BillDTO `json:"bills"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type service struct {
	repo      Repository
	txr       txRunner
	sequences SequenceGenerator
	dedupe    redis.IdempotencyStore
	dedupeKey func(vendorID, invoiceNumber string) string
	dedupeTTL time.Duration
	logg      *logger.Logger
	metrics   *metrics.ServiceMetrics
	now       func() time.Time
}

// NewService wires the bill orchestrator. The redis store is optional; when
// nil the DB unique constraint alone handles duplicate ingests.
func NewService(repo Repository, txr txRunner, sequences SequenceGenerator, store *redis.Client, idem config.IdempotencyConfig, logg *logger.Logger, m *metrics.ServiceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if txr == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if sequences == nil {
		return nil, fmt.Errorf("sequence generator is required")
	}
	s := &service{
		repo:      repo,
		txr:       txr,
		sequences: sequences,
		dedupeTTL: idem.TTL,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}
	if store != nil {
		s.dedupe = store
		s.dedupeKey = store.BillIngestKey
	}
	return s, nil
}

// CreateBill persists a new server-numbered bill. The invoice number is
// always allocated here; a client-supplied one is rejected so the online
// path can never fork the sequence.
func (s *service) CreateBill(ctx context.Context, vendorID uuid.UUID, input CreateBillInput) (*BillDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if input.InvoiceNumber != nil && strings.TrimSpace(*input.InvoiceNumber) != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice_number is server-assigned; use /bills/sync to upload pre-numbered bills")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.ItemName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("lines[%d].item_name is required", i))
		}
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("lines[%d].quantity must be positive", i))
		}
	}

	vendor, err := s.repo.FindVendor(ctx, vendorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading vendor")
	}

	invoiceNumber, billNumber, err := s.sequences.Next(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	bill := s.buildBill(vendorID, vendor, invoiceNumber, billNumber, input)

	err = s.txr.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBill(ctx, bill)
	})
	if err != nil {
		if db.IsUniqueViolation(err, uqVendorInvoice) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateInvoice, err, "invoice number already exists").
				WithDetails(map[string]any{"invoice_number": invoiceNumber})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting bill")
	}

	s.metrics.IncBillCreated("server")
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithVendorID(ctx, vendorID.String()), map[string]any{
			"invoice_number": invoiceNumber,
			"lines":          len(bill.Lines),
		})
		s.logg.Info(logCtx, "bill created")
	}
	return toBillDTO(bill), nil
}

// buildBill computes per-line tax and bill totals from the input. Inclusive
// lines report tax without adding it to the total; exclusive lines add it.
func (s *service) buildBill(vendorID uuid.UUID, vendor *models.Vendor, invoiceNumber, billNumber string, input CreateBillInput) *models.Bill {
	billingMode := input.BillingMode
	if !billingMode.IsValid() {
		billingMode = enums.BillingModeGST
	}
	paymentMode := input.PaymentMode
	if !paymentMode.IsValid() {
		paymentMode = enums.PaymentModeCash
	}
	split := input.TaxSplit
	if !split.IsValid() {
		split = enums.TaxSplitIntraState
	}
	billDate := s.now()
	if input.BillDate != nil && !input.BillDate.IsZero() {
		billDate = *input.BillDate
	}

	subtotal := decimal.Zero
	totalTax := decimal.Zero
	lines := make([]models.BillLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		priceType := in.PriceType
		if !priceType.IsValid() {
			priceType = enums.PriceTypeExclusive
		}
		lineSubtotal := in.Price.Mul(in.Quantity).Round(2)

		var result tax.Result
		if billingMode == enums.BillingModeGST {
			result = tax.LineTax(lineSubtotal, tax.Context{
				ServiceCode: vendor.ServiceCode,
				ServiceRate: vendor.ServiceRate,
				HSNCode:     in.HSNCode,
				HSNRate:     in.GSTPercentage,
			})
		}

		subtotal = subtotal.Add(lineSubtotal)
		totalTax = totalTax.Add(result.Amount)

		lines = append(lines, models.BillLine{
			ItemID:          in.ItemID,
			OriginalItemID:  in.ItemID,
			ItemName:        strings.TrimSpace(in.ItemName),
			ItemDescription: in.ItemDescription,
			Price:           in.Price.Round(2),
			MRPPrice:        in.MRPPrice,
			PriceType:       priceType,
			Quantity:        in.Quantity,
			Subtotal:        lineSubtotal,
			HSNCode:         in.HSNCode,
			GSTPercentage:   result.Rate,
			TaxAmount:       result.Amount,
			Unit:            in.Unit,
		})
	}

	cgst, sgst, igst := tax.SplitTax(totalTax, split)

	total := subtotal.Sub(input.DiscountAmount)
	// Inclusive-priced lines already carry their tax inside the price.
	exclusiveTax := decimal.Zero
	for _, line := range lines {
		if line.PriceType == enums.PriceTypeExclusive {
			exclusiveTax = exclusiveTax.Add(line.TaxAmount)
		}
	}
	total = total.Add(exclusiveTax).Round(2)

	change := decimal.Zero
	if input.AmountPaid.GreaterThan(total) {
		change = input.AmountPaid.Sub(total).Round(2)
	}

	return &models.Bill{
		VendorID:           vendorID,
		DeviceID:           input.DeviceID,
		InvoiceNumber:      invoiceNumber,
		BillNumber:         billNumber,
		BillDate:           billDate,
		CustomerName:       input.CustomerName,
		CustomerPhone:      input.CustomerPhone,
		CustomerEmail:      input.CustomerEmail,
		CustomerAddress:    input.CustomerAddress,
		BillingMode:        billingMode,
		Subtotal:           subtotal.Round(2),
		TotalTax:           totalTax.Round(2),
		CGSTAmount:         cgst,
		SGSTAmount:         sgst,
		IGSTAmount:         igst,
		TotalAmount:        total,
		PaymentMode:        paymentMode,
		PaymentReference:   input.PaymentReference,
		AmountPaid:         input.AmountPaid.Round(2),
		ChangeAmount:       change,
		DiscountAmount:     input.DiscountAmount.Round(2),
		DiscountPercentage: input.DiscountPercentage.Round(2),
		Notes:              input.Notes,
		TableNumber:        input.TableNumber,
		Lines:              lines,
	}
}

// IngestSyncedBill stores a bill finalized on a device. Redelivery of an
// already-stored (vendor, invoice_number) pair returns the stored bill
// unchanged; the bool reports whether that happened. Client totals are
// trusted as-is, only normalized to two decimal places.
func (s *service) IngestSyncedBill(ctx context.Context, vendorID uuid.UUID, input IngestBillInput) (*BillDTO, bool, error) {
	if vendorID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	invoiceNumber := strings.TrimSpace(input.InvoiceNumber)
	if invoiceNumber == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "invoice_number is required on the sync path; use POST /bills for new bills")
	}
	if len(input.Lines) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	firstDelivery := true
	if s.dedupe != nil {
		won, err := s.dedupe.SetNX(ctx, s.dedupeKey(vendorID.String(), invoiceNumber), "1", s.dedupeTTL)
		if err != nil {
			// Redis is a fast path only; fall through to the DB constraint.
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "ingest dedupe store unavailable")
			}
		} else if !won {
			firstDelivery = false
		}
	}

	if !firstDelivery {
		existing, err := s.repo.FindBillByInvoiceNumber(ctx, vendorID, invoiceNumber)
		if err == nil {
			s.metrics.IncIngestDuplicate()
			return toBillDTO(existing), true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading existing bill")
		}
		// SETNX hit but no row: a prior attempt died before commit.
	}

	bill := s.buildIngestedBill(vendorID, invoiceNumber, input)

	err := s.txr.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBill(ctx, bill)
	})
	if err != nil {
		if db.IsUniqueViolation(err, uqVendorInvoice) {
			existing, ferr := s.repo.FindBillByInvoiceNumber(ctx, vendorID, invoiceNumber)
			if ferr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, ferr, "loading existing bill")
			}
			s.metrics.IncIngestDuplicate()
			return toBillDTO(existing), true, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting synced bill")
	}

	s.metrics.IncBillCreated("sync")
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithVendorID(ctx, vendorID.String()), map[string]any{
			"invoice_number": invoiceNumber,
			"lines":          len(bill.Lines),
		})
		s.logg.Info(logCtx, "synced bill ingested")
	}
	return toBillDTO(bill), false, nil
}

func (s *service) buildIngestedBill(vendorID uuid.UUID, invoiceNumber string, input IngestBillInput) *models.Bill {
	billingMode := input.BillingMode
	if !billingMode.IsValid() {
		billingMode = enums.BillingModeGST
	}
	paymentMode := input.PaymentMode
	if !paymentMode.IsValid() {
		paymentMode = enums.PaymentModeCash
	}
	billDate := s.now()
	if input.BillDate != nil && !input.BillDate.IsZero() {
		billDate = *input.BillDate
	}
	billNumber := invoiceNumber
	if input.BillNumber != nil && strings.TrimSpace(*input.BillNumber) != "" {
		billNumber = strings.TrimSpace(*input.BillNumber)
	}
	syncedAt := s.now()

	lines := make([]models.BillLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		priceType := in.PriceType
		if !priceType.IsValid() {
			priceType = enums.PriceTypeExclusive
		}
		lineSubtotal := in.Subtotal
		if lineSubtotal.IsZero() {
			lineSubtotal = in.Price.Mul(in.Quantity)
		}
		lines = append(lines, models.BillLine{
			ItemID:          in.ItemID,
			OriginalItemID:  in.OriginalItemID,
			ItemName:        strings.TrimSpace(in.ItemName),
			ItemDescription: in.ItemDescription,
			Price:           in.Price.Round(2),
			MRPPrice:        in.MRPPrice,
			PriceType:       priceType,
			Quantity:        in.Quantity,
			Subtotal:        lineSubtotal.Round(2),
			HSNCode:         in.HSNCode,
			GSTPercentage:   in.GSTPercentage.Round(2),
			TaxAmount:       in.TaxAmount.Round(2),
			Unit:            in.Unit,
		})
	}

	return &models.Bill{
		VendorID:           vendorID,
		DeviceID:           input.DeviceID,
		InvoiceNumber:      invoiceNumber,
		BillNumber:         billNumber,
		BillDate:           billDate,
		CustomerName:       input.CustomerName,
		CustomerPhone:      input.CustomerPhone,
		CustomerEmail:      input.CustomerEmail,
		CustomerAddress:    input.CustomerAddress,
		BillingMode:        billingMode,
		Subtotal:           input.Subtotal.Round(2),
		TotalTax:           input.TotalTax.Round(2),
		CGSTAmount:         input.CGSTAmount.Round(2),
		SGSTAmount:         input.SGSTAmount.Round(2),
		IGSTAmount:         input.IGSTAmount.Round(2),
		TotalAmount:        input.TotalAmount.Round(2),
		PaymentMode:        paymentMode,
		PaymentReference:   input.PaymentReference,
		AmountPaid:         input.AmountPaid.Round(2),
		ChangeAmount:       input.ChangeAmount.Round(2),
		DiscountAmount:     input.DiscountAmount.Round(2),
		DiscountPercentage: input.DiscountPercentage.Round(2),
		Notes:              input.Notes,
		TableNumber:        input.TableNumber,
		SyncedAt:           &syncedAt,
		Lines:              lines,
	}
}

// ReplaceBillLines swaps a bill's full line snapshot and recomputes the
// stored subtotal and tax sums from the new lines.
func (s *service) ReplaceBillLines(ctx context.Context, vendorID, billID uuid.UUID, lineInputs []IngestLineInput) (*BillDTO, error) {
	if len(lineInputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	var updated *models.Bill
	err := s.txr.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		bill, err := repo.FindBill(ctx, vendorID, billID)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		totalTax := decimal.Zero
		lines := make([]models.BillLine, 0, len(lineInputs))
		for _, in := range lineInputs {
			priceType := in.PriceType
			if !priceType.IsValid() {
				priceType = enums.PriceTypeExclusive
			}
			lineSubtotal := in.Subtotal
			if lineSubtotal.IsZero() {
				lineSubtotal = in.Price.Mul(in.Quantity)
			}
			lineSubtotal = lineSubtotal.Round(2)
			subtotal = subtotal.Add(lineSubtotal)
			totalTax = totalTax.Add(in.TaxAmount.Round(2))
			lines = append(lines, models.BillLine{
				ItemID:          in.ItemID,
				OriginalItemID:  in.OriginalItemID,
				ItemName:        strings.TrimSpace(in.ItemName),
				ItemDescription: in.ItemDescription,
				Price:           in.Price.Round(2),
				MRPPrice:        in.MRPPrice,
				PriceType:       priceType,
				Quantity:        in.Quantity,
				Subtotal:        lineSubtotal,
				HSNCode:         in.HSNCode,
				GSTPercentage:   in.GSTPercentage.Round(2),
				TaxAmount:       in.TaxAmount.Round(2),
				Unit:            in.Unit,
			})
		}

		if err := repo.ReplaceLines(ctx, bill.ID, lines); err != nil {
			return err
		}
		if err := repo.UpdateBillTotals(ctx, bill.ID, map[string]any{
			"subtotal":  subtotal,
			"total_tax": totalTax,
		}); err != nil {
			return err
		}

		updated, err = repo.FindBill(ctx, vendorID, billID)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing bill lines")
	}
	return toBillDTO(updated), nil
}

func (s *service) GetBill(ctx context.Context, vendorID, billID uuid.UUID) (*BillDTO, error) {
	bill, err := s.repo.FindBill(ctx, vendorID, billID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading bill")
	}
	return toBillDTO(bill), nil
}

// ListBills returns a cursor page of bills newest-first.
func (s *service) ListBills(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters BillFilters) (*BillListResult, error) {
	bills, err := s.repo.ListBills(ctx, vendorID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing bills")
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(bills) > pageSize {
		bills = bills[:pageSize]
		last := bills[len(bills)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	out := make([]BillDTO, 0, len(bills))
	for i := range bills {
		out = append(out, *toBillDTO(&bills[i]))
	}
	return &BillListResult{Bills: out, NextCursor: nextCursor}, nil
}
