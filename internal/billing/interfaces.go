package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

// Repository defines persistence operations for bills and the per-vendor
// invoice counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	FindSequenceForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.BillSequence, error)
	FindSequence(ctx context.Context, vendorID uuid.UUID) (*models.BillSequence, error)
	CreateSequence(ctx context.Context, seq *models.BillSequence) error
	SaveSequence(ctx context.Context, seq *models.BillSequence) error
	CountBills(ctx context.Context, vendorID uuid.UUID) (int64, error)
	CreateBill(ctx context.Context, bill *models.Bill) error
	FindBill(ctx context.Context, vendorID, billID uuid.UUID) (*models.Bill, error)
	FindBillByInvoiceNumber(ctx context.Context, vendorID uuid.UUID, invoiceNumber string) (*models.Bill, error)
	ReplaceLines(ctx context.Context, billID uuid.UUID, lines []models.BillLine) error
	UpdateBillTotals(ctx context.Context, billID uuid.UUID, updates map[string]any) error
	ListBills(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters BillFilters) ([]models.Bill, error)
}

// BillFilters narrows bill listings for pull-side reconciliation.
type BillFilters struct {
	SyncedAfter *time.Time
	DateFrom    *time.Time
	DateTo      *time.Time
	BillingMode *enums.BillingMode
}
