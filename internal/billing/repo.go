package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Where("id = ?", vendorID).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindSequenceForUpdate locks the counter row with FOR UPDATE NOWAIT so a
// concurrent allocation fails fast instead of queueing on the row.
func (r *repository) FindSequenceForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.BillSequence, error) {
	query := r.db.WithContext(ctx)
	// sqlite serializes writers itself and cannot parse FOR UPDATE.
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsNoWait})
	}
	var seq models.BillSequence
	err := query.
		Where("vendor_id = ?", vendorID).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *repository) FindSequence(ctx context.Context, vendorID uuid.UUID) (*models.BillSequence, error) {
	var seq models.BillSequence
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		First(&seq).Error
	if err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *repository) CreateSequence(ctx context.Context, seq *models.BillSequence) error {
	return r.db.WithContext(ctx).Create(seq).Error
}

func (r *repository) SaveSequence(ctx context.Context, seq *models.BillSequence) error {
	return r.db.WithContext(ctx).Save(seq).Error
}

func (r *repository) CountBills(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("vendor_id = ?", vendorID).
		Count(&count).Error
	return count, err
}

func (r *repository) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	for i := range bill.Lines {
		if bill.Lines[i].ID == uuid.Nil {
			bill.Lines[i].ID = uuid.New()
		}
		bill.Lines[i].BillID = bill.ID
	}
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *repository) FindBill(ctx context.Context, vendorID, billID uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("vendor_id = ? AND id = ?", vendorID, billID).
		First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) FindBillByInvoiceNumber(ctx context.Context, vendorID uuid.UUID, invoiceNumber string) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("vendor_id = ? AND invoice_number = ?", vendorID, invoiceNumber).
		First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) ReplaceLines(ctx context.Context, billID uuid.UUID, lines []models.BillLine) error {
	if err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Delete(&models.BillLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].BillID = billID
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) UpdateBillTotals(ctx context.Context, billID uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("id = ?", billID).
		Updates(updates).Error
}

func (r *repository) ListBills(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters BillFilters) ([]models.Bill, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("vendor_id = ?", vendorID)

	if filters.SyncedAfter != nil {
		query = query.Where("synced_at > ?", *filters.SyncedAfter)
	}
	if filters.DateFrom != nil {
		query = query.Where("bill_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("bill_date <= ?", *filters.DateTo)
	}
	if filters.BillingMode != nil {
		query = query.Where("billing_mode = ?", *filters.BillingMode)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var bills []models.Bill
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}
