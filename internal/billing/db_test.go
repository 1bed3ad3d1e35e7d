package billing

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	vendors := `
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  business_name TEXT NOT NULL,
  phone TEXT,
  address TEXT,
  gst_no TEXT,
  fssai_license TEXT,
  footer_note TEXT,
  service_code TEXT,
  service_rate NUMERIC,
  security_pin TEXT,
  is_approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	sequences := `
CREATE TABLE IF NOT EXISTS bill_sequences (
  vendor_id TEXT PRIMARY KEY,
  prefix TEXT NOT NULL DEFAULT 'INV',
  starting_number INTEGER NOT NULL DEFAULT 1,
  last_issued INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	bills := `
CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  device_id TEXT,
  invoice_number TEXT NOT NULL,
  bill_number TEXT NOT NULL,
  bill_date DATETIME NOT NULL,
  customer_name TEXT,
  customer_phone TEXT,
  customer_email TEXT,
  customer_address TEXT,
  billing_mode TEXT NOT NULL DEFAULT 'gst',
  subtotal NUMERIC NOT NULL,
  total_tax NUMERIC NOT NULL,
  cgst_amount NUMERIC NOT NULL,
  sgst_amount NUMERIC NOT NULL,
  igst_amount NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  payment_mode TEXT NOT NULL DEFAULT 'cash',
  payment_reference TEXT,
  amount_paid NUMERIC NOT NULL DEFAULT 0,
  change_amount NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  discount_percentage NUMERIC NOT NULL DEFAULT 0,
  notes TEXT,
  table_number TEXT,
  synced_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (vendor_id, invoice_number)
);`
	billLines := `
CREATE TABLE IF NOT EXISTS bill_lines (
  id TEXT PRIMARY KEY,
  bill_id TEXT NOT NULL,
  item_id TEXT,
  original_item_id TEXT,
  item_name TEXT NOT NULL,
  item_description TEXT,
  price NUMERIC NOT NULL,
  mrp_price NUMERIC,
  price_type TEXT NOT NULL DEFAULT 'exclusive',
  quantity NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL,
  hsn_code TEXT,
  gst_percentage NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  unit TEXT,
  created_at DATETIME
);`

	for _, ddl := range []string{vendors, sequences, bills, billLines} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedVendor(t *testing.T, db *gorm.DB, mutate func(*models.Vendor)) *models.Vendor {
	t.Helper()

	vendor := &models.Vendor{
		ID:           uuid.New(),
		OwnerUserID:  uuid.New(),
		BusinessName: "Juno Chai Stall",
		IsApproved:   true,
	}
	if mutate != nil {
		mutate(vendor)
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
