package vendors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
)

func setupVendorsTestDB(t *testing.T) *gorm.DB {
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
	vendorUsers := `
CREATE TABLE IF NOT EXISTS vendor_users (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'staff',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  UNIQUE (vendor_id, user_id)
);`

	for _, ddl := range []string{vendors, vendorUsers} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedVendor(t *testing.T, db *gorm.DB, mutate func(*models.Vendor)) *models.Vendor {
	t.Helper()

	vendor := &models.Vendor{
		ID:           uuid.New(),
		OwnerUserID:  uuid.New(),
		BusinessName: "Annapurna Mess",
		IsApproved:   true,
	}
	if mutate != nil {
		mutate(vendor)
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}
