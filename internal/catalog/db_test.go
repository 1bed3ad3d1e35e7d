package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME NOT NULL,
  UNIQUE (vendor_id, name)
);`
	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  category_ids TEXT,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  mrp_price NUMERIC,
  price_type TEXT NOT NULL DEFAULT 'exclusive',
  hsn_code TEXT,
  hsn_rate NUMERIC,
  sku TEXT,
  barcode TEXT,
  stock_quantity NUMERIC,
  is_active INTEGER NOT NULL DEFAULT 1,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME NOT NULL
);`

	for _, ddl := range []string{categories, items} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}
