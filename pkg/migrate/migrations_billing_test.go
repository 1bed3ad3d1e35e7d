package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBillingMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_billing.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no billing migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS bill_sequences",
		"CHECK (starting_number >= 1)",
		"CHECK (last_issued >= 0)",
		"CONSTRAINT uq_bills_vendor_invoice UNIQUE (vendor_id, invoice_number)",
		"REFERENCES bills(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS bill_sequences",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_catalog.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no catalog migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS categories",
		"UNIQUE (vendor_id, name)",
		"CREATE TABLE IF NOT EXISTS items",
		"idx_items_vendor_updated",
		"DROP TABLE IF EXISTS items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
