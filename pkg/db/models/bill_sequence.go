package models

import (
	"time"

	"github.com/google/uuid"
)

// BillSequence is the per-vendor invoice counter row. LastIssued is
// monotone non-decreasing; StartingNumber becomes immutable once the
// vendor has issued any bill.
type BillSequence struct {
	VendorID       uuid.UUID `gorm:"column:vendor_id;type:uuid;primaryKey"`
	Prefix         string    `gorm:"column:prefix;not null;default:'INV'"`
	StartingNumber int64     `gorm:"column:starting_number;not null;default:1"`
	LastIssued     int64     `gorm:"column:last_issued;not null;default:0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
