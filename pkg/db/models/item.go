package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/posbill/billsync-backend/pkg/db/types"
	"github.com/posbill/billsync-backend/pkg/enums"
)

// Item is a catalog entry. UpdatedAt is the authoritative last-write-wins
// stamp used by sync reconciliation.
type Item struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null"`
	CategoryIDs   dbtypes.UUIDArray `gorm:"column:category_ids;type:uuid[]"`
	Name          string            `gorm:"column:name;not null"`
	Description   *string           `gorm:"column:description"`
	Price         decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	MRPPrice      *decimal.Decimal  `gorm:"column:mrp_price;type:numeric(12,2)"`
	PriceType     enums.PriceType   `gorm:"column:price_type;not null;default:'exclusive'"`
	HSNCode       *string           `gorm:"column:hsn_code"`
	HSNRate       *decimal.Decimal  `gorm:"column:hsn_rate;type:numeric(5,2)"`
	SKU           *string           `gorm:"column:sku"`
	Barcode       *string           `gorm:"column:barcode"`
	StockQuantity *decimal.Decimal  `gorm:"column:stock_quantity;type:numeric(12,3)"`
	IsActive      bool              `gorm:"column:is_active;not null;default:true"`
	SortOrder     int               `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime:false"`
}
