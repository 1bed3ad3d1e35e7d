package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vendor represents the canonical tenant model. Service code and rate
// form the vendor-level SAC tax override applied before item HSN lookup.
type Vendor struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID  uuid.UUID        `gorm:"column:owner_user_id;type:uuid;not null"`
	BusinessName string           `gorm:"column:business_name;not null"`
	Phone        *string          `gorm:"column:phone"`
	Address      *string          `gorm:"column:address"`
	GSTNo        *string          `gorm:"column:gst_no"`
	FSSAILicense *string          `gorm:"column:fssai_license"`
	FooterNote   *string          `gorm:"column:footer_note"`
	ServiceCode  *string          `gorm:"column:service_code"`
	ServiceRate  *decimal.Decimal `gorm:"column:service_rate;type:numeric(5,2)"`
	SecurityPin  *string          `gorm:"column:security_pin"`
	IsApproved   bool             `gorm:"column:is_approved;not null;default:false"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
