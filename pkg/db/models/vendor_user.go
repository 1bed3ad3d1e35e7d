package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/posbill/billsync-backend/pkg/enums"
)

// VendorUser links a platform user to a vendor with a role. Effective
// vendor resolution prefers ownership, then active staff membership.
type VendorUser struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Role      enums.MemberRole `gorm:"column:role;not null;default:'staff'"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
