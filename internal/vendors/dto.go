package vendors

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
)

// UpdateProfileInput patches the vendor's business profile; nil fields
// are left unchanged.
type UpdateProfileInput struct {
	BusinessName *string          `json:"business_name"`
	Phone        *string          `json:"phone"`
	Address      *string          `json:"address"`
	GSTNo        *string          `json:"gst_no"`
	FSSAILicense *string          `json:"fssai_license"`
	FooterNote   *string          `json:"footer_note"`
	ServiceCode  *string          `json:"service_code"`
	ServiceRate  *decimal.Decimal `json:"service_rate"`
}

// ProfileDTO is the wire shape of a vendor profile. The security PIN
// hash never leaves the service; only its presence is reported.
type ProfileDTO struct {
	ID           uuid.UUID        `json:"id"`
	BusinessName string           `json:"business_name"`
	Phone        *string          `json:"phone,omitempty"`
	Address      *string          `json:"address,omitempty"`
	GSTNo        *string          `json:"gst_no,omitempty"`
	FSSAILicense *string          `json:"fssai_license,omitempty"`
	FooterNote   *string          `json:"footer_note,omitempty"`
	ServiceCode  *string          `json:"service_code,omitempty"`
	ServiceRate  *decimal.Decimal `json:"service_rate,omitempty"`
	HasPin       bool             `json:"has_pin"`
	IsApproved   bool             `json:"is_approved"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// EffectiveVendor is the vendor a user acts for, tagged with how the
// association was resolved.
type EffectiveVendor struct {
	Vendor *models.Vendor
	Role   enums.MemberRole
}

func toProfileDTO(vendor *models.Vendor) *ProfileDTO {
	if vendor == nil {
		return nil
	}
	return &ProfileDTO{
		ID:           vendor.ID,
		BusinessName: vendor.BusinessName,
		Phone:        vendor.Phone,
		Address:      vendor.Address,
		GSTNo:        vendor.GSTNo,
		FSSAILicense: vendor.FSSAILicense,
		FooterNote:   vendor.FooterNote,
		ServiceCode:  vendor.ServiceCode,
		ServiceRate:  vendor.ServiceRate,
		HasPin:       vendor.SecurityPin != nil,
		IsApproved:   vendor.IsApproved,
		CreatedAt:    vendor.CreatedAt,
		UpdatedAt:    vendor.UpdatedAt,
	}
}
