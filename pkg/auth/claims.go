package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
// VendorID is optional: token issuance happens upstream, and vendor
// resolution falls back to the membership table when it is absent.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	VendorID *uuid.UUID
	DeviceID *string
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by terminals.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
	DeviceID *string    `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}
