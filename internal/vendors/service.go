package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/config"
	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/security"
)

// Service manages vendor profiles, the security PIN, and the lookup of
// which vendor a user acts for.
type Service interface {
	GetProfile(ctx context.Context, vendorID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, vendorID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	SetSecurityPin(ctx context.Context, vendorID uuid.UUID, pin string) error
	VerifySecurityPin(ctx context.Context, vendorID uuid.UUID, pin string) (bool, error)
	ResolveEffectiveVendor(ctx context.Context, userID uuid.UUID) (*EffectiveVendor, error)
}

type service struct {
	repo   Repository
	pinCfg config.PinConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the vendors service.
func NewService(repo Repository, pinCfg config.PinConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	return &service{
		repo:   repo,
		pinCfg: pinCfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) GetProfile(ctx context.Context, vendorID uuid.UUID) (*ProfileDTO, error) {
	vendor, err := s.findVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return toProfileDTO(vendor), nil
}

func (s *service) UpdateProfile(ctx context.Context, vendorID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	vendor, err := s.findVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	if input.BusinessName != nil {
		name := strings.TrimSpace(*input.BusinessName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "business_name cannot be empty")
		}
		vendor.BusinessName = name
	}
	if input.Phone != nil {
		vendor.Phone = input.Phone
	}
	if input.Address != nil {
		vendor.Address = input.Address
	}
	if input.GSTNo != nil {
		vendor.GSTNo = input.GSTNo
	}
	if input.FSSAILicense != nil {
		vendor.FSSAILicense = input.FSSAILicense
	}
	if input.FooterNote != nil {
		vendor.FooterNote = input.FooterNote
	}
	if input.ServiceCode != nil {
		code := strings.TrimSpace(*input.ServiceCode)
		if code == "" {
			vendor.ServiceCode = nil
			vendor.ServiceRate = nil
		} else {
			vendor.ServiceCode = &code
		}
	}
	if input.ServiceRate != nil {
		if input.ServiceRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service_rate cannot be negative")
		}
		vendor.ServiceRate = input.ServiceRate
	}

	if err := s.repo.SaveVendor(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating vendor profile")
	}
	return toProfileDTO(vendor), nil
}

// SetSecurityPin hashes and stores the vendor's dashboard PIN.
func (s *service) SetSecurityPin(ctx context.Context, vendorID uuid.UUID, pin string) error {
	if err := security.ValidatePin(pin); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pin")
	}
	vendor, err := s.findVendor(ctx, vendorID)
	if err != nil {
		return err
	}

	hash, err := security.HashPin(pin, s.pinCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing pin")
	}
	vendor.SecurityPin = &hash
	if err := s.repo.SaveVendor(ctx, vendor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing pin")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithVendorID(ctx, vendorID.String()), "security pin updated")
	}
	return nil
}

// VerifySecurityPin checks a PIN attempt against the stored hash. A vendor
// without a PIN always fails verification.
func (s *service) VerifySecurityPin(ctx context.Context, vendorID uuid.UUID, pin string) (bool, error) {
	vendor, err := s.findVendor(ctx, vendorID)
	if err != nil {
		return false, err
	}
	if vendor.SecurityPin == nil {
		return false, nil
	}
	ok, err := security.VerifyPin(pin, *vendor.SecurityPin)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying pin")
	}
	return ok, nil
}

// ResolveEffectiveVendor returns the vendor a user acts for: the vendor
// they own when one exists, otherwise the vendor of their earliest active
// staff membership.
func (s *service) ResolveEffectiveVendor(ctx context.Context, userID uuid.UUID) (*EffectiveVendor, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	vendor, err := s.repo.FindOwnedVendor(ctx, userID)
	if err == nil {
		return &EffectiveVendor{Vendor: vendor, Role: enums.MemberRoleOwner}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving owned vendor")
	}

	vendor, err = s.repo.FindStaffVendor(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no vendor association for user")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving staff vendor")
	}
	return &EffectiveVendor{Vendor: vendor, Role: enums.MemberRoleStaff}, nil
}

func (s *service) findVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindVendor(ctx, vendorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading vendor")
	}
	return vendor, nil
}
