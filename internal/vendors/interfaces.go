package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
)

// Repository defines persistence operations for vendors and memberships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	SaveVendor(ctx context.Context, vendor *models.Vendor) error
	FindOwnedVendor(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
	FindStaffVendor(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
}
