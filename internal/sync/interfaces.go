package sync

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
)

// Repository defines persistence operations for catalog reconciliation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, vendorID, itemID uuid.UUID) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	SaveItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, vendorID, itemID uuid.UUID) error
	FindCategory(ctx context.Context, vendorID, categoryID uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SaveCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, vendorID, categoryID uuid.UUID) error
	ActiveCategoryIDs(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}
