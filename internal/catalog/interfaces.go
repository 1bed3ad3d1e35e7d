package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

// Repository defines persistence operations for the vendor catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, vendorID, itemID uuid.UUID) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	SaveItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, vendorID, itemID uuid.UUID) error
	ListItems(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ItemFilters) ([]models.Item, error)
	FindCategory(ctx context.Context, vendorID, categoryID uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SaveCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, vendorID, categoryID uuid.UUID) error
	ListCategories(ctx context.Context, vendorID uuid.UUID, filters CategoryFilters) ([]models.Category, error)
	ActiveCategoryIDs(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// ItemFilters narrows item listings; UpdatedAfter drives the pull side
// of device sync.
type ItemFilters struct {
	UpdatedAfter *time.Time
	CategoryID   *uuid.UUID
	Search       string
	IsActive     *bool
}

// CategoryFilters narrows category listings.
type CategoryFilters struct {
	UpdatedAfter *time.Time
	Search       string
	IsActive     *bool
}
