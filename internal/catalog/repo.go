package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindItem(ctx context.Context, vendorID, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteItem(ctx context.Context, vendorID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, itemID).
		Delete(&models.Item{}).Error
}

func (r *repository) ListItems(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ItemFilters) ([]models.Item, error) {
	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID)

	if filters.UpdatedAfter != nil {
		query = query.Where("updated_at > ?", *filters.UpdatedAfter)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode = ?)", pattern, pattern, search)
	}
	if filters.CategoryID != nil {
		// uuid[] membership; sqlite stores the array as its text form.
		if r.db.Dialector.Name() == "sqlite" {
			query = query.Where("category_ids LIKE ?", "%"+filters.CategoryID.String()+"%")
		} else {
			query = query.Where("? = ANY(category_ids)", *filters.CategoryID)
		}
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.Item
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindCategory(ctx context.Context, vendorID, categoryID uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, categoryID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *repository) DeleteCategory(ctx context.Context, vendorID, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, categoryID).
		Delete(&models.Category{}).Error
}

func (r *repository) ListCategories(ctx context.Context, vendorID uuid.UUID, filters CategoryFilters) ([]models.Category, error) {
	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID)

	if filters.UpdatedAfter != nil {
		query = query.Where("updated_at > ?", *filters.UpdatedAfter)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var categories []models.Category
	err := query.
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) ActiveCategoryIDs(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var found []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("vendor_id = ? AND id IN ? AND is_active = ?", vendorID, ids, true).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		result[id] = true
	}
	return result, nil
}
