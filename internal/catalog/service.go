package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db"
	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

// Service is the vendor catalog surface used by the dashboard and by
// pull-side device sync.
type Service interface {
	CreateItem(ctx context.Context, vendorID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, vendorID, itemID uuid.UUID) (*ItemDTO, error)
	UpdateItem(ctx context.Context, vendorID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, vendorID, itemID uuid.UUID) error
	ListItems(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ItemFilters) (*ItemListResult, error)
	CreateCategory(ctx context.Context, vendorID uuid.UUID, input CreateCategoryInput) (*CategoryDTO, error)
	GetCategory(ctx context.Context, vendorID, categoryID uuid.UUID) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, vendorID, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, vendorID, categoryID uuid.UUID) error
	ListCategories(ctx context.Context, vendorID uuid.UUID, filters CategoryFilters) ([]CategoryDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the catalog service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	return &service{
		repo: repo,
		logg: logg,
		now:  time.Now,
	}, nil
}

func (s *service) CreateItem(ctx context.Context, vendorID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if err := s.checkCategories(ctx, vendorID, input.CategoryIDs); err != nil {
		return nil, err
	}

	priceType := input.PriceType
	if !priceType.IsValid() {
		priceType = enums.PriceTypeExclusive
	}
	now := s.now().UTC()
	item := &models.Item{
		VendorID:      vendorID,
		CategoryIDs:   input.CategoryIDs,
		Name:          name,
		Description:   input.Description,
		Price:         input.Price,
		MRPPrice:      input.MRPPrice,
		PriceType:     priceType,
		HSNCode:       input.HSNCode,
		HSNRate:       input.HSNRate,
		SKU:           input.SKU,
		Barcode:       input.Barcode,
		StockQuantity: input.StockQuantity,
		IsActive:      true,
		UpdatedAt:     now,
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating item")
	}
	return toItemDTO(item), nil
}

func (s *service) GetItem(ctx context.Context, vendorID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindItem(ctx, vendorID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading item")
	}
	return toItemDTO(item), nil
}

func (s *service) UpdateItem(ctx context.Context, vendorID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.repo.FindItem(ctx, vendorID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading item")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		item.Name = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		item.Price = *input.Price
	}
	if input.CategoryIDs != nil {
		if err := s.checkCategories(ctx, vendorID, *input.CategoryIDs); err != nil {
			return nil, err
		}
		item.CategoryIDs = *input.CategoryIDs
	}
	if input.PriceType != nil {
		if !input.PriceType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price_type")
		}
		item.PriceType = *input.PriceType
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.MRPPrice != nil {
		item.MRPPrice = input.MRPPrice
	}
	if input.HSNCode != nil {
		item.HSNCode = input.HSNCode
	}
	if input.HSNRate != nil {
		item.HSNRate = input.HSNRate
	}
	if input.SKU != nil {
		item.SKU = input.SKU
	}
	if input.Barcode != nil {
		item.Barcode = input.Barcode
	}
	if input.StockQuantity != nil {
		item.StockQuantity = input.StockQuantity
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}
	item.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating item")
	}
	return toItemDTO(item), nil
}

func (s *service) DeleteItem(ctx context.Context, vendorID, itemID uuid.UUID) error {
	if _, err := s.repo.FindItem(ctx, vendorID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading item")
	}
	if err := s.repo.DeleteItem(ctx, vendorID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting item")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ItemFilters) (*ItemListResult, error) {
	items, err := s.repo.ListItems(ctx, vendorID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing items")
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(items) > pageSize {
		items = items[:pageSize]
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *toItemDTO(&items[i]))
	}
	return &ItemListResult{Items: out, NextCursor: nextCursor}, nil
}

func (s *service) CreateCategory(ctx context.Context, vendorID uuid.UUID, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	now := s.now().UTC()
	category := &models.Category{
		VendorID:    vendorID,
		Name:        name,
		Description: input.Description,
		IsActive:    true,
		UpdatedAt:   now,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return toCategoryDTO(category), nil
}

func (s *service) GetCategory(ctx context.Context, vendorID, categoryID uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.FindCategory(ctx, vendorID, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	return toCategoryDTO(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, vendorID, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategory(ctx, vendorID, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	category.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
	}
	return toCategoryDTO(category), nil
}

func (s *service) DeleteCategory(ctx context.Context, vendorID, categoryID uuid.UUID) error {
	if _, err := s.repo.FindCategory(ctx, vendorID, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	if err := s.repo.DeleteCategory(ctx, vendorID, categoryID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context, vendorID uuid.UUID, filters CategoryFilters) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx, vendorID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *toCategoryDTO(&categories[i]))
	}
	return out, nil
}

func (s *service) checkCategories(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	known, err := s.repo.ActiveCategoryIDs(ctx, vendorID, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking categories")
	}
	for _, id := range ids {
		if !known[id] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("category %s does not exist or is inactive", id))
		}
	}
	return nil
}
