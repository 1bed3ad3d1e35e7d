package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posbill/billsync-backend/pkg/db/models"
	dbtypes "github.com/posbill/billsync-backend/pkg/db/types"
	"github.com/posbill/billsync-backend/pkg/enums"
)

// CreateItemInput creates a catalog item.
type CreateItemInput struct {
	Name          string            `json:"name" validate:"required"`
	Description   *string           `json:"description"`
	CategoryIDs   dbtypes.UUIDArray `json:"category_ids"`
	Price         decimal.Decimal   `json:"price"`
	MRPPrice      *decimal.Decimal  `json:"mrp_price"`
	PriceType     enums.PriceType   `json:"price_type"`
	HSNCode       *string           `json:"hsn_code"`
	HSNRate       *decimal.Decimal  `json:"hsn_rate"`
	SKU           *string           `json:"sku"`
	Barcode       *string           `json:"barcode"`
	StockQuantity *decimal.Decimal  `json:"stock_quantity"`
	IsActive      *bool             `json:"is_active"`
	SortOrder     *int              `json:"sort_order"`
}

// UpdateItemInput patches a catalog item; nil fields are left unchanged.
type UpdateItemInput struct {
	Name          *string            `json:"name"`
	Description   *string            `json:"description"`
	CategoryIDs   *dbtypes.UUIDArray `json:"category_ids"`
	Price         *decimal.Decimal   `json:"price"`
	MRPPrice      *decimal.Decimal   `json:"mrp_price"`
	PriceType     *enums.PriceType   `json:"price_type"`
	HSNCode       *string            `json:"hsn_code"`
	HSNRate       *decimal.Decimal   `json:"hsn_rate"`
	SKU           *string            `json:"sku"`
	Barcode       *string            `json:"barcode"`
	StockQuantity *decimal.Decimal   `json:"stock_quantity"`
	IsActive      *bool              `json:"is_active"`
	SortOrder     *int               `json:"sort_order"`
}

// CreateCategoryInput creates a category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

// UpdateCategoryInput patches a category; nil fields are left unchanged.
type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order"`
}

// ItemDTO is the wire shape of a catalog item.
type ItemDTO struct {
	ID            uuid.UUID         `json:"id"`
	VendorID      uuid.UUID         `json:"vendor_id"`
	CategoryIDs   dbtypes.UUIDArray `json:"category_ids"`
	Name          string            `json:"name"`
	Description   *string           `json:"description,omitempty"`
	Price         decimal.Decimal   `json:"price"`
	MRPPrice      *decimal.Decimal  `json:"mrp_price,omitempty"`
	PriceType     enums.PriceType   `json:"price_type"`
	HSNCode       *string           `json:"hsn_code,omitempty"`
	HSNRate       *decimal.Decimal  `json:"hsn_rate,omitempty"`
	SKU           *string           `json:"sku,omitempty"`
	Barcode       *string           `json:"barcode,omitempty"`
	StockQuantity *decimal.Decimal  `json:"stock_quantity,omitempty"`
	IsActive      bool              `json:"is_active"`
	SortOrder     int               `json:"sort_order"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CategoryDTO is the wire shape of a category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemListResult is one cursor page of items.
type ItemListResult struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func toItemDTO(item *models.Item) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		ID:            item.ID,
		VendorID:      item.VendorID,
		CategoryIDs:   item.CategoryIDs,
		Name:          item.Name,
		Description:   item.Description,
		Price:         item.Price,
		MRPPrice:      item.MRPPrice,
		PriceType:     item.PriceType,
		HSNCode:       item.HSNCode,
		HSNRate:       item.HSNRate,
		SKU:           item.SKU,
		Barcode:       item.Barcode,
		StockQuantity: item.StockQuantity,
		IsActive:      item.IsActive,
		SortOrder:     item.SortOrder,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func toCategoryDTO(category *models.Category) *CategoryDTO {
	if category == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          category.ID,
		VendorID:    category.VendorID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
		SortOrder:   category.SortOrder,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}
