package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
	"github.com/posbill/billsync-backend/pkg/enums"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reconciles offline catalog batches against the server state.
type Service interface {
	ReconcileItems(ctx context.Context, vendorID uuid.UUID, ops []ItemOperation) (*BatchResult, error)
	ReconcileCategories(ctx context.Context, vendorID uuid.UUID, ops []CategoryOperation) (*BatchResult, error)
}

type service struct {
	repo    Repository
	txr     txRunner
	logg    *logger.Logger
	metrics *metrics.ServiceMetrics
	now     func() time.Time
}

// NewService wires the sync reconciler.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, m *metrics.ServiceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	return &service{
		repo:    repo,
		txr:     tx,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// ReconcileItems applies a batch of item operations with last-write-wins
// semantics. Each operation commits independently; a failed operation is
// reported in its result and never rolls back its siblings.
func (s *service) ReconcileItems(ctx context.Context, vendorID uuid.UUID, ops []ItemOperation) (*BatchResult, error) {
	start := s.now()
	batch := &BatchResult{Results: make([]OperationResult, 0, len(ops))}
	var opErrs error

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			s.failRemainingItems(batch, ops[i:])
			break
		}

		result := s.applyItemOp(ctx, vendorID, op)
		s.record(batch, "item", op.Operation.String(), result)
		if result.Error != nil {
			opErrs = multierr.Append(opErrs, fmt.Errorf("item %s %s: %s", op.EntityID, op.Operation, *result.Error))
		}
	}

	s.metrics.ObserveReconcile("item", s.now().Sub(start))
	if opErrs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithVendorID(ctx, vendorID.String()), fmt.Sprintf("item batch finished with failures: %v", opErrs))
	}
	return batch, nil
}

// ReconcileCategories mirrors ReconcileItems for categories.
func (s *service) ReconcileCategories(ctx context.Context, vendorID uuid.UUID, ops []CategoryOperation) (*BatchResult, error) {
	start := s.now()
	batch := &BatchResult{Results: make([]OperationResult, 0, len(ops))}
	var opErrs error

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			s.failRemainingCategories(batch, ops[i:])
			break
		}

		result := s.applyCategoryOp(ctx, vendorID, op)
		s.record(batch, "category", op.Operation.String(), result)
		if result.Error != nil {
			opErrs = multierr.Append(opErrs, fmt.Errorf("category %s %s: %s", op.EntityID, op.Operation, *result.Error))
		}
	}

	s.metrics.ObserveReconcile("category", s.now().Sub(start))
	if opErrs != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithVendorID(ctx, vendorID.String()), fmt.Sprintf("category batch finished with failures: %v", opErrs))
	}
	return batch, nil
}

func (s *service) record(batch *BatchResult, entity, operation string, result OperationResult) {
	batch.Results = append(batch.Results, result)
	switch result.Status {
	case enums.SyncStatusError:
		batch.Errors++
	default:
		batch.Synced++
	}
	s.metrics.IncSyncOp(entity, operation, string(result.Status))
}

func (s *service) applyItemOp(ctx context.Context, vendorID uuid.UUID, op ItemOperation) OperationResult {
	result := OperationResult{EntityID: op.EntityID, Operation: op.Operation}

	if !op.Operation.IsValid() {
		return errResult(result, fmt.Sprintf("unknown operation %q", op.Operation), false)
	}
	if op.EntityID == uuid.Nil {
		return errResult(result, "entity_id is required", false)
	}

	ts := s.effectiveTimestamp(op.Timestamp)

	switch op.Operation {
	case enums.SyncOperationDelete:
		// Delete always wins, and deleting something already gone is
		// still convergent.
		if err := s.inTx(ctx, func(repo Repository) error {
			return repo.DeleteItem(ctx, vendorID, op.EntityID)
		}); err != nil {
			return errResult(result, err.Error(), true)
		}
		result.Status = enums.SyncStatusSuccess
		return result

	default:
		if op.Payload == nil {
			return errResult(result, "payload is required", false)
		}
		if op.Payload.Name == "" {
			return errResult(result, "name is required", false)
		}
		if op.Payload.PriceType != "" && !op.Payload.PriceType.IsValid() {
			return errResult(result, fmt.Sprintf("invalid price_type %q", op.Payload.PriceType), false)
		}

		var skippedState *ItemState
		err := s.inTx(ctx, func(repo Repository) error {
			if len(op.Payload.CategoryIDs) > 0 {
				active, err := repo.ActiveCategoryIDs(ctx, vendorID, op.Payload.CategoryIDs)
				if err != nil {
					return err
				}
				for _, id := range op.Payload.CategoryIDs {
					if !active[id] {
						return &validationError{msg: fmt.Sprintf("category %s not found for vendor", id)}
					}
				}
			}

			existing, err := repo.FindItem(ctx, vendorID, op.EntityID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				item := newItemFromPayload(vendorID, op.EntityID, op.Payload, ts)
				return repo.CreateItem(ctx, item)
			}
			if err != nil {
				return err
			}

			if !ts.After(existing.UpdatedAt) {
				state := itemState(existing)
				skippedState = &state
				return nil
			}

			applyItemPayload(existing, op.Payload, ts)
			return repo.SaveItem(ctx, existing)
		})
		if err != nil {
			var vErr *validationError
			if errors.As(err, &vErr) {
				return errResult(result, vErr.msg, false)
			}
			return errResult(result, err.Error(), true)
		}

		if skippedState != nil {
			result.Status = enums.SyncStatusSkipped
			result.Data = skippedState
			return result
		}
		result.Status = enums.SyncStatusSuccess
		return result
	}
}

func (s *service) applyCategoryOp(ctx context.Context, vendorID uuid.UUID, op CategoryOperation) OperationResult {
	result := OperationResult{EntityID: op.EntityID, Operation: op.Operation}

	if !op.Operation.IsValid() {
		return errResult(result, fmt.Sprintf("unknown operation %q", op.Operation), false)
	}
	if op.EntityID == uuid.Nil {
		return errResult(result, "entity_id is required", false)
	}

	ts := s.effectiveTimestamp(op.Timestamp)

	switch op.Operation {
	case enums.SyncOperationDelete:
		if err := s.inTx(ctx, func(repo Repository) error {
			return repo.DeleteCategory(ctx, vendorID, op.EntityID)
		}); err != nil {
			return errResult(result, err.Error(), true)
		}
		result.Status = enums.SyncStatusSuccess
		return result

	default:
		if op.Payload == nil {
			return errResult(result, "payload is required", false)
		}
		if op.Payload.Name == "" {
			return errResult(result, "name is required", false)
		}

		var skippedState *CategoryState
		err := s.inTx(ctx, func(repo Repository) error {
			existing, err := repo.FindCategory(ctx, vendorID, op.EntityID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				category := newCategoryFromPayload(vendorID, op.EntityID, op.Payload, ts)
				return repo.CreateCategory(ctx, category)
			}
			if err != nil {
				return err
			}

			if !ts.After(existing.UpdatedAt) {
				state := categoryState(existing)
				skippedState = &state
				return nil
			}

			applyCategoryPayload(existing, op.Payload, ts)
			return repo.SaveCategory(ctx, existing)
		})
		if err != nil {
			var vErr *validationError
			if errors.As(err, &vErr) {
				return errResult(result, vErr.msg, false)
			}
			return errResult(result, err.Error(), true)
		}

		if skippedState != nil {
			result.Status = enums.SyncStatusSkipped
			result.Data = skippedState
			return result
		}
		result.Status = enums.SyncStatusSuccess
		return result
	}
}

// inTx runs fn against a transaction-bound repository.
func (s *service) inTx(ctx context.Context, fn func(repo Repository) error) error {
	return s.txr.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
}

func (s *service) effectiveTimestamp(ts Timestamp) time.Time {
	if v := ts.Time(); v != nil && !v.IsZero() {
		return v.UTC()
	}
	return s.now().UTC()
}

func (s *service) failRemainingItems(batch *BatchResult, rest []ItemOperation) {
	for _, op := range rest {
		result := OperationResult{EntityID: op.EntityID, Operation: op.Operation}
		s.record(batch, "item", op.Operation.String(), canceledResult(result))
	}
}

func (s *service) failRemainingCategories(batch *BatchResult, rest []CategoryOperation) {
	for _, op := range rest {
		result := OperationResult{EntityID: op.EntityID, Operation: op.Operation}
		s.record(batch, "category", op.Operation.String(), canceledResult(result))
	}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func errResult(result OperationResult, msg string, retryable bool) OperationResult {
	result.Status = enums.SyncStatusError
	result.Error = &msg
	result.Retryable = retryable
	return result
}

func canceledResult(result OperationResult) OperationResult {
	return errResult(result, "batch canceled before this operation", true)
}

func newItemFromPayload(vendorID, id uuid.UUID, p *ItemPayload, ts time.Time) *models.Item {
	item := &models.Item{
		ID:            id,
		VendorID:      vendorID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		MRPPrice:      p.MRPPrice,
		PriceType:     enums.PriceTypeExclusive,
		HSNCode:       p.HSNCode,
		HSNRate:       p.HSNRate,
		SKU:           p.SKU,
		Barcode:       p.Barcode,
		StockQuantity: p.StockQuantity,
		CategoryIDs:   p.CategoryIDs,
		IsActive:      true,
		UpdatedAt:     ts,
	}
	if p.PriceType != "" {
		item.PriceType = p.PriceType
	}
	if p.IsActive != nil {
		item.IsActive = *p.IsActive
	}
	if p.SortOrder != nil {
		item.SortOrder = *p.SortOrder
	}
	return item
}

func applyItemPayload(item *models.Item, p *ItemPayload, ts time.Time) {
	item.Name = p.Name
	item.Description = p.Description
	item.Price = p.Price
	item.MRPPrice = p.MRPPrice
	if p.PriceType != "" {
		item.PriceType = p.PriceType
	}
	item.HSNCode = p.HSNCode
	item.HSNRate = p.HSNRate
	item.SKU = p.SKU
	item.Barcode = p.Barcode
	item.StockQuantity = p.StockQuantity
	item.CategoryIDs = p.CategoryIDs
	if p.IsActive != nil {
		item.IsActive = *p.IsActive
	}
	if p.SortOrder != nil {
		item.SortOrder = *p.SortOrder
	}
	item.UpdatedAt = ts
}

func newCategoryFromPayload(vendorID, id uuid.UUID, p *CategoryPayload, ts time.Time) *models.Category {
	category := &models.Category{
		ID:          id,
		VendorID:    vendorID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    true,
		UpdatedAt:   ts,
	}
	if p.IsActive != nil {
		category.IsActive = *p.IsActive
	}
	if p.SortOrder != nil {
		category.SortOrder = *p.SortOrder
	}
	return category
}

func applyCategoryPayload(category *models.Category, p *CategoryPayload, ts time.Time) {
	category.Name = p.Name
	category.Description = p.Description
	if p.IsActive != nil {
		category.IsActive = *p.IsActive
	}
	if p.SortOrder != nil {
		category.SortOrder = *p.SortOrder
	}
	category.UpdatedAt = ts
}

func itemState(item *models.Item) ItemState {
	return ItemState{
		ID:            item.ID,
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
		CategoryIDs:   item.CategoryIDs,
		IsActive:      item.IsActive,
		SortOrder:     item.SortOrder,
		UpdatedAt:     item.UpdatedAt,
	}
}

func categoryState(category *models.Category) CategoryState {
	return CategoryState{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
		SortOrder:   category.SortOrder,
		UpdatedAt:   category.UpdatedAt,
	}
}
