package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/db/models"
	dbtypes "github.com/posbill/billsync-backend/pkg/db/types"
	"github.com/posbill/billsync-backend/pkg/enums"
)

func newSyncService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func tsOf(t time.Time) Timestamp {
	return TimestampOf(t)
}

func itemPayload(name, price string) *ItemPayload {
	p, _ := decimal.NewFromString(price)
	return &ItemPayload{Name: name, Price: p}
}

func TestReconcileItemsCreateOnMissing(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()
	itemID := uuid.New()
	stamp := time.Now().UTC().Add(-time.Hour)

	batch, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{{
		EntityID:  itemID,
		Operation: enums.SyncOperationUpdate,
		Timestamp: tsOf(stamp),
		Payload:   itemPayload("Masala Dosa", "120.00"),
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if batch.Synced != 1 || batch.Errors != 0 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if batch.Results[0].Status != enums.SyncStatusSuccess {
		t.Fatalf("expected success, got %s", batch.Results[0].Status)
	}

	var item models.Item
	if err := db.Where("id = ?", itemID).First(&item).Error; err != nil {
		t.Fatalf("find created item: %v", err)
	}
	if !item.UpdatedAt.Equal(stamp) {
		t.Fatalf("expected stamp %v preserved, got %v", stamp, item.UpdatedAt)
	}
}

func TestReconcileItemsStaleUpdateSkippedWithServerState(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()
	itemID := uuid.New()
	serverStamp := time.Now().UTC()

	seed := models.Item{
		ID:        itemID,
		VendorID:  vendorID,
		Name:      "Filter Coffee",
		Price:     decimal.RequireFromString("40.00"),
		PriceType: enums.PriceTypeExclusive,
		IsActive:  true,
		UpdatedAt: serverStamp,
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	batch, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{{
		EntityID:  itemID,
		Operation: enums.SyncOperationUpdate,
		Timestamp: tsOf(serverStamp.Add(-time.Minute)),
		Payload:   itemPayload("Filter Coffee Stale", "35.00"),
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	result := batch.Results[0]
	if result.Status != enums.SyncStatusSkipped {
		t.Fatalf("expected skipped, got %s", result.Status)
	}
	state, ok := result.Data.(*ItemState)
	if !ok {
		t.Fatalf("expected server state payload, got %T", result.Data)
	}
	if state.Name != "Filter Coffee" {
		t.Fatalf("expected server name preserved, got %q", state.Name)
	}

	var item models.Item
	if err := db.Where("id = ?", itemID).First(&item).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.Name != "Filter Coffee" {
		t.Fatalf("stale write must not touch the row, got %q", item.Name)
	}
}

func TestReconcileItemsIsIdempotent(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()
	itemID := uuid.New()
	stamp := time.Now().UTC()

	op := ItemOperation{
		EntityID:  itemID,
		Operation: enums.SyncOperationUpdate,
		Timestamp: tsOf(stamp),
		Payload:   itemPayload("Vada", "25.00"),
	}

	if _, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{op}); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	batch, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{op})
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	// Re-delivering the same operation converges to a skip: the stored
	// stamp equals the op stamp, so the write is not newer.
	if batch.Results[0].Status != enums.SyncStatusSkipped {
		t.Fatalf("expected skipped on redelivery, got %s", batch.Results[0].Status)
	}

	var count int64
	if err := db.Model(&models.Item{}).Where("vendor_id = ?", vendorID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 item, got %d", count)
	}
}

func TestReconcileItemsDeleteAlwaysWins(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()
	itemID := uuid.New()

	seed := models.Item{
		ID:        itemID,
		VendorID:  vendorID,
		Name:      "Idli",
		Price:     decimal.RequireFromString("30.00"),
		PriceType: enums.PriceTypeExclusive,
		IsActive:  true,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	// A delete carrying an older stamp than the server row still wins.
	batch, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{{
		EntityID:  itemID,
		Operation: enums.SyncOperationDelete,
		Timestamp: tsOf(time.Now().UTC().Add(-24 * time.Hour)),
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if batch.Results[0].Status != enums.SyncStatusSuccess {
		t.Fatalf("expected success, got %s", batch.Results[0].Status)
	}

	var count int64
	if err := db.Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected hard delete, found %d rows", count)
	}

	// Deleting an already-missing row is still a success.
	batch, err = svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{{
		EntityID:  itemID,
		Operation: enums.SyncOperationDelete,
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if batch.Results[0].Status != enums.SyncStatusSuccess {
		t.Fatalf("expected idempotent delete success, got %s", batch.Results[0].Status)
	}
}

func TestReconcileItemsRejectsForeignCategory(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()
	otherVendorID := uuid.New()

	foreign := models.Category{
		ID:        uuid.New(),
		VendorID:  otherVendorID,
		Name:      "Beverages",
		IsActive:  true,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Create(&foreign).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	payload := itemPayload("Lime Soda", "45.00")
	payload.CategoryIDs = dbtypes.UUIDArray{foreign.ID}
	good := itemPayload("Plain Soda", "30.00")

	batch, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{
		{
			EntityID:  uuid.New(),
			Operation: enums.SyncOperationCreate,
			Payload:   payload,
		},
		{
			EntityID:  uuid.New(),
			Operation: enums.SyncOperationCreate,
			Payload:   good,
		},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if batch.Errors != 1 || batch.Synced != 1 {
		t.Fatalf("expected one failure and one success, got %+v", batch)
	}
	bad := batch.Results[0]
	if bad.Status != enums.SyncStatusError || bad.Error == nil {
		t.Fatalf("expected category validation error, got %+v", bad)
	}
	if bad.Retryable {
		t.Fatalf("validation failures must not be retryable")
	}
	if batch.Results[1].Status != enums.SyncStatusSuccess {
		t.Fatalf("sibling operation should still apply")
	}
}

func TestReconcileCategoriesLWW(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()
	categoryID := uuid.New()
	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	batch, err := svc.ReconcileCategories(context.Background(), vendorID, []CategoryOperation{{
		EntityID:  categoryID,
		Operation: enums.SyncOperationCreate,
		Timestamp: tsOf(newer),
		Payload:   &CategoryPayload{Name: "Snacks"},
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if batch.Results[0].Status != enums.SyncStatusSuccess {
		t.Fatalf("expected create success, got %s", batch.Results[0].Status)
	}

	batch, err = svc.ReconcileCategories(context.Background(), vendorID, []CategoryOperation{{
		EntityID:  categoryID,
		Operation: enums.SyncOperationUpdate,
		Timestamp: tsOf(older),
		Payload:   &CategoryPayload{Name: "Stale Snacks"},
	}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	result := batch.Results[0]
	if result.Status != enums.SyncStatusSkipped {
		t.Fatalf("expected stale update skipped, got %s", result.Status)
	}
	state, ok := result.Data.(*CategoryState)
	if !ok || state.Name != "Snacks" {
		t.Fatalf("expected server state in skip result, got %+v", result.Data)
	}
}

func TestReconcileCanceledContextFailsRemaining(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := svc.ReconcileItems(ctx, vendorID, []ItemOperation{
		{EntityID: uuid.New(), Operation: enums.SyncOperationCreate, Payload: itemPayload("A", "1.00")},
		{EntityID: uuid.New(), Operation: enums.SyncOperationCreate, Payload: itemPayload("B", "2.00")},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if batch.Errors != 2 {
		t.Fatalf("expected both operations marked failed, got %+v", batch)
	}
	for _, result := range batch.Results {
		if !result.Retryable {
			t.Fatalf("canceled operations must be retryable")
		}
	}
}

func TestReconcileItemsValidation(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := newSyncService(t, db)
	vendorID := uuid.New()

	batch, err := svc.ReconcileItems(context.Background(), vendorID, []ItemOperation{
		{EntityID: uuid.Nil, Operation: enums.SyncOperationCreate, Payload: itemPayload("X", "1.00")},
		{EntityID: uuid.New(), Operation: "upsert", Payload: itemPayload("X", "1.00")},
		{EntityID: uuid.New(), Operation: enums.SyncOperationUpdate},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if batch.Errors != 3 || batch.Synced != 0 {
		t.Fatalf("expected all to fail validation, got %+v", batch)
	}
}
