package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/posbill/billsync-backend/api/responses"
	syncsvc "github.com/posbill/billsync-backend/internal/sync"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
)

// SyncItems reconciles a terminal's offline item mutations. The batch
// always answers 200 once processed; per-operation outcomes are in the
// results.
func SyncItems(svc syncsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var ops []syncsvc.ItemOperation
		if err := decodeOperations(r, &ops); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReconcileItems(r.Context(), vendorID, ops)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SyncCategories reconciles a terminal's offline category mutations.
func SyncCategories(svc syncsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var ops []syncsvc.CategoryOperation
		if err := decodeOperations(r, &ops); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReconcileCategories(r.Context(), vendorID, ops)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// decodeOperations reads a bare JSON array of sync operations. A bare
// array cannot go through validator.Struct, so emptiness is checked
// here and field-level validation stays in the reconciler.
func decodeOperations(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}

	switch ops := dest.(type) {
	case *[]syncsvc.ItemOperation:
		if len(*ops) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "sync batch is empty")
		}
	case *[]syncsvc.CategoryOperation:
		if len(*ops) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "sync batch is empty")
		}
	}
	return nil
}
