package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/posbill/billsync-backend/api/middleware"
	"github.com/posbill/billsync-backend/api/responses"
	"github.com/posbill/billsync-backend/api/validators"
	billingsvc "github.com/posbill/billsync-backend/internal/billing"
	"github.com/posbill/billsync-backend/pkg/enums"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/pagination"
)

// CreateBill finalizes an online sale. The invoice number is assigned by
// the server's gapless sequence.
func CreateBill(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload billingsvc.CreateBillInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.DeviceID == nil {
			if deviceID := middleware.DeviceIDFromContext(r.Context()); deviceID != "" {
				payload.DeviceID = &deviceID
			}
		}

		bill, err := svc.CreateBill(r.Context(), vendorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bill)
	}
}

type billSyncResult struct {
	InvoiceNumber string              `json:"invoice_number"`
	Status        string              `json:"status"`
	Bill          *billingsvc.BillDTO `json:"bill,omitempty"`
	Error         *string             `json:"error,omitempty"`
}

type billSyncResponse struct {
	Synced     int              `json:"synced"`
	Duplicates int              `json:"duplicates"`
	Errors     int              `json:"errors"`
	Results    []billSyncResult `json:"results"`
}

// SyncBills ingests bills finalized offline. The body is one bill object
// or an array of them; each is reported individually so a partial batch
// failure never discards the rest.
func SyncBills(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bills, err := decodeBillBatch(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deviceID := middleware.DeviceIDFromContext(r.Context())

		resp := billSyncResponse{Results: make([]billSyncResult, 0, len(bills))}
		for _, input := range bills {
			if input.DeviceID == nil && deviceID != "" {
				id := deviceID
				input.DeviceID = &id
			}

			bill, redelivered, ingestErr := svc.IngestSyncedBill(r.Context(), vendorID, input)
			result := billSyncResult{InvoiceNumber: input.InvoiceNumber}
			switch {
			case ingestErr != nil:
				msg := publicIngestError(ingestErr)
				result.Status = "error"
				result.Error = &msg
				resp.Errors++
			case redelivered:
				result.Status = "duplicate"
				result.Bill = bill
				resp.Duplicates++
			default:
				result.Status = "created"
				result.Bill = bill
				resp.Synced++
			}
			resp.Results = append(resp.Results, result)
		}

		responses.WriteSuccess(w, resp)
	}
}

// decodeBillBatch accepts a single bill object or a JSON array of them.
func decodeBillBatch(r *http.Request) ([]billingsvc.IngestBillInput, error) {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request")
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body is empty")
	}

	if trimmed[0] == '[' {
		var batch []billingsvc.IngestBillInput
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
		}
		if len(batch) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sync batch is empty")
		}
		return batch, nil
	}

	var single billingsvc.IngestBillInput
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return []billingsvc.IngestBillInput{single}, nil
}

// publicIngestError keeps internal error detail out of batch results.
func publicIngestError(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		meta := pkgerrors.MetadataFor(typed.Code())
		switch typed.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeConflict, pkgerrors.CodeDuplicateInvoice:
			if m := typed.Message(); m != "" {
				return m
			}
		}
		return meta.PublicMessage
	}
	return pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage
}

// GetBill returns one stored bill with its lines.
func GetBill(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		billID, err := pathUUID(r, "billID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.GetBill(r.Context(), vendorID, billID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

type replaceLinesRequest struct {
	Lines []billingsvc.IngestLineInput `json:"lines" validate:"required,min=1,dive"`
}

// ReplaceBillLines swaps a bill's line set and recomputes its totals.
func ReplaceBillLines(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		billID, err := pathUUID(r, "billID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload replaceLinesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.ReplaceBillLines(r.Context(), vendorID, billID, payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

// ListBills returns a cursor page of bills, newest first.
func ListBills(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters billingsvc.BillFilters
		if filters.SyncedAfter, err = validators.ParseQueryTime(r, "synced_after"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.DateFrom, err = validators.ParseQueryTime(r, "date_from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.DateTo, err = validators.ParseQueryTime(r, "date_to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("billing_mode")); raw != "" {
			mode, parseErr := enums.ParseBillingMode(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid billing_mode"))
				return
			}
			filters.BillingMode = &mode
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListBills(r.Context(), vendorID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
