package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
)

func TestDecodeBillBatchSingleObject(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/bills/sync", strings.NewReader(`{"invoice_number":"DEV1-0001"}`))
	bills, err := decodeBillBatch(req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bills) != 1 || bills[0].InvoiceNumber != "DEV1-0001" {
		t.Fatalf("unexpected batch %+v", bills)
	}
}

func TestDecodeBillBatchArray(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/bills/sync", strings.NewReader(`[{"invoice_number":"DEV1-0001"},{"invoice_number":"DEV1-0002"}]`))
	bills, err := decodeBillBatch(req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bills) != 2 || bills[1].InvoiceNumber != "DEV1-0002" {
		t.Fatalf("unexpected batch %+v", bills)
	}
}

func TestDecodeBillBatchRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/bills/sync", strings.NewReader(``))
	if _, err := decodeBillBatch(req); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeBillBatchRejectsEmptyArray(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/bills/sync", strings.NewReader(`[]`))
	if _, err := decodeBillBatch(req); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPublicIngestErrorPassesClientFaultMessages(t *testing.T) {
	got := publicIngestError(pkgerrors.New(pkgerrors.CodeValidation, "invoice_number is required"))
	if got != "invoice_number is required" {
		t.Fatalf("unexpected message %q", got)
	}

	internal := publicIngestError(pkgerrors.New(pkgerrors.CodeInternal, "pg connection refused"))
	if strings.Contains(internal, "pg connection") {
		t.Fatalf("internal detail leaked: %q", internal)
	}
}
