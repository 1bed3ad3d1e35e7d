package controllers

import (
	"net/http"

	"github.com/posbill/billsync-backend/api/responses"
	"github.com/posbill/billsync-backend/api/validators"
	billingsvc "github.com/posbill/billsync-backend/internal/billing"
	vendorsvc "github.com/posbill/billsync-backend/internal/vendors"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
)

// VendorProfile returns the vendor profile for the vendor in context.
func VendorProfile(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UpdateVendorProfile patches the vendor profile; absent fields stay
// unchanged.
func UpdateVendorProfile(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vendorsvc.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), vendorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

type numberingResponse struct {
	Prefix         string `json:"prefix"`
	StartingNumber int64  `json:"starting_number"`
	LastIssued     int64  `json:"last_issued"`
}

// VendorNumbering returns the vendor's invoice numbering configuration.
func VendorNumbering(sequences billingsvc.SequenceGenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		seq, err := sequences.Config(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, numberingResponse{
			Prefix:         seq.Prefix,
			StartingNumber: seq.StartingNumber,
			LastIssued:     seq.LastIssued,
		})
	}
}

type updateNumberingRequest struct {
	Prefix         *string `json:"prefix"`
	StartingNumber *int64  `json:"starting_number"`
}

// UpdateVendorNumbering changes the invoice prefix and, while no bills
// exist yet, the starting number.
func UpdateVendorNumbering(sequences billingsvc.SequenceGenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateNumberingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Prefix == nil && payload.StartingNumber == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update"))
			return
		}

		seq, err := sequences.UpdateConfig(r.Context(), vendorID, billingsvc.SequenceConfigInput{
			Prefix:         payload.Prefix,
			StartingNumber: payload.StartingNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, numberingResponse{
			Prefix:         seq.Prefix,
			StartingNumber: seq.StartingNumber,
			LastIssued:     seq.LastIssued,
		})
	}
}

type securityPinRequest struct {
	Pin string `json:"pin" validate:"required"`
}

// SetSecurityPin stores the vendor's report-access PIN.
func SetSecurityPin(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload securityPinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetSecurityPin(r.Context(), vendorID, payload.Pin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// VerifySecurityPin checks a PIN attempt without leaking which part of
// the comparison failed.
func VerifySecurityPin(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload securityPinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.VerifySecurityPin(r.Context(), vendorID, payload.Pin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"valid": ok})
	}
}
