package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/posbill/billsync-backend/api/responses"
	"github.com/posbill/billsync-backend/internal/vendors"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
)

// VendorContext resolves the vendor the authenticated user acts for and
// seeds it into the request context. Requests from users without a vendor
// association, or whose vendor is not yet approved, are rejected.
func VendorContext(svc vendors.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			effective, err := svc.ResolveEffectiveVendor(r.Context(), userID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			if !effective.Vendor.IsApproved {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor account pending approval"))
				return
			}

			ctx := WithVendorID(r.Context(), effective.Vendor.ID.String())
			ctx = context.WithValue(ctx, ctxRole, string(effective.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"vendor_id": effective.Vendor.ID.String(),
					"role":      string(effective.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
