/*
middleware.go - Session and admin gating

The session token lives in an httpOnly cookie. RequireAuth resolves it to
an identity (employee id + admin flag) stored on the request context;
RequireAdmin additionally checks the flag. Handlers read the identity
with employeeFrom / identityFrom.
*/
package api

import (
	"context"
	"net/http"

	"github.com/gowri/coop-ledger/auth"
	"github.com/gowri/coop-ledger/ledger"
)

type contextKey string

const identityKey contextKey = "identity"

// identity is the authenticated caller of a request.
type identity struct {
	EmployeeID ledger.EmployeeID
	IsAdmin    bool
}

// RequireAuth rejects requests without a valid session cookie.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized - no token provided", nil)
			return
		}

		claims, err := h.Tokens.Verify(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized - invalid token", nil)
			return
		}

		id := identity{
			EmployeeID: ledger.EmployeeID(claims.Subject),
			IsAdmin:    claims.IsAdmin,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// RequireAdmin gates admin-only routes. Must run after RequireAuth.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok || !id.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFrom(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey).(identity)
	return id, ok
}

func employeeFrom(ctx context.Context) ledger.EmployeeID {
	id, _ := identityFrom(ctx)
	return id.EmployeeID
}
