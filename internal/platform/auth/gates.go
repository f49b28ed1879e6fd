package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireSuperuser allows the request through only when the caller carries
// the superuser flag. It must run after Middleware.
func RequireSuperuser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFromContext(c.Request().Context())
			if ident == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !ident.Superuser {
				return echo.NewHTTPError(http.StatusForbidden, "superuser privileges required")
			}
			return next(c)
		}
	}
}

// CanAccessAccount reports whether ident may read or modify the account with
// the given id. Callers may touch their own record, superusers any record.
func CanAccessAccount(ident *Identity, accountID int64) bool {
	if ident == nil {
		return false
	}
	return ident.Superuser || ident.ID == accountID
}
