package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller placed on the request context. It
// mirrors the account record without importing the account domain.
type Identity struct {
	ID        int64
	Username  string
	Superuser bool
}

// Resolver turns a verified token subject back into an Identity. Unknown or
// inactive subjects must return an error so the middleware fails closed.
type Resolver interface {
	Resolve(ctx context.Context, username string) (*Identity, error)
}

// ResolverFunc is a function adapter for Resolver.
type ResolverFunc func(ctx context.Context, username string) (*Identity, error)

func (f ResolverFunc) Resolve(ctx context.Context, username string) (*Identity, error) {
	return f(ctx, username)
}

// Middleware authenticates requests via the Authorization header: it parses
// the bearer token, verifies it, and resolves the subject to an account.
// Every failure path yields 401.
func Middleware(issuer *TokenIssuer, resolver Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			subject, err := issuer.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			ident, err := resolver.Resolve(c.Request().Context(), subject)
			if err != nil || ident == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), ident)))
			return next(c)
		}
	}
}

// WithIdentity stores the authenticated caller on the context.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext retrieves the authenticated caller, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}
