package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicq/clinicq/internal/platform/apperr"
)

// Claims is the payload carried by clinicq bearer tokens. The subject claim
// holds the account username.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HMAC-signed bearer tokens.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. Tokens expire after
// lifetime.
func NewTokenIssuer(secret string, lifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), lifetime: lifetime, now: time.Now}
}

// Issue mints a token for the given username. Returns the signed token and
// its expiry time.
func (i *TokenIssuer) Issue(username string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.lifetime)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.Internal, err, "sign token")
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the subject username. It
// fails closed: any decode error or missing subject yields an
// authentication failure.
func (i *TokenIssuer) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil || !token.Valid {
		return "", apperr.New(apperr.Unauthenticated, "invalid or expired token")
	}
	if claims.Subject == "" {
		return "", apperr.New(apperr.Unauthenticated, "token has no subject")
	}
	return claims.Subject, nil
}
