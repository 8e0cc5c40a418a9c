package api

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// tokenExpiration returns the expiration date (UTC) encoded in a JWT access
// token. It does not verify the signature; the token is only introspected
// to schedule refreshes.
func tokenExpiration(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("no expiration date found in the token")
	}

	return claims.ExpiresAt.Time.UTC(), nil
}
