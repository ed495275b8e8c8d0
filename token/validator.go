package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token cannot be split into three segments
// or its payload segment is not valid base64-encoded JSON.
var ErrMalformed = errors.New("malformed bearer token")

// ErrNoExpiry is returned when the decoded claim set carries no usable
// numeric exp field.
var ErrNoExpiry = errors.New("bearer token has no expiry claim")

var parser = jwt.NewParser()

// IsValid reports whether tok decodes to a claim set whose exp lies in the
// future. Any malformation — fewer than three dot-separated segments, a
// payload that is not base64 JSON, a missing or non-numeric exp — yields
// false. IsValid never panics and never touches the network.
func IsValid(tok string) bool {
	exp, err := ExpiresAt(tok)
	if err != nil {
		return false
	}
	return exp.After(time.Now())
}

// ExpiresAt returns the expiry timestamp carried by tok without validating
// anything else about it. Useful for diagnostics (admincli `whoami` prints
// it next to the session owner).
func ExpiresAt(tok string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return time.Time{}, ErrMalformed
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}

	return exp.Time, nil
}
