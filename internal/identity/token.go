package identity

import (
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// tokenSignatureAlgs are the algorithms the backend is known to sign
// access tokens with. Parsing is unverified; the list only bounds the
// accepted JOSE headers.
var tokenSignatureAlgs = []jose.SignatureAlgorithm{
	jose.HS256, jose.RS256, jose.ES256, jose.EdDSA,
}

// TokenInfo is the subset of access-token claims Clerk cares about.
// Claims are read without signature verification: the token is treated as
// opaque for authorization purposes, this only serves display ("whoami")
// and local expiry checks.
type TokenInfo struct {
	Subject string
	Email   string
	Name    string
	Expiry  time.Time
}

// tokenClaims captures backend-specific claims beyond the registered set.
type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// InspectToken parses a JWT access token without verifying its signature.
// Returns nil for opaque (non-JWT) tokens: absence of claims is not an error.
func InspectToken(raw string) *TokenInfo {
	tok, err := jwt.ParseSigned(raw, tokenSignatureAlgs)
	if err != nil {
		return nil
	}

	var registered jwt.Claims
	var custom tokenClaims
	if err := tok.UnsafeClaimsWithoutVerification(&registered, &custom); err != nil {
		return nil
	}

	info := &TokenInfo{
		Subject: registered.Subject,
		Email:   custom.Email,
		Name:    custom.Name,
	}
	if registered.Expiry != nil {
		info.Expiry = registered.Expiry.Time()
	}
	return info
}

// Expired reports whether the token carries an expiry in the past.
// Tokens without an expiry claim never report expired.
func (t *TokenInfo) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && t.Expiry.Before(now)
}
