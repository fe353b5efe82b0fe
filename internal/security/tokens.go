// Package security reads caller identity from bearer tokens. Token issuance
// and the full verification policy belong to the auth service; this package
// only validates signature, issuer, and audience to establish who is calling.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or fails validation.
var ErrInvalidToken = errors.New("invalid token")

// IdentityClaims holds the JWT claims the scope provider needs.
type IdentityClaims struct {
	jwt.RegisteredClaims
	DomainID string `json:"domain_id"`
	Role     string `json:"role"`
}

// TokenReader validates HS256 bearer tokens and extracts identity claims.
type TokenReader struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenReader returns a TokenReader expecting the given issuer and audience.
func NewTokenReader(secret []byte, issuer, audience string) *TokenReader {
	return &TokenReader{secret: secret, issuer: issuer, audience: audience}
}

// Read parses and validates the token, returning its identity claims.
// Returns ErrInvalidToken for any validation failure.
func (r *TokenReader) Read(token string) (*IdentityClaims, error) {
	var claims IdentityClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return r.secret, nil
	},
		jwt.WithIssuer(r.issuer),
		jwt.WithAudience(r.audience),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Issue signs an identity token; used by the seeder and tests to mint
// credentials against a local deployment.
func (r *TokenReader) Issue(userID, domainID, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    r.issuer,
			Audience:  jwt.ClaimStrings{r.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		DomainID: domainID,
		Role:     role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}
