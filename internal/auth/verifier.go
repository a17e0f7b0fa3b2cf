// Package auth verifies bearer tokens issued by an external identity
// provider and checks the permissions they carry.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a raw token and the permission a route requires. Failures
// are returned as *Error.
type Verifier interface {
	Verify(ctx context.Context, token, permission string) (*Claims, error)
}

// KeyProvider resolves signing keys by key id.
type KeyProvider interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeys is a fixed KeyProvider.
type StaticKeys map[string]*rsa.PublicKey

func (s StaticKeys) Key(_ context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

var errMissingKeyID = errors.New("token header has no kid")

// JWTVerifier validates RS256 tokens against keys from a KeyProvider.
type JWTVerifier struct {
	keys     KeyProvider
	issuer   string
	audience string
	leeway   time.Duration
}

// Option customises a JWTVerifier.
type Option func(*JWTVerifier)

// WithLeeway tolerates clock skew when checking exp, nbf and iat.
func WithLeeway(d time.Duration) Option {
	return func(v *JWTVerifier) {
		v.leeway = d
	}
}

// NewJWTVerifier builds a verifier. Empty issuer or audience disables the
// corresponding check.
func NewJWTVerifier(keys KeyProvider, issuer, audience string, opts ...Option) *JWTVerifier {
	v := &JWTVerifier{keys: keys, issuer: issuer, audience: audience}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates token, then checks that it grants permission.
// An empty permission only authenticates.
func (v *JWTVerifier) Verify(ctx context.Context, token, permission string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}
		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	}, parserOpts...)
	if err != nil {
		return nil, classify(err)
	}

	if permission != "" {
		if err := checkPermission(claims, permission); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errTokenExpired(err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return errInvalidClaims(err)
	case errors.Is(err, errMissingKeyID):
		return errUnknownSigningKey("Authorization malformed.", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return errUnknownSigningKey("Unable to find the appropriate key.", err)
	default:
		return errTokenInvalid(err)
	}
}
