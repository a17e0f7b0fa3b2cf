// Package authtest mints tokens and serves key sets for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"coffeeshop/internal/auth"
)

// Default issuer values used by NewIssuer.
const (
	DefaultIssuer   = "https://coffee.test.auth0.com/"
	DefaultAudience = "shop"
	DefaultKeyID    = "test-key"
)

// Issuer signs tokens with a freshly generated RSA key.
type Issuer struct {
	Key      *rsa.PrivateKey
	KeyID    string
	Issuer   string
	Audience string
}

// NewIssuer generates a signing key. It fails the test on error.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return &Issuer{Key: key, KeyID: DefaultKeyID, Issuer: DefaultIssuer, Audience: DefaultAudience}
}

// Keys returns a KeyProvider holding the issuer's public key.
func (i *Issuer) Keys() auth.StaticKeys {
	return auth.StaticKeys{i.KeyID: &i.Key.PublicKey}
}

// Verifier returns a verifier that trusts this issuer.
func (i *Issuer) Verifier() *auth.JWTVerifier {
	return auth.NewJWTVerifier(i.Keys(), i.Issuer, i.Audience)
}

// Claims returns valid claims granting permissions. A nil slice encodes the
// permissions claim as null, which verifiers treat as absent.
func (i *Issuer) Claims(permissions []string) *auth.Claims {
	now := time.Now()
	return &auth.Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Issuer,
			Subject:   "auth0|barista",
			Audience:  jwt.ClaimStrings{i.Audience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

// Token signs valid claims granting permissions. With no permissions the
// claim is present but empty.
func (i *Issuer) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	if permissions == nil {
		permissions = []string{}
	}
	return i.Sign(t, i.Claims(permissions))
}

// Sign signs arbitrary claims with the issuer's key and key id.
func (i *Issuer) Sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if i.KeyID != "" {
		token.Header["kid"] = i.KeyID
	}
	signed, err := token.SignedString(i.Key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// JWKS returns the issuer's public key as a JWKS document.
func (i *Issuer) JWKS() []byte {
	pub := i.Key.PublicKey
	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": i.KeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	encoded, _ := json.Marshal(doc)
	return encoded
}

// JWKSServer serves the issuer's key set and counts requests.
type JWKSServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits is the number of key set requests served.
func (s *JWKSServer) Hits() int64 {
	return s.hits.Load()
}

// ServeJWKS starts a server publishing the issuer's key set. It is closed
// when the test ends.
func (i *Issuer) ServeJWKS(t testing.TB) *JWKSServer {
	t.Helper()
	srv := &JWKSServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(i.JWKS())
	}))
	t.Cleanup(srv.Close)
	return srv
}
