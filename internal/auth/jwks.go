package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	applog "coffeeshop/internal/log"
	"coffeeshop/internal/metrics"
)

// ErrKeyNotFound is returned when no signing key matches a key id.
var ErrKeyNotFound = errors.New("signing key not found")

const (
	defaultKeyTTL        = 10 * time.Minute
	unknownKeyRefetchGap = 30 * time.Second
)

type jwksDocument struct {
	Keys []jsonWebKey `json:"keys"`
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySet is a KeyProvider backed by a remote JWKS document. Keys are cached
// for ttl. A lookup for an unknown key id refetches early, at most once per
// unknownKeyRefetchGap. After a failed fetch no expiry-driven refetch happens
// for the same gap; cached keys keep being served meanwhile.
type KeySet struct {
	url     string
	client  *http.Client
	ttl     time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	now     func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	failedAt  time.Time
	lastErr   error
}

// NewKeySet builds a KeySet for url. A nil client gets a 5s timeout.
func NewKeySet(url string, ttl time.Duration, client *http.Client) *KeySet {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if ttl <= 0 {
		ttl = defaultKeyTTL
	}
	return &KeySet{
		url:     url,
		client:  client,
		ttl:     ttl,
		limiter: rate.NewLimiter(rate.Every(unknownKeyRefetchGap), 1),
		now:     time.Now,
		keys:    map[string]*rsa.PublicKey{},
	}
}

// backoff returns the last fetch error while a failed fetch is recent.
func (k *KeySet) backoff() error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.failedAt.IsZero() || k.now().Sub(k.failedAt) >= unknownKeyRefetchGap {
		return nil
	}
	return k.lastErr
}

func (k *KeySet) lookup(kid string) (*rsa.PublicKey, bool, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[kid]
	stale := k.fetchedAt.IsZero() || k.now().Sub(k.fetchedAt) > k.ttl
	return key, ok, stale
}

// Key returns the public key for kid.
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok, stale := k.lookup(kid)
	if ok && !stale {
		return key, nil
	}

	if stale {
		if err := k.backoff(); err != nil {
			if ok {
				return key, nil
			}
			return nil, fmt.Errorf("jwks unavailable, retrying later: %w", err)
		}
	}

	if stale || k.limiter.Allow() {
		if err := k.Refresh(ctx); err != nil {
			if ok {
				applog.Warn(ctx, "jwks refresh failed, serving cached key", "kid", kid, "error", err)
				return key, nil
			}
			return nil, err
		}
		key, ok, _ = k.lookup(kid)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return key, nil
}

// Refresh fetches the key set now. Concurrent callers share one request.
func (k *KeySet) Refresh(ctx context.Context) error {
	_, err, _ := k.group.Do("refresh", func() (any, error) {
		keys, err := k.fetch(ctx)
		if err != nil {
			k.mu.Lock()
			k.failedAt = k.now()
			k.lastErr = err
			k.mu.Unlock()
			metrics.JWKSRefreshes.WithLabelValues("error").Inc()
			return nil, err
		}
		k.mu.Lock()
		k.keys = keys
		k.fetchedAt = k.now()
		k.failedAt = time.Time{}
		k.lastErr = nil
		k.mu.Unlock()
		metrics.JWKSRefreshes.WithLabelValues("ok").Inc()
		applog.Debug(ctx, "jwks refreshed", "url", k.url, "keys", len(keys))
		return nil, nil
	})
	return err
}

func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if !strings.EqualFold(jwk.Kty, "RSA") || jwk.Kid == "" {
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		key, err := parseRSAKey(jwk)
		if err != nil {
			applog.Warn(ctx, "skipping unparsable jwk", "kid", jwk.Kid, "error", err)
			continue
		}
		keys[jwk.Kid] = key
	}
	return keys, nil
}

func parseRSAKey(jwk jsonWebKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(jwk.N, "="))
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(jwk.E, "="))
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)
	if len(nBytes) == 0 || !e.IsInt64() || e.Int64() < 3 {
		return nil, errors.New("invalid rsa key parameters")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}
