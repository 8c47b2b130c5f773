// Package idtoken verifies RS256 identity tokens (OIDC ID tokens, including
// Firebase Authentication tokens) against a JSON Web Key Set.
package idtoken

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

var (
	ErrTokenExpired          = errors.New(errors.ErrCodeUnauthorized, "token expired")
	ErrTokenInvalidSignature = errors.New(errors.ErrCodeUnauthorized, "invalid token signature")
	ErrTokenInvalidClaims    = errors.New(errors.ErrCodeUnauthorized, "invalid token claims")
	ErrTokenMalformed        = errors.New(errors.ErrCodeUnauthorized, "malformed token")
	ErrJWKSUnavailable       = errors.New(errors.ErrCodeServiceUnavailable, "signing keys unavailable")
	ErrInvalidConfig         = errors.New(errors.ErrCodeValidation, "invalid auth configuration")
)

// Claims are the verified identity fields a request needs.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	ExpiresAt time.Time
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

type idClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWKSVerifier verifies tokens with keys fetched from a JWKS endpoint. Keys
// are cached and refetched when an unknown key id shows up, at most once
// per minRefresh.
type JWKSVerifier struct {
	issuer   string
	audience string
	leeway   time.Duration
	keys     *jwksCache
	logger   logging.Logger
}

// NewJWKSVerifier builds a verifier from cfg. Keys are fetched lazily.
func NewJWKSVerifier(cfg config.AuthConfig, logger logging.Logger) (*JWKSVerifier, error) {
	if cfg.JWKSURL == "" || cfg.Issuer == "" || cfg.Audience == "" {
		return nil, ErrInvalidConfig.WithDetail("jwks_url, issuer and audience are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &JWKSVerifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		keys: &jwksCache{
			url:        cfg.JWKSURL,
			client:     &http.Client{Timeout: timeout},
			minRefresh: cfg.RefreshInterval,
			logger:     logger,
		},
		logger: logger,
	}, nil
}

// Verify validates signature, expiry, issuer and audience and returns the
// subject claims.
func (v *JWKSVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)

	var claims idClaims
	_, err := parser.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrTokenMalformed
		}
		return v.keys.key(ctx, kid)
	})
	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stderrors.Is(err, ErrJWKSUnavailable):
			return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "signing keys unavailable")
		case stderrors.Is(err, jwt.ErrTokenMalformed), stderrors.Is(err, ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid), stderrors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "token verification failed")
		}
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalidClaims
	}

	out := &Claims{Subject: claims.Subject, Email: claims.Email, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Health fetches the key set.
func (v *JWKSVerifier) Health(ctx context.Context) error {
	return v.keys.refresh(ctx)
}

type jwksCache struct {
	url        string
	client     *http.Client
	minRefresh time.Duration
	logger     logging.Logger

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
}

func (c *jwksCache) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	k, ok := c.keys[kid]
	fresh := time.Since(c.lastRefresh) < c.minRefresh
	c.mu.RUnlock()
	if ok {
		return k, nil
	}
	if fresh {
		return nil, fmt.Errorf("%w: unknown key id %q", jwt.ErrTokenUnverifiable, kid)
	}

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	k, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown key id %q", jwt.ErrTokenUnverifiable, kid)
	}
	return k, nil
}

type jwkSet struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (c *jwksCache) refresh(ctx context.Context) error {
	c.logger.Debug("refreshing JWKS", logging.String("url", c.url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSUnavailable, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrJWKSUnavailable, resp.Status)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			c.logger.Warn("skipping JWK with bad modulus", logging.String("kid", k.Kid), logging.Err(err))
			continue
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			c.logger.Warn("skipping JWK with bad exponent", logging.String("kid", k.Kid), logging.Err(err))
			continue
		}
		exp := 0
		for _, b := range e {
			exp = exp<<8 | int(b)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}
	}

	c.mu.Lock()
	c.keys = keys
	c.lastRefresh = time.Now()
	c.mu.Unlock()
	return nil
}
