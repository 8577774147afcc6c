package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNoSecret     = errors.New("session secret cannot be empty")
)

// Claims represents the session token claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// StaticProvider returns a fixed user ID. An empty ID models an anonymous
// session. Intended for tests and scripted demos.
type StaticProvider struct {
	UserID string
}

// CurrentUser returns the configured user ID.
func (p *StaticProvider) CurrentUser(_ context.Context) (string, error) {
	return p.UserID, nil
}

// JWTProvider resolves the current user from a signed session token. The
// token is handed over once after login (and cleared on logout) instead of
// being re-derived through ad hoc network calls on every sync attempt.
//
// An absent, expired or otherwise invalid token yields an anonymous session,
// not an error: the cart must keep working local-only.
type JWTProvider struct {
	secret []byte
	issuer string

	mu    sync.RWMutex
	token string
}

// NewJWTProvider creates a session provider verifying tokens with the given
// HMAC secret.
func NewJWTProvider(secret, issuer string) (*JWTProvider, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &JWTProvider{secret: []byte(secret), issuer: issuer}, nil
}

// SetToken installs the session token after login. An empty token clears the
// session.
func (p *JWTProvider) SetToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

// CurrentUser parses the installed token and returns the user ID, or an
// empty ID when no valid session exists.
func (p *JWTProvider) CurrentUser(_ context.Context) (string, error) {
	p.mu.RLock()
	token := p.token
	p.mu.RUnlock()

	if token == "" {
		return "", nil
	}
	claims, err := p.parse(token)
	if err != nil {
		return "", nil
	}
	return claims.UserID, nil
}

func (p *JWTProvider) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SignToken issues a session token for the given user. Used by scripted
// demos and tests; real deployments receive tokens from the auth service.
func SignToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
