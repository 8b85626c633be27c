package internal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned when logging in without a token
var ErrEmptyToken = errors.New("token is empty")

// TokenStore reads and writes the auth token keys
type TokenStore struct {
	backend Backend
}

// NewTokenStore creates a token store over backend
func NewTokenStore(backend Backend) *TokenStore {
	return &TokenStore{backend: backend}
}

// Token returns the stored token, falling back to the legacy access_token key
func (ts *TokenStore) Token() string {
	for _, key := range []string{KeyToken, KeyAccessToken} {
		value, ok, err := ts.backend.Get(key)
		if err != nil {
			LogWarn("Failed to read %s: %v", key, err)
			continue
		}
		if ok && value != "" {
			return value
		}
	}
	return ""
}

// HasToken reports whether a token is stored
func (ts *TokenStore) HasToken() bool {
	return ts.Token() != ""
}

// SetToken persists token
func (ts *TokenStore) SetToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	return ts.backend.Set(KeyToken, token)
}

// ClearToken removes both token keys
func (ts *TokenStore) ClearToken() error {
	return errors.Join(
		ts.backend.Remove(KeyToken),
		ts.backend.Remove(KeyAccessToken),
	)
}

// TokenClaims are the parts of a bearer token the client cares about
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that has passed
func (c *TokenClaims) Expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// ParseTokenClaims reads subject and expiry from a JWT without verifying
// its signature; the server verifies the token on every call.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	out := &TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// AuthState is the derived authenticated/guest flag. It is computed once
// from the token store and afterwards changes only through Login, Logout
// and StartGuestSession.
type AuthState struct {
	tokens        *TokenStore
	mu            sync.RWMutex
	authenticated bool
}

// NewAuthState derives the initial flag from whether a token is stored
func NewAuthState(tokens *TokenStore) *AuthState {
	return &AuthState{
		tokens:        tokens,
		authenticated: tokens.HasToken(),
	}
}

// Login persists token and marks the session authenticated
func (a *AuthState) Login(token string) error {
	if err := a.tokens.SetToken(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()
	return nil
}

// Logout removes the token and switches to guest mode
func (a *AuthState) Logout() error {
	err := a.tokens.ClearToken()
	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// StartGuestSession switches to guest mode without touching the stored token
func (a *AuthState) StartGuestSession() {
	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()
}

// IsAuthenticated reports the current flag
func (a *AuthState) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// IsGuest is the negation of IsAuthenticated
func (a *AuthState) IsGuest() bool {
	return !a.IsAuthenticated()
}

// Claims parses the stored token
func (a *AuthState) Claims() (*TokenClaims, error) {
	token := a.tokens.Token()
	if token == "" {
		return nil, ErrEmptyToken
	}
	return ParseTokenClaims(token)
}
