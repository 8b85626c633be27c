package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedTestToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestTokenStore(t *testing.T) {
	backend := NewMemoryBackend()
	ts := NewTokenStore(backend)

	if ts.HasToken() {
		t.Error("HasToken() on empty backend should be false")
	}
	if err := ts.SetToken(""); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("SetToken(\"\") error = %v, want ErrEmptyToken", err)
	}

	_ = backend.Set(KeyAccessToken, "legacy")
	if got := ts.Token(); got != "legacy" {
		t.Errorf("Token() = %q, want access_token fallback", got)
	}

	if err := ts.SetToken("primary"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if got := ts.Token(); got != "primary" {
		t.Errorf("Token() = %q, want primary", got)
	}

	if err := ts.ClearToken(); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	if ts.HasToken() {
		t.Error("ClearToken() should remove both token keys")
	}
}

func TestAuthState_InitialFlag(t *testing.T) {
	backend := NewMemoryBackend()
	if NewAuthState(NewTokenStore(backend)).IsAuthenticated() {
		t.Error("NewAuthState() without token should be guest")
	}

	_ = backend.Set(KeyToken, "abc")
	if !NewAuthState(NewTokenStore(backend)).IsAuthenticated() {
		t.Error("NewAuthState() with token should be authenticated")
	}
}

func TestAuthState_Transitions(t *testing.T) {
	backend := NewMemoryBackend()
	tokens := NewTokenStore(backend)
	state := NewAuthState(tokens)

	if err := state.Login("abc"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !state.IsAuthenticated() || tokens.Token() != "abc" {
		t.Error("Login() should persist token and authenticate")
	}

	state.StartGuestSession()
	if !state.IsGuest() {
		t.Error("StartGuestSession() should switch to guest")
	}
	if tokens.Token() != "abc" {
		t.Error("StartGuestSession() must not touch the stored token")
	}
	state.StartGuestSession()
	if !state.IsGuest() {
		t.Error("StartGuestSession() should be idempotent")
	}

	if err := state.Login("def"); err != nil {
		t.Fatal(err)
	}
	if err := state.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if state.IsAuthenticated() || tokens.HasToken() {
		t.Error("Logout() should remove token and switch to guest")
	}

	if err := state.Login(""); err == nil {
		t.Error("Login(\"\") should fail")
	}
	if state.IsAuthenticated() {
		t.Error("failed Login() must not authenticate")
	}
}

func TestAuthState_NotReDerivedFromStorage(t *testing.T) {
	backend := NewMemoryBackend()
	state := NewAuthState(NewTokenStore(backend))

	// A token written behind the state's back does not flip the flag
	_ = backend.Set(KeyToken, "sneaky")
	if state.IsAuthenticated() {
		t.Error("AuthState should only change through its transitions")
	}
}

func TestParseTokenClaims(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedTestToken(t, "user-42", expires)

	claims, err := ParseTokenClaims(token)
	if err != nil {
		t.Fatalf("ParseTokenClaims() error = %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("Subject = %q, want user-42", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, expires)
	}
	if claims.Expired() {
		t.Error("Expired() = true for future expiry")
	}

	old, err := ParseTokenClaims(signedTestToken(t, "u", time.Now().Add(-time.Hour)))
	if err != nil {
		t.Fatalf("ParseTokenClaims() expired token error = %v", err)
	}
	if !old.Expired() {
		t.Error("Expired() = false for past expiry")
	}

	if _, err := ParseTokenClaims("demo-mode-token"); err == nil {
		t.Error("ParseTokenClaims() should fail for non-JWT tokens")
	}
}

func TestAuthState_Claims(t *testing.T) {
	backend := NewMemoryBackend()
	state := NewAuthState(NewTokenStore(backend))

	if _, err := state.Claims(); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("Claims() without token error = %v", err)
	}
	if err := state.Login(signedTestToken(t, "user-7", time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	claims, err := state.Claims()
	if err != nil || claims.Subject != "user-7" {
		t.Errorf("Claims() = %+v, %v", claims, err)
	}
}
