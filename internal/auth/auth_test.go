package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/config"
)

const testIssuer = "https://test-issuer.com"

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// MockKeySet satisfies oidc.KeySet to bypass signature verification
type MockKeySet struct{}

func (m *MockKeySet) VerifySignature(ctx context.Context, jwtToken string) ([]byte, error) {
	parts := strings.Split(jwtToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

func fakeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]any{"alg": "RS256", "typ": "JWT", "kid": "test-key"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("fakesignature"))
}

func baseClaims() map[string]any {
	return map[string]any{
		"iss": testIssuer,
		"aud": "api://default",
		"sub": "00u123",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Add(-1 * time.Minute).Unix(),
	}
}

func testAuth() *Auth {
	verifier := oidc.NewVerifier(testIssuer, &MockKeySet{}, &oidc.Config{SkipClientIDCheck: true})
	return NewWithVerifier(verifier, &NoOpLogger{})
}

func serve(a *Auth, token string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.RequireAuth(next).ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_BearerToken_ExtractsSubject(t *testing.T) {
	claims := baseClaims()
	claims["email"] = "user@acme.com"
	claims["scp"] = []string{ScopeWorkflowsRead}

	var got Principal
	rec := serve(testAuth(), fakeToken(t, claims), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
		assert.Equal(t, "user@acme.com", SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "user@acme.com", got.Subject)
	assert.True(t, got.HasScope(ScopeWorkflowsRead))
	assert.False(t, got.HasScope(ScopeWorkflowsExecute))
}

func TestRequireAuth_FallsBackToSubClaim(t *testing.T) {
	rec := serve(testAuth(), fakeToken(t, baseClaims()), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "00u123", SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Rejects(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	rec := serve(testAuth(), "", next)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	rec = serve(testAuth(), fakeToken(t, expired), next)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrongIssuer := baseClaims()
	wrongIssuer["iss"] = "https://elsewhere.example"
	rec = serve(testAuth(), fakeToken(t, wrongIssuer), next)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_BypassMode(t *testing.T) {
	cfg := &config.Config{Environment: "DEV", DevModeBypass: true}
	a, err := New(context.Background(), cfg, &NoOpLogger{})
	require.NoError(t, err)

	rec := serve(a, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, DevSubject, p.Subject)
		assert.ElementsMatch(t, AllScopes, p.Scopes)
		w.WriteHeader(http.StatusOK)
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_RequiresIssuer(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Environment: "PROD"}, nil)
	assert.ErrorIs(t, err, ErrNoIssuer)
}

func TestRequireScope(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireScope(ScopeDiscussionsWrite)(ok)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/discussions/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := WithPrincipal(req.Context(), Principal{Subject: "u1", Scopes: []string{ScopeDiscussionsRead}})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ctx = WithPrincipal(req.Context(), Principal{Subject: "u1", Scopes: AllScopes})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
