package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/jwtauth/internal/auth"
	"github.com/hitoshi/jwtauth/internal/metrics"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
	calls    []string
}

func (m *mockVerifier) Verify(token string) (*auth.Claims, error) {
	m.calls = append(m.calls, token)
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return nil, auth.ErrInvalidToken
}

type spyCollector struct {
	metrics.Nop
	rejected []string
}

func (s *spyCollector) RecordTokenRejected(reason string) { s.rejected = append(s.rejected, reason) }

var _ TokenVerifier = (*mockVerifier)(nil)
var _ TokenVerifier = (*auth.TokenCodec)(nil)

func validVerifier() *mockVerifier {
	return &mockVerifier{
		verifyFn: func(token string) (*auth.Claims, error) {
			if token == "good-token" {
				return &auth.Claims{UserID: "user-123", Username: "alice", Email: "a@x.com"}, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

// --- テスト ---

func TestAuthMiddleware_ValidToken_InjectsClaims(t *testing.T) {
	verifier := validVerifier()
	mw := NewAuthMiddleware(verifier, nil)

	var captured *auth.Claims
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		captured = claims
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured == nil || captured.UserID != "user-123" {
		t.Errorf("claims = %+v, want userId user-123", captured)
	}
	if len(verifier.calls) != 1 || verifier.calls[0] != "good-token" {
		t.Errorf("verifier calls = %v, want [good-token]", verifier.calls)
	}
}

// TestAuthMiddleware_SchemeIsNotChecked はスキーム名に関わらず2番目のフィールドを使うことを検証する。
func TestAuthMiddleware_SchemeIsNotChecked(t *testing.T) {
	mw := NewAuthMiddleware(validVerifier(), nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer good-token", "Token good-token", "bearer   good-token  "} {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("header %q: status = %d, want %d", header, w.Result().StatusCode, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_NoToken_Returns401(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"scheme only", "Bearer"},
		{"scheme with trailing space", "Bearer "},
		{"token without scheme", "good-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := validVerifier()
			spy := &spyCollector{}
			mw := NewAuthMiddleware(verifier, spy)

			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
			}
			body := decodeErrorBody(t, w)
			if body.Success || body.Message != "Access token required" || body.Code != "NO_TOKEN" {
				t.Errorf("body = %+v", body)
			}
			if len(verifier.calls) != 0 {
				t.Errorf("verifier should not be called, got %v", verifier.calls)
			}
			if len(spy.rejected) != 1 || spy.rejected[0] != metrics.ReasonMissing {
				t.Errorf("rejected = %v, want [missing]", spy.rejected)
			}
		})
	}
}

func TestAuthMiddleware_InvalidToken_Returns403(t *testing.T) {
	spy := &spyCollector{}
	mw := NewAuthMiddleware(validVerifier(), spy)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
	body := decodeErrorBody(t, w)
	if body.Success || body.Message != "Invalid or expired token" || body.Code != "INVALID_TOKEN" {
		t.Errorf("body = %+v", body)
	}
	if len(spy.rejected) != 1 || spy.rejected[0] != metrics.ReasonInvalid {
		t.Errorf("rejected = %v, want [invalid]", spy.rejected)
	}
}

// TestAuthMiddleware_RepeatedRejection_IsStable は同じ不正トークンが毎回同じ分類になることを検証する。
func TestAuthMiddleware_RepeatedRejection_IsStable(t *testing.T) {
	codec := auth.NewTokenCodec([]byte("test-secret"), -time.Second)
	expired, err := codec.Issue(auth.Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	mw := NewAuthMiddleware(codec, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusForbidden {
			t.Errorf("attempt %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusForbidden)
		}
	}
}

// TestAuthMiddleware_WithRealCodec は実際のコーデックで発行したトークンが通ることを検証する。
func TestAuthMiddleware_WithRealCodec(t *testing.T) {
	codec := auth.NewTokenCodec([]byte("test-secret"), auth.DefaultTokenTTL)
	token, err := codec.Issue(auth.Identity{UserID: "user-1", Username: "alice", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var captured *auth.Claims
	handler := NewAuthMiddleware(codec, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/verify-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured.Username != "alice" || captured.Subject != "user-1" {
		t.Errorf("claims = %+v", captured)
	}
}

func TestClaimsFromContext_NoValue_ReturnsError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := ClaimsFromContext(req.Context()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestContextWithClaims_RoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	want := &auth.Claims{UserID: "user-1"}

	got, err := ClaimsFromContext(ContextWithClaims(req.Context(), want))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != want {
		t.Errorf("claims = %p, want %p", got, want)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer abc extra", "abc"},
		{"Bearer", ""},
		{"", ""},
		{"  Bearer\tabc ", "abc"},
	}

	for _, tt := range tests {
		if got := bearerToken(tt.header); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

