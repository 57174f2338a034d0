package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (string, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (string, error) {
	return m.verifyFunc(ctx, token)
}

var _ TokenVerifier = (*mockVerifier)(nil)

func authHandler(t *testing.T, gotUserID *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected user ID in context: %v", err)
		}
		*gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, token string) (string, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want %q", token, "valid-token")
			}
			return "u-123", nil
		},
	}

	var gotUserID string
	handler := NewAuthMiddleware(verifier)(authHandler(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "u-123" {
		t.Errorf("userID = %q, want %q", gotUserID, "u-123")
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, token string) (string, error) {
			t.Error("verifier should not be called without a token")
			return "", nil
		},
	}
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if body["error"] != "token missing or invalid" {
		t.Errorf("error = %q, want %q", body["error"], "token missing or invalid")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, token string) (string, error) {
			return "", errors.New("token expired")
		},
	}
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_NonBearerScheme(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, token string) (string, error) {
			t.Error("verifier should not be called for non-Bearer scheme")
			return "", nil
		},
	}
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// Bearerスキームは大文字小文字を区別しないこと
func TestBearerToken_CaseInsensitiveScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer some-token")

	if got := bearerToken(req); got != "some-token" {
		t.Errorf("bearerToken = %q, want %q", got, "some-token")
	}
}

func TestUserIDFromContext_NotSet(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user ID")
	}
}

func TestContextWithUserID_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "u-42")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userID != "u-42" {
		t.Errorf("userID = %q, want %q", userID, "u-42")
	}
}
