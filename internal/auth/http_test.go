// ABOUTME: Tests for the bearer token HTTP middleware
// ABOUTME: Covers missing headers, bad tokens, valid tokens and disabled auth

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		token   string
		wantErr string
	}{
		{"", "", "missing authorization header"},
		{"Basic abc", "", "invalid authorization header format"},
		{"Bearer ", "", "empty token"},
		{"Bearer abc.def.ghi", "abc.def.ghi", ""},
	}

	for _, tt := range tests {
		token, errMsg := extractBearerToken(tt.header)
		assert.Equal(t, tt.token, token, "header %q", tt.header)
		assert.Equal(t, tt.wantErr, errMsg, "header %q", tt.header)
	}
}

func TestRequireToken(t *testing.T) {
	verifier, err := NewJWTVerifier([]byte("middleware-secret"))
	require.NoError(t, err)

	var gotSubject string
	handler := RequireToken(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"missing authorization header"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := verifier.Generate("cli", -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := verifier.Generate("cli", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "cli", gotSubject)
	})
}

func TestRequireToken_NilVerifierDisablesAuth(t *testing.T) {
	called := false
	handler := RequireToken(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/items", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
