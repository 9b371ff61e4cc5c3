package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionHandler(t *testing.T, reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		claims, ok := SessionClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "jenkins-ci", claims.Subject)

		token, ok := TokenFromContext(r.Context())
		require.True(t, ok)
		assert.NotEmpty(t, token)

		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ValidTokenPassesThrough(t *testing.T) {
	svc := NewTokenService("test-secret")
	revoker := NewMemoryRevoker()

	token, err := svc.GenerateToken("jenkins-ci", time.Hour)
	require.NoError(t, err)

	reached := false
	handler := Middleware(svc, revoker)(sessionHandler(t, &reached))

	req := httptest.NewRequest("POST", "/jenkins/session/notify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_RevokedTokenRejectedUntilClear(t *testing.T) {
	svc := NewTokenService("test-secret")
	revoker := NewMemoryRevoker()

	token, err := svc.GenerateToken("jenkins-ci", time.Hour)
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), token))

	reached := false
	handler := Middleware(svc, revoker)(sessionHandler(t, &reached))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/jenkins/session/notify", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.False(t, reached)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "revoked")
	}

	require.NoError(t, revoker.Clear(context.Background()))

	req := httptest.NewRequest("POST", "/jenkins/session/notify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_MissingOrMalformedHeader(t *testing.T) {
	svc := NewTokenService("test-secret")
	revoker := NewMemoryRevoker()

	reached := false
	handler := Middleware(svc, revoker)(sessionHandler(t, &reached))

	for _, header := range []string{"", "Bearer", "Basic abc", "garbage"} {
		req := httptest.NewRequest("POST", "/jenkins/session/notify", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.False(t, reached, "header %q", header)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "header %q", header)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	svc := NewTokenService("test-secret")
	revoker := NewMemoryRevoker()

	other, err := NewTokenService("other-secret").GenerateToken("jenkins-ci", time.Hour)
	require.NoError(t, err)

	reached := false
	handler := Middleware(svc, revoker)(sessionHandler(t, &reached))

	req := httptest.NewRequest("POST", "/jenkins/session/notify", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
