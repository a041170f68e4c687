package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/printgate/printgate/internal/config"
)

const testKey = "local-test-key"

func newTestAuth(t *testing.T, withSecret bool) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.AuthConfig{
		APIKeyHash: string(hash),
		TokenTTL:   time.Hour,
	}
	if withSecret {
		cfg.TokenSecret = "test-secret"
	}
	return NewAuth(cfg)
}

func protectedRouter(a *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/token", a.TokenHandler)
	r.GET("/protected", a.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireAuth_DisabledWhenNoHash(t *testing.T) {
	a := NewAuth(config.AuthConfig{})
	assert.False(t, a.Enabled())

	r := protectedRouter(a)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_APIKey(t *testing.T) {
	a := newTestAuth(t, false)
	r := protectedRouter(a)

	t.Run("missing credential", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("X-Api-Key", "wrong")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid key in X-Api-Key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("X-Api-Key", testKey)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid key as bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+testKey)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTokenFlow(t *testing.T) {
	a := newTestAuth(t, true)
	r := protectedRouter(a)

	body, _ := json.Marshal(TokenRequest{Key: testKey})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	// The minted token authenticates a protected call.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenHandler_WrongKey(t *testing.T) {
	a := newTestAuth(t, true)
	r := protectedRouter(a)

	body, _ := json.Marshal(TokenRequest{Key: "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenHandler_NoSecretConfigured(t *testing.T) {
	a := newTestAuth(t, false)
	r := protectedRouter(a)

	body, _ := json.Marshal(TokenRequest{Key: testKey})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	a := newTestAuth(t, true)
	token, _, err := a.generateToken()
	require.NoError(t, err)

	other := NewAuth(config.AuthConfig{
		APIKeyHash:  string(a.keyHash),
		TokenSecret: "different-secret",
		TokenTTL:    time.Hour,
	})
	r := protectedRouter(other)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	require.NoError(t, err)

	a := NewAuth(config.AuthConfig{
		APIKeyHash:  string(hash),
		TokenSecret: "test-secret",
		TokenTTL:    -time.Hour,
	})
	// A non-positive TTL falls back to the default rather than minting
	// pre-expired tokens.
	token, expiresAt, err := a.generateToken()
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	r := protectedRouter(a)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
