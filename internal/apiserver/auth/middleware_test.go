package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"lending-api/internal/shared/cache"
	"lending-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	testutil.FastPasswordHashing()
}

func TestIsPublicRoute(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected bool
	}{
		{"register", "POST", "/api/v1/user/create", true},
		{"token", "POST", "/api/v1/user/token", true},
		{"health", "GET", "/health", true},
		{"metrics", "GET", "/metrics", true},
		{"openapi", "GET", "/api/v1/openapi.yaml", true},

		{"register GET is not public", "GET", "/api/v1/user/create", false},
		{"logout", "POST", "/api/v1/user/logout", false},
		{"profile", "GET", "/api/v1/user/me", false},
		{"accounts", "GET", "/api/v1/accounts", false},
		{"money requests", "POST", "/api/v1/moneyrequests", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isPublicRoute(tt.method, tt.path)
			if got != tt.expected {
				t.Errorf("isPublicRoute(%q, %q) = %v, want %v", tt.method, tt.path, got, tt.expected)
			}
		})
	}
}

// echoHandler 返回当前认证用户 ID
var echoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user.ID})
})

func TestMiddleware(t *testing.T) {
	cfg := testConfig()
	store := testutil.NewStore(t)
	denylist := cache.NewMemoryDenylist()
	h := Middleware(cfg, store, denylist)(echoHandler)

	user := testutil.CreateUser(t, store, "mw@example.com", "testpass")
	token, err := GenerateAccessToken(cfg, user.ID, user.Email)
	require.NoError(t, err)

	request := func(authHeader string) (int, map[string]any) {
		req := testutil.Request(t, http.MethodGet, "/api/v1/accounts", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := testutil.Do(h, req)
		return w.Code, testutil.DecodeJSON[map[string]any](t, w)
	}

	t.Run("valid token", func(t *testing.T) {
		code, body := request("Bearer " + token)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(user.ID), body["user"])
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		code, _ := request("bearer " + token)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("missing header", func(t *testing.T) {
		code, body := request("")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "authentication credentials were not provided", body["error"])
	})

	t.Run("wrong scheme", func(t *testing.T) {
		code, _ := request("Token " + token)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("tampered token", func(t *testing.T) {
		code, _ := request("Bearer " + token + "x")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost, _ := GenerateAccessToken(cfg, 9999, "ghost@example.com")
		code, _ := request("Bearer " + ghost)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("public route without header", func(t *testing.T) {
		req := testutil.Request(t, http.MethodGet, "/health", nil)
		w := testutil.Do(h, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMiddleware_InactiveUser(t *testing.T) {
	cfg := testConfig()
	store := testutil.NewStore(t)
	h := Middleware(cfg, store, cache.NewMemoryDenylist())(echoHandler)

	user := testutil.CreateUser(t, store, "inactive@example.com", "testpass")
	user.IsActive = false
	require.NoError(t, store.UpdateUser(context.Background(), user))

	token, _ := GenerateAccessToken(cfg, user.ID, user.Email)
	req := testutil.Request(t, http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := testutil.Do(h, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RevokedToken(t *testing.T) {
	cfg := testConfig()
	store := testutil.NewStore(t)
	denylist := cache.NewMemoryDenylist()
	h := Middleware(cfg, store, denylist)(echoHandler)

	user := testutil.CreateUser(t, store, "revoked@example.com", "testpass")
	token, _ := GenerateAccessToken(cfg, user.ID, user.Email)
	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	require.NoError(t, denylist.Revoke(context.Background(), claims.ID, time.Now().Add(time.Hour)))

	req := testutil.Request(t, http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := testutil.Do(h, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}
