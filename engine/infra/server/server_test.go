package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyplatform/ally-config/engine/configstore"
	"github.com/allyplatform/ally-config/engine/configsvc"
	"github.com/allyplatform/ally-config/engine/infra/cache"
	"github.com/allyplatform/ally-config/pkg/appconfig"
	"github.com/allyplatform/ally-config/pkg/logger"
)

func newTestServer(t *testing.T, adminToken string) *Server {
	t.Helper()
	ctx := logger.ContextWithLogger(context.Background(), logger.NewForTests())
	cfg := appconfig.Default()
	cfg.Server.AdminToken = adminToken

	store := configstore.NewStore("", nil)
	configCache := cache.NewConfigCache(&cache.Config{}, nil)
	service := configsvc.NewService(store, configCache,
		configsvc.WithEnviron(func() []string { return nil }))
	controller := configsvc.NewController(service, nil)

	srv, err := NewServer(ctx, cfg, service, controller)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	var body map[string]any
	if len(rec.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestConfigEndpoints(t *testing.T) {
	srv := newTestServer(t, "")

	t.Run("Should serve the full resolved document", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Success", body["message"])
		data := body["data"].(map[string]any)
		branding := data["branding"].(map[string]any)
		assert.Equal(t, "Ally Platform", branding["companyName"])
		assert.NotContains(t, body, "degraded")
	})

	t.Run("Should serve a section endpoint", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config/branding", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, "#007bff", data["primaryColor"])
	})

	t.Run("Should serve a feature flag", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config/feature/chatEnabled", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, true, data["enabled"])
	})

	t.Run("Should report unknown feature flags as disabled", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config/feature/notAFlag", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, false, data["enabled"])
	})

	t.Run("Should serve the company summary", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config/company", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, "Ally Platform", data["company_name"])
		assert.Equal(t, "1.0.0", data["version"])
	})

	t.Run("Should reject a malformed tenant header", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config", map[string]string{
			"X-Tenant-ID": "x",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid tenant identifier", body["error"])
	})

	t.Run("Should accept a well-formed tenant header", func(t *testing.T) {
		rec, _ := doRequest(t, srv, http.MethodGet, "/api/v1/config", map[string]string{
			"X-Tenant-ID": "acme-corp",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should serve health on both paths", func(t *testing.T) {
		rec, body := doRequest(t, srv, http.MethodGet, "/api/v1/config/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Contains(t, data, "status")

		rec, _ = doRequest(t, srv, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	t.Run("Should reject admin calls without a token", func(t *testing.T) {
		srv := newTestServer(t, "secret-token")
		rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/admin/config/reload", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication failed", body["error"])
	})

	t.Run("Should reject admin calls with a wrong token", func(t *testing.T) {
		srv := newTestServer(t, "secret-token")
		rec, _ := doRequest(t, srv, http.MethodPost, "/api/v1/admin/config/reload", map[string]string{
			"Authorization": "Bearer wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should refuse admin calls when no token is configured", func(t *testing.T) {
		srv := newTestServer(t, "")
		rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/admin/config/reload", map[string]string{
			"Authorization": "Bearer anything",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Admin access disabled", body["error"])
	})

	t.Run("Should reload with a valid token", func(t *testing.T) {
		srv := newTestServer(t, "secret-token")
		rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/admin/config/reload", map[string]string{
			"Authorization": "Bearer secret-token",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Configuration reloaded", body["message"])
		data := body["data"].(map[string]any)
		assert.NotEmpty(t, data["record_id"])
	})

	t.Run("Should clear the cache with a valid token", func(t *testing.T) {
		srv := newTestServer(t, "secret-token")
		doRequest(t, srv, http.MethodGet, "/api/v1/config", nil)
		rec, body := doRequest(t, srv, http.MethodPost, "/api/v1/admin/config/clear-cache", map[string]string{
			"Authorization": "Bearer secret-token",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Cache cleared", body["message"])
		data := body["data"].(map[string]any)
		purged := data["purged_keys"].([]any)
		assert.Contains(t, purged, "base/full")
	})
}
