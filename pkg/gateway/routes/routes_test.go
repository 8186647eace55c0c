package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gatewayauth "github.com/synaptica-ai/medtriage/pkg/gateway/auth"
	"github.com/synaptica-ai/medtriage/pkg/identity"
)

func newAuthRouter(t *testing.T) *mux.Router {
	t.Helper()
	svc := identity.NewService(identity.NewMemoryStore())
	require.NoError(t, svc.Bootstrap(context.Background(), "admin", "change-me-now"))
	jwtManager, err := gatewayauth.NewJWTManager("0123456789abcdef-secret", "medtriage", "clinicians", time.Hour)
	require.NoError(t, err)

	router := mux.NewRouter()
	NewAuthHandler(svc, jwtManager, nil).Register(router.PathPrefix("/auth").Subrouter())
	return router
}

func TestLoginAndMe(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"admin","password":"change-me-now"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"admin"`)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := newAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"admin","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOIDCRoutesDisabled(t *testing.T) {
	router := newAuthRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/oidc/login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	router := mux.NewRouter()
	NewHealthHandler("triage-service", map[string]Pinger{
		"store": func(ctx context.Context) error { return nil },
	}).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	router = mux.NewRouter()
	NewHealthHandler("triage-service", map[string]Pinger{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}).Register(router)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medtriage_patients_registered_total")
}
