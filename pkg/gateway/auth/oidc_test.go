package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Discovery{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/authorize",
			TokenEndpoint:         srv.URL + "/token",
			UserinfoEndpoint:      srv.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(UserInfo{Subject: "abc-1", Email: "nurse@clinic.example", Name: "Nurse Joy"})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOIDCLoginFlow(t *testing.T) {
	srv := newFakeProvider(t)
	ctx := context.Background()

	a, err := NewOIDCAuthenticator(ctx, srv.URL, "triage", "s3cret", "http://localhost/auth/oidc/callback", srv.Client())
	require.NoError(t, err)

	loginURL, err := url.Parse(a.AuthCodeURL("state-xyz"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", loginURL.Path)
	assert.Equal(t, "state-xyz", loginURL.Query().Get("state"))
	assert.Equal(t, "triage", loginURL.Query().Get("client_id"))

	info, err := a.Exchange(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "abc-1", info.Subject)
	assert.Equal(t, "nurse@clinic.example", info.Username())

	_, err = a.Exchange(ctx, "bad-code")
	assert.Error(t, err)
}

func TestOIDCIncompleteConfig(t *testing.T) {
	_, err := NewOIDCAuthenticator(context.Background(), "", "id", "", "", nil)
	assert.Error(t, err)
}

func TestDiscoveryRetriesServerErrorsOnly(t *testing.T) {
	var calls, status atomic.Int32
	status.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	_, err := NewOIDCAuthenticator(context.Background(), srv.URL, "triage", "s3cret", "http://localhost/cb", srv.Client())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	status.Store(http.StatusBadGateway)
	_, err = NewOIDCAuthenticator(context.Background(), srv.URL, "triage", "s3cret", "http://localhost/cb", srv.Client())
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
