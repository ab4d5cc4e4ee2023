package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BKH516/sahatu-admin-console/ratelimit"
)

func TestLoginSubmitsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "admin@sahatu.example", r.FormValue("email"))
		assert.Equal(t, "pw", r.FormValue("password"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	accessToken, err := c.Login(context.Background(), "admin@sahatu.example", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", accessToken)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "a@b.co", "bad")
	assert.Error(t, err)
}

func TestMeSendsBearerAndCSRFHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "csrf-value", r.Header.Get("X-CSRF-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"admin-1","email":"admin@sahatu.example"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, WithCSRFSource(func() string { return "csrf-value" }))
	profile, err := c.Me(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", profile.ID)
}

func TestRateLimiterBlocksBeforeNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"access_token":"t"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, WithLimiter(ratelimit.New(1, time.Minute)))
	_, err := c.Login(context.Background(), "a@b.co", "pw")
	require.NoError(t, err)

	_, err = c.RefreshToken(context.Background(), "t")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, hits)
}

func TestLogoutReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).Logout(context.Background(), "tok-1")
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/refresh-token", r.URL.Path)
		assert.Equal(t, "Bearer old", r.Header.Get("Authorization"))
		w.Write([]byte(`{"access_token":"new"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	refreshed, err := New(srv.URL).RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "new", refreshed)
}
