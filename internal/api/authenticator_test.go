package api //nolint:testpackage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/michalkurzeja/go-clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
)

func TestAuthenticator_Login(t *testing.T) { //nolint:paralleltest
	now := time.Date(2025, time.February, 17, 10, 0, 0, 0, time.UTC)

	clock.Mock(now)
	defer clock.Restore()

	testCases := []struct {
		name        string
		loginStatus int
		wantErr     error
	}{
		{
			name:        "successful login stores credentials",
			loginStatus: http.StatusOK,
		},
		{
			name:        "rejected credentials surface as expired auth",
			loginStatus: http.StatusUnauthorized,
			wantErr:     ErrAuthExpired,
		},
		{
			name:        "server failure keeps credentials absent",
			loginStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases { //nolint:paralleltest
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.loginStatus)
				_, _ = w.Write([]byte(`{"accessToken":"access","refreshToken":"refresh","expiresIn":3600}`))
			}))
			defer server.Close()

			auth := newTestAuthenticator(server.URL)

			err := auth.Login(context.Background())
			if tc.loginStatus != http.StatusOK {
				assert.Error(t, err)
				assert.False(t, auth.Authenticated())

				if tc.wantErr != nil {
					assert.ErrorIs(t, err, tc.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.True(t, auth.Authenticated())

			token, err := auth.AccessToken(context.Background())

			require.NoError(t, err)
			assert.Equal(t, "access", token)
		})
	}
}

func TestAuthenticator_AccessToken_NotLoggedIn(t *testing.T) {
	t.Parallel()

	auth := newTestAuthenticator("http://localhost")

	_, err := auth.AccessToken(context.Background())

	assert.ErrorIs(t, err, ErrAuthUnavailable)
	assert.ErrorIs(t, auth.Renew(context.Background()), ErrAuthUnavailable)
}

func TestAuthenticator_AccessToken_RefreshesExpiredToken(t *testing.T) { //nolint:paralleltest
	now := time.Date(2025, time.February, 17, 10, 0, 0, 0, time.UTC)

	clockMock := clock.Mock(now)
	defer clock.Restore()

	var refreshCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"accessToken":"first","refreshToken":"refresh","expiresIn":3600}`))
		case "/auth/refresh_token":
			refreshCalls++

			_, _ = w.Write([]byte(`{"accessToken":"second","refreshToken":"refresh2","expiresIn":3600}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	auth := newTestAuthenticator(server.URL)

	require.NoError(t, auth.Login(context.Background()))

	token, err := auth.AccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "first", token)
	assert.Zero(t, refreshCalls)

	clockMock.Add(2 * time.Hour)

	token, err = auth.AccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "second", token)
	assert.Equal(t, 1, refreshCalls)
}

func TestAuthenticator_Renew_FallsBackToLogin(t *testing.T) { //nolint:paralleltest
	now := time.Date(2025, time.February, 17, 10, 0, 0, 0, time.UTC)

	clock.Mock(now)
	defer clock.Restore()

	var loginCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			loginCalls++

			_, _ = w.Write([]byte(`{"accessToken":"relogin","refreshToken":"refresh","expiresIn":3600}`))
		case "/auth/refresh_token":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	auth := newTestAuthenticator(server.URL)

	require.NoError(t, auth.Login(context.Background()))
	require.NoError(t, auth.Renew(context.Background()))

	token, err := auth.AccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "relogin", token)
	assert.Equal(t, 2, loginCalls)
}

func TestAuthenticator_Renew_BacksOffAfterFailure(t *testing.T) { //nolint:paralleltest
	now := time.Date(2025, time.February, 17, 10, 0, 0, 0, time.UTC)

	clockMock := clock.Mock(now)
	defer clock.Restore()

	var refreshCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"accessToken":"access","refreshToken":"refresh","expiresIn":3600}`))
		case "/auth/refresh_token":
			refreshCalls++

			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	auth := newTestAuthenticator(server.URL)

	require.NoError(t, auth.Login(context.Background()))

	assert.Error(t, auth.Renew(context.Background()))
	assert.Equal(t, 1, refreshCalls)

	// An immediate retry is rejected without reaching the identity provider.
	err := auth.Renew(context.Background())

	assert.ErrorIs(t, err, ErrAuthUnavailable)
	assert.Equal(t, 1, refreshCalls)

	clockMock.Add(time.Minute)

	assert.Error(t, auth.Renew(context.Background()))
	assert.Equal(t, 2, refreshCalls)
}

func newTestAuthenticator(baseURL string) Authenticator {
	cfgSvc := config.NewService(&config.Config{Username: "user", Password: "pwd"})
	client := NewHTTPClient(&http.Client{Timeout: 3 * time.Second}, baseURL)

	return NewAuthenticator(client, cfgSvc)
}
