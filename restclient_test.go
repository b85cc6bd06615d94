package ranchapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MicahParks/keyfunc"
	"github.com/herdwatch/ranchapi/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authManagerMock struct {
	mutex      sync.Mutex
	token      string
	refreshed  string
	refreshErr error
	refreshes  int
}

func (m *authManagerMock) GetJWKS() (*keyfunc.JWKS, error) {
	return nil, nil
}

func (m *authManagerMock) GetClientCredential() (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.token, nil
}

func (m *authManagerMock) RefreshClientCredential() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.refreshes++
	if m.refreshErr != nil {
		return m.refreshErr
	}
	m.token = m.refreshed
	return nil
}

// newTokenCheckingServer answers 401 unless the request carries the accepted bearer token.
func newTokenCheckingServer(acceptedToken string, seen *[]string) *httptest.Server {
	var mutex sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		*seen = append(*seen, r.Header.Get("Authorization"))
		mutex.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+acceptedToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
}

func TestRestyClientRefreshesCredentialAfterUnauthorized(t *testing.T) {
	var seen []string
	server := newTokenCheckingServer("fresh-token", &seen)
	defer server.Close()

	authManager := &authManagerMock{token: "stale-token", refreshed: "fresh-token"}
	client := NewRestyClientWithAuthManager(context.Background(), &config.Configuration{ApplicationName: "ranchapi_test"}, authManager)

	response, err := client.R().Get(server.URL + "/v1/alerts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode())
	assert.Equal(t, 1, authManager.refreshes)
	assert.Equal(t, []string{"Bearer stale-token", "Bearer fresh-token"}, seen)
}

func TestRestyClientDoesNotRetryWhenRefreshFails(t *testing.T) {
	var seen []string
	server := newTokenCheckingServer("fresh-token", &seen)
	defer server.Close()

	authManager := &authManagerMock{token: "stale-token", refreshErr: errors.New("identity provider unavailable")}
	client := NewRestyClientWithAuthManager(context.Background(), &config.Configuration{ApplicationName: "ranchapi_test"}, authManager)

	response, err := client.R().Get(server.URL + "/v1/alerts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode())
	assert.Equal(t, 1, authManager.refreshes)
	assert.Len(t, seen, 1)
}

func TestRestyClientDoesNotRefreshOnSuccess(t *testing.T) {
	var seen []string
	server := newTokenCheckingServer("valid-token", &seen)
	defer server.Close()

	authManager := &authManagerMock{token: "valid-token"}
	client := NewRestyClientWithAuthManager(context.Background(), &config.Configuration{ApplicationName: "ranchapi_test"}, authManager)

	response, err := client.R().Get(server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode())
	assert.Equal(t, 0, authManager.refreshes)
	assert.Len(t, seen, 1)
}
