package ranchapi

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewRestyClient is used for OIDC discovery, the alert webhook and unauthenticated alert polling.
func NewRestyClient(ctx context.Context, configuration *config.Configuration, useProxy bool) *resty.Client {
	client := newBaseRestyClient(ctx, configuration)
	if useProxy && configuration.Proxy != "" {
		client.SetProxy(configuration.Proxy)
	}
	return client
}

// NewRestyClientWithAuthManager attaches a client-credential bearer token and retries once after a 401
// with a refreshed token.
func NewRestyClientWithAuthManager(ctx context.Context, configuration *config.Configuration, authManager AuthManager) *resty.Client {
	return newBaseRestyClient(ctx, configuration).
		SetRetryCount(1).
		SetRetryWaitTime(100 * time.Millisecond).
		AddRetryCondition(refreshCredentialOnUnauthorized(authManager)).
		OnBeforeRequest(func(_ *resty.Client, request *resty.Request) error {
			authToken, err := authManager.GetClientCredential()
			if err != nil {
				log.Error().Err(err).Str("url", request.URL).Msg("Attaching client credential failed")
				return err
			}
			request.SetAuthToken(authToken)
			return nil
		})
}

func newBaseRestyClient(ctx context.Context, configuration *config.Configuration) *resty.Client {
	client := resty.New().
		SetHeader("User-Agent", configuration.ApplicationName).
		OnBeforeRequest(bindRequestContext(ctx, configuration.LogLevel <= zerolog.DebugLevel))
	if configuration.StandardAPIClientTimeoutSecs > 0 {
		client.SetTimeout(time.Duration(configuration.StandardAPIClientTimeoutSecs) * time.Second)
	}
	if configuration.Development {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return client
}

// bindRequestContext gives requests without an explicit context the client's lifetime context.
func bindRequestContext(ctx context.Context, trace bool) resty.RequestMiddleware {
	return func(_ *resty.Client, request *resty.Request) error {
		if request.Context() == context.Background() {
			request.SetContext(ctx)
		}
		if trace {
			request.EnableTrace()
		}
		return nil
	}
}

func refreshCredentialOnUnauthorized(authManager AuthManager) resty.RetryConditionFunc {
	return func(response *resty.Response, _ error) bool {
		if response == nil || response.StatusCode() != http.StatusUnauthorized {
			return false
		}
		if err := authManager.RefreshClientCredential(); err != nil {
			log.Error().Err(err).Msg("Refreshing client credential failed, not retrying")
			return false
		}
		return true
	}
}
