package ranchapi

import (
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc"
	"github.com/go-resty/resty/v2"
	"github.com/herdwatch/ranchapi/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const oidcURLPart = "/.well-known/openid-configuration"

const (
	msgNoClientCredential       = "no client credential"
	msgInvalidTokenType         = "invalid token type"
	msgOIDCEndpointFailed       = "failed to get OIDC from the authentication provider"
	msgTokenEndpointFailed      = "failed to get JWT token from the authentication provider's token endpoint"
	msgOIDCBaseURLNotConfigured = "OIDC base URL is not configured"
)

var (
	ErrNoClientCredential       = errors.New(msgNoClientCredential)
	ErrInvalidTokenType         = errors.New(msgInvalidTokenType)
	ErrOIDCEndpointFailed       = errors.New(msgOIDCEndpointFailed)
	ErrTokenEndpointFailed      = errors.New(msgTokenEndpointFailed)
	ErrOIDCBaseURLNotConfigured = errors.New(msgOIDCBaseURLNotConfigured)
)

type AuthManager interface {
	GetJWKS() (*keyfunc.JWKS, error)
	GetClientCredential() (string, error)
	RefreshClientCredential() error
}

type authManager struct {
	configuration         *config.Configuration
	restClient            *resty.Client
	mutex                 sync.Mutex
	jwks                  *keyfunc.JWKS
	oidc                  *OpenIDConfiguration
	tokenEndpointResponse *TokenEndpointResponse
}

// NewAuthManager tries to load the JWKS eagerly; on failure it retries on the first authenticated request.
func NewAuthManager(configuration *config.Configuration, restClient *resty.Client) AuthManager {
	log.Trace().Msg("Creating new auth manager")
	authenticationManager := &authManager{
		configuration: configuration,
		restClient:    restClient,
	}

	if configuration.Authorization {
		if _, err := authenticationManager.GetJWKS(); err != nil {
			log.Error().Err(err).Msg("Failed to load OIDC from the authentication provider, retrying on demand")
		}
	}

	return authenticationManager
}

func (m *authManager) GetJWKS() (*keyfunc.JWKS, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.jwks == nil {
		if err := m.loadJWKS(); err != nil {
			return nil, err
		}
	}
	return m.jwks, nil
}

func (m *authManager) GetClientCredential() (string, error) {
	m.mutex.Lock()
	tokenEndpointResponse := m.tokenEndpointResponse
	m.mutex.Unlock()
	if tokenEndpointResponse == nil {
		err := m.RefreshClientCredential()
		if err != nil {
			return "", errors.Wrap(err, msgNoClientCredential)
		}
		m.mutex.Lock()
		tokenEndpointResponse = m.tokenEndpointResponse
		m.mutex.Unlock()
		if tokenEndpointResponse == nil {
			return "", ErrNoClientCredential
		}
	}
	return tokenEndpointResponse.AccessToken, nil
}

func (m *authManager) RefreshClientCredential() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.ensureOIDC(); err != nil {
		return err
	}

	tokenEndpointResponse, err := m.callAuthProviderTokenEndpoint()
	if err != nil {
		return err
	}

	if !strings.EqualFold(tokenEndpointResponse.TokenType, "Bearer") {
		log.Error().Str("tokenType", tokenEndpointResponse.TokenType).Msg("Got invalid token type from the authentication provider")
		return ErrInvalidTokenType
	}

	m.tokenEndpointResponse = tokenEndpointResponse

	return nil
}

func (m *authManager) loadJWKS() error {
	if err := m.ensureOIDC(); err != nil {
		return err
	}

	jwks, err := keyfunc.Get(m.oidc.JwksURI, keyfunc.Options{
		Client:              m.restClient.GetClient(),
		RefreshErrorHandler: m.refreshErrorHandler,
		RefreshUnknownKID:   true,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to get JWKS from the authentication provider")
		return err
	}

	m.jwks = jwks

	return nil
}

func (m *authManager) refreshErrorHandler(err error) {
	log.Error().Err(err).Msg("Failed to get and refresh JWKS from the authentication provider")
}

func (m *authManager) callAuthProviderOIDCEndpoint() (*OpenIDConfiguration, error) {
	if m.configuration.OIDCBaseURL == "" {
		return nil, ErrOIDCBaseURLNotConfigured
	}
	response, err := m.restClient.R().
		SetHeader("Content-Type", "application/json").
		SetResult(&OpenIDConfiguration{}).
		Get(strings.TrimRight(m.configuration.OIDCBaseURL, "/") + oidcURLPart)

	if err != nil {
		log.Error().Err(err).Msg(msgOIDCEndpointFailed)
		return nil, errors.Wrap(err, msgOIDCEndpointFailed)
	}

	if !response.IsSuccess() {
		log.Error().Msgf("%s: %s", msgOIDCEndpointFailed, response.Status())
		return nil, ErrOIDCEndpointFailed
	}

	return response.Result().(*OpenIDConfiguration), nil
}

func (m *authManager) callAuthProviderTokenEndpoint() (*TokenEndpointResponse, error) {
	response, err := m.restClient.R().
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Cache-Control", "no-cache").
		SetAuthScheme("Basic").
		SetAuthToken(m.configuration.ClientCredentialAuthHeaderValue).
		SetResult(&TokenEndpointResponse{}).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post(m.oidc.TokenEndpoint)

	if err != nil {
		log.Error().Err(err).Msg(msgTokenEndpointFailed)
		return nil, errors.Wrap(err, msgTokenEndpointFailed)
	}

	if !response.IsSuccess() {
		log.Error().Msgf("%s: %s", msgTokenEndpointFailed, response.Status())
		return nil, ErrTokenEndpointFailed
	}

	return response.Result().(*TokenEndpointResponse), nil
}

// ensureOIDC expects m.mutex to be held.
func (m *authManager) ensureOIDC() error {
	if m.oidc != nil {
		return nil
	}
	oidc, err := m.callAuthProviderOIDCEndpoint()
	if err != nil {
		return err
	}
	m.oidc = oidc
	return nil
}
