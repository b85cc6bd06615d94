package middleware

import "github.com/pkg/errors"

type ClientError struct {
	MessageKey    string            `json:"messageKey"`
	MessageParams map[string]string `json:"messageParams"`
	Message       string            `json:"message"`
	Errors        []ClientError     `json:"errors"`
}

// WithParam returns a copy with the message parameter set.
func (e ClientError) WithParam(key, value string) ClientError {
	params := make(map[string]string, len(e.MessageParams)+1)
	for k, v := range e.MessageParams {
		params[k] = v
	}
	params[key] = value
	e.MessageParams = params
	return e
}

var (
	InvalidTokenResponse = ClientError{
		MessageKey: "invalidTokenResponse",
		Message:    "Invalid Token Response",
	}
	ErrOpenIDConfiguration = ClientError{
		MessageKey: "40099",
		Message:    "OIDC .well-known/configuration could not be retrieved",
	}
	TokenExpiredResponse = ClientError{
		MessageKey: "tokenExpired",
		Message:    "Token expired",
	}
	ErrInvalidToken = ClientError{
		MessageKey: "invalidToken",
		Message:    "Invalid Token",
	}
	ErrNoPrivileges = ClientError{
		MessageKey: "unauthorized",
		Message:    "Not authorized",
	}
	ErrInvalidRequestBody = ClientError{
		MessageKey: "invalidRequestBody",
		Message:    "Invalid request body",
	}
	ErrUnableToParseRequestBody = ClientError{
		MessageKey: "unableToParseRequestBody",
		Message:    "Unable to parse request body",
	}
	ErrInvalidOrMissingRequestParameter = ClientError{
		MessageKey: "invalidOrMissingRequestParameter",
		Message:    "Invalid or missing request parameter: {{param}}",
	}
	ErrNotFound = ClientError{
		MessageKey: "notFound",
		Message:    "Resource not found",
	}
	ErrConflict = ClientError{
		MessageKey: "conflict",
		Message:    "Resource already exists",
	}
	ErrInternalServerError = ClientError{
		MessageKey: "internalServerError",
		Message:    "Unexpected error",
	}
)

var (
	ErrFailedToLoadJwks = errors.New("Failed to load JWKS")
)
