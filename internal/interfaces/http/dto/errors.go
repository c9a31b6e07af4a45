package dto

import "net/http"

// Error codes returned by the gateway's own endpoints. The IDENTITIES_*
// family is part of the widget contract and must stay stable.
const (
	ErrCodeCredentialsRequired = "IDENTITIES_CREDENTIALS_REQUIRED"
	ErrCodeInvalidCredentials  = "IDENTITIES_INVALID_CREDENTIALS"
	ErrCodeConfigError         = "IDENTITIES_CONFIG_ERROR"
	ErrCodeTokenExchangeFailed = "IDENTITIES_TOKEN_EXCHANGE_FAILED"
	ErrCodeUpstreamError       = "IDENTITIES_UPSTREAM_ERROR"
	ErrCodeUpstreamUnavailable = "IDENTITIES_UPSTREAM_UNAVAILABLE"
)

// Generic error codes
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// errorStatusMap maps error codes to HTTP status codes. The token endpoint
// deliberately reports configuration and exchange failures as 400, matching
// what the widget expects.
var errorStatusMap = map[string]int{
	ErrCodeCredentialsRequired: http.StatusBadRequest,
	ErrCodeInvalidCredentials:  http.StatusUnauthorized,
	ErrCodeConfigError:         http.StatusBadRequest,
	ErrCodeTokenExchangeFailed: http.StatusBadRequest,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for codes without an explicit mapping.
func GetHTTPStatus(code string) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
