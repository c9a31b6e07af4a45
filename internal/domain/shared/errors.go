package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrCredentialsRequired = NewDomainError("IDENTITIES_CREDENTIALS_REQUIRED", "email and password are required")
	ErrInvalidCredentials  = NewDomainError("IDENTITIES_INVALID_CREDENTIALS", "Invalid email or password")
	ErrConfigError         = NewDomainError("IDENTITIES_CONFIG_ERROR", "Organization auth token not configured")
	ErrTokenExchangeFailed = NewDomainError("IDENTITIES_TOKEN_EXCHANGE_FAILED", "Unable to exchange token with the identity provider")
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
)
