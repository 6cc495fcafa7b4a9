package sessionkit

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors returned by the auth flows and stores. Handlers translate
// these into JSON error responses; anything not in this taxonomy is treated
// as a server error.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserExists is returned when registering an email that is already
	// bound, including when a concurrent insert loses the uniqueness race.
	ErrUserExists = errors.New("user with that email already exists")

	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenNotFound   = errors.New("token not found")

	// ErrInvalidOrExpiredToken covers magic-link tokens that are missing,
	// expired, already consumed, or fail signature verification.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrOAuthStateMismatch means the state returned by the provider did not
	// match the state cookie. The flow is aborted before any provider call.
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")

	// ErrOAuthProviderError means the provider rejected the code exchange.
	ErrOAuthProviderError = errors.New("oauth provider rejected the exchange")

	// ErrStorageError marks a persistence-layer failure, not further
	// classified. Handlers render it as a generic server error.
	ErrStorageError = errors.New("storage failure")
)

// Error codes carried in JSON error responses
const (
	ErrCodeInvalidCreds    = "invalid_credentials"
	ErrCodeEmailExists     = "email_exists"
	ErrCodeUserNotFound    = "user_not_found"
	ErrCodeInvalidToken    = "invalid_token"
	ErrCodeMissingField    = "missing_field"
	ErrCodeInvalidEmail    = "invalid_email"
	ErrCodeInvalidPassword = "invalid_password"
	ErrCodeServerError     = "server_error"
)

// AuthError is a structured, caller-facing authentication error
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthErrorHandler lets applications override how auth errors are rendered
// (eg redirect back to a form). Returning true means the error was handled.
type AuthErrorHandler func(err *AuthError, w http.ResponseWriter, r *http.Request) bool

// writeAuthError renders an AuthError as a JSON response
func writeAuthError(w http.ResponseWriter, status int, err *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(err)
}
