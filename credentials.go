package sessionkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Credentials represents user credentials for registration or login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether value looks like an email address
func ValidEmail(value string) bool {
	return emailRegex.MatchString(value)
}

// MaxPasswordLength bounds registration passwords. Any non-empty password up
// to this length is accepted; login accepts whatever was stored.
const MaxPasswordLength = 255

// ValidateRegistration checks the fields required to create an account.
func ValidateRegistration(creds *Credentials) *AuthError {
	if creds.Email == "" {
		return NewAuthError(ErrCodeMissingField, "Email is required", "email")
	}
	if !ValidEmail(creds.Email) {
		return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
	}
	if creds.Password == "" {
		return NewAuthError(ErrCodeMissingField, "Password is required", "password")
	}
	if len(creds.Password) > MaxPasswordLength {
		return NewAuthError(ErrCodeInvalidPassword,
			fmt.Sprintf("Password must be at most %d characters", MaxPasswordLength), "password")
	}
	if creds.Name == "" {
		return NewAuthError(ErrCodeMissingField, "Name is required", "name")
	}
	return nil
}

// parseRequestFields reads the named fields from a form-encoded or JSON body.
func parseRequestFields(r *http.Request, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("error parsing form")
		}
		for _, f := range fields {
			out[f] = r.FormValue(f)
		}
		return out, nil
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		return nil, fmt.Errorf("invalid post body")
	}
	for _, f := range fields {
		if v, ok := data[f].(string); ok {
			out[f] = v
		}
	}
	return out, nil
}
