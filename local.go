package sessionkit

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// LocalAuth handles email/password login and registration
type LocalAuth struct {
	Users    UserStore
	Sessions *SessionManager

	// Hasher verifies and derives stored password hashes. Defaults to the
	// package scrypt hasher.
	Hasher *PasswordHasher

	// OnLoginError is called when login fails. If nil, returns JSON error.
	OnLoginError AuthErrorHandler

	// OnSignupError is called when registration fails. If nil, returns JSON error.
	OnSignupError AuthErrorHandler
}

func (a *LocalAuth) hasher() *PasswordHasher {
	if a.Hasher != nil {
		return a.Hasher
	}
	return NewPasswordHasher()
}

// HandleLogin processes login requests.
//
// Unknown email, missing password hash (OAuth-only account) and wrong
// password all produce the same InvalidCredentials response so the endpoint
// cannot be used to probe which emails are registered.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if a.Users == nil || a.Sessions == nil {
		http.Error(w, `{"error": "Login not configured"}`, http.StatusInternalServerError)
		return
	}

	fields, err := parseRequestFields(r, "email", "password")
	if err != nil {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, err.Error(), ""), w, r)
		return
	}
	email, password := fields["email"], fields["password"]
	if email == "" || password == "" {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, "email and password required", ""), w, r)
		return
	}

	user, err := a.Users.GetUserByEmail(email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Println("error loading user: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred during login.", ""))
		return
	}

	// Note: the hash verify runs only when the user exists, but the error is
	// identical either way.
	if user == nil || user.PasswordHash == nil || !a.hasher().Verify(*user.PasswordHash, password) {
		a.handleLoginError(NewAuthError(ErrCodeInvalidCreds, ErrInvalidCredentials.Error(), "password"), w, r)
		return
	}

	session, err := a.Sessions.CreateSession(user.ID)
	if err != nil {
		log.Println("error creating session: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred during login.", ""))
		return
	}

	http.SetCookie(w, a.Sessions.SessionCookie(session))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"message": "success"})
}

func (a *LocalAuth) handleLoginError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnLoginError != nil && a.OnLoginError(err, w, r) {
		return
	}
	status := http.StatusBadRequest
	if err.Code == ErrCodeInvalidCreds {
		status = http.StatusUnauthorized
	}
	writeAuthError(w, status, err)
}

func (a *LocalAuth) handleSignupError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnSignupError != nil && a.OnSignupError(err, w, r) {
		return
	}
	writeAuthError(w, http.StatusBadRequest, err)
}
