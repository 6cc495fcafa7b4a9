package sessionkit

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// HandleRegister processes user registration.
//
// The existence pre-check gives the common case a friendly error, but the
// store-level uniqueness constraint is the authority: a duplicate insert
// that wins a race past the check still comes back as ErrUserExists.
func (a *LocalAuth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if a.Users == nil || a.Sessions == nil {
		http.Error(w, `{"error": "Signup not configured"}`, http.StatusInternalServerError)
		return
	}

	fields, err := parseRequestFields(r, "email", "password", "name", "nickname")
	if err != nil {
		a.handleSignupError(NewAuthError(ErrCodeMissingField, err.Error(), ""), w, r)
		return
	}
	creds := &Credentials{
		Email:    fields["email"],
		Password: fields["password"],
		Name:     fields["name"],
		Nickname: fields["nickname"],
	}

	if authErr := ValidateRegistration(creds); authErr != nil {
		a.handleSignupError(authErr, w, r)
		return
	}

	if _, err := a.Users.GetUserByEmail(creds.Email); err == nil {
		a.handleSignupError(NewAuthError(ErrCodeEmailExists, ErrUserExists.Error(), "email"), w, r)
		return
	} else if !errors.Is(err, ErrUserNotFound) {
		log.Println("error checking existing user: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred during sign up.", ""))
		return
	}

	hash, err := a.hasher().Hash(creds.Password)
	if err != nil {
		log.Println("error hashing password: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred during sign up.", ""))
		return
	}

	user := &User{
		ID:           NewUserID(),
		Email:        creds.Email,
		PasswordHash: &hash,
		Name:         creds.Name,
		Nickname:     creds.Nickname,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := a.Users.InsertUser(user); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost the check-then-insert race; same outcome as the pre-check.
			a.handleSignupError(NewAuthError(ErrCodeEmailExists, ErrUserExists.Error(), "email"), w, r)
			return
		}
		log.Println("error creating user: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred during sign up.", ""))
		return
	}

	session, err := a.Sessions.CreateSession(user.ID)
	if err != nil {
		log.Println("error creating session: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred during sign up.", ""))
		return
	}

	http.SetCookie(w, a.Sessions.SessionCookie(session))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message": "success",
		"data":    user.Public(),
	})
}
