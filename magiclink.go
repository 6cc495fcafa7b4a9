package sessionkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// MagicLinkAuth implements passwordless login via emailed single-use links.
//
// A magic-link login is backed by two credentials that must both hold at
// exchange time: the persisted record (identifier + expiry in the token
// store) and the signed token it references. A forged record without a
// valid signature fails, and a replayed signed token whose record was
// already consumed fails.
type MagicLinkAuth struct {
	Users    UserStore
	Tokens   VerificationTokenStore
	Sessions *SessionManager
	Issuer   *TokenIssuer

	EmailSender SendEmail

	// BaseURL for generating the emailed callback link
	BaseURL string

	// RetryURL is where failed exchanges are redirected. Empty means a JSON
	// error response instead of a redirect.
	RetryURL string

	// LandingURL is where successful exchanges land. Defaults to "/".
	LandingURL string
}

func (a *MagicLinkAuth) landingURL() string {
	if a.LandingURL != "" {
		return a.LandingURL
	}
	return "/"
}

// HandleRequest processes a magic-link request for an email address. The
// user must already exist; magic links never create accounts.
func (a *MagicLinkAuth) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if a.Users == nil || a.Tokens == nil || a.Issuer == nil || a.EmailSender == nil {
		http.Error(w, `{"error": "Magic link login not configured"}`, http.StatusInternalServerError)
		return
	}

	fields, err := parseRequestFields(r, "email")
	if err != nil {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, err.Error(), "email"))
		return
	}
	email := fields["email"]
	if email == "" {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Email required", "email"))
		return
	}

	if _, err := a.Users.GetUserByEmail(email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeAuthError(w, http.StatusNotFound, NewAuthError(ErrCodeUserNotFound, ErrUserNotFound.Error(), "email"))
			return
		}
		log.Println("error loading user: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred.", ""))
		return
	}

	signed, err := a.Issuer.Issue(email)
	if err != nil {
		log.Println("error issuing token: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred.", ""))
		return
	}

	identifier, err := GenerateSecureToken()
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred.", ""))
		return
	}

	record := &VerificationToken{
		Identifier: identifier,
		Token:      signed,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(a.Issuer.ttl()),
	}
	if err := a.Tokens.InsertToken(record); err != nil {
		log.Println("error persisting token: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred.", ""))
		return
	}

	// The identifier, not the signed token, is the public value in the URL.
	loginLink := fmt.Sprintf("%s/magic-link/callback?identifier=%s&email=%s",
		a.BaseURL, identifier, url.QueryEscape(email))
	if err := a.EmailSender.SendMagicLinkEmail(email, loginLink); err != nil {
		log.Println("error sending magic link email: ", err)
		writeAuthError(w, http.StatusInternalServerError,
			NewAuthError(ErrCodeServerError, "An error occurred.", ""))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"message": "success"})
}

// HandleExchange consumes a magic link. On success the backing record is
// deleted before the redirect, so a second exchange of the same identifier
// always fails.
func (a *MagicLinkAuth) HandleExchange(w http.ResponseWriter, r *http.Request) {
	if a.Users == nil || a.Tokens == nil || a.Issuer == nil || a.Sessions == nil {
		http.Error(w, `{"error": "Magic link login not configured"}`, http.StatusInternalServerError)
		return
	}

	identifier := r.URL.Query().Get("identifier")
	email := r.URL.Query().Get("email")
	if identifier == "" || email == "" {
		a.fail(w, r)
		return
	}

	record, err := a.Tokens.GetToken(identifier)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			a.fail(w, r)
			return
		}
		log.Println("error loading token: ", err)
		http.Error(w, `{"error": "An error occurred."}`, http.StatusInternalServerError)
		return
	}
	if record.IsExpired() {
		_ = a.Tokens.DeleteToken(identifier)
		a.fail(w, r)
		return
	}

	user, err := a.Users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			a.fail(w, r)
			return
		}
		log.Println("error loading user: ", err)
		http.Error(w, `{"error": "An error occurred."}`, http.StatusInternalServerError)
		return
	}

	// The DB record alone is not enough - the signed payload must still
	// verify against this email.
	if err := a.Issuer.Verify(record.Token, email); err != nil {
		a.fail(w, r)
		return
	}

	session, err := a.Sessions.CreateSession(user.ID)
	if err != nil {
		log.Println("error creating session: ", err)
		http.Error(w, `{"error": "An error occurred."}`, http.StatusInternalServerError)
		return
	}

	// Single-use enforcement: consume before handing out the session.
	if err := a.Tokens.DeleteToken(identifier); err != nil {
		log.Printf("Warning: failed to delete token %s: %v", identifier, err)
	}

	http.SetCookie(w, a.Sessions.SessionCookie(session))
	http.Redirect(w, r, a.landingURL(), http.StatusFound)
}

func (a *MagicLinkAuth) fail(w http.ResponseWriter, r *http.Request) {
	if a.RetryURL != "" {
		http.Redirect(w, r, a.RetryURL, http.StatusFound)
		return
	}
	writeAuthError(w, http.StatusBadRequest,
		NewAuthError(ErrCodeInvalidToken, ErrInvalidOrExpiredToken.Error(), ""))
}
