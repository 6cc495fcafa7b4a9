package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// HandleUserFunc is called with the provider token and federated profile
// after a successful callback. Implementations resolve or create the local
// user and issue the session.
type HandleUserFunc func(provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

// Transient flow state lives in short-lived client-side cookies between the
// authorization redirect and the callback; there is no server-side state for
// a pending flow.
const (
	stateCookieName    = "oauth_state"
	verifierCookieName = "oauth_code_verifier"
	callbackCookieName = "oauth_callback_url"

	// flowCookieMaxAge bounds how long a pending flow stays completable.
	flowCookieMaxAge = 10 * time.Minute
)

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(flowCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(flowCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearFlowCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}

func clearFlowCookies(w http.ResponseWriter) {
	clearFlowCookie(w, stateCookieName)
	clearFlowCookie(w, verifierCookieName)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
