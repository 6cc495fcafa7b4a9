package oauth2

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleOAuth2 implements the Google flavor of the authorization-code +
// PKCE flow.
type GoogleOAuth2 struct {
	*BaseOAuth2

	// UserInfoURL overrides the identity endpoint (tests point this at a
	// fake provider).
	UserInfoURL string
}

func NewGoogleOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *GoogleOAuth2 {
	if clientId == "" {
		clientId = os.Getenv("OAUTH2_GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("OAUTH2_GOOGLE_CALLBACK_URL")
	}

	out := &GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2(clientId, clientSecret, callbackUrl),
	}
	out.HandleUser = handleUser
	out.oauthConfig.Endpoint = google.Endpoint
	out.oauthConfig.Scopes = []string{"openid", "profile", "email"}
	return out
}

// HandleCallback completes the flow. The state check is mandatory and
// short-circuits before any network call: a missing or mismatched state is
// a CSRF failure, not a provider error.
func (g *GoogleOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request) {
	storedState := cookieValue(r, stateCookieName)
	verifier := cookieValue(r, verifierCookieName)
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	if state == "" || storedState == "" || code == "" || state != storedState {
		clearFlowCookies(w)
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	clearFlowCookies(w)

	token, err := g.oauthConfig.Exchange(r.Context(), code, oauth2.VerifierOption(verifier))
	if err != nil {
		log.Println("code exchange failed: ", err)
		g.handleProviderError(w, err)
		return
	}

	userInfo, err := g.fetchUserInfo(token)
	if err != nil {
		log.Println("userinfo fetch failed: ", err)
		g.handleProviderError(w, err)
		return
	}

	g.HandleUser("google", token, userInfo, w, r)
}

// handleProviderError maps provider protocol rejections to a client error
// and everything else to a server error. Both are terminal for this flow.
func (g *GoogleOAuth2) handleProviderError(w http.ResponseWriter, err error) {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		http.Error(w, "oauth provider rejected the exchange", http.StatusBadRequest)
		return
	}
	http.Error(w, "oauth login failed", http.StatusInternalServerError)
}

func (g *GoogleOAuth2) userInfoURL() string {
	if g.UserInfoURL != "" {
		return g.UserInfoURL
	}
	return googleUserInfoURL
}

// fetchUserInfo calls the provider's identity endpoint with the access
// token and decodes the federated profile (sub, email, name, ...).
func (g *GoogleOAuth2) fetchUserInfo(token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, g.userInfoURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &oauth2.RetrieveError{Response: resp, Body: body}
	}

	var userInfo map[string]any
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed decoding userinfo response: %w", err)
	}
	return userInfo, nil
}
