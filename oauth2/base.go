package oauth2

import (
	"net/http"
	"os"

	"golang.org/x/oauth2"
)

// BaseOAuth2 drives the provider-agnostic half of the authorization-code
// flow: minting the state nonce and PKCE verifier, parking both in
// short-lived cookies, and redirecting to the provider.
type BaseOAuth2 struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string
	HandleUser   HandleUserFunc

	oauthConfig oauth2.Config
}

func NewBaseOAuth2(clientId string, clientSecret string, callbackUrl string) *BaseOAuth2 {
	if clientId == "" {
		clientId = os.Getenv("OAUTH2_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("OAUTH2_CALLBACK_URL")
	}
	return &BaseOAuth2{
		ClientId:     clientId,
		ClientSecret: clientSecret,
		CallbackURL:  callbackUrl,
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
}

// SetOAuthEndpoint overrides the provider endpoints. Tests point these at a
// fake provider.
func (b *BaseOAuth2) SetOAuthEndpoint(endpoint oauth2.Endpoint) {
	b.oauthConfig.Endpoint = endpoint
}

// HandleRedirect starts a flow. The generated state and code verifier are
// stored client-side with a short expiry; an optional callbackURL query
// param records where to land after the callback succeeds.
func (b *BaseOAuth2) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to start oauth flow", http.StatusInternalServerError)
		return
	}
	verifier := oauth2.GenerateVerifier()

	setFlowCookie(w, stateCookieName, state)
	setFlowCookie(w, verifierCookieName, verifier)
	if callbackURL := r.URL.Query().Get("callbackURL"); callbackURL != "" {
		setFlowCookie(w, callbackCookieName, callbackURL)
	}

	u := b.oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	http.Redirect(w, r, u, http.StatusFound)
}

// CallbackURLFromCookie returns the landing URL parked at redirect time, and
// clears the cookie so it is not reused by a later flow.
func CallbackURLFromCookie(w http.ResponseWriter, r *http.Request) string {
	callbackURL := cookieValue(r, callbackCookieName)
	if callbackURL != "" {
		clearFlowCookie(w, callbackCookieName)
	}
	return callbackURL
}
