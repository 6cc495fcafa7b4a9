package sessionkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	oa2 "github.com/rishabhk/sessionkit/oauth2"
)

// Auth bundles the authentication surface: credential login/registration,
// Google OAuth federation, magic-link login, logout and session validation,
// plus the request middleware that resolves identity for the rest of the
// application.
type Auth struct {
	// Optional name used as a prefix for defaults
	AppName string

	// Must be passed in
	Users    UserStore
	Sessions *SessionManager

	// Optional sub-flows. Local is built from Users/Sessions when nil;
	// Google and MagicLink stay disabled when nil.
	Local     *LocalAuth
	Google    *oa2.GoogleOAuth2
	MagicLink *MagicLinkAuth

	Middleware *Middleware

	// JWT signing key for magic-link tokens
	JwtIssuer    string
	JWTSecretKey string

	// LandingURL is where OAuth and magic-link logins land. Defaults to "/".
	LandingURL string

	router *mux.Router
}

func New(appName string) *Auth {
	return &Auth{AppName: appName}
}

func (a *Auth) EnsureDefaults() *Auth {
	if a.AppName == "" {
		a.AppName = "SessionKit"
	}
	if a.JwtIssuer == "" {
		a.JwtIssuer = fmt.Sprintf("%s-Issuer", a.AppName)
	}
	if a.JWTSecretKey == "" {
		a.JWTSecretKey = strings.TrimSpace(os.Getenv("SESSIONKIT_JWT_SECRET_KEY"))
	}
	if a.LandingURL == "" {
		a.LandingURL = "/"
	}
	if a.Sessions != nil {
		a.Sessions.EnsureDefaults()
	}
	if a.Local == nil {
		a.Local = &LocalAuth{Users: a.Users, Sessions: a.Sessions}
	}
	if a.Middleware == nil {
		a.Middleware = &Middleware{Sessions: a.Sessions}
	}
	if a.MagicLink != nil {
		if a.MagicLink.Users == nil {
			a.MagicLink.Users = a.Users
		}
		if a.MagicLink.Sessions == nil {
			a.MagicLink.Sessions = a.Sessions
		}
		if a.MagicLink.Issuer == nil {
			a.MagicLink.Issuer = &TokenIssuer{SecretKey: a.JWTSecretKey, Issuer: a.JwtIssuer}
		}
		if a.MagicLink.LandingURL == "" {
			a.MagicLink.LandingURL = a.LandingURL
		}
	}
	if a.Google != nil && a.Google.HandleUser == nil {
		a.Google.HandleUser = a.SaveUserAndRedirect
	}
	return a
}

// Handler returns the auth routes wrapped in the identity middleware. Mount
// it under a prefix with http.StripPrefix:
//
//	mux.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))
func (a *Auth) Handler() http.Handler {
	a.EnsureDefaults()
	if a.router == nil {
		r := mux.NewRouter()
		r.HandleFunc("/login", a.Local.HandleLogin).Methods(http.MethodPost)
		r.HandleFunc("/register", a.Local.HandleRegister).Methods(http.MethodPost)
		r.HandleFunc("/logout", a.onLogout).Methods(http.MethodPost)
		r.HandleFunc("/validate", a.onValidate).Methods(http.MethodGet)
		if a.Google != nil {
			r.HandleFunc("/google", a.Google.HandleRedirect).Methods(http.MethodGet)
			r.HandleFunc("/callback/google", a.Google.HandleCallback).Methods(http.MethodGet)
		}
		if a.MagicLink != nil {
			r.HandleFunc("/magic-link", a.MagicLink.HandleRequest).Methods(http.MethodPost)
			r.HandleFunc("/magic-link/callback", a.MagicLink.HandleExchange).Methods(http.MethodGet)
		}
		a.router = r
	}
	return a.Middleware.ExtractUser(a.router)
}

func (a *Auth) onLogout(w http.ResponseWriter, r *http.Request) {
	if session := SessionFromContext(r.Context()); session != nil {
		if err := a.Sessions.InvalidateSession(session.ID); err != nil {
			log.Println("error invalidating session: ", err)
		}
	}
	http.SetCookie(w, a.Sessions.BlankSessionCookie())

	if to := r.URL.Query().Get("to"); to != "" {
		http.Redirect(w, r, to, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"message": "success"})
}

func (a *Auth) onValidate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	user := UserFromContext(r.Context())
	if user == nil {
		json.NewEncoder(w).Encode(map[string]any{"session": false})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"session": true, "user": user.Public()})
}

/**
 * Called by the oauth callback handler with the provider token and user
 * info after a successful exchange.
 *
 * Here is our opportunity to:
 * 	1. Resolve or create the local user bound to the federated subject id
 *	2. Mint the session and set the cookie before redirecting back
 */
func (a *Auth) SaveUserAndRedirect(provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	user, err := a.EnsureOAuthUser(provider, userInfo)
	if err != nil {
		log.Println("error resolving oauth user: ", err)
		http.Error(w, "oauth login failed", http.StatusInternalServerError)
		return
	}

	session, err := a.Sessions.CreateSession(user.ID)
	if err != nil {
		log.Println("error creating session: ", err)
		http.Error(w, "oauth login failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, a.Sessions.SessionCookie(session))

	callbackURL := oa2.CallbackURLFromCookie(w, r)
	if callbackURL == "" {
		callbackURL = a.LandingURL
	}
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// EnsureOAuthUser looks up the local user bound to the federated subject id,
// creating one on first login. The store's uniqueness constraints guard the
// check-then-insert against concurrent first logins.
func (a *Auth) EnsureOAuthUser(provider string, userInfo map[string]any) (*User, error) {
	sub, _ := userInfo["sub"].(string)
	if sub == "" {
		// Some providers still return the legacy numeric id field
		sub, _ = userInfo["id"].(string)
	}
	if sub == "" {
		return nil, fmt.Errorf("provider %s returned no subject id", provider)
	}

	user, err := a.Users.GetUserByGoogleID(sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	email, _ := userInfo["email"].(string)
	name, _ := userInfo["name"].(string)
	if email == "" {
		return nil, fmt.Errorf("provider %s returned no email", provider)
	}

	user = &User{
		ID:        NewUserID(),
		GoogleID:  &sub,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := a.Users.InsertUser(user); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Concurrent first login for the same subject; the other insert won
			if existing, lookupErr := a.Users.GetUserByGoogleID(sub); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("Created user %s from %s subject %s", user.ID, provider, sub)
	return user, nil
}
