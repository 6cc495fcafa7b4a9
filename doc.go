// Package sessionkit implements a session-based authentication core for Go
// applications: credential login and registration, opaque server-tracked
// sessions with sliding expiry, Google OAuth federation (authorization code +
// PKCE), and single-use signed tokens for passwordless "magic link" login.
//
// # Architecture
//
// User: the identity record. Unique email, optional password hash (absent for
// OAuth-only accounts), optional federated provider id.
//
// Session: proof of authentication bound to an opaque unguessable id carried
// in a cookie. Sessions have an absolute expiry; validating a session that is
// past its renewal threshold extends the expiry and marks the session fresh
// so the caller knows to reissue the cookie.
//
// VerificationToken: a pending magic-link login. The public identifier is
// sent in the URL; the signed token it references must also verify before a
// session is issued, and the record is deleted on first use.
//
// # Basic Usage
//
// Set up stores for users, sessions and verification tokens:
//
//	import (
//	    "github.com/rishabhk/sessionkit"
//	    "github.com/rishabhk/sessionkit/stores"
//	)
//
//	storagePath := "/path/to/storage"
//	userStore := stores.NewFSUserStore(storagePath)
//	sessionStore := stores.NewFSSessionStore(storagePath)
//	tokenStore := stores.NewFSTokenStore(storagePath)
//
// Wire the auth surface and mount it:
//
//	auth := sessionkit.New("MyApp")
//	auth.Users = userStore
//	auth.Sessions = &sessionkit.SessionManager{Store: sessionStore, Users: userStore}
//	auth.MagicLink = &sessionkit.MagicLinkAuth{
//	    Users:       userStore,
//	    Tokens:      tokenStore,
//	    EmailSender: &sessionkit.ConsoleEmailSender{},
//	    BaseURL:     "https://yourapp.com",
//	}
//
//	mux := http.NewServeMux()
//	mux.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))
//
// Downstream handlers read the caller's identity from the request context:
//
//	user := sessionkit.UserFromContext(r.Context())
//
// # Store Implementations
//
// File-based stores live in the stores package and suit development and
// tests. GORM and Cloud Datastore backends live in stores/gorm and
// stores/gae for production databases; both enforce email and provider-id
// uniqueness at insert so concurrent duplicate registrations are rejected
// rather than racing the existence check.
//
// # Security
//
// Passwords are hashed with scrypt; the salt and cost parameters are
// embedded in the stored hash string. Session ids and magic-link identifiers
// are cryptographically random 32-byte values. Login failures never reveal
// whether the email or the password was wrong. OAuth callbacks verify the
// state cookie before any network call to the provider.
package sessionkit
