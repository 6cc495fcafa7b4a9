package sessionkit

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	userContextKey    contextKey = "sessionkit.user"
	sessionContextKey contextKey = "sessionkit.session"
)

// Middleware resolves the caller's session from the inbound cookie and makes
// the {user, session} pair available to downstream handlers via the request
// context. It must run before any handler that inspects identity.
type Middleware struct {
	Sessions *SessionManager
}

/**
 * Fetches the session from the request cookie and loads the User and
 * Session variables for other handlers.
 *
 * Note this does not reject anonymous requests - the user and session
 * context values are simply nil and downstream handlers decide. To also
 * enforce a logged-in user, use EnsureUser.
 */
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.Sessions.EnsureDefaults().CookieName)
		if err != nil || cookie.Value == "" {
			// Anonymous request, nothing to clear and nothing to attach
			next.ServeHTTP(w, r)
			return
		}

		user, session, err := m.Sessions.ValidateSession(cookie.Value)
		if err != nil {
			slog.Warn("error validating session", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if session != nil && session.Fresh {
			// Renewal happened - replace the client's cookie
			http.SetCookie(w, m.Sessions.SessionCookie(session))
		}
		if session == nil {
			// The token the client sent is dead; actively clear it
			http.SetCookie(w, m.Sessions.BlankSessionCookie())
		}

		next.ServeHTTP(w, withAuth(r, user, session))
	})
}

// EnsureUser wraps ExtractUser and rejects requests with no valid session.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	return m.ExtractUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Error(w, `{"error": "Not authenticated"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// withAuth returns a request whose context carries the resolved identity
func withAuth(r *http.Request, user *User, session *Session) *http.Request {
	ctx := r.Context()
	if user != nil {
		ctx = context.WithValue(ctx, userContextKey, user)
	}
	if session != nil {
		ctx = context.WithValue(ctx, sessionContextKey, session)
	}
	return r.WithContext(ctx)
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey).(*User)
	return u
}

// SessionFromContext returns the validated session, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey).(*Session)
	return s
}
