package client

import (
	"net/http"

	sk "github.com/rishabhk/sessionkit"
)

// SessionTransport wraps an http.RoundTripper to attach a session cookie
type SessionTransport struct {
	Base       http.RoundTripper
	CookieName string
	Token      string
}

// RoundTrip implements http.RoundTripper
func (t *SessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Token != "" {
		// Clone the request to avoid mutating the original
		req2 := req.Clone(req.Context())
		req2.AddCookie(&http.Cookie{Name: t.cookieName(), Value: t.Token})
		req = req2
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req)
}

func (t *SessionTransport) cookieName() string {
	if t.CookieName != "" {
		return t.CookieName
	}
	return sk.DefaultSessionCookieName
}

// NewSessionTransport creates a SessionTransport with the given session token
func NewSessionTransport(token string) *SessionTransport {
	return &SessionTransport{
		Base:  http.DefaultTransport,
		Token: token,
	}
}

// NewSessionTransportWithBase creates a SessionTransport with a custom base transport
func NewSessionTransportWithBase(base http.RoundTripper, token string) *SessionTransport {
	return &SessionTransport{
		Base:  base,
		Token: token,
	}
}
