// Package client provides a typed Go client for servers that mount the
// sessionkit auth routes. It captures the session cookie set at login or
// registration and replays it on later requests.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	sk "github.com/rishabhk/sessionkit"
)

// AuthClient is an HTTP client that manages a session cookie for one server
type AuthClient struct {
	mu            sync.Mutex
	serverURL     string
	authPrefix    string
	cookieName    string
	sessionToken  string
	httpClient    *http.Client
	baseTransport http.RoundTripper
}

// ValidateResponse is the body of the session validation endpoint
type ValidateResponse struct {
	Session bool           `json:"session"`
	User    *sk.PublicUser `json:"user,omitempty"`
}

type messageResponse struct {
	Message string         `json:"message"`
	Data    *sk.PublicUser `json:"data,omitempty"`
}

// ClientOption configures an AuthClient
type ClientOption func(*AuthClient)

// WithAuthPrefix sets the path prefix the auth routes are mounted under.
// Defaults to "/auth".
func WithAuthPrefix(prefix string) ClientOption {
	return func(c *AuthClient) {
		c.authPrefix = prefix
	}
}

// WithCookieName overrides the session cookie name
func WithCookieName(name string) ClientOption {
	return func(c *AuthClient) {
		c.cookieName = name
	}
}

// WithHTTPClient sets a custom base HTTP client (for timeouts, TLS config, etc.)
// The transport from this client will be wrapped with cookie handling.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AuthClient) {
		if client != nil && client.Transport != nil {
			c.baseTransport = client.Transport
		}
		if client != nil {
			c.httpClient.Timeout = client.Timeout
			c.httpClient.CheckRedirect = client.CheckRedirect
		}
	}
}

// WithTransport sets a custom base transport (for connection pooling, proxies, etc.)
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *AuthClient) {
		c.baseTransport = transport
	}
}

// NewAuthClient creates a new session-aware HTTP client for a server
func NewAuthClient(serverURL string, opts ...ClientOption) *AuthClient {
	// Normalize server URL
	u, err := url.Parse(serverURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}

	c := &AuthClient{
		serverURL:     serverURL,
		authPrefix:    "/auth",
		cookieName:    sk.DefaultSessionCookieName,
		httpClient:    &http.Client{},
		baseTransport: http.DefaultTransport,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Wrap the base transport with cookie handling
	c.httpClient.Transport = &sessionCookieTransport{client: c}

	return c
}

// HTTPClient returns the underlying HTTP client with cookie handling. Use it
// for requests to application endpoints behind the auth middleware.
func (c *AuthClient) HTTPClient() *http.Client {
	return c.httpClient
}

// ServerURL returns the server URL this client is configured for
func (c *AuthClient) ServerURL() string {
	return c.serverURL
}

// SessionToken returns the current session token, or empty when logged out
func (c *AuthClient) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionToken
}

// SetSessionToken seeds the client with an existing session token
func (c *AuthClient) SetSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// IsLoggedIn returns true if the client holds a session token
func (c *AuthClient) IsLoggedIn() bool {
	return c.SessionToken() != ""
}

// Register creates an account and captures the session cookie from the response
func (c *AuthClient) Register(creds sk.Credentials) (*sk.PublicUser, error) {
	resp, err := c.postJSON(c.authPrefix+"/register", creds)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.captureSessionCookie(resp)

	var body messageResponse
	if err := decodeOrAuthError(resp, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// Login authenticates with email/password and captures the session cookie
func (c *AuthClient) Login(email, password string) error {
	resp, err := c.postJSON(c.authPrefix+"/login", sk.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.captureSessionCookie(resp)

	var body messageResponse
	return decodeOrAuthError(resp, &body)
}

// Logout invalidates the session on the server and clears the local token
func (c *AuthClient) Logout() error {
	resp, err := c.httpClient.Post(c.serverURL+c.authPrefix+"/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.mu.Lock()
	c.sessionToken = ""
	c.mu.Unlock()

	var body messageResponse
	return decodeOrAuthError(resp, &body)
}

// Validate asks the server whether the current session is live. A logged-out
// or expired session returns (nil, nil).
func (c *AuthClient) Validate() (*sk.PublicUser, error) {
	resp, err := c.httpClient.Get(c.serverURL + c.authPrefix + "/validate")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The middleware reissues the cookie near expiry
	c.captureSessionCookie(resp)

	var body ValidateResponse
	if err := decodeOrAuthError(resp, &body); err != nil {
		return nil, err
	}
	if !body.Session {
		return nil, nil
	}
	return body.User, nil
}

// Me returns the public profile of the logged-in user, or an error when the
// session is missing or dead.
func (c *AuthClient) Me() (*sk.PublicUser, error) {
	user, err := c.Validate()
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, sk.NewAuthError("not_authenticated", "Not authenticated", "")
	}
	return user, nil
}

// RequestMagicLink asks the server to email a login link to the given address
func (c *AuthClient) RequestMagicLink(email string) error {
	resp, err := c.postJSON(c.authPrefix+"/magic-link", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body messageResponse
	return decodeOrAuthError(resp, &body)
}

func (c *AuthClient) postJSON(path string, payload any) (*http.Response, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.httpClient.Post(c.serverURL+path, "application/json", bytes.NewReader(jsonBody))
}

// captureSessionCookie records the session token from a Set-Cookie header.
// A blank cookie (MaxAge < 0) clears the local token.
func (c *AuthClient) captureSessionCookie(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != c.cookieName {
			continue
		}
		c.mu.Lock()
		if cookie.MaxAge < 0 || cookie.Value == "" {
			c.sessionToken = ""
		} else {
			c.sessionToken = cookie.Value
		}
		c.mu.Unlock()
	}
}

// decodeOrAuthError decodes the response body, turning non-2xx statuses into
// the server's structured auth error when one is present.
func decodeOrAuthError(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var authErr sk.AuthError
		if err := json.Unmarshal(body, &authErr); err == nil && authErr.Code != "" {
			return &authErr
		}
		return fmt.Errorf("request failed: HTTP %d", resp.StatusCode)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid response from server: %w", err)
	}
	return nil
}

// sessionCookieTransport rebinds a SessionTransport to the client's current
// token on every request, so logins and logouts take effect immediately.
type sessionCookieTransport struct {
	client *AuthClient
}

func (t *sessionCookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	st := &SessionTransport{
		Base:       t.client.baseTransport,
		CookieName: t.client.cookieName,
		Token:      t.client.SessionToken(),
	}
	return st.RoundTrip(req)
}
