package client

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sk "github.com/rishabhk/sessionkit"
	"github.com/rishabhk/sessionkit/stores"
)

type recordingEmailSender struct {
	to   string
	link string
}

func (s *recordingEmailSender) SendMagicLinkEmail(email, link string) error {
	s.to = email
	s.link = link
	return nil
}

// newAuthServer starts an httptest server with the auth routes mounted under
// /auth and a protected /whoami endpoint behind the session middleware.
func newAuthServer(t *testing.T) (*httptest.Server, *recordingEmailSender) {
	t.Helper()

	tmpDir := t.TempDir()
	users := stores.NewFSUserStore(tmpDir)
	sender := &recordingEmailSender{}

	auth := sk.New("ClientTestApp")
	auth.Users = users
	auth.Sessions = sk.NewSessionManager(stores.NewFSSessionStore(tmpDir), users)
	auth.JWTSecretKey = "test-secret"
	auth.MagicLink = &sk.MagicLinkAuth{
		Tokens:      stores.NewFSTokenStore(tmpDir),
		EmailSender: sender,
		BaseURL:     "http://example.com/auth",
	}
	auth.EnsureDefaults()
	auth.Local.Hasher = &sk.PasswordHasher{N: 1 << 4}

	mux := http.NewServeMux()
	mux.Handle("/auth/", http.StripPrefix("/auth", auth.Handler()))
	mux.Handle("/whoami", auth.Middleware.EnsureUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := sk.UserFromContext(r.Context())
		w.Write([]byte(user.Email))
	})))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, sender
}

func TestAuthClient_RegisterAndValidate(t *testing.T) {
	server, _ := newAuthServer(t)
	client := NewAuthClient(server.URL)

	user, err := client.Register(sk.Credentials{
		Email:    "client@example.com",
		Password: "password123",
		Name:     "Client User",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user == nil || user.Email != "client@example.com" {
		t.Fatalf("Register() user = %+v, want client@example.com", user)
	}

	if !client.IsLoggedIn() {
		t.Error("expected client to hold a session token after register")
	}

	validated, err := client.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if validated == nil || validated.Email != "client@example.com" {
		t.Errorf("Validate() user = %+v, want client@example.com", validated)
	}
}

func TestAuthClient_RegisterDuplicate(t *testing.T) {
	server, _ := newAuthServer(t)
	client := NewAuthClient(server.URL)

	creds := sk.Credentials{Email: "dup@example.com", Password: "password123"}
	if _, err := client.Register(creds); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := client.Register(creds)
	if err == nil {
		t.Fatal("second Register() should have failed")
	}
	var authErr *sk.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *sk.AuthError, got %T: %v", err, err)
	}
	if authErr.Code != "email_exists" {
		t.Errorf("error code = %q, want email_exists", authErr.Code)
	}
}

func TestAuthClient_LoginLogout(t *testing.T) {
	server, _ := newAuthServer(t)

	// Create the account with one client, log in with a fresh one.
	setup := NewAuthClient(server.URL)
	if _, err := setup.Register(sk.Credentials{Email: "login@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	client := NewAuthClient(server.URL)
	if err := client.Login("login@example.com", "password123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !client.IsLoggedIn() {
		t.Fatal("expected session token after login")
	}

	if err := client.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if client.IsLoggedIn() {
		t.Error("expected no session token after logout")
	}

	// The server-side session is gone too.
	user, err := client.Validate()
	if err != nil {
		t.Fatalf("Validate() after logout error = %v", err)
	}
	if user != nil {
		t.Errorf("Validate() after logout = %+v, want nil", user)
	}
}

func TestAuthClient_LoginWrongPassword(t *testing.T) {
	server, _ := newAuthServer(t)

	setup := NewAuthClient(server.URL)
	if _, err := setup.Register(sk.Credentials{Email: "wrong@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	client := NewAuthClient(server.URL)
	err := client.Login("wrong@example.com", "not-the-password")
	if err == nil {
		t.Fatal("Login() should have failed")
	}
	var authErr *sk.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *sk.AuthError, got %T: %v", err, err)
	}
	if client.IsLoggedIn() {
		t.Error("failed login must not leave a session token behind")
	}
}

func TestAuthClient_Me(t *testing.T) {
	server, _ := newAuthServer(t)
	client := NewAuthClient(server.URL)

	if _, err := client.Me(); err == nil {
		t.Error("Me() should fail without a session")
	}

	if _, err := client.Register(sk.Credentials{Email: "me@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := client.Me()
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.Email != "me@example.com" {
		t.Errorf("Me() email = %q, want me@example.com", user.Email)
	}
}

func TestAuthClient_ValidateWithoutSession(t *testing.T) {
	server, _ := newAuthServer(t)
	client := NewAuthClient(server.URL)

	user, err := client.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if user != nil {
		t.Errorf("Validate() = %+v, want nil without a session", user)
	}
}

func TestAuthClient_RequestMagicLink(t *testing.T) {
	server, sender := newAuthServer(t)

	setup := NewAuthClient(server.URL)
	if _, err := setup.Register(sk.Credentials{Email: "magic@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	client := NewAuthClient(server.URL)
	if err := client.RequestMagicLink("magic@example.com"); err != nil {
		t.Fatalf("RequestMagicLink() error = %v", err)
	}
	if sender.to != "magic@example.com" {
		t.Errorf("magic link sent to %q, want magic@example.com", sender.to)
	}
	if sender.link == "" {
		t.Error("expected a login link to be generated")
	}
}

func TestAuthClient_TransportAddsCookie(t *testing.T) {
	server, _ := newAuthServer(t)
	client := NewAuthClient(server.URL)

	if _, err := client.Register(sk.Credentials{Email: "who@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	resp, err := client.HTTPClient().Get(server.URL + "/whoami")
	if err != nil {
		t.Fatalf("GET /whoami error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "who@example.com" {
		t.Errorf("body = %q, want who@example.com", body)
	}
}

func TestAuthClient_TransportNoCookieWhenLoggedOut(t *testing.T) {
	server, _ := newAuthServer(t)
	client := NewAuthClient(server.URL)

	resp, err := client.HTTPClient().Get(server.URL + "/whoami")
	if err != nil {
		t.Fatalf("GET /whoami error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without a session", resp.StatusCode)
	}
}

func TestAuthClient_SeededToken(t *testing.T) {
	server, _ := newAuthServer(t)

	first := NewAuthClient(server.URL)
	if _, err := first.Register(sk.Credentials{Email: "seed@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// A second client seeded with the same token shares the session.
	second := NewAuthClient(server.URL)
	second.SetSessionToken(first.SessionToken())

	user, err := second.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if user == nil || user.Email != "seed@example.com" {
		t.Errorf("Validate() = %+v, want seed@example.com", user)
	}
}

func TestNewAuthClient_NormalizesURL(t *testing.T) {
	client := NewAuthClient("http://example.com/some/deep/path?q=1")
	if client.ServerURL() != "http://example.com" {
		t.Errorf("ServerURL() = %q, want http://example.com", client.ServerURL())
	}
}

func TestAuthClient_WithHTTPClientTimeout(t *testing.T) {
	custom := &http.Client{Timeout: 30 * time.Second}
	client := NewAuthClient("http://example.com", WithHTTPClient(custom))
	if client.HTTPClient().Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", client.HTTPClient().Timeout)
	}
}
