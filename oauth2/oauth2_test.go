package oauth2_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rishabhk/sessionkit/oauth2"
	oauth2lib "golang.org/x/oauth2"
)

// mockOAuthServer fakes the provider's /token and /userinfo endpoints and
// counts how often they are hit.
type mockOAuthServer struct {
	server           *httptest.Server
	tokenEndpoint    string
	userInfoEndpoint string

	tokenResponse    map[string]any
	userInfoResponse map[string]any
	tokenError       bool
	userInfoError    bool

	hits atomic.Int64
}

func newMockOAuthServer() *mockOAuthServer {
	mock := &mockOAuthServer{
		tokenResponse: map[string]any{
			"access_token": "mock_access_token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		},
		userInfoResponse: map[string]any{
			"sub":   "google-sub-12345",
			"email": "testuser@example.com",
			"name":  "Test User",
		},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		mock.hits.Add(1)
		if mock.tokenError {
			http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.tokenResponse)
	})

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		mock.hits.Add(1)
		if mock.userInfoError {
			http.Error(w, "user info failed", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.userInfoResponse)
	})

	mock.server = httptest.NewServer(mux)
	mock.tokenEndpoint = mock.server.URL + "/token"
	mock.userInfoEndpoint = mock.server.URL + "/userinfo"

	return mock
}

func (m *mockOAuthServer) Close() {
	m.server.Close()
}

func cookieByName(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleRedirect(t *testing.T) {
	google := oauth2.NewGoogleOAuth2(
		"test-client-id", "test-client-secret", "http://localhost:8080/callback/google", nil)

	t.Run("redirects with state and PKCE challenge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		google.HandleRedirect(rr, req)

		if rr.Code != http.StatusFound {
			t.Fatalf("Expected status %d, got %d", http.StatusFound, rr.Code)
		}

		location := rr.Header().Get("Location")
		parsedURL, err := url.Parse(location)
		if err != nil {
			t.Fatalf("Failed to parse redirect URL: %v", err)
		}
		query := parsedURL.Query()
		if query.Get("client_id") != "test-client-id" {
			t.Error("Expected client_id in URL")
		}
		if query.Get("response_type") != "code" {
			t.Error("Expected response_type=code in URL")
		}
		if query.Get("state") == "" {
			t.Error("Expected state parameter in URL")
		}
		if query.Get("code_challenge") == "" {
			t.Error("Expected PKCE code_challenge in URL")
		}
		if query.Get("code_challenge_method") != "S256" {
			t.Errorf("Expected S256 challenge method, got %q", query.Get("code_challenge_method"))
		}
	})

	t.Run("state in URL matches cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		google.HandleRedirect(rr, req)

		stateCookie := cookieByName(rr, "oauth_state")
		if stateCookie == nil || stateCookie.Value == "" {
			t.Fatal("Expected oauth_state cookie")
		}
		if !stateCookie.HttpOnly {
			t.Error("Flow cookies must be HttpOnly")
		}

		parsedURL, _ := url.Parse(rr.Header().Get("Location"))
		if parsedURL.Query().Get("state") != stateCookie.Value {
			t.Error("State in redirect URL should match the cookie")
		}
	})

	t.Run("sets verifier cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		google.HandleRedirect(rr, req)

		if c := cookieByName(rr, "oauth_code_verifier"); c == nil || c.Value == "" {
			t.Error("Expected oauth_code_verifier cookie")
		}
	})

	t.Run("parks callback URL when provided", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?callbackURL=/dashboard", nil)
		rr := httptest.NewRecorder()
		google.HandleRedirect(rr, req)

		c := cookieByName(rr, "oauth_callback_url")
		if c == nil || c.Value != "/dashboard" {
			t.Errorf("Expected callback URL cookie '/dashboard', got %v", c)
		}
	})

	t.Run("generates unique state per request", func(t *testing.T) {
		states := make(map[string]bool)
		for i := 0; i < 10; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()
			google.HandleRedirect(rr, req)
			if c := cookieByName(rr, "oauth_state"); c != nil {
				states[c.Value] = true
			}
		}
		if len(states) != 10 {
			t.Errorf("Expected 10 unique states, got %d", len(states))
		}
	})
}

func TestGoogleCallback(t *testing.T) {
	mock := newMockOAuthServer()
	defer mock.Close()

	var handledProvider string
	var handledUserInfo map[string]any
	var handledCalled bool

	google := oauth2.NewGoogleOAuth2(
		"test-client-id", "test-client-secret", "http://localhost:8080/callback/google",
		func(provider string, token *oauth2lib.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
			handledCalled = true
			handledProvider = provider
			handledUserInfo = userInfo
			w.WriteHeader(http.StatusOK)
		})
	google.UserInfoURL = mock.userInfoEndpoint
	google.SetOAuthEndpoint(oauth2lib.Endpoint{
		AuthURL:  mock.server.URL + "/auth",
		TokenURL: mock.tokenEndpoint,
	})

	callbackReq := func(state, cookieState, verifier string) *http.Request {
		req := httptest.NewRequest(http.MethodGet,
			"/callback/google?code=test_code&state="+url.QueryEscape(state), nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})
		}
		if verifier != "" {
			req.AddCookie(&http.Cookie{Name: "oauth_code_verifier", Value: verifier})
		}
		return req
	}

	t.Run("rejects missing state cookie without touching provider", func(t *testing.T) {
		handledCalled = false
		before := mock.hits.Load()

		rr := httptest.NewRecorder()
		google.HandleCallback(rr, callbackReq("test_state", "", "verifier"))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
		if handledCalled {
			t.Error("HandleUser must not run without a state cookie")
		}
		if mock.hits.Load() != before {
			t.Error("Provider must not be contacted when state validation fails")
		}
	})

	t.Run("rejects mismatched state without touching provider", func(t *testing.T) {
		handledCalled = false
		before := mock.hits.Load()

		rr := httptest.NewRecorder()
		google.HandleCallback(rr, callbackReq("wrong_state", "correct_state", "verifier"))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid oauth") {
			t.Errorf("Expected invalid oauth error, got: %s", rr.Body.String())
		}
		if handledCalled {
			t.Error("HandleUser must not run with mismatched state")
		}
		if mock.hits.Load() != before {
			t.Error("Provider must not be contacted when state validation fails")
		}
	})

	t.Run("state mismatch clears flow cookies", func(t *testing.T) {
		rr := httptest.NewRecorder()
		google.HandleCallback(rr, callbackReq("wrong_state", "correct_state", "verifier"))

		state := cookieByName(rr, "oauth_state")
		if state == nil || state.MaxAge >= 0 {
			t.Error("Expected state cookie cleared after mismatch")
		}
	})

	t.Run("successful callback flow", func(t *testing.T) {
		handledCalled = false
		handledProvider = ""
		handledUserInfo = nil

		rr := httptest.NewRecorder()
		google.HandleCallback(rr, callbackReq("valid_state", "valid_state", "test_verifier"))

		if !handledCalled {
			t.Fatalf("HandleUser should have been called. Status: %d, Body: %s", rr.Code, rr.Body.String())
		}
		if handledProvider != "google" {
			t.Errorf("Expected provider 'google', got %q", handledProvider)
		}
		if handledUserInfo["sub"] != "google-sub-12345" {
			t.Errorf("Expected federated subject, got %v", handledUserInfo["sub"])
		}
	})

	t.Run("token exchange failure is a client error", func(t *testing.T) {
		handledCalled = false
		mock.tokenError = true
		defer func() { mock.tokenError = false }()

		rr := httptest.NewRecorder()
		google.HandleCallback(rr, callbackReq("valid_state", "valid_state", "test_verifier"))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for provider rejection, got %d", rr.Code)
		}
		if handledCalled {
			t.Error("HandleUser must not run on exchange failure")
		}
	})

	t.Run("userinfo failure is a client error", func(t *testing.T) {
		handledCalled = false
		mock.userInfoError = true
		defer func() { mock.userInfoError = false }()

		rr := httptest.NewRecorder()
		google.HandleCallback(rr, callbackReq("valid_state", "valid_state", "test_verifier"))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for provider rejection, got %d", rr.Code)
		}
		if handledCalled {
			t.Error("HandleUser must not run on userinfo failure")
		}
	})
}

func TestEnvironmentVariableDefaults(t *testing.T) {
	t.Run("explicit values win", func(t *testing.T) {
		google := oauth2.NewGoogleOAuth2(
			"explicit-client-id", "explicit-secret", "http://explicit-callback.com", nil)

		if google.ClientId != "explicit-client-id" {
			t.Errorf("Expected explicit ClientId, got %q", google.ClientId)
		}
		if google.ClientSecret != "explicit-secret" {
			t.Errorf("Expected explicit ClientSecret, got %q", google.ClientSecret)
		}
		if google.CallbackURL != "http://explicit-callback.com" {
			t.Errorf("Expected explicit CallbackURL, got %q", google.CallbackURL)
		}
	})

	t.Run("env vars fill empty values", func(t *testing.T) {
		t.Setenv("OAUTH2_GOOGLE_CLIENT_ID", "env-client-id")
		t.Setenv("OAUTH2_GOOGLE_CLIENT_SECRET", "env-secret")

		google := oauth2.NewGoogleOAuth2("", "", "http://cb.example.com", nil)
		if google.ClientId != "env-client-id" {
			t.Errorf("Expected env ClientId, got %q", google.ClientId)
		}
	})
}
