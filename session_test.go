package sessionkit_test

import (
	"testing"
	"time"

	sk "github.com/rishabhk/sessionkit"
	"github.com/rishabhk/sessionkit/stores"
)

func setupSessionManager(t *testing.T) (*sk.SessionManager, *stores.FSUserStore, *stores.FSSessionStore) {
	tmpDir := t.TempDir()
	users := stores.NewFSUserStore(tmpDir)
	sessions := stores.NewFSSessionStore(tmpDir)
	return sk.NewSessionManager(sessions, users), users, sessions
}

func insertTestUser(t *testing.T, users *stores.FSUserStore, email string) *sk.User {
	user := &sk.User{
		ID:        sk.NewUserID(),
		Email:     email,
		Name:      "Test User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := users.InsertUser(user); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	return user
}

func TestCreateAndValidateSession(t *testing.T) {
	manager, users, _ := setupSessionManager(t)
	user := insertTestUser(t, users, "session@example.com")

	session, err := manager.CreateSession(user.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("Expected non-empty session id")
	}

	gotUser, gotSession, err := manager.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if gotUser == nil || gotSession == nil {
		t.Fatal("Expected user and session for a live token")
	}
	if gotUser.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, gotUser.ID)
	}
	if gotSession.Fresh {
		t.Error("A just-created session should not be fresh")
	}
}

func TestValidateUnknownToken(t *testing.T) {
	manager, _, _ := setupSessionManager(t)

	user, session, err := manager.ValidateSession("no-such-token")
	if err != nil {
		t.Fatalf("Expected nil error for unknown token, got: %v", err)
	}
	if user != nil || session != nil {
		t.Error("Expected nil user and session for unknown token")
	}

	user, session, err = manager.ValidateSession("")
	if err != nil || user != nil || session != nil {
		t.Error("Expected nils for empty token")
	}
}

func TestValidateExpiredSessionPurges(t *testing.T) {
	manager, users, sessionStore := setupSessionManager(t)
	user := insertTestUser(t, users, "expired@example.com")

	expired := &sk.Session{
		ID:        "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := sessionStore.InsertSession(expired); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	gotUser, gotSession, err := manager.ValidateSession(expired.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if gotUser != nil || gotSession != nil {
		t.Error("Expected nils for an expired session")
	}

	// The expired record should have been removed
	if _, err := sessionStore.GetSession(expired.ID); err != sk.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound after purge, got: %v", err)
	}
}

func TestSlidingRenewal(t *testing.T) {
	manager, users, sessionStore := setupSessionManager(t)
	manager.Lifetime = time.Hour
	manager.RenewalThreshold = 30 * time.Minute
	user := insertTestUser(t, users, "renew@example.com")

	// Less than the threshold remaining, validation should extend it
	nearExpiry := &sk.Session{
		ID:        "near-expiry",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := sessionStore.InsertSession(nearExpiry); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	_, gotSession, err := manager.ValidateSession(nearExpiry.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if gotSession == nil {
		t.Fatal("Expected session")
	}
	if !gotSession.Fresh {
		t.Error("Expected session near expiry to be renewed and marked fresh")
	}
	if time.Until(gotSession.ExpiresAt) < 50*time.Minute {
		t.Errorf("Expected expiry pushed out to ~1h, got %v remaining", time.Until(gotSession.ExpiresAt))
	}

	// The extension must be persisted
	stored, err := sessionStore.GetSession(nearExpiry.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if time.Until(stored.ExpiresAt) < 50*time.Minute {
		t.Error("Renewed expiry was not persisted")
	}

	// A second validation is past the threshold again, no renewal
	_, gotSession, err = manager.ValidateSession(nearExpiry.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if gotSession.Fresh {
		t.Error("A freshly renewed session should not renew again")
	}
}

func TestInvalidateSession(t *testing.T) {
	manager, users, _ := setupSessionManager(t)
	user := insertTestUser(t, users, "logout@example.com")

	session, err := manager.CreateSession(user.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := manager.InvalidateSession(session.ID); err != nil {
		t.Fatalf("InvalidateSession failed: %v", err)
	}

	gotUser, gotSession, err := manager.ValidateSession(session.ID)
	if err != nil || gotUser != nil || gotSession != nil {
		t.Error("Expected nils after invalidation")
	}

	// Idempotent
	if err := manager.InvalidateSession(session.ID); err != nil {
		t.Errorf("Repeated invalidation should succeed, got: %v", err)
	}
	if err := manager.InvalidateSession(""); err != nil {
		t.Errorf("Invalidating an empty token should succeed, got: %v", err)
	}
}

func TestValidateDanglingUserPurges(t *testing.T) {
	manager, _, sessionStore := setupSessionManager(t)

	dangling := &sk.Session{
		ID:        "dangling",
		UserID:    "deleted-user",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := sessionStore.InsertSession(dangling); err != nil {
		t.Fatalf("Failed to insert session: %v", err)
	}

	gotUser, gotSession, err := manager.ValidateSession(dangling.ID)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if gotUser != nil || gotSession != nil {
		t.Error("Expected nils for a session whose user is gone")
	}
	if _, err := sessionStore.GetSession(dangling.ID); err != sk.ErrSessionNotFound {
		t.Errorf("Expected dangling session purged, got: %v", err)
	}
}

func TestSessionCookies(t *testing.T) {
	manager, users, _ := setupSessionManager(t)
	user := insertTestUser(t, users, "cookie@example.com")

	session, err := manager.CreateSession(user.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	cookie := manager.SessionCookie(session)
	if cookie.Name != sk.DefaultSessionCookieName {
		t.Errorf("Expected cookie name %q, got %q", sk.DefaultSessionCookieName, cookie.Name)
	}
	if cookie.Value != session.ID {
		t.Error("Cookie value should be the session token")
	}
	if !cookie.HttpOnly {
		t.Error("Session cookie must be HttpOnly")
	}
	if cookie.MaxAge <= 0 {
		t.Error("Session cookie should have a positive MaxAge")
	}

	blank := manager.BlankSessionCookie()
	if blank.Value != "" || blank.MaxAge >= 0 {
		t.Error("Blank cookie should clear the stored token")
	}
}
