package sessionkit

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default magic-link token expiry
const TokenExpiryMagicLink = 15 * time.Minute

// VerificationToken is the persisted half of a pending magic-link login. The
// identifier is the public value exposed in the callback URL; Token is the
// signed payload that must also verify before the login completes.
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsExpired checks if the token record has expired
func (t *VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// VerificationTokenStore persists magic-link records keyed by identifier.
//
// GetToken returns ErrTokenNotFound when absent; implementations may purge
// expired records on read. DeleteToken is idempotent.
type VerificationTokenStore interface {
	InsertToken(token *VerificationToken) error
	GetToken(identifier string) (*VerificationToken, error)
	DeleteToken(identifier string) error
}

// TokenIssuer signs and verifies the short-lived bearer tokens used for
// magic-link login. Tokens are HS256 JWTs carrying the subject email and an
// expiry claim; they are independent of the persisted record, and both must
// be valid for an exchange to succeed.
type TokenIssuer struct {
	SecretKey string
	Issuer    string

	// TTL of issued tokens. Defaults to TokenExpiryMagicLink.
	TTL time.Duration
}

func (i *TokenIssuer) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return TokenExpiryMagicLink
}

// Issue produces a signed token binding subjectEmail to an expiry claim.
func (i *TokenIssuer) Issue(subjectEmail string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subjectEmail,
		"iss": i.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(i.ttl()).Unix(),
	})
	signed, err := token.SignedString([]byte(i.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and claims against subjectEmail.
// Returns ErrInvalidOrExpiredToken on any failure - tampering, expiry and
// subject mismatch are indistinguishable to the caller.
func (i *TokenIssuer) Verify(tokenString, subjectEmail string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(i.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidOrExpiredToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidOrExpiredToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" || sub != subjectEmail {
		return ErrInvalidOrExpiredToken
	}
	return nil
}

// GenerateSecureToken generates a cryptographically secure random token,
// used for session ids and magic-link identifiers.
func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewUserID generates a cryptographically secure user id. As of Go 1.24
// crypto/rand.Read is documented to never return an error, so the result
// needs no error path.
func NewUserID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
