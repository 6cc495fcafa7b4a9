// Package grpc propagates session authentication between HTTP gateways and
// gRPC services via metadata. A gateway that has already validated the
// session cookie forwards either the resolved user id or the raw session
// token; interceptors on the service side turn that back into an
// authenticated context.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Default metadata keys for authentication context.
// These can be customized via Config if needed.
const (
	// DefaultMetadataKeyUserID is the default gRPC metadata key for the authenticated user ID
	DefaultMetadataKeyUserID = "x-user-id"

	// DefaultMetadataKeySessionToken is the default gRPC metadata key for the raw session token
	DefaultMetadataKeySessionToken = "x-session-token"
)

// Config holds the metadata key configuration for auth context.
type Config struct {
	// MetadataKeyUserID is the gRPC metadata key for the authenticated user ID.
	// Defaults to "x-user-id".
	MetadataKeyUserID string

	// MetadataKeySessionToken is the gRPC metadata key carrying the raw session
	// token. Only consulted when the interceptor is given a validator.
	// Defaults to "x-session-token".
	MetadataKeySessionToken string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyUserID:       DefaultMetadataKeyUserID,
		MetadataKeySessionToken: DefaultMetadataKeySessionToken,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyUserID == "" {
		c.MetadataKeyUserID = DefaultMetadataKeyUserID
	}
	if c.MetadataKeySessionToken == "" {
		c.MetadataKeySessionToken = DefaultMetadataKeySessionToken
	}
}

// UserIDFromContext extracts the authenticated user ID from the gRPC context metadata.
// Returns empty string if no user is authenticated.
func UserIDFromContext(ctx context.Context) string {
	return UserIDFromContextWithConfig(ctx, nil)
}

// UserIDFromContextWithConfig extracts the authenticated user ID using the specified config.
func UserIDFromContextWithConfig(ctx context.Context, config *Config) string {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if values := md.Get(config.MetadataKeyUserID); len(values) > 0 {
		return values[0]
	}

	return ""
}

// SessionTokenFromContext extracts the raw session token from incoming metadata.
func SessionTokenFromContext(ctx context.Context) string {
	return SessionTokenFromContextWithConfig(ctx, nil)
}

// SessionTokenFromContextWithConfig extracts the session token using the specified config.
func SessionTokenFromContextWithConfig(ctx context.Context, config *Config) string {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if values := md.Get(config.MetadataKeySessionToken); len(values) > 0 {
		return values[0]
	}

	return ""
}

// UserIDToOutgoingContext adds the user ID to outgoing gRPC context metadata.
func UserIDToOutgoingContext(ctx context.Context, userID string) context.Context {
	return UserIDToOutgoingContextWithKey(ctx, userID, DefaultMetadataKeyUserID)
}

// UserIDToOutgoingContextWithKey adds the user ID to outgoing gRPC context metadata with a custom key.
func UserIDToOutgoingContextWithKey(ctx context.Context, userID string, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, userID)
}

// SessionTokenToOutgoingContext adds the raw session token to outgoing metadata.
// Use this from a gateway that wants the service side to validate the session
// itself rather than trusting a forwarded user id.
func SessionTokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return SessionTokenToOutgoingContextWithKey(ctx, token, DefaultMetadataKeySessionToken)
}

// SessionTokenToOutgoingContextWithKey adds the session token with a custom key.
func SessionTokenToOutgoingContextWithKey(ctx context.Context, token string, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, token)
}

// IsAuthenticated returns true if there is an authenticated user in the context.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// IsAuthenticatedWithConfig returns true if there is an authenticated user using the specified config.
func IsAuthenticatedWithConfig(ctx context.Context, config *Config) bool {
	return UserIDFromContextWithConfig(ctx, config) != ""
}
