//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of sessionkit
// store interfaces. It is designed for deployment on Google Cloud Platform and
// supports multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses the following Datastore kinds:
//   - User: User accounts keyed by user id
//   - UserEmail: Email -> user id mapping, reserved at signup
//   - UserGoogleID: Google subject -> user id mapping
//   - Session: Active sessions keyed by session token
//   - MagicLink: Pending magic-link exchange records
//
// Email and Google-id uniqueness is enforced by reserving the mapping entities
// inside the same transaction that creates the user. A lost reservation race
// surfaces as sessionkit.ErrUserExists.
//
// # Namespacing
//
// All stores support Datastore namespaces for multi-tenant applications.
// Pass a namespace when creating stores to isolate data between tenants:
//
//	userStore := gae.NewUserStore(client, "tenant-123")
//	sessionStore := gae.NewSessionStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	userStore := gae.NewUserStore(client, "")  // default namespace
//	sessionStore := gae.NewSessionStore(client, "")
//	tokenStore := gae.NewTokenStore(client, "")
package gae
