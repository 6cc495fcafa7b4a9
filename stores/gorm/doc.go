// Package gorm provides GORM-backed implementations of the sessionkit store
// interfaces for SQL databases.
//
// Uniqueness of user emails and federated provider ids is enforced with
// unique indexes, so a duplicate insert that races past an existence check
// is rejected by the database and surfaced as sessionkit.ErrUserExists.
//
// Usage:
//
//	db, err := gorm.Open(sqlite.Open("auth.db"), &gorm.Config{TranslateError: true})
//	if err != nil { ... }
//	if err := gormstores.AutoMigrate(db); err != nil { ... }
//
//	userStore := gormstores.NewUserStore(db)
//	sessionStore := gormstores.NewSessionStore(db)
//	tokenStore := gormstores.NewTokenStore(db)
//
// Open the db with TranslateError so duplicate-key violations arrive as
// gorm.ErrDuplicatedKey regardless of driver.
package gorm
