// Demo host application showing how to mount sessionkit in a real server.
// It wires the gorm/sqlite stores, credential + Google OAuth + magic-link
// login, and a small posts API behind the identity middleware.
//
// Run it with:
//
//	SESSIONKIT_JWT_SECRET_KEY=dev-secret go run ./cmd/demo-hostapp
//
// Google login activates when OAUTH2_GOOGLE_CLIENT_ID and
// OAUTH2_GOOGLE_CLIENT_SECRET are set.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	sk "github.com/rishabhk/sessionkit"
	oa2 "github.com/rishabhk/sessionkit/oauth2"
	skgorm "github.com/rishabhk/sessionkit/stores/gorm"
)

func main() {
	addr := flag.String("addr", ":8000", "address to listen on")
	dbPath := flag.String("db", "demo.db", "sqlite database path")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := skgorm.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	if err := db.AutoMigrate(&Post{}); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	users := skgorm.NewUserStore(db)
	sessions := sk.NewSessionManager(skgorm.NewSessionStore(db), users)

	auth := sk.New("Demo")
	auth.Users = users
	auth.Sessions = sessions
	auth.MagicLink = &sk.MagicLinkAuth{
		Tokens:      skgorm.NewTokenStore(db),
		EmailSender: &sk.ConsoleEmailSender{},
		BaseURL:     "http://localhost" + *addr + "/v1/auth",
	}
	if os.Getenv("OAUTH2_GOOGLE_CLIENT_ID") != "" {
		auth.Google = oa2.NewGoogleOAuth2("", "", "http://localhost"+*addr+"/v1/auth/callback/google", nil)
	}
	auth.EnsureDefaults()

	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.PathPrefix("/auth").Handler(http.StripPrefix("/v1/auth", auth.Handler()))

	app := &App{db: db}
	protected := v1.NewRoute().Subrouter()
	protected.Use(auth.Middleware.EnsureUser)
	protected.HandleFunc("/users/@me", app.handleMe).Methods(http.MethodGet)
	protected.HandleFunc("/posts", app.handleListPosts).Methods(http.MethodGet)
	protected.HandleFunc("/posts", app.handleCreatePost).Methods(http.MethodPost)

	log.Printf("Demo host app listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}
