package main

import (
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"

	sk "github.com/rishabhk/sessionkit"
)

// Post is a demo resource owned by the logged-in user
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  string    `gorm:"index" json:"author_id"`
	Title     string    `gorm:"size:256" json:"title"`
	Content   string    `gorm:"size:999" json:"content"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

// App holds the demo's own state, separate from the auth plumbing
type App struct {
	db *gorm.DB
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	user := sk.UserFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"user": user.Public()})
}

func (a *App) handleListPosts(w http.ResponseWriter, r *http.Request) {
	user := sk.UserFromContext(r.Context())

	var posts []Post
	if err := a.db.Where("author_id = ?", user.ID).Order("timestamp desc").Find(&posts).Error; err != nil {
		http.Error(w, `{"error": "failed to load posts"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": posts})
}

func (a *App) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user := sk.UserFromContext(r.Context())

	var input struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if input.Title == "" || len(input.Title) > 255 {
		http.Error(w, `{"error": "title must be 1-255 characters"}`, http.StatusBadRequest)
		return
	}
	if input.Content == "" || len(input.Content) > 999 {
		http.Error(w, `{"error": "content must be 1-999 characters"}`, http.StatusBadRequest)
		return
	}

	post := Post{AuthorID: user.ID, Title: input.Title, Content: input.Content}
	if err := a.db.Create(&post).Error; err != nil {
		http.Error(w, `{"error": "failed to create post"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}
