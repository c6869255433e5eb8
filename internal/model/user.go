// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account. Created at registration and never mutated.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential is the persisted registration record for a user.
type Credential struct {
	User         User   `json:"user"`
	PasswordHash string `json:"password_hash"`
}

// Session is the persisted record of an authenticated session.
type Session struct {
	UserID   string    `json:"user_id"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// AuthState is a point-in-time view of the authentication store.
type AuthState struct {
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"is_authenticated"`
	Loading         bool   `json:"loading"`
	Error           string `json:"error,omitempty"`
}
