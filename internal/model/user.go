package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: the signup form (POST /users, optionally
// with a password) and GitHub social sign-in. Either way the email is the
// identity every owner-only check compares against, so it carries a UNIQUE
// constraint in the store.
//
// PasswordHash is the bcrypt hash for password accounts and empty for
// social-login accounts. The `json:"-"` tag keeps it out of every API
// response; the hash must never leave the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhotoURL     string    `json:"photoURL"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
