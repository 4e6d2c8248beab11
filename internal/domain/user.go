package domain

import (
	"time"
)

// AuthProvider records how a user account was created.
type AuthProvider string

const (
	ProviderPassword AuthProvider = "password"
	ProviderGoogle   AuthProvider = "google"
)

// User represents a registered FitFormula account.
type User struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`               // Unique, stored lower-cased
	PasswordHash  string       `json:"-"`                   // Never expose this via JSON
	GoogleSubject string       `json:"-"`                   // Stable Google account id, empty for password users
	Provider      AuthProvider `json:"provider"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// HasPassword reports whether the account can log in with email and password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Identity is the authenticated caller acting on the system.
// A nil *Identity means the caller is anonymous.
type Identity struct {
	UserID  string
	Email   string
	TokenID string // jti of the token the identity was derived from
}

// Owns reports whether the identity may act on records owned by userID.
func (id *Identity) Owns(userID string) bool {
	return id != nil && id.UserID != "" && id.UserID == userID
}
