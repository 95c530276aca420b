package auth

import "time"

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the caller-visible projection of a User. The password hash
// never leaves this package.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public returns the caller-visible projection.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}
