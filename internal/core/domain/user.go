package domain

import "time"

const (
	// RoleUser is assigned to every self-registered account.
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Token        string    `json:"token,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FullName is the display name embedded in issued tokens.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Credentials is a login attempt. Password is plaintext and only used for verification.
type Credentials struct {
	Username string
	Password string
}

// Token is a signed bearer credential.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
