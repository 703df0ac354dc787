package model

import "time"

// Role names an access level granted to a user.
type Role string

// RoleAdmin allows catalog management through the admin API.
const RoleAdmin Role = "admin"

// User represents a registered buyer.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile carries buyer-editable profile fields.
type Profile struct {
	UserID    int64
	FullName  string
	Phone     string
	Bio       string
	AvatarURL string
	UpdatedAt time.Time
}
