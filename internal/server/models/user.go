// Package models defines server-side data models persisted in the database
// and the projections returned to callers.
package models

import "time"

// User is the full users row, including the bcrypt password hash. It stays
// inside the repository/service layers; anything that crosses the API
// boundary uses UserProfile or UserDetail instead, so the hash cannot leak
// by construction.
type User struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	JoinAt      time.Time
	LastLoginAt time.Time
}

// UserProfile is the public view of a user.
type UserProfile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UserDetail extends UserProfile with account timestamps.
type UserDetail struct {
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinAt      time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// Profile returns the public projection of u.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
