package model

import "time"

// Account is the identity behind every profile, post, like and follow edge
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	Staff        bool      `json:"staff"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is owned by exactly one account and lives as long as it
type Profile struct {
	AccountID string `json:"account_id"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	Location  string `json:"location"`
}

// DefaultAvatar is set on every profile created alongside an account
const DefaultAvatar = "blank-profile-picture.png"

// SignupBody defines the body of the signup route
type SignupBody struct {
	Username        string `json:"username"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ProfileUpdate carries the optional fields of a profile settings update
type ProfileUpdate struct {
	Bio      *string `json:"bio,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Location *string `json:"location,omitempty"`
}
