package domain

import "time"

// User is the domain model for a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Posts is populated only by queries that load a user's own posts.
	Posts []Post
}

// HasProfileImage reports whether the user uploaded an avatar.
func (u *User) HasProfileImage() bool {
	return u != nil && u.ProfileImage != ""
}
