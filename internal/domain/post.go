package domain

import "time"

// Post is an image post shown on the feed and on its author's profile.
type Post struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Image       string
	// UserProfileImage and UserFullName are snapshots of the author taken when the post was created.
	UserProfileImage string
	UserFullName     string
	CreatedAt        time.Time

	Author *User
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID string) bool {
	return p != nil && userID != "" && p.UserID == userID
}
