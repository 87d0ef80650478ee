package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventUserLoggedOut  EventType = "user_logged_out"
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
	EventAvatarUpdated  EventType = "avatar_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
}

// PostCreatedPayload payload.
type PostCreatedPayload struct {
	PostID string `json:"post_id"`
	Title  string `json:"title"`
	Image  string `json:"image"`
}

// PostDeletedPayload payload.
type PostDeletedPayload struct {
	PostID      string `json:"post_id"`
	Image       string `json:"image"`
	AuthorImage string `json:"author_image,omitempty"`
}

// AvatarUpdatedPayload payload.
type AvatarUpdatedPayload struct {
	OldImage string `json:"old_image,omitempty"`
	NewImage string `json:"new_image"`
}
