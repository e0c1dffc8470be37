package models

import "time"

// Notification types published to a user's live channel.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification tells Recipient that Actor interacted with them or their post.
type Notification struct {
	Type      string    `json:"type"`
	Recipient string    `json:"recipient"`
	Actor     string    `json:"actor"`
	PostID    string    `json:"post_id,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
