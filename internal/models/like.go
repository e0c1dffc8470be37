package models

import "time"

// Like is one member of a post's like set. The unique index makes set-add
// idempotent at the store level.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    string    `gorm:"size:26;not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	Username  string    `gorm:"size:30;not null;uniqueIndex:idx_likes_post_user;index" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Like) TableName() string {
	return "likes"
}
