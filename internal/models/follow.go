package models

import "time"

// Follow is a directed edge: Follower sees Followee's posts in the following feed.
// Both the followers and following sets of a user are read from this one table.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Follower  string    `gorm:"size:30;not null;uniqueIndex:idx_follows_pair" json:"follower"`
	Followee  string    `gorm:"size:30;not null;uniqueIndex:idx_follows_pair;index" json:"followee"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Follow) TableName() string {
	return "follows"
}
