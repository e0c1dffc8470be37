// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an identity. Username is the immutable identity key; follower and
// following sets are derived from the follows table and filled on read.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Email      string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	IsAdmin    bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Followers []string `gorm:"-" json:"followers,omitempty"`
	Following []string `gorm:"-" json:"following,omitempty"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}
