package models

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

const (
	// MaxPostContentLength caps post content, counted in characters.
	MaxPostContentLength = 500
	// MaxCommentLength caps comment text, counted in characters.
	MaxCommentLength = 200
)

// Post is a short text entry with an optional image. Likes and comments live
// in their own tables; the slices below are filled by the store on read.
type Post struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	Author    string    `gorm:"size:30;not null;index" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LikeCount is not persisted; computed at query time
	LikeCount int `gorm:"->;-:migration" json:"like_count"`
	// CommentCount is not persisted; computed at query time
	CommentCount int `gorm:"->;-:migration" json:"comment_count"`
	// AuthorPicture is the author's profile picture reference, read from users.
	AuthorPicture string `gorm:"->;-:migration" json:"author_picture"`

	Likes    []string  `gorm:"-" json:"likes"`
	Liked    bool      `gorm:"-" json:"liked"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewPostID returns a ULID for a post created at t. IDs created in the same
// millisecond still increase monotonically.
func NewPostID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// BeforeCreate assigns the creation time and id when the caller left them empty.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.ID == "" {
		p.ID = NewPostID(p.CreatedAt)
	}
	return nil
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
