// Package testutil provides shared fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"time"

	"peopleconnects/internal/cache"
	"peopleconnects/internal/database"
	"peopleconnects/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// T is the subset of testing.TB the helpers need.
type T interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}

// UseCache installs a miniredis-backed shared cache client for the test.
func UseCache(t T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })
	return mr
}

// NewSQLiteDB opens a migrated in-memory database. The pool is held at one
// connection so every query sees the same memory database.
func NewSQLiteDB(t T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// CreateUser inserts a user with a placeholder credential.
func CreateUser(t T, db *gorm.DB, username string, admin bool) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsAdmin:  admin,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreatePost inserts a post by author created at the given time.
func CreatePost(t T, db *gorm.DB, author, content string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Author: author, Content: content, CreatedAt: createdAt.UTC()}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post by %s: %v", author, err)
	}
	return p
}

// Like records that username liked postID.
func Like(t T, db *gorm.DB, postID string, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		if err := db.Create(&models.Like{PostID: postID, Username: u}).Error; err != nil {
			t.Fatalf("like %s by %s: %v", postID, u, err)
		}
	}
}

// Follow records follower -> followee edges.
func Follow(t T, db *gorm.DB, follower string, followees ...string) {
	t.Helper()
	for _, f := range followees {
		if err := db.Create(&models.Follow{Follower: follower, Followee: f}).Error; err != nil {
			t.Fatalf("follow %s -> %s: %v", follower, f, err)
		}
	}
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, gradient(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory JPEG byte slice with the requested dimensions.
func TinyJPEG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, gradient(w, h), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

// Username returns a distinct username for index i.
func Username(i int) string {
	return fmt.Sprintf("user%03d", i)
}
