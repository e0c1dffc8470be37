// Package seed populates a database with demo data for development.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"peopleconnects/internal/middleware"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yml
var fixtureYAML []byte

// DefaultWindow is how far back seeded timestamps reach.
const DefaultWindow = 7 * 24 * time.Hour

// Fixture is the hand-written part of the demo data set.
type Fixture struct {
	Password string        `yaml:"password"`
	Users    []FixtureUser `yaml:"users"`
	Posts    []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

type FixturePost struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// LoadFixture decodes the embedded fixture file.
func LoadFixture() (*Fixture, error) {
	return ParseFixture(fixtureYAML)
}

// ParseFixture decodes a fixture document and checks that every post has a
// known author.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if f.Password == "" {
		return nil, fmt.Errorf("fixture has no password")
	}
	known := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		known[u.Username] = true
	}
	for i, p := range f.Posts {
		if !known[p.Author] {
			return nil, fmt.Errorf("fixture post %d: unknown author %q", i, p.Author)
		}
	}
	return &f, nil
}

// Options tunes a seeding run.
type Options struct {
	ExtraUsers int
	ExtraPosts int
	Clean      bool
	// Window bounds how old seeded posts may be. Zero means DefaultWindow.
	Window time.Duration
	// HashCost is the bcrypt cost for the shared password. Zero means bcrypt.DefaultCost.
	HashCost int
	// RandSeed fixes the random source. Zero means time-based.
	RandSeed int64
}

// Result counts what a run inserted.
type Result struct {
	Users    int
	Posts    int
	Follows  int
	Likes    int
	Comments int
}

// Seeder writes fixture and synthetic data.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	rng   *rand.Rand
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:    db,
		opts:  opts,
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	for _, table := range []string{"comments", "likes", "follows", "posts", "users"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run seeds the fixture, then the synthetic users and posts, then spreads
// follows, likes and comments across everything created.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	fixture, err := LoadFixture()
	if err != nil {
		return nil, err
	}
	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fixture.Password), s.opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash fixture password: %w", err)
	}

	res := &Result{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f := &factory{tx: tx, rng: s.rng, faker: s.faker, now: s.now(), window: s.opts.Window, password: string(hash)}

		users, err := f.fixtureUsers(fixture.Users)
		if err != nil {
			return err
		}
		extra, err := f.syntheticUsers(s.opts.ExtraUsers, users)
		if err != nil {
			return err
		}
		users = append(users, extra...)
		res.Users = len(users)

		posts, err := f.fixturePosts(fixture.Posts)
		if err != nil {
			return err
		}
		more, err := f.syntheticPosts(s.opts.ExtraPosts, users)
		if err != nil {
			return err
		}
		posts = append(posts, more...)
		res.Posts = len(posts)

		if res.Follows, err = f.follows(users); err != nil {
			return err
		}
		if res.Likes, err = f.likes(users, posts); err != nil {
			return err
		}
		res.Comments, err = f.comments(users, posts)
		return err
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("follows", res.Follows),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// insertIgnore inserts rows, skipping ones that collide on a unique index.
func insertIgnore[T any](tx *gorm.DB, rows []T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 200)
	return int(result.RowsAffected), result.Error
}
