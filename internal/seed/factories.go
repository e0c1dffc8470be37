package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"peopleconnects/internal/models"
	"peopleconnects/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// factory builds rows inside one seeding transaction.
type factory struct {
	tx       *gorm.DB
	rng      *rand.Rand
	faker    *gofakeit.Faker
	now      time.Time
	window   time.Duration
	password string
}

// since picks a time in [from, now).
func (f *factory) since(from time.Time) time.Time {
	span := f.now.Sub(from)
	if span <= 0 {
		return f.now
	}
	return from.Add(time.Duration(f.rng.Int63n(int64(span))))
}

func (f *factory) postTime() time.Time {
	return f.since(f.now.Add(-f.window)).UTC()
}

func (f *factory) fixtureUsers(in []FixtureUser) ([]models.User, error) {
	users := make([]models.User, 0, len(in))
	for _, u := range in {
		users = append(users, models.User{
			Username: u.Username,
			Email:    u.Email,
			Password: f.password,
		})
	}
	if err := f.tx.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("create fixture users: %w", err)
	}
	return users, nil
}

// syntheticUsers generates n users whose names avoid the ones in taken.
func (f *factory) syntheticUsers(n int, taken []models.User) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(taken)+n)
	for _, u := range taken {
		seen[u.Username] = true
	}
	users := make([]models.User, 0, n)
	for len(users) < n {
		name := f.username()
		if seen[name] || validation.ValidateUsername(name) != nil {
			continue
		}
		seen[name] = true
		users = append(users, models.User{
			Username:  name,
			Email:     name + "@example.com",
			Password:  f.password,
			CreatedAt: f.postTime(),
		})
	}
	if err := f.tx.CreateInBatches(&users, 200).Error; err != nil {
		return nil, fmt.Errorf("create synthetic users: %w", err)
	}
	return users, nil
}

func (f *factory) username() string {
	first := strings.ToLower(f.faker.FirstName())
	first = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, first)
	if first == "" {
		first = "user"
	}
	return fmt.Sprintf("%s_%d", first, f.faker.Number(10, 9999))
}

func (f *factory) fixturePosts(in []FixturePost) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(in))
	for _, p := range in {
		posts = append(posts, models.Post{
			Author:    p.Author,
			Content:   clip(p.Content, models.MaxPostContentLength),
			CreatedAt: f.postTime(),
		})
	}
	if err := f.tx.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("create fixture posts: %w", err)
	}
	return posts, nil
}

func (f *factory) syntheticPosts(n int, authors []models.User) ([]models.Post, error) {
	if n <= 0 || len(authors) == 0 {
		return nil, nil
	}
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		var content string
		switch f.rng.Intn(3) {
		case 0:
			content = f.faker.HipsterSentence(f.rng.Intn(12) + 4)
		case 1:
			content = f.faker.Quote()
		default:
			content = f.faker.Paragraph(1, f.rng.Intn(3)+1, 12, " ")
		}
		posts = append(posts, models.Post{
			Author:    authors[f.rng.Intn(len(authors))].Username,
			Content:   clip(content, models.MaxPostContentLength),
			CreatedAt: f.postTime(),
		})
	}
	if err := f.tx.CreateInBatches(&posts, 200).Error; err != nil {
		return nil, fmt.Errorf("create synthetic posts: %w", err)
	}
	return posts, nil
}

// follows gives each user a random set of followees, never themselves.
func (f *factory) follows(users []models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	var edges []models.Follow
	for _, u := range users {
		want := 1 + f.rng.Intn(min(len(users)-1, 8))
		for _, i := range f.rng.Perm(len(users)) {
			if want == 0 {
				break
			}
			if users[i].Username == u.Username {
				continue
			}
			edges = append(edges, models.Follow{
				Follower:  u.Username,
				Followee:  users[i].Username,
				CreatedAt: f.postTime(),
			})
			want--
		}
	}
	n, err := insertIgnore(f.tx, edges)
	if err != nil {
		return 0, fmt.Errorf("create follows: %w", err)
	}
	return n, nil
}

// likes has each user like roughly a third of the posts.
func (f *factory) likes(users []models.User, posts []models.Post) (int, error) {
	var rows []models.Like
	for _, p := range posts {
		for _, u := range users {
			if f.rng.Intn(3) != 0 {
				continue
			}
			rows = append(rows, models.Like{
				PostID:    p.ID,
				Username:  u.Username,
				CreatedAt: f.since(p.CreatedAt),
			})
		}
	}
	n, err := insertIgnore(f.tx, rows)
	if err != nil {
		return 0, fmt.Errorf("create likes: %w", err)
	}
	return n, nil
}

// comments adds up to three comments per post, each after the post itself.
func (f *factory) comments(users []models.User, posts []models.Post) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	var rows []models.Comment
	for _, p := range posts {
		for i := f.rng.Intn(4); i > 0; i-- {
			rows = append(rows, models.Comment{
				PostID:    p.ID,
				Author:    users[f.rng.Intn(len(users))].Username,
				Text:      clip(f.faker.Phrase(), models.MaxCommentLength),
				CreatedAt: f.since(p.CreatedAt),
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := f.tx.CreateInBatches(&rows, 200).Error; err != nil {
		return 0, fmt.Errorf("create comments: %w", err)
	}
	return len(rows), nil
}

// clip trims s and cuts it to max characters.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
