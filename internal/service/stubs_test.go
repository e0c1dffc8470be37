package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"peopleconnects/internal/feed"
	"peopleconnects/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, string, string) (*models.Post, error)
	existsFn        func(context.Context, string) (bool, error)
	feedFn          func(context.Context, feed.Criteria, int, int, string) ([]models.Post, error)
	searchFn        func(context.Context, string, int, string) ([]models.Post, error)
	updateContentFn func(context.Context, string, string) error
	deleteFn        func(context.Context, string) error
	toggleLikeFn    func(context.Context, string, string) (*models.LikeResult, error)
	addCommentFn    func(context.Context, *models.Comment) error
	listCommentsFn  func(context.Context, string) ([]models.Comment, error)
	countByAuthorFn func(context.Context, string) (int64, error)
	totalsFn        func(context.Context) (int64, int64, int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewer string) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewer)
}
func (s *postRepoStub) Exists(ctx context.Context, id string) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) Feed(ctx context.Context, c feed.Criteria, limit, offset int, viewer string) ([]models.Post, error) {
	return s.feedFn(ctx, c, limit, offset, viewer)
}
func (s *postRepoStub) Search(ctx context.Context, q string, limit int, viewer string) ([]models.Post, error) {
	return s.searchFn(ctx, q, limit, viewer)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, id, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, id, username string) (*models.LikeResult, error) {
	return s.toggleLikeFn(ctx, id, username)
}
func (s *postRepoStub) AddComment(ctx context.Context, c *models.Comment) error {
	return s.addCommentFn(ctx, c)
}
func (s *postRepoStub) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.listCommentsFn(ctx, postID)
}
func (s *postRepoStub) CountByAuthor(ctx context.Context, author string) (int64, error) {
	return s.countByAuthorFn(ctx, author)
}
func (s *postRepoStub) Totals(ctx context.Context) (int64, int64, int64, error) {
	return s.totalsFn(ctx)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id, _ string) (*models.Post, error) { return &models.Post{ID: id}, nil },
		existsFn:        func(_ context.Context, _ string) (bool, error) { return true, nil },
		feedFn:          func(_ context.Context, _ feed.Criteria, _, _ int, _ string) ([]models.Post, error) { return []models.Post{}, nil },
		searchFn:        func(_ context.Context, _ string, _ int, _ string) ([]models.Post, error) { return []models.Post{}, nil },
		updateContentFn: func(_ context.Context, _, _ string) error { return nil },
		deleteFn:        func(_ context.Context, _ string) error { return nil },
		toggleLikeFn:    func(_ context.Context, _, _ string) (*models.LikeResult, error) { return &models.LikeResult{}, nil },
		addCommentFn:    func(_ context.Context, _ *models.Comment) error { return nil },
		listCommentsFn:  func(_ context.Context, _ string) ([]models.Comment, error) { return []models.Comment{}, nil },
		countByAuthorFn: func(_ context.Context, _ string) (int64, error) { return 0, nil },
		totalsFn:        func(_ context.Context) (int64, int64, int64, error) { return 0, 0, 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	updateProfileFn func(context.Context, uint, models.ProfileUpdate) error
	setAdminFn      func(context.Context, string, bool) error
	deleteFn        func(context.Context, string) error
	searchFn        func(context.Context, string, int) ([]models.User, error)
	listFn          func(context.Context, int, int) ([]models.User, error)
	countFn         func(context.Context) (int64, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, u models.ProfileUpdate) error {
	return s.updateProfileFn(ctx, id, u)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, username string, admin bool) error {
	return s.setAdminFn(ctx, username, admin)
}
func (s *userRepoStub) Delete(ctx context.Context, username string) error {
	return s.deleteFn(ctx, username)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) { return s.countFn(ctx) }

// noopUserRepo knows every username; lookups by email find nobody.
func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:  func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 1, Username: username}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		updateProfileFn: func(_ context.Context, _ uint, _ models.ProfileUpdate) error { return nil },
		setAdminFn:      func(_ context.Context, _ string, _ bool) error { return nil },
		deleteFn:        func(_ context.Context, _ string) error { return nil },
		searchFn:        func(_ context.Context, _ string, _ int) ([]models.User, error) { return []models.User{}, nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return []models.User{}, nil },
		countFn:         func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn      func(context.Context, string, string) (bool, error)
	unfollowFn    func(context.Context, string, string) (bool, error)
	isFollowingFn func(context.Context, string, string) (bool, error)
	followingFn   func(context.Context, string) ([]string, error)
	followersFn   func(context.Context, string) ([]string, error)
}

func (s *followRepoStub) Follow(ctx context.Context, a, b string) (bool, error) {
	return s.followFn(ctx, a, b)
}
func (s *followRepoStub) Unfollow(ctx context.Context, a, b string) (bool, error) {
	return s.unfollowFn(ctx, a, b)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	return s.isFollowingFn(ctx, a, b)
}
func (s *followRepoStub) Following(ctx context.Context, u string) ([]string, error) {
	return s.followingFn(ctx, u)
}
func (s *followRepoStub) Followers(ctx context.Context, u string) ([]string, error) {
	return s.followersFn(ctx, u)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:      func(_ context.Context, _, _ string) (bool, error) { return true, nil },
		unfollowFn:    func(_ context.Context, _, _ string) (bool, error) { return true, nil },
		isFollowingFn: func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		followingFn:   func(_ context.Context, _ string) ([]string, error) { return []string{}, nil },
		followersFn:   func(_ context.Context, _ string) ([]string, error) { return []string{}, nil },
	}
}

// notifierSpy records delivered notifications.
type notifierSpy struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *notifierSpy) Notify(_ context.Context, note models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.err
}

func (n *notifierSpy) Sent() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.sent...)
}

// mediaStub returns a fixed reference.
type mediaStub struct {
	ref       string
	err       error
	namespace string
}

func (m *mediaStub) Store(_ context.Context, namespace string, _ []byte) (string, error) {
	m.namespace = namespace
	return m.ref, m.err
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

var (
	alice = models.Actor{Username: "alice"}
	bob   = models.Actor{Username: "bob"}
	admin = models.Actor{Username: "root", Admin: true}
)
