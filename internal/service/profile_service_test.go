package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
	"peopleconnects/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type profileFixture struct {
	db       *gorm.DB
	identity *IdentityService
	svc      *ProfileService
	media    *mediaStub
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	identity := NewIdentityService(users).WithHashCost(bcrypt.MinCost)
	media := &mediaStub{ref: "/static/uploads/profiles/me.jpg"}
	svc := NewProfileService(users, repository.NewPostRepository(db), repository.NewFollowRepository(db), identity, media)
	return &profileFixture{db: db, identity: identity, svc: svc, media: media}
}

func (f *profileFixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.identity.Register(context.Background(), RegisterInput{
		Username: username, Email: username + "@example.com", Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func TestProfileService_GetProfile(t *testing.T) {
	f := newProfileFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	base := time.Now().UTC().Add(-time.Hour)
	older := testutil.CreatePost(t, f.db, "alice", "first", base)
	newer := testutil.CreatePost(t, f.db, "alice", "second", base.Add(time.Minute))
	testutil.CreatePost(t, f.db, "bob", "not mine", base.Add(2*time.Minute))
	testutil.Follow(t, f.db, "bob", "alice")
	ctx := context.Background()

	p, err := f.svc.GetProfile(ctx, "alice", bob)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.User.Username)
	assert.Equal(t, int64(2), p.PostCount)
	require.Len(t, p.Posts, 2)
	assert.Equal(t, newer.ID, p.Posts[0].ID)
	assert.Equal(t, older.ID, p.Posts[1].ID)
	assert.Equal(t, 1, p.FollowersCount)
	assert.Zero(t, p.FollowingCount)
	assert.True(t, p.IsFollowing)

	p, err = f.svc.GetProfile(ctx, "alice", models.Anonymous())
	require.NoError(t, err)
	assert.False(t, p.IsFollowing)

	_, err = f.svc.GetProfile(ctx, "ghost", alice)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestProfileService_UpdateProfile(t *testing.T) {
	f := newProfileFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	ctx := context.Background()

	email := "  NEW@example.com "
	u, err := f.svc.UpdateProfile(ctx, UpdateProfileInput{Actor: alice, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "alice", u.Username)

	taken := "bob@example.com"
	_, err = f.svc.UpdateProfile(ctx, UpdateProfileInput{Actor: alice, Email: &taken})
	assertValidationError(t, err)

	bad := "not-an-email"
	_, err = f.svc.UpdateProfile(ctx, UpdateProfileInput{Actor: alice, Email: &bad})
	assertValidationError(t, err)

	short := "short"
	_, err = f.svc.UpdateProfile(ctx, UpdateProfileInput{Actor: alice, Password: &short})
	assertValidationError(t, err)

	pw := "a-better-password"
	_, err = f.svc.UpdateProfile(ctx, UpdateProfileInput{Actor: alice, Password: &pw})
	require.NoError(t, err)
	_, err = f.identity.Authenticate(ctx, "alice", pw)
	require.NoError(t, err)
	_, err = f.identity.Authenticate(ctx, "alice", "password123")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = f.svc.UpdateProfile(ctx, UpdateProfileInput{Actor: models.Anonymous(), Email: &email})
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestProfileService_UpdateProfilePicture(t *testing.T) {
	f := newProfileFixture(t)
	f.register(t, "alice")
	ctx := context.Background()

	_, err := f.svc.UpdateProfilePicture(ctx, alice, nil)
	assertValidationError(t, err)

	u, err := f.svc.UpdateProfilePicture(ctx, alice, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/profiles/me.jpg", u.ProfilePic)
	assert.Equal(t, MediaNamespaceProfiles, f.media.namespace)
}
