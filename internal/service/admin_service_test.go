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
)

func TestAdminService_RequiresAdmin(t *testing.T) {
	svc := NewAdminService(noopUserRepo(), noopPostRepo())
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, alice)
	assertAppError(t, err, models.CodeForbidden)
	_, err = svc.Dashboard(ctx, models.Anonymous())
	assertAppError(t, err, models.CodeUnauthorized)
	assertAppError(t, svc.DeleteUser(ctx, alice, "bob"), models.CodeForbidden)
}

func TestAdminService_CannotDeleteSelf(t *testing.T) {
	users := noopUserRepo()
	users.deleteFn = func(context.Context, string) error {
		t.Fatal("delete must not reach the store")
		return nil
	}
	svc := NewAdminService(users, noopPostRepo())
	assertValidationError(t, svc.DeleteUser(context.Background(), admin, admin.Username))
}

func TestAdminService_DashboardAndDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.CreateUser(t, db, "root", true)
	testutil.CreateUser(t, db, "alice", false)
	testutil.CreateUser(t, db, "bob", false)
	now := time.Now().UTC()
	hot := testutil.CreatePost(t, db, "alice", "hot", now.Add(-time.Hour))
	testutil.CreatePost(t, db, "bob", "fresh", now)
	testutil.Like(t, db, hot.ID, "bob", "root")
	require.NoError(t, db.Create(&models.Comment{PostID: hot.ID, Author: "bob", Text: "yes", CreatedAt: now}).Error)

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	svc := NewAdminService(users, posts)
	ctx := context.Background()

	stats, err := svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalPosts)
	assert.Equal(t, int64(2), stats.TotalLikes)
	assert.Equal(t, int64(1), stats.TotalComments)
	require.NotEmpty(t, stats.TopPosts)
	assert.Equal(t, hot.ID, stats.TopPosts[0].ID)
	require.Len(t, stats.RecentPosts, 2)
	assert.Equal(t, "fresh", stats.RecentPosts[0].Content)
	assert.Len(t, stats.RecentUsers, 3)

	require.NoError(t, svc.DeleteUser(ctx, admin, "alice"))
	_, err = posts.GetByID(ctx, hot.ID, "")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	u, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, u)

	assert.True(t, errors.Is(svc.DeleteUser(ctx, admin, "alice"), models.ErrNotFound))
}

func TestAdminService_SetAdminAndList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.CreateUser(t, db, "alice", false)
	users := repository.NewUserRepository(db)
	svc := NewAdminService(users, repository.NewPostRepository(db))
	ctx := context.Background()

	require.NoError(t, svc.SetAdmin(ctx, "alice", true))
	list, err := svc.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsAdmin)
}
