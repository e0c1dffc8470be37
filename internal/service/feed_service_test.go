package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"peopleconnects/internal/feed"
	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
	"peopleconnects/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_PageSizeClamped(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{3, 10},
		{25, 25},
		{500, 50},
	}
	for _, tt := range tests {
		svc := NewFeedService(noopPostRepo(), noopFollowRepo(), tt.in)
		assert.Equal(t, tt.want, svc.pageSize, "page size %d", tt.in)
	}
}

func TestFeedService_NegativePage(t *testing.T) {
	svc := NewFeedService(noopPostRepo(), noopFollowRepo(), 10)
	_, err := svc.GetFeed(context.Background(), alice, feed.Global, -1)
	assertValidationError(t, err)
}

func TestFeedService_UnaddressablePageIsEmpty(t *testing.T) {
	posts := noopPostRepo()
	posts.feedFn = func(context.Context, feed.Criteria, int, int, string) ([]models.Post, error) {
		t.Fatal("store must not be queried for a page past any offset")
		return nil, nil
	}
	svc := NewFeedService(posts, noopFollowRepo(), 20)

	page, err := svc.GetFeed(context.Background(), alice, feed.Global, 922337203685477580)
	require.NoError(t, err)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
	assert.Equal(t, 922337203685477580, page.Page)
}

func TestFeedService_AnonymousFollowingIsEmpty(t *testing.T) {
	follows := noopFollowRepo()
	follows.followingFn = func(context.Context, string) ([]string, error) {
		t.Fatal("following set must not be loaded for anonymous viewers")
		return nil, nil
	}
	posts := noopPostRepo()
	posts.feedFn = func(_ context.Context, c feed.Criteria, _, _ int, _ string) ([]models.Post, error) {
		assert.True(t, c.SelectsNothing())
		return []models.Post{}, nil
	}
	svc := NewFeedService(posts, follows, 10)

	page, err := svc.GetFeed(context.Background(), models.Anonymous(), feed.Following, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
}

func TestFeedService_RequestsOneExtraRow(t *testing.T) {
	var gotLimit, gotOffset int
	posts := noopPostRepo()
	posts.feedFn = func(_ context.Context, _ feed.Criteria, limit, offset int, _ string) ([]models.Post, error) {
		gotLimit, gotOffset = limit, offset
		return make([]models.Post, limit), nil
	}
	svc := NewFeedService(posts, noopFollowRepo(), 10)

	page, err := svc.GetFeed(context.Background(), alice, feed.Recent, 2)
	require.NoError(t, err)
	assert.Equal(t, 11, gotLimit)
	assert.Equal(t, 20, gotOffset)
	assert.Len(t, page.Posts, 10)
	assert.True(t, page.HasMore)
	assert.Equal(t, "recent", page.Filter)
	assert.Equal(t, 2, page.Page)
}

func TestFeedService_OnStore(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	base := time.Now().UTC().Add(-time.Hour)
	for _, name := range []string{"alice", "bob", "carol"} {
		testutil.CreateUser(t, db, name, false)
	}
	var ids []string
	for i := 0; i < 12; i++ {
		author := []string{"alice", "bob", "carol"}[i%3]
		p := testutil.CreatePost(t, db, author, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, p.ID)
	}
	testutil.Like(t, db, ids[0], "bob", "carol")
	testutil.Follow(t, db, "alice", "bob")

	svc := NewFeedService(repository.NewPostRepository(db), repository.NewFollowRepository(db), 10)
	ctx := context.Background()

	t.Run("global pages", func(t *testing.T) {
		first, err := svc.GetFeed(ctx, alice, feed.Global, 0)
		require.NoError(t, err)
		require.Len(t, first.Posts, 10)
		assert.True(t, first.HasMore)
		assert.Equal(t, ids[11], first.Posts[0].ID)

		second, err := svc.GetFeed(ctx, alice, feed.Global, 1)
		require.NoError(t, err)
		require.Len(t, second.Posts, 2)
		assert.False(t, second.HasMore)

		past, err := svc.GetFeed(ctx, alice, feed.Global, 5)
		require.NoError(t, err)
		assert.NotNil(t, past.Posts)
		assert.Empty(t, past.Posts)
	})

	t.Run("following", func(t *testing.T) {
		page, err := svc.GetFeed(ctx, alice, feed.Following, 0)
		require.NoError(t, err)
		require.Len(t, page.Posts, 4)
		for _, p := range page.Posts {
			assert.Equal(t, "bob", p.Author)
		}
	})

	t.Run("popular", func(t *testing.T) {
		page, err := svc.GetFeed(ctx, bob, feed.Popular, 0)
		require.NoError(t, err)
		require.NotEmpty(t, page.Posts)
		assert.Equal(t, ids[0], page.Posts[0].ID)
		assert.Equal(t, 2, page.Posts[0].LikeCount)
		assert.True(t, page.Posts[0].Liked)
	})

	t.Run("viewer without follows", func(t *testing.T) {
		page, err := svc.GetFeed(ctx, models.Actor{Username: "carol"}, feed.Following, 0)
		require.NoError(t, err)
		assert.Empty(t, page.Posts)
	})
}
