package service

import (
	"context"

	"peopleconnects/internal/config"
	"peopleconnects/internal/feed"
	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"
	"peopleconnects/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService is the feed query engine.
type FeedService struct {
	posts    repository.PostRepository
	follows  repository.FollowRepository
	pageSize int
	now      Clock
}

// NewFeedService builds the engine; pageSize is clamped to the supported window.
func NewFeedService(posts repository.PostRepository, follows repository.FollowRepository, pageSize int) *FeedService {
	return &FeedService{
		posts:    posts,
		follows:  follows,
		pageSize: config.ClampPageSize(pageSize),
		now:      systemClock,
	}
}

// GetFeed returns one 0-based page of filter as seen by viewer. A page past
// the end is empty, not an error.
func (s *FeedService) GetFeed(ctx context.Context, viewer models.Actor, filter feed.Filter, page int) (res *models.FeedPage, err error) {
	ctx, span := observability.StartEngineSpan(ctx, "feed", "getFeed",
		attribute.String("feed.filter", string(filter)),
		attribute.Int("feed.page", page))
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackFeed(string(filter))()

	if page < 0 {
		return nil, models.NewValidationError("page must not be negative")
	}

	res = &models.FeedPage{
		Filter:   string(filter),
		Page:     page,
		PageSize: s.pageSize,
		Posts:    []models.Post{},
	}
	offset, ok := feed.Offset(page, s.pageSize)
	if !ok {
		return res, nil
	}

	var following []string
	if filter == feed.Following && !viewer.IsAnonymous() {
		following, err = s.follows.Following(ctx, viewer.Username)
		if err != nil {
			return nil, err
		}
	}

	c := feed.Resolve(filter, viewer, following, s.now())
	// One extra row tells whether another page exists.
	posts, err := s.posts.Feed(ctx, c, s.pageSize+1, offset, viewer.Username)
	if err != nil {
		return nil, err
	}

	res.Posts = posts
	if len(posts) > s.pageSize {
		res.HasMore = true
		res.Posts = posts[:s.pageSize]
	}
	return res, nil
}
