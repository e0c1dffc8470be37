package service

import (
	"context"
	"strconv"

	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"
	"peopleconnects/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MediaNamespacePosts is where post images are stored.
const MediaNamespacePosts = "posts"

// PostService is the interaction engine: creating, editing and deleting
// posts, toggling likes and appending comments.
type PostService struct {
	posts    repository.PostRepository
	media    MediaStore
	notifier Notifier
	now      Clock
}

type CreatePostInput struct {
	Actor   models.Actor
	Content string
	Image   []byte
}

// NewPostService builds the engine. media and notifier may be nil.
func NewPostService(posts repository.PostRepository, media MediaStore, notifier Notifier) *PostService {
	return &PostService{posts: posts, media: media, notifier: notifier, now: systemClock}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	content, err := cleanText("Content", in.Content, models.MaxPostContentLength)
	if err != nil {
		observe("create", err)
		return nil, err
	}

	post := &models.Post{
		Author:    in.Actor.Username,
		Content:   content,
		CreatedAt: s.now(),
	}
	if len(in.Image) > 0 {
		if s.media == nil {
			return nil, models.NewValidationError("Image uploads are not enabled")
		}
		ref, err := s.media.Store(ctx, MediaNamespacePosts, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.WithLabelValues(strconv.FormatBool(post.Image != "")).Inc()
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string, viewer models.Actor) (*models.Post, error) {
	return s.posts.GetByID(ctx, id, viewer.Username)
}

// ToggleLike adds the actor to the post's like set, or removes them if
// already present.
func (s *PostService) ToggleLike(ctx context.Context, id string, actor models.Actor) (res *models.LikeResult, err error) {
	ctx, span := observability.StartEngineSpan(ctx, "interaction", "toggleLike",
		attribute.String("post.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	res, err = s.posts.ToggleLike(ctx, id, actor.Username)
	if err != nil {
		observe("like", err)
		return nil, err
	}

	if res.Liked {
		observe("like", nil)
		if post, getErr := s.posts.GetByID(ctx, id, ""); getErr == nil {
			notify(ctx, s.notifier, models.Notification{
				Type:      models.NotificationLike,
				Recipient: post.Author,
				Actor:     actor.Username,
				PostID:    id,
				CreatedAt: s.now(),
			})
		}
	} else {
		observe("unlike", nil)
	}
	return res, nil
}

// AddComment appends a comment by the actor to the post's comment log.
func (s *PostService) AddComment(ctx context.Context, id string, actor models.Actor, text string) (c *models.Comment, err error) {
	ctx, span := observability.StartEngineSpan(ctx, "interaction", "addComment",
		attribute.String("post.id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	text, err = cleanText("Comment", text, models.MaxCommentLength)
	if err != nil {
		observe("comment", err)
		return nil, err
	}

	c = &models.Comment{PostID: id, Author: actor.Username, Text: text, CreatedAt: s.now()}
	if err := s.posts.AddComment(ctx, c); err != nil {
		observe("comment", err)
		return nil, err
	}
	observe("comment", nil)

	if post, getErr := s.posts.GetByID(ctx, id, ""); getErr == nil {
		notify(ctx, s.notifier, models.Notification{
			Type:      models.NotificationComment,
			Recipient: post.Author,
			Actor:     actor.Username,
			PostID:    id,
			CommentID: c.ID,
			CreatedAt: c.CreatedAt,
		})
	}
	return c, nil
}

func (s *PostService) ListComments(ctx context.Context, id string) ([]models.Comment, error) {
	return s.posts.ListComments(ctx, id)
}

// EditPost replaces the content of the actor's own post. Checks run in the
// order existence, authorship, content.
func (s *PostService) EditPost(ctx context.Context, id string, actor models.Actor, content string) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, id, actor.Username)
	if err != nil {
		observe("edit", err)
		return nil, err
	}
	if post.Author != actor.Username {
		err := models.NewForbiddenError("You can only edit your own posts")
		observe("edit", err)
		return nil, err
	}
	content, err = cleanText("Content", content, models.MaxPostContentLength)
	if err != nil {
		observe("edit", err)
		return nil, err
	}

	if err := s.posts.UpdateContent(ctx, id, content); err != nil {
		observe("edit", err)
		return nil, err
	}
	observe("edit", nil)
	return s.posts.GetByID(ctx, id, actor.Username)
}

// DeletePost removes a post. The author and administrators may delete.
func (s *PostService) DeletePost(ctx context.Context, id string, actor models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, id, "")
	if err != nil {
		observe("delete", err)
		return err
	}
	if post.Author != actor.Username && !actor.Admin {
		err := models.NewForbiddenError("You can only delete your own posts")
		observe("delete", err)
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		observe("delete", err)
		return err
	}
	observe("delete", nil)
	return nil
}
