package repository

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"peopleconnects/internal/cache"
	"peopleconnects/internal/feed"
	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string, viewer string) (*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	Feed(ctx context.Context, c feed.Criteria, limit, offset int, viewer string) ([]models.Post, error)
	Search(ctx context.Context, query string, limit int, viewer string) ([]models.Post, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id, username string) (*models.LikeResult, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	CountByAuthor(ctx context.Context, author string) (int64, error)
	Totals(ctx context.Context) (posts, likes, comments int64, err error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

const postDetailsSelect = "posts.*, " +
	"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count, " +
	"COALESCE((SELECT users.profile_pic FROM users WHERE users.username = posts.author), '') AS author_picture"

// withCounts selects the derived like and comment counts and the author's
// profile picture alongside each row.
func withCounts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).Select(postDetailsSelect)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, "create", err)
		return wrapDBError(err, "Post", post.ID)
	}
	post.Likes = []string{}
	post.Comments = []models.Comment{}
	r.log.LogCreate(ctx, slog.String("post_id", post.ID), slog.String("author", post.Author))
	return nil
}

// GetByID returns the post with its like set and comment log. The shared
// part is cached; Liked is computed per viewer.
func (r *postRepository) GetByID(ctx context.Context, id string, viewer string) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		defer observability.TrackQuery("get", "posts")()
		db := r.db.WithContext(ctx)
		if err := withCounts(db).Where("posts.id = ?", id).Take(&post).Error; err != nil {
			return wrapDBError(err, "Post", id)
		}
		posts := []models.Post{post}
		if err := r.hydrate(db, posts, ""); err != nil {
			return models.NewInternalError(err)
		}
		post = posts[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	post.Liked = viewer != "" && slices.Contains(post.Likes, viewer)
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// Feed runs the criteria as one ordered, paged query. The order matches
// feed.Less exactly.
func (r *postRepository) Feed(ctx context.Context, c feed.Criteria, limit, offset int, viewer string) ([]models.Post, error) {
	posts := []models.Post{}
	if c.SelectsNothing() {
		return posts, nil
	}

	ctx, span := observability.StartRepoSpan(ctx, "Feed", "posts")
	defer observability.TrackQuery("feed", "posts")()

	db := r.db.WithContext(ctx)
	q := withCounts(db)
	if c.Authors != nil {
		q = q.Where("posts.author IN ?", c.Authors)
	}
	if !c.Since.IsZero() {
		q = q.Where("posts.created_at >= ?", c.Since)
	}
	if c.ByLikes {
		q = q.Order("like_count DESC")
	}
	err := q.Order("posts.created_at DESC").
		Order("posts.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err == nil {
		err = r.hydrate(db, posts, viewer)
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Search(ctx context.Context, query string, limit int, viewer string) ([]models.Post, error) {
	defer observability.TrackQuery("search", "posts")()
	db := r.db.WithContext(ctx)
	posts := []models.Post{}
	err := withCounts(db).
		Where(`LOWER(posts.content) LIKE ? ESCAPE '\'`, likePattern(query)).
		Order("posts.created_at DESC").
		Order("posts.id ASC").
		Limit(limit).
		Find(&posts).Error
	if err == nil {
		err = r.hydrate(db, posts, viewer)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// hydrate fills Likes, Liked and Comments for posts with one query each.
func (r *postRepository) hydrate(db *gorm.DB, posts []models.Post, viewer string) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Likes = []string{}
		posts[i].Comments = []models.Comment{}
	}

	var likes []models.Like
	if err := db.Where("post_id IN ?", ids).Order("id ASC").Find(&likes).Error; err != nil {
		return err
	}
	for _, l := range likes {
		p := &posts[index[l.PostID]]
		p.Likes = append(p.Likes, l.Username)
		if l.Username == viewer {
			p.Liked = true
		}
	}

	var comments []models.Comment
	if err := db.Where("post_id IN ?", ids).Order("id ASC").Find(&comments).Error; err != nil {
		return err
	}
	for _, c := range comments {
		p := &posts[index[c.PostID]]
		p.Comments = append(p.Comments, c)
	}
	return nil
}

// UpdateContent replaces only the content column.
func (r *postRepository) UpdateContent(ctx context.Context, id, content string) error {
	defer observability.TrackQuery("update", "posts")()
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	r.log.LogUpdate(ctx, slog.String("post_id", id))
	return nil
}

// Delete removes the post together with its likes and comments.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	ctx, span := observability.StartRepoSpan(ctx, "Delete", "posts")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	err = wrapDBError(err, "Post", id)
	observability.EndSpan(span, err)
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	r.log.LogDelete(ctx, slog.String("post_id", id))
	return nil
}

// ToggleLike flips username's membership in the post's like set inside one
// transaction. The delete-or-insert pair relies on the (post_id, username)
// unique index, so a concurrent toggle can never leave a duplicate.
func (r *postRepository) ToggleLike(ctx context.Context, id, username string) (*models.LikeResult, error) {
	ctx, span := observability.StartRepoSpan(ctx, "ToggleLike", "likes")
	defer observability.TrackQuery("toggle", "likes")()

	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}

		removed := tx.Where("post_id = ? AND username = ?", id, username).Delete(&models.Like{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected == 0 {
			like := &models.Like{PostID: id, Username: username}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		var count int64
		if err := tx.Model(&models.Like{}).Where("post_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		result.LikeCount = int(count)
		return nil
	})
	err = wrapDBError(err, "Post", id)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, id)
	return result, nil
}

// AddComment appends to the post's comment log. The insert is conditional on
// the post existing so a concurrent delete cannot leave an orphan.
func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return wrapDBError(err, "Post", comment.PostID)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	r.log.LogCreate(ctx, slog.String("post_id", comment.PostID), slog.Uint64("comment_id", uint64(comment.ID)))
	return nil
}

// ListComments returns the comment log oldest first.
func (r *postRepository) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	ok, err := r.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	comments := []models.Comment{}
	err = r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, author string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author = ?", author).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Totals counts posts, likes and comments across the store.
func (r *postRepository) Totals(ctx context.Context) (posts, likes, comments int64, err error) {
	db := r.db.WithContext(ctx)
	err = errors.Join(
		db.Model(&models.Post{}).Count(&posts).Error,
		db.Model(&models.Like{}).Count(&likes).Error,
		db.Model(&models.Comment{}).Count(&comments).Error,
	)
	if err != nil {
		return 0, 0, 0, models.NewInternalError(err)
	}
	return posts, likes, comments, nil
}
