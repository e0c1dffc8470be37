package repository

import (
	"context"
	"log/slog"

	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the directed follow graph. One row per edge means
// a user's followers and following sets can never disagree.
type FollowRepository interface {
	Follow(ctx context.Context, follower, followee string) (created bool, err error)
	Unfollow(ctx context.Context, follower, followee string) (removed bool, err error)
	IsFollowing(ctx context.Context, follower, followee string) (bool, error)
	Following(ctx context.Context, username string) ([]string, error)
	Followers(ctx context.Context, username string) ([]string, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository returns a FollowRepository backed by db.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

// Follow inserts the edge; an existing edge is left as is.
func (r *followRepository) Follow(ctx context.Context, follower, followee string) (bool, error) {
	defer observability.TrackQuery("create", "follows")()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{Follower: follower, Followee: followee})
	if res.Error != nil {
		r.log.LogError(ctx, "create", res.Error)
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogCreate(ctx, slog.String("follower", follower), slog.String("followee", followee))
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Unfollow(ctx context.Context, follower, followee string) (bool, error) {
	defer observability.TrackQuery("delete", "follows")()
	res := r.db.WithContext(ctx).
		Where("follower = ? AND followee = ?", follower, followee).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.LogDelete(ctx, slog.String("follower", follower), slog.String("followee", followee))
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower = ? AND followee = ?", follower, followee).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// Following lists who username follows, sorted.
func (r *followRepository) Following(ctx context.Context, username string) ([]string, error) {
	return r.pluck(ctx, "followee", "follower = ?", username)
}

// Followers lists who follows username, sorted.
func (r *followRepository) Followers(ctx context.Context, username string) ([]string, error) {
	return r.pluck(ctx, "follower", "followee = ?", username)
}

func (r *followRepository) pluck(ctx context.Context, column, where, username string) ([]string, error) {
	defer observability.TrackQuery("list", "follows")()
	out := []string{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where(where, username).
		Order(column+" ASC").
		Pluck(column, &out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
