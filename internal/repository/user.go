package repository

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"peopleconnects/internal/cache"
	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) error
	SetAdmin(ctx context.Context, username string, admin bool) error
	Delete(ctx context.Context, username string) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists", err)
		}
		r.log.LogError(ctx, "create", err)
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, slog.String("username", user.Username))
	return nil
}

// GetByID is cached; the cached copy never carries the credential hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		defer observability.TrackQuery("get", "users")()
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no such user exists.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// GetByEmail returns nil, nil when no such user exists.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, where string, arg string) (*models.User, error) {
	defer observability.TrackQuery("get", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).Where(where, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// invalidateAuthoredPosts drops cached posts by user id, which carry the
// author's picture.
func (r *userRepository) invalidateAuthoredPosts(ctx context.Context, id uint) {
	var postIDs []string
	author := r.db.Model(&models.User{}).Select("username").Where("id = ?", id)
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author = (?)", author).Pluck("id", &postIDs).Error; err != nil {
		r.log.LogError(ctx, "invalidate posts", err)
		return
	}
	for _, postID := range postIDs {
		cache.InvalidatePost(ctx, postID)
	}
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) error {
	fields := map[string]interface{}{}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.ProfilePic != nil {
		fields["profile_pic"] = *update.ProfilePic
	}
	if update.PasswordHash != nil {
		fields["password"] = *update.PasswordHash
	}
	if len(fields) == 0 {
		return nil
	}

	defer observability.TrackQuery("update", "users")()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("Email already registered", res.Error)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	if update.ProfilePic != nil {
		r.invalidateAuthoredPosts(ctx, id)
	}
	r.log.LogUpdate(ctx, slog.Uint64("user_id", uint64(id)))
	return nil
}

func (r *userRepository) SetAdmin(ctx context.Context, username string, admin bool) error {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", username)
	}
	if err := r.db.WithContext(ctx).Model(user).Update("is_admin", admin).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	r.log.LogUpdate(ctx, slog.String("username", username), slog.Bool("is_admin", admin))
	return nil
}

// Delete removes a user and everything that only exists because of them:
// their posts along with those posts' likes and comments, their likes on
// other posts, and every follow edge touching them. Comments they left on
// other users' posts stay in those posts' logs.
func (r *userRepository) Delete(ctx context.Context, username string) error {
	ctx, span := observability.StartRepoSpan(ctx, "Delete", "users")
	var (
		user     models.User
		postIDs  []string
		likedIDs []string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return wrapDBError(err, "User", username)
		}
		if err := tx.Model(&models.Post{}).Where("author = ?", username).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("author = ?", username).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Like{}).Where("username = ?", username).Pluck("post_id", &likedIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("username = ?", username).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower = ? OR followee = ?", username, username).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	err = wrapDBError(err, "User", username)
	observability.EndSpan(span, err)
	if err != nil {
		return err
	}

	cache.InvalidateUser(ctx, user.ID)
	for _, id := range slices.Concat(postIDs, likedIDs) {
		cache.InvalidatePost(ctx, id)
	}
	r.log.LogDelete(ctx, slog.String("username", username), slog.Int("posts", len(postIDs)))
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	defer observability.TrackQuery("search", "users")()
	var users []models.User
	pattern := likePattern(query)
	err := r.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// List returns users newest first.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	defer observability.TrackQuery("list", "users")()
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
