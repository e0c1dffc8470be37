package service

import (
	"context"
	"log/slog"

	"peopleconnects/internal/feed"
	"peopleconnects/internal/middleware"
	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
)

const (
	DashboardTopPosts    = 5
	DashboardRecentUsers = 50
	DashboardRecentPosts = 50
)

// AdminService backs the administrative view.
type AdminService struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func NewAdminService(users repository.UserRepository, posts repository.PostRepository) *AdminService {
	return &AdminService{users: users, posts: posts}
}

func requireAdmin(actor models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Admin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

func (s *AdminService) Dashboard(ctx context.Context, actor models.Actor) (*models.DashboardStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{}
	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalPosts, stats.TotalLikes, stats.TotalComments, err = s.posts.Totals(ctx); err != nil {
		return nil, err
	}
	popular := feed.Criteria{Filter: feed.Popular, ByLikes: true}
	if stats.TopPosts, err = s.posts.Feed(ctx, popular, DashboardTopPosts, 0, ""); err != nil {
		return nil, err
	}
	if stats.RecentUsers, err = s.users.List(ctx, DashboardRecentUsers, 0); err != nil {
		return nil, err
	}
	if stats.RecentPosts, err = s.posts.Feed(ctx, feed.Criteria{Filter: feed.Global}, DashboardRecentPosts, 0, ""); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteUser removes username and the content that belongs only to them.
// Administrators cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Actor, username string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if username == actor.Username {
		return models.NewValidationError("Administrators cannot delete themselves")
	}
	if err := s.users.Delete(ctx, username); err != nil {
		observe("delete_user", err)
		return err
	}
	observe("delete_user", nil)
	middleware.Logger.InfoContext(ctx, "user deleted by admin",
		slog.String("admin", actor.Username),
		slog.String("target", username),
	)
	return nil
}

// SetAdmin grants or revokes the admin role.
func (s *AdminService) SetAdmin(ctx context.Context, username string, admin bool) error {
	return s.users.SetAdmin(ctx, username, admin)
}

// ListUsers lists accounts newest first.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}
