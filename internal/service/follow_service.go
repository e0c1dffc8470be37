package service

import (
	"context"

	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
)

// FollowService applies follow graph operations.
type FollowService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	notifier Notifier
	now      Clock
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, notifier Notifier) *FollowService {
	return &FollowService{users: users, follows: follows, notifier: notifier, now: systemClock}
}

func (s *FollowService) checkEdge(ctx context.Context, actor models.Actor, target, verb string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Username == target {
		return models.NewValidationError("cannot " + verb + " self")
	}
	return s.requireUser(ctx, target)
}

func (s *FollowService) requireUser(ctx context.Context, username string) error {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		return models.NewNotFoundError("User", username)
	}
	return nil
}

// Follow adds actor -> target. Following an already-followed user is a no-op.
func (s *FollowService) Follow(ctx context.Context, actor models.Actor, target string) error {
	if err := s.checkEdge(ctx, actor, target, "follow"); err != nil {
		observe("follow", err)
		return err
	}
	created, err := s.follows.Follow(ctx, actor.Username, target)
	if err != nil {
		return err
	}
	observe("follow", nil)
	if created {
		notify(ctx, s.notifier, models.Notification{
			Type:      models.NotificationFollow,
			Recipient: target,
			Actor:     actor.Username,
			CreatedAt: s.now(),
		})
	}
	return nil
}

// Unfollow removes actor -> target. Unfollowing a user not followed is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, actor models.Actor, target string) error {
	if err := s.checkEdge(ctx, actor, target, "unfollow"); err != nil {
		observe("unfollow", err)
		return err
	}
	if _, err := s.follows.Unfollow(ctx, actor.Username, target); err != nil {
		return err
	}
	observe("unfollow", nil)
	return nil
}

// Followers lists who follows username, sorted. An unknown user is NotFound.
func (s *FollowService) Followers(ctx context.Context, username string) ([]string, error) {
	if err := s.requireUser(ctx, username); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, username)
}

// Following lists who username follows, sorted. An unknown user is NotFound.
func (s *FollowService) Following(ctx context.Context, username string) ([]string, error) {
	if err := s.requireUser(ctx, username); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, username)
}
