package service

import (
	"context"
	"strings"

	"peopleconnects/internal/feed"
	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
	"peopleconnects/internal/validation"
)

const (
	// ProfilePostLimit caps the posts shown on a profile.
	ProfilePostLimit = 20
	// MediaNamespaceProfiles is where profile pictures are stored.
	MediaNamespaceProfiles = "profiles"
)

// ProfileService reads and edits user profiles.
type ProfileService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	follows  repository.FollowRepository
	identity *IdentityService
	media    MediaStore
}

type UpdateProfileInput struct {
	Actor    models.Actor
	Email    *string
	Password *string
}

func NewProfileService(
	users repository.UserRepository,
	posts repository.PostRepository,
	follows repository.FollowRepository,
	identity *IdentityService,
	media MediaStore,
) *ProfileService {
	return &ProfileService{users: users, posts: posts, follows: follows, identity: identity, media: media}
}

func (s *ProfileService) lookup(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// GetProfile returns username's public profile as seen by viewer.
func (s *ProfileService) GetProfile(ctx context.Context, username string, viewer models.Actor) (*models.Profile, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Followers, err = s.follows.Followers(ctx, username); err != nil {
		return nil, err
	}
	if user.Following, err = s.follows.Following(ctx, username); err != nil {
		return nil, err
	}

	c := feed.Criteria{Filter: feed.Global, Authors: []string{username}}
	posts, err := s.posts.Feed(ctx, c, ProfilePostLimit, 0, viewer.Username)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.CountByAuthor(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		User:           user,
		Posts:          posts,
		PostCount:      count,
		FollowersCount: len(user.Followers),
		FollowingCount: len(user.Following),
	}
	if !viewer.IsAnonymous() {
		for _, f := range user.Followers {
			if f == viewer.Username {
				p.IsFollowing = true
				break
			}
		}
	}
	return p, nil
}

// UpdateProfile changes the actor's email and/or password. The username
// cannot be changed.
func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	user, err := s.lookup(ctx, in.Actor.Username)
	if err != nil {
		return nil, err
	}

	var update models.ProfileUpdate
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if email != user.Email {
			other, err := s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, models.NewValidationError("Email already registered")
			}
			update.Email = &email
		}
	}
	if in.Password != nil {
		hash, err := s.identity.hashNewPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	if err := s.users.UpdateProfile(ctx, user.ID, update); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, user.ID)
}

// UpdateProfilePicture stores image bytes and points the actor's profile at them.
func (s *ProfileService) UpdateProfilePicture(ctx context.Context, actor models.Actor, image []byte) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if s.media == nil {
		return nil, models.NewValidationError("Image uploads are not enabled")
	}
	if len(image) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	user, err := s.lookup(ctx, actor.Username)
	if err != nil {
		return nil, err
	}
	ref, err := s.media.Store(ctx, MediaNamespaceProfiles, image)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{ProfilePic: &ref}); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, user.ID)
}
