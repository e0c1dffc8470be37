package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"peopleconnects/internal/middleware"
	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
	"peopleconnects/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// IdentityService registers users and checks credentials. Tokens are the
// transport's concern.
type IdentityService struct {
	users repository.UserRepository
	cost  int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func NewIdentityService(users repository.UserRepository) *IdentityService {
	return &IdentityService{users: users, cost: bcrypt.DefaultCost}
}

// WithHashCost returns a copy hashing with cost; tests use bcrypt.MinCost.
func (s *IdentityService) WithHashCost(cost int) *IdentityService {
	cp := *s
	cp.cost = cost
	return &cp
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Username already exists")
	}
	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Email already registered")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: in.Username, Email: in.Email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user for a valid username and password.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Invalid credentials")
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

// Actor resolves a user id into the identity engines run as. A missing user
// yields NotFound.
func (s *IdentityService) Actor(ctx context.Context, userID uint) (*models.User, models.Actor, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.Anonymous(), err
	}
	return user, models.Actor{Username: user.Username, Admin: user.IsAdmin}, nil
}

// EnsureAdmin creates the bootstrap administrator, or promotes the existing
// account of that name. Nothing happens when username is empty.
func (s *IdentityService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" {
		return nil
	}
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.IsAdmin {
			return nil
		}
		return s.users.SetAdmin(ctx, username, true)
	}

	if email == "" {
		email = username + "@localhost.localdomain"
	}
	user, err := s.Register(ctx, RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := s.users.SetAdmin(ctx, user.Username, true); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "bootstrap admin created", slog.String("username", username))
	return nil
}

// hashNewPassword validates and hashes a replacement password.
func (s *IdentityService) hashNewPassword(password string) (string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return s.hash(password)
}

func (s *IdentityService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewValidationError("password too long")
		}
		return "", models.NewInternalError(err)
	}
	return string(b), nil
}
