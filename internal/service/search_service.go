package service

import (
	"context"
	"strings"

	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
)

// SearchLimit caps each result list.
const SearchLimit = 20

type SearchService struct {
	users repository.UserRepository
	posts repository.PostRepository
}

func NewSearchService(users repository.UserRepository, posts repository.PostRepository) *SearchService {
	return &SearchService{users: users, posts: posts}
}

// Search matches query case-insensitively against usernames, emails and post content.
func (s *SearchService) Search(ctx context.Context, query string, viewer models.Actor) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	users, err := s.users.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, query, SearchLimit, viewer.Username)
	if err != nil {
		return nil, err
	}
	return &models.SearchResults{Users: users, Posts: posts}, nil
}
