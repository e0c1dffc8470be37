package server

import (
	"peopleconnects/internal/feed"
	"peopleconnects/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
// @Summary Read a feed page
// @Description Filters: global (default), following, popular, recent. Pages are 0-based.
// @Tags feed
// @Produce json
// @Param filter query string false "Feed filter"
// @Param page query int false "0-based page"
// @Success 200 {object} models.FeedPage
// @Failure 400 {object} models.ErrorResponse
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	filter, err := feed.ParseFilter(c.Query("filter"))
	if err != nil {
		return models.Respond(c, err)
	}
	page, err := parsePage(c)
	if err != nil {
		return models.Respond(c, err)
	}
	res, err := s.feed.GetFeed(c.UserContext(), actorFrom(c), filter, page)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}

// Search handles GET /api/search
// @Summary Search users and posts
// @Tags search
// @Produce json
// @Param q query string true "Query"
// @Success 200 {object} models.SearchResults
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	res, err := s.search.Search(c.UserContext(), c.Query("q"), actorFrom(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}
