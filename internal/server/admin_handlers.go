package server

import (
	"peopleconnects/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /api/admin/dashboard
// @Summary Administrative overview
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/dashboard [get]
func (s *Server) Dashboard(c *fiber.Ctx) error {
	stats, err := s.admin.Dashboard(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(stats)
}

// AdminDeleteUser handles DELETE /api/admin/users/:username
// @Summary Delete a user and their content
// @Tags admin
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{username} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	if err := s.admin.DeleteUser(c.UserContext(), actorFrom(c), c.Params("username")); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminDeletePost handles DELETE /api/admin/posts/:id
// @Summary Delete any post
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	if err := s.posts.DeletePost(c.UserContext(), c.Params("id"), actorFrom(c)); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
