package server

import (
	"peopleconnects/internal/models"
	"peopleconnects/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/:username
// @Summary Get a user's profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	p, err := s.profiles.GetProfile(c.UserContext(), c.Params("username"), actorFrom(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(p)
}

// GetMe handles GET /api/users/me
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	actor := actorFrom(c)
	p, err := s.profiles.GetProfile(c.UserContext(), actor.Username, actor)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(p)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update email and/or password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{email=string,password=string} true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}
	user, err := s.profiles.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		Actor:    actorFrom(c),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// UpdateMyPicture handles POST /api/users/me/picture
// @Summary Upload a profile picture
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me/picture [post]
func (s *Server) UpdateMyPicture(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}
	user, err := s.profiles.UpdateProfilePicture(c.UserContext(), actorFrom(c), image)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// Follow handles POST /api/users/:username/follow
// @Summary Follow a user
// @Tags follows
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	if err := s.follows.Follow(c.UserContext(), actorFrom(c), c.Params("username")); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// Unfollow handles DELETE /api/users/:username/follow
// @Summary Unfollow a user
// @Tags follows
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{following=bool}
// @Router /users/{username}/follow [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	if err := s.follows.Unfollow(c.UserContext(), actorFrom(c), c.Params("username")); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// ListFollowers handles GET /api/users/:username/followers
// @Summary List who follows a user
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{username=string,followers=[]string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/followers [get]
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	username := c.Params("username")
	names, err := s.follows.Followers(c.UserContext(), username)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "followers": names})
}

// ListFollowing handles GET /api/users/:username/following
// @Summary List who a user follows
// @Tags follows
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{username=string,following=[]string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/following [get]
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	username := c.Params("username")
	names, err := s.follows.Following(c.UserContext(), username)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "following": names})
}
