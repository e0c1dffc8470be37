package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"peopleconnects/internal/cache"
	"peopleconnects/internal/middleware"
	"peopleconnects/internal/models"
	"peopleconnects/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "peopleconnects-api"
	tokenAudience = "peopleconnects-client"
	tokenTTL      = 7 * 24 * time.Hour
)

// Fiber locals set by ResolveIdentity.
const (
	localUserID    = "userID"
	localUsername  = "username"
	localActor     = "actor"
	localTokenID   = "jti"
	localTokenExp  = "tokenExp"
	localAuthError = "authError"
)

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
}

// parseToken validates signature, issuer, audience and lifetime.
func (s *Server) parseToken(tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.config.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func isWSPath(path string) bool {
	return path == "/api/ws" || path == "/api/ws/"
}

// credentials extracts the caller's user id. It returns 0 with an empty
// reason when the request carries no credentials, and a reason when it
// carries credentials that do not authenticate.
func (s *Server) credentials(c *fiber.Ctx) (userID uint, claims *tokenClaims, reason string) {
	if ticket := c.Query("ticket"); ticket != "" && isWSPath(c.Path()) {
		id, ok := s.consumeWSTicket(c, ticket)
		if !ok {
			return 0, nil, "Invalid or expired WebSocket ticket"
		}
		return id, nil, ""
	}

	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, nil, ""
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return 0, nil, "Invalid or expired token"
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, nil, "Invalid subject claim"
	}
	if s.redis != nil && claims.ID != "" {
		n, err := s.redis.Exists(c.UserContext(), cache.RevokedTokenKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return 0, nil, "Token has been revoked"
		}
	}
	return uint(id), claims, ""
}

// consumeWSTicket redeems a single-use ticket for the user id it was issued to.
func (s *Server) consumeWSTicket(c *fiber.Ctx, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(c.UserContext(), cache.WSTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ResolveIdentity attaches the caller's actor to the request when valid
// credentials are present. It never rejects; AuthRequired does.
func (s *Server) ResolveIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, claims, reason := s.credentials(c)
		if reason != "" {
			c.Locals(localAuthError, reason)
			return c.Next()
		}
		if userID == 0 {
			return c.Next()
		}

		user, actor, err := s.identity.Actor(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				c.Locals(localAuthError, "User no longer exists")
				return c.Next()
			}
			return models.Respond(c, err)
		}

		c.Locals(localUserID, user.ID)
		c.Locals(localUsername, user.Username)
		c.Locals(localActor, actor)
		if claims != nil {
			c.Locals(localTokenID, claims.ID)
			c.Locals(localTokenExp, claims.ExpiresAt.Time)
		}
		c.SetUserContext(middleware.WithIdentity(c.UserContext(), user.ID, user.Username))
		return c.Next()
	}
}

// AuthRequired rejects requests without a resolved actor.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actorFrom(c).IsAnonymous() {
			return c.Next()
		}
		reason, _ := c.Locals(localAuthError).(string)
		if reason == "" {
			reason = "Authentication required"
		}
		return models.Respond(c, models.NewUnauthorizedError(reason))
	}
}

// AdminRequired rejects non-admin actors with 403. It runs after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actorFrom(c).Admin {
			return models.Respond(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// actorFrom returns the resolved actor, or anonymous.
func actorFrom(c *fiber.Ctx) models.Actor {
	if a, ok := c.Locals(localActor).(models.Actor); ok {
		return a
	}
	return models.Anonymous()
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration"
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.identity.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Respond(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.identity.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.JSON(authResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals(localTokenID).(string)
	exp, _ := c.Locals(localTokenExp).(time.Time)
	if jti != "" && s.redis != nil {
		ttl := time.Until(exp)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), cache.RevokedTokenKey(jti), "1", ttl).Err(); err != nil {
				return models.Respond(c, models.NewInternalError(err))
			}
		}
	} else if jti != "" {
		middleware.Logger.WarnContext(c.UserContext(), "token not revoked, redis unavailable")
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a websocket ticket
// @Description Returns a single-use ticket for GET /api/ws?ticket=
// @Tags realtime
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Live notifications are unavailable",
		})
	}
	userID, _ := c.Locals(localUserID).(uint)
	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket),
		strconv.FormatUint(uint64(userID), 10), cache.WSTicketTTL).Err(); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "ws ticket not stored", slog.String("error", err.Error()))
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}
