package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/auth"
)

const (
	localUserID = "userID"
	localEmail  = "email"
)

// requireAuth accepts "Authorization: Bearer <token>" or, for websocket
// clients that cannot set headers, a token query parameter.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	claims, err := auth.ParseToken(s.tokens, token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return fail(c, fiber.StatusUnauthorized, "Token expired")
	}
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	userID, err := claims.UserID()
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	c.Locals(localUserID, userID)
	c.Locals(localEmail, claims.Email)
	return c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(localUserID).(int64)
	return id
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
