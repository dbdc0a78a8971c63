package api

import (
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/auth"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/store"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type settingsRequest struct {
	Name string `json:"name"`
}

type userResponse struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func newUserResponse(u *model.User, withCreated, withUpdated bool) userResponse {
	resp := userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
	if withCreated {
		resp.CreatedAt = &u.CreatedAt
	}
	if withUpdated {
		resp.UpdatedAt = &u.UpdatedAt
	}
	return resp
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "Email, password, and name are required")
	}
	if !auth.ValidateEmail(req.Email) {
		return fail(c, fiber.StatusBadRequest, "Invalid email format")
	}
	if !auth.ValidatePasswordStrength(req.Password) {
		return fail(c, fiber.StatusBadRequest, "Password must be at least 8 characters long and contain uppercase, lowercase, and numeric characters")
	}
	if !auth.ValidateName(req.Name) {
		return fail(c, fiber.StatusBadRequest, "Name must be between 2 and 255 characters")
	}

	ctx := c.UserContext()
	if _, err := s.store.UserByEmail(ctx, req.Email); err == nil {
		return fail(c, fiber.StatusBadRequest, "User with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("❌ Registration error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred during registration")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Registration error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred during registration")
	}

	u, err := s.store.CreateUser(ctx, req.Email, hash, strings.TrimSpace(req.Name))
	if errors.Is(err, store.ErrDuplicate) {
		return fail(c, fiber.StatusBadRequest, "User with this email already exists")
	}
	if err != nil {
		log.Printf("❌ Registration error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred during registration")
	}

	log.Printf("👤 Registered user %d", u.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    newUserResponse(u, true, false),
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if !auth.ValidateEmail(req.Email) {
		return fail(c, fiber.StatusBadRequest, "Invalid email format")
	}

	u, err := s.store.UserByEmail(c.UserContext(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		log.Printf("❌ Login error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred during login")
	}
	if !auth.VerifyPassword(req.Password, u.PasswordHash) {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	token, err := auth.GenerateToken(s.tokens, u.ID, u.Email)
	if err != nil {
		log.Printf("❌ Login error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred during login")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"user":      newUserResponse(u, false, false),
		"token":     token,
		"expiresIn": s.tokens.TTLSeconds(),
	})
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	u, err := s.store.UserByID(c.UserContext(), currentUserID(c))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		log.Printf("❌ Error fetching user settings: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred while fetching settings")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    newUserResponse(u, true, false),
	})
}

func (s *Server) updateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "Name is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fail(c, fiber.StatusBadRequest, "Name cannot be empty")
	}
	if utf8.RuneCountInString(req.Name) > 255 {
		return fail(c, fiber.StatusBadRequest, "Name must be 255 characters or less")
	}

	u, err := s.store.UpdateUserName(c.UserContext(), currentUserID(c), strings.TrimSpace(req.Name))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		log.Printf("❌ Error updating user settings: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred while updating settings")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    newUserResponse(u, true, true),
	})
}
