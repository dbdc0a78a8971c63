package api

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/store"
)

type dictionaryRequest struct {
	ID       int64  `json:"id"`
	Keyword  string `json:"keyword"`
	Spelling string `json:"spelling"`
}

// validate applies the create/update checks and returns the failure message.
func (r dictionaryRequest) validate() string {
	if r.Keyword == "" || r.Spelling == "" {
		return "Keyword and spelling are required"
	}
	if strings.TrimSpace(r.Keyword) == "" || strings.TrimSpace(r.Spelling) == "" {
		return "Keyword and spelling cannot be empty"
	}
	if utf8.RuneCountInString(r.Keyword) > 255 {
		return "Keyword must be 255 characters or less"
	}
	return ""
}

func (s *Server) listDictionary(c *fiber.Ctx) error {
	entries, err := s.store.ListDictionary(c.UserContext(), currentUserID(c))
	if err != nil {
		log.Printf("❌ Error fetching dictionary entries: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred while fetching dictionary entries")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"entries": entries,
	})
}

func (s *Server) createDictionaryEntry(c *fiber.Ctx) error {
	var req dictionaryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	entry, err := s.store.CreateDictionaryEntry(c.UserContext(), currentUserID(c), strings.TrimSpace(req.Keyword), strings.TrimSpace(req.Spelling))
	if errors.Is(err, store.ErrDuplicate) {
		return fail(c, fiber.StatusBadRequest, "A dictionary entry with this keyword already exists")
	}
	if err != nil {
		log.Printf("❌ Error creating dictionary entry: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred while creating dictionary entry")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"entry":   entry,
	})
}

func (s *Server) updateDictionaryEntry(c *fiber.Ctx) error {
	var req dictionaryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ID == 0 {
		return fail(c, fiber.StatusBadRequest, "Entry ID is required")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	entry, err := s.store.UpdateDictionaryEntry(c.UserContext(), currentUserID(c), req.ID, strings.TrimSpace(req.Keyword), strings.TrimSpace(req.Spelling))
	if err != nil {
		return dictionaryError(c, err, "An error occurred while updating dictionary entry")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"entry":   entry,
	})
}

func (s *Server) deleteDictionaryEntry(c *fiber.Ctx) error {
	raw := c.Query("id")
	if raw == "" {
		return fail(c, fiber.StatusBadRequest, "Entry ID is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid entry ID")
	}

	if err := s.store.DeleteDictionaryEntry(c.UserContext(), currentUserID(c), id); err != nil {
		return dictionaryError(c, err, "An error occurred while deleting dictionary entry")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Dictionary entry deleted successfully",
	})
}

func dictionaryError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Dictionary entry not found")
	case errors.Is(err, store.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Unauthorized")
	case errors.Is(err, store.ErrDuplicate):
		return fail(c, fiber.StatusBadRequest, "A dictionary entry with this keyword already exists")
	}
	log.Printf("❌ %s: %v", fallback, err)
	return fail(c, fiber.StatusInternalServerError, fallback)
}
