package api

import (
	"errors"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/service"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func (s *Server) transcribe(c *fiber.Ctx) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Audio file is required")
	}

	f, err := fh.Open()
	if err != nil {
		log.Printf("❌ Transcription error: open upload: %v", err)
		return fail(c, fiber.StatusBadRequest, "Audio file could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Printf("❌ Transcription error: read upload: %v", err)
		return fail(c, fiber.StatusBadRequest, "Audio file could not be read")
	}

	audio := model.AudioSlice{Data: data, ContentType: fh.Header.Get(fiber.HeaderContentType)}
	if audio.ContentType == "" || audio.ContentType == fiber.MIMEOctetStream {
		audio.ContentType = stt.DefaultContentType
	}

	t, err := s.service.Transcribe(c.UserContext(), currentUserID(c), c.FormValue("sessionId"), audio)
	if err != nil {
		return transcriptionError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"transcription": t.Text,
		"id":            t.ID,
		"created_at":    t.CreatedAt,
	})
}

func transcriptionError(c *fiber.Ctx, err error) error {
	var sttErr *stt.Error
	switch {
	case errors.Is(err, service.ErrEmptyAudio):
		return fail(c, fiber.StatusBadRequest, "Audio file is required")
	case errors.Is(err, service.ErrAudioTooLarge):
		return fail(c, fiber.StatusRequestEntityTooLarge, "Audio file is too large")
	case errors.As(err, &sttErr):
		log.Printf("❌ Transcription error: %v", err)
		return fail(c, fiber.StatusBadGateway, "Transcription failed: "+sttErr.Error())
	}
	log.Printf("❌ Transcription error: %v", err)
	return fail(c, fiber.StatusInternalServerError, "An error occurred during transcription")
}

func (s *Server) listTranscriptions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset := max(c.QueryInt("offset", 0), 0)

	items, total, err := s.store.ListTranscriptions(c.UserContext(), currentUserID(c), limit, offset)
	if err != nil {
		log.Printf("❌ Error fetching transcriptions: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An error occurred while fetching transcriptions")
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"transcriptions": items,
		"pagination": fiber.Map{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": offset+limit < total,
		},
	})
}
