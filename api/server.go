// Package api exposes the dictation backend over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/auth"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/dictation"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

// Store is the persistence the HTTP handlers need.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, email, passwordHash, name string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserName(ctx context.Context, id int64, name string) (*model.User, error)

	ListDictionary(ctx context.Context, userID int64) ([]model.DictionaryEntry, error)
	CreateDictionaryEntry(ctx context.Context, userID int64, keyword, spelling string) (*model.DictionaryEntry, error)
	UpdateDictionaryEntry(ctx context.Context, userID, id int64, keyword, spelling string) (*model.DictionaryEntry, error)
	DeleteDictionaryEntry(ctx context.Context, userID, id int64) error

	ListTranscriptions(ctx context.Context, userID int64, limit, offset int) ([]model.Transcription, int, error)
}

// Options wires a Server.
type Options struct {
	Store         Store
	Service       dictation.Service
	Tokens        auth.TokenConfig
	MaxAudioBytes int
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

type Server struct {
	app           *fiber.App
	store         Store
	service       dictation.Service
	tokens        auth.TokenConfig
	maxAudioBytes int

	// ctx bounds every streaming session; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// multipartOverhead leaves room for form boundaries and fields around the audio.
const multipartOverhead = 1 << 20

func New(opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:         opts.Store,
		service:       opts.Service,
		tokens:        opts.Tokens,
		maxAudioBytes: opts.MaxAudioBytes,
		ctx:           ctx,
		cancel:        cancel,
	}

	cfg := fiber.Config{
		AppName:      "voice-keyboard",
		ErrorHandler: errorHandler,
	}
	if opts.MaxAudioBytes > 0 {
		cfg.BodyLimit = opts.MaxAudioBytes + multipartOverhead
	}
	s.app = fiber.New(cfg)

	s.app.Use(recover.New())
	if opts.AccessLog {
		s.app.Use(logger.New())
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Get("/health", s.health)

	api.Post("/auth/register", s.register)
	api.Post("/auth/login", s.login)

	api.Get("/settings", s.requireAuth, s.getSettings)
	api.Put("/settings", s.requireAuth, s.updateSettings)

	api.Get("/dictionary", s.requireAuth, s.listDictionary)
	api.Post("/dictionary", s.requireAuth, s.createDictionaryEntry)
	api.Put("/dictionary", s.requireAuth, s.updateDictionaryEntry)
	api.Delete("/dictionary", s.requireAuth, s.deleteDictionaryEntry)

	api.Post("/transcribe", s.requireAuth, s.transcribe)
	api.Get("/transcriptions", s.requireAuth, s.listTranscriptions)

	api.Use("/dictation/stream", s.requireAuth, requireUpgrade)
	api.Get("/dictation/stream", s.streamHandler())
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	log.Printf("🚀 Fiber server listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown ends open dictation sessions and stops the listener, waiting up to
// the context deadline for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
	}
	return fail(c, code, msg)
}

// fail writes the standard error envelope.
func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
