package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/dictation"
)

// streamHandler upgrades GET /api/dictation/stream. The session id comes from
// the sessionId query parameter or is generated.
func (s *Server) streamHandler() fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		userID, _ := ws.Locals(localUserID).(int64)
		sessionID := ws.Query("sessionId")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		session, err := dictation.NewSession(s.ctx, ws, userID, sessionID, s.service, dictation.Options{
			ContentType:   ws.Query("contentType"),
			MaxSliceBytes: s.maxAudioBytes,
		})
		if err != nil {
			log.Printf("❌ Dictation session error: %v", err)
			ws.Close()
			return
		}
		session.Run(s.ctx)
	})
}
