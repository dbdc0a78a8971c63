// Package dictation runs a streaming dictation session over a websocket: the
// client sends audio slices, the server answers with the merged transcript
// after every slice.
package dictation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/output"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/workers"
)

// Conn is the websocket surface a session uses. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Service transcribes slices and forgets finished sessions.
type Service interface {
	workers.Transcriber
	EndSession(ctx context.Context, userID int64, sessionID string)
}

// clientEvent is a text frame sent by the client.
type clientEvent struct {
	Event string `json:"event"` // "media", "stop"
	Media struct {
		Payload     string `json:"payload"` // base64 audio
		ContentType string `json:"contentType"`
	} `json:"media"`
}

// Options configures a session.
type Options struct {
	// ContentType labels binary frames. Defaults to audio/webm.
	ContentType string
	// MaxSliceBytes rejects larger frames before they are queued. Zero disables.
	MaxSliceBytes int
}

type Session struct {
	id            string
	userID        int64
	ws            Conn
	service       Service
	opts          Options
	worker        *workers.TranscriptionWorker
	outputWorker  *output.WebsocketOutput
	OutputChannel chan interface{}
}

func NewSession(ctx context.Context, ws Conn, userID int64, sessionID string, service Service, opts Options) (*Session, error) {
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	if opts.ContentType == "" {
		opts.ContentType = "audio/webm"
	}

	outputChannel := make(chan interface{}, 16)
	worker, err := workers.NewTranscriptionWorker(ctx, userID, sessionID, service, outputChannel)
	if err != nil {
		return nil, err
	}
	outputWorker, err := output.NewWebsocketOutput(sessionID, ws, outputChannel)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:            sessionID,
		userID:        userID,
		ws:            ws,
		service:       service,
		opts:          opts,
		worker:        worker,
		outputWorker:  outputWorker,
		OutputChannel: outputChannel,
	}, nil
}

// Run serves the session until the client stops or disconnects and every
// queued slice has been transcribed. It closes the connection on return.
func (s *Session) Run(ctx context.Context) {
	started := time.Now()
	log.Printf("🎤 Dictation session %s started for user %d", s.id, s.userID)

	s.outputWorker.Start()
	s.OutputChannel <- output.NewStart(s.id)
	s.worker.Start()

	readDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.worker.Stop()
			s.ws.Close()
		case <-readDone:
		}
	}()

	s.receive()
	close(readDone)

	s.worker.Finish()
	<-s.worker.Done()

	stats := s.worker.Stats()
	s.OutputChannel <- output.NewStop(s.id, stats.Slices, stats.Failed)
	close(s.OutputChannel)
	<-s.outputWorker.Done()

	s.service.EndSession(context.WithoutCancel(ctx), s.userID, s.id)
	s.ws.Close()

	log.Printf("🛑 Dictation session %s ended: slices=%d failed=%d bytes=%d first_result=%s transcribing=%s duration=%s",
		s.id, stats.Slices, stats.Failed, stats.AudioBytes,
		stats.FirstResult.Round(time.Millisecond), stats.Transcribing.Round(time.Millisecond),
		time.Since(started).Round(time.Millisecond))
}

// receive reads frames until the client sends stop or the connection ends.
func (s *Session) receive() {
	for {
		msgType, msg, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Session %s: websocket closed normally", s.id)
			} else {
				log.Printf("Session %s: websocket read error: %v", s.id, err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.enqueue(model.AudioSlice{Data: msg, ContentType: s.opts.ContentType})

		case websocket.TextMessage:
			var ev clientEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				log.Printf("Session %s: JSON unmarshal error: %v", s.id, err)
				s.OutputChannel <- output.NewError(s.id, "invalid message")
				continue
			}

			switch ev.Event {
			case "media":
				chunk, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
				if err != nil {
					log.Printf("Session %s: base64 decode error: %v", s.id, err)
					s.OutputChannel <- output.NewError(s.id, "invalid audio payload")
					continue
				}
				contentType := ev.Media.ContentType
				if contentType == "" {
					contentType = s.opts.ContentType
				}
				s.enqueue(model.AudioSlice{Data: chunk, ContentType: contentType})

			case "stop":
				log.Printf("Session %s: stop requested", s.id)
				return

			default:
				log.Printf("Session %s: unknown event: %s", s.id, ev.Event)
			}
		}
	}
}

func (s *Session) enqueue(audio model.AudioSlice) {
	if audio.Len() == 0 {
		return
	}
	if s.opts.MaxSliceBytes > 0 && audio.Len() > s.opts.MaxSliceBytes {
		s.OutputChannel <- output.NewError(s.id, fmt.Sprintf("audio slice of %d bytes exceeds limit of %d", audio.Len(), s.opts.MaxSliceBytes))
		return
	}
	s.worker.Enqueue(audio)
}
