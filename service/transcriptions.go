// Package service runs one uploaded audio slice through transcription, merges
// it into the running session transcript and stores the result.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/cache"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/store"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/transcript"
)

var (
	ErrEmptyAudio    = errors.New("audio file is required")
	ErrAudioTooLarge = errors.New("audio file is too large")
)

// Store is the persistence the orchestrator needs.
type Store interface {
	DictionaryHints(ctx context.Context, userID int64) ([]stt.DictionaryHint, error)
	LatestSessionTranscription(ctx context.Context, userID int64, sessionID string) (*model.Transcription, error)
	CreateTranscription(ctx context.Context, userID int64, sessionID, text string) (*model.Transcription, error)
}

// Options tunes Transcriptions. A zero MaxAudioBytes disables the size check.
type Options struct {
	MaxAudioBytes int
}

// Transcriptions turns audio slices into stored, session-merged transcripts.
// It is safe for concurrent use.
type Transcriptions struct {
	store       Store
	transcriber stt.Transcriber
	cache       cache.SessionCache
	opts        Options
	locks       *keyedMutex
}

func NewTranscriptions(st Store, transcriber stt.Transcriber, sessions cache.SessionCache, opts Options) *Transcriptions {
	return &Transcriptions{
		store:       st,
		transcriber: transcriber,
		cache:       sessions,
		opts:        opts,
		locks:       newKeyedMutex(),
	}
}

// Transcribe transcribes audio for userID. With a sessionID the new text is
// merged onto the session's previous transcript before it is stored, and the
// stored row holds the full merged text.
func (s *Transcriptions) Transcribe(ctx context.Context, userID int64, sessionID string, audio model.AudioSlice) (*model.Transcription, error) {
	if audio.Len() == 0 {
		return nil, ErrEmptyAudio
	}
	if s.opts.MaxAudioBytes > 0 && audio.Len() > s.opts.MaxAudioBytes {
		return nil, errors.Wrapf(ErrAudioTooLarge, "%d bytes exceeds limit of %d", audio.Len(), s.opts.MaxAudioBytes)
	}

	hints, err := s.store.DictionaryHints(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load dictionary")
	}

	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, audio, hints)
	if err != nil {
		return nil, errors.Wrap(err, "transcribe audio")
	}
	log.Printf("📝 user %d slice transcribed by %s in %s", userID, s.transcriber.Name(), time.Since(start).Round(time.Millisecond))

	if sessionID == "" {
		return s.save(ctx, userID, "", text)
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d:%s", userID, sessionID))
	defer unlock()

	merged := text
	prev, found, err := s.previous(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if found {
		merged = transcript.MergeTranscriptions([]string{prev, text})
	}
	return s.save(ctx, userID, sessionID, merged)
}

// previous returns the latest merged text of a session, preferring the cache.
func (s *Transcriptions) previous(ctx context.Context, userID int64, sessionID string) (string, bool, error) {
	if s.cache != nil {
		text, ok, err := s.cache.Get(ctx, userID, sessionID)
		if err != nil {
			log.Printf("⚠️ session cache read failed, using store: %v", err)
		} else if ok {
			return text, true, nil
		}
	}

	t, err := s.store.LatestSessionTranscription(ctx, userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "load previous transcription")
	}
	return t.Text, true, nil
}

func (s *Transcriptions) save(ctx context.Context, userID int64, sessionID, text string) (*model.Transcription, error) {
	t, err := s.store.CreateTranscription(ctx, userID, sessionID, text)
	if err != nil {
		return nil, errors.Wrap(err, "save transcription")
	}

	if sessionID != "" && s.cache != nil {
		if err := s.cache.Set(ctx, userID, sessionID, text); err != nil {
			log.Printf("⚠️ session cache write failed: %v", err)
		}
	}
	return t, nil
}

// EndSession drops the cached transcript of a finished session.
func (s *Transcriptions) EndSession(ctx context.Context, userID int64, sessionID string) {
	if s.cache == nil || sessionID == "" {
		return
	}
	if err := s.cache.Delete(ctx, userID, sessionID); err != nil {
		log.Printf("⚠️ session cache delete failed: %v", err)
	}
}
