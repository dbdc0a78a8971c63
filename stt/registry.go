package stt

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

// Registry holds named transcription backends and transcribes with a primary
// backend, switching to the fallback when the primary fails. Transient errors
// are retried on the same backend first.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Transcriber
	primary  string
	fallback string

	retries     int
	backoffBase time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		backends:    make(map[string]Transcriber),
		backoffBase: time.Second,
	}
}

// Register adds a backend under its own name. The first registered backend
// becomes the primary.
func (r *Registry) Register(t Transcriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	r.backends[name] = t
	if r.primary == "" {
		r.primary = name
	}
}

func (r *Registry) SetFallback(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = name
}

// SetRetry sets how many times a retryable error is retried on the same
// backend, and the base of the exponential backoff between attempts.
func (r *Registry) SetRetry(retries int, backoffBase time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries = max(retries, 0)
	if backoffBase > 0 {
		r.backoffBase = backoffBase
	}
}

// Primary returns the primary backend, or nil if none is registered.
func (r *Registry) Primary() Transcriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backends[r.primary]
}

// Fallback returns the fallback backend, or nil if none is configured.
func (r *Registry) Fallback() Transcriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fallback == "" || r.fallback == r.primary {
		return nil
	}
	return r.backends[r.fallback]
}

// Backends returns the registered backend names in sorted order.
func (r *Registry) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Name() string {
	if p := r.Primary(); p != nil {
		return p.Name()
	}
	return "none"
}

// Transcribe tries the primary backend first and the fallback on any error.
func (r *Registry) Transcribe(ctx context.Context, audio model.AudioSlice, hints []DictionaryHint) (string, error) {
	primary := r.Primary()
	if primary == nil {
		return "", ErrNoBackend
	}

	text, err := r.transcribe(ctx, primary, audio, hints)
	if err == nil {
		return text, nil
	}

	fallback := r.Fallback()
	if fallback == nil || ctx.Err() != nil {
		return "", err
	}

	log.Printf("⚠️ %s transcription failed, falling back to %s: %v", primary.Name(), fallback.Name(), err)
	text, fbErr := r.transcribe(ctx, fallback, audio, hints)
	if fbErr != nil {
		return "", errors.Wrapf(fbErr, "primary %q failed (%v), fallback %q also failed", primary.Name(), err, fallback.Name())
	}
	return text, nil
}

// transcribe calls t, retrying errors that IsRetryable reports as transient.
func (r *Registry) transcribe(ctx context.Context, t Transcriber, audio model.AudioSlice, hints []DictionaryHint) (string, error) {
	r.mu.RLock()
	retries := r.retries
	r.mu.RUnlock()

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := r.backoff(attempt)
			log.Printf("🔁 %s transcription retry %d in %s: %v", t.Name(), attempt, backoff, lastErr)
			select {
			case <-ctx.Done():
				return "", lastErr
			case <-time.After(backoff):
			}
		}

		text, err := t.Transcribe(ctx, audio, hints)
		if err == nil {
			return text, nil
		}
		if !IsRetryable(err) {
			return "", err
		}
		lastErr = err
	}

	if retries == 0 {
		return "", lastErr
	}
	return "", errors.Wrapf(lastErr, "%s: all %d retries exhausted", t.Name(), retries)
}

// backoff doubles the base delay per attempt and adds up to 25% jitter.
func (r *Registry) backoff(attempt int) time.Duration {
	r.mu.RLock()
	delay := r.backoffBase
	r.mu.RUnlock()
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	return delay + jitter
}
