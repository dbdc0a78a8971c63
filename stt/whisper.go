package stt

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

// WhisperClient transcribes audio with the OpenAI transcription endpoint.
type WhisperClient struct {
	client *openai.Client
	model  string
}

// WhisperOptions configures a WhisperClient. Zero values select defaults.
type WhisperOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewWhisperClient creates a client for the OpenAI audio API.
func NewWhisperClient(opts WhisperOptions) *WhisperClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	modelName := opts.Model
	if modelName == "" {
		modelName = openai.Whisper1
	}

	return &WhisperClient{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

func (w *WhisperClient) Name() string { return "openai" }

func (w *WhisperClient) Transcribe(ctx context.Context, audio model.AudioSlice, hints []DictionaryHint) (string, error) {
	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: fileName(audio.ContentType),
		Reader:   bytes.NewReader(audio.Data),
		Prompt:   BuildPrompt(hints),
		Format:   openai.AudioResponseFormatText,
	}

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", w.wrapError(err)
	}

	text := strings.TrimSpace(resp.Text)
	log.Printf("🎙️ Whisper transcribed %d bytes in %s (%d chars)", audio.Len(), time.Since(start).Round(time.Millisecond), len(text))
	return text, nil
}

func (w *WhisperClient) wrapError(err error) error {
	sttErr := &Error{Provider: w.Name(), Kind: KindProvider, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		sttErr.StatusCode = apiErr.HTTPStatusCode
		sttErr.Kind = kindForStatus(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		sttErr.StatusCode = reqErr.HTTPStatusCode
		sttErr.Kind = kindForStatus(reqErr.HTTPStatusCode)
	case isNetworkError(err):
		sttErr.Kind = KindNetwork
	}
	return sttErr
}
