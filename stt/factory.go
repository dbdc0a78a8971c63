package stt

import (
	"fmt"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/config"
)

// New builds the transcriber for a single provider name.
func New(provider string, cfg config.STTConfig) (Transcriber, error) {
	switch provider {
	case config.ProviderOpenAI:
		return NewWhisperClient(WhisperOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		}), nil
	case config.ProviderDeepgram:
		return NewDeepgramClient(DeepgramOptions{
			APIKey:  cfg.Deepgram.APIKey,
			BaseURL: cfg.Deepgram.BaseURL,
			Model:   cfg.Deepgram.Model,
			Timeout: cfg.Deepgram.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", provider)
	}
}

// NewRegistryFromConfig registers the configured primary and fallback
// providers.
func NewRegistryFromConfig(cfg config.STTConfig) (*Registry, error) {
	reg := NewRegistry()
	reg.SetRetry(cfg.Retries, cfg.RetryBackoff)

	primary, err := New(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	reg.Register(primary)

	if cfg.Fallback != "" && cfg.Fallback != cfg.Provider {
		fallback, err := New(cfg.Fallback, cfg)
		if err != nil {
			return nil, err
		}
		reg.Register(fallback)
		reg.SetFallback(fallback.Name())
	}
	return reg, nil
}
