//go:generate mockgen -destination=mock_stt/mock_stt.go -package=mock_stt github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt Transcriber

// Package stt wraps hosted speech-to-text APIs behind one Transcriber interface.
package stt

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

// DictionaryHint asks the provider to spell a spoken keyword a particular way.
type DictionaryHint struct {
	Keyword  string `json:"keyword"`
	Spelling string `json:"spelling"`
}

// Transcriber turns one audio slice into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio model.AudioSlice, hints []DictionaryHint) (string, error)
}

// BuildPrompt renders the instruction sent alongside the audio, listing the
// user's preferred spellings.
func BuildPrompt(hints []DictionaryHint) string {
	var b strings.Builder
	b.WriteString("Please transcribe the following audio accurately. ")

	if len(hints) > 0 {
		b.WriteString("Please use the following spellings for specific terms:\n")
		for _, h := range hints {
			fmt.Fprintf(&b, "- \"%s\" should be spelled as \"%s\"\n", h.Keyword, h.Spelling)
		}
		b.WriteString("\n")
	}

	b.WriteString("Provide a clear, well-formatted transcription with proper punctuation and capitalization.")
	return b.String()
}

// DefaultContentType is assumed for slices uploaded without a content type.
const DefaultContentType = "audio/webm"

// mediaType strips parameters such as ";codecs=opus" from a content type.
func mediaType(contentType string) string {
	if contentType == "" {
		return DefaultContentType
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		return DefaultContentType
	}
	return mt
}

// fileName picks an upload file name whose extension matches the audio format.
func fileName(contentType string) string {
	switch mediaType(contentType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "audio.wav"
	case "audio/ogg":
		return "audio.ogg"
	case "audio/mpeg", "audio/mp3":
		return "audio.mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "audio.m4a"
	case "audio/flac":
		return "audio.flac"
	default:
		return "audio.webm"
	}
}
