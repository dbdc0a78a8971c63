package model

import "time"

// AudioSlice is one time-sliced chunk of recorded audio uploaded by a client.
type AudioSlice struct {
	Data        []byte
	ContentType string
}

// Len returns the payload size in bytes.
func (a AudioSlice) Len() int {
	return len(a.Data)
}

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DictionaryEntry tells the transcriber how a spoken keyword should be spelled.
type DictionaryEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Keyword   string    `json:"keyword"`
	Spelling  string    `json:"spelling"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TranscriptionMetadata is stored alongside every transcription as JSON.
type TranscriptionMetadata struct {
	SessionID *string `json:"sessionId"`
}

// Transcription is one stored transcript. Within a dictation session each row
// holds the merged text of every slice recorded so far.
type Transcription struct {
	ID        int64                 `json:"id"`
	UserID    int64                 `json:"-"`
	Text      string                `json:"text"`
	SessionID string                `json:"-"`
	Metadata  TranscriptionMetadata `json:"metadata"`
	CreatedAt time.Time             `json:"created_at"`
}
