package output

// Event names sent to dictation clients.
const (
	EventStart      = "start"
	EventTranscript = "transcript"
	EventError      = "error"
	EventStop       = "stop"
)

// StartEvent opens a dictation stream.
type StartEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
}

// TranscriptEvent carries the merged session text after one slice.
type TranscriptEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Pending   int    `json:"pending"`
}

// ErrorEvent reports a slice that could not be transcribed.
type ErrorEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	Error     string `json:"error"`
}

// StopEvent is the last message of a stream.
type StopEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	Slices    int    `json:"slices"`
	Failed    int    `json:"failed"`
}

func NewStart(sessionID string) StartEvent {
	return StartEvent{Event: EventStart, SessionID: sessionID}
}

func NewTranscript(sessionID string, id int64, text string, pending int) TranscriptEvent {
	return TranscriptEvent{Event: EventTranscript, SessionID: sessionID, ID: id, Text: text, Pending: pending}
}

func NewError(sessionID, msg string) ErrorEvent {
	return ErrorEvent{Event: EventError, SessionID: sessionID, Error: msg}
}

func NewStop(sessionID string, slices, failed int) StopEvent {
	return StopEvent{Event: EventStop, SessionID: sessionID, Slices: slices, Failed: failed}
}
