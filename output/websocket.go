package output

import (
	"fmt"
	"log"
)

// JSONWriter is the part of a websocket connection the output needs.
type JSONWriter interface {
	WriteJSON(v interface{}) error
}

// WebsocketOutput is the only writer of a dictation connection. It forwards
// every event from its channel as one JSON text frame until the channel is
// closed.
type WebsocketOutput struct {
	OutputChannel <-chan interface{}
	sessionID     string
	ws            JSONWriter
	done          chan struct{}
	failed        bool
}

func NewWebsocketOutput(sessionID string, ws JSONWriter, outputChannel <-chan interface{}) (*WebsocketOutput, error) {
	if outputChannel == nil {
		return nil, fmt.Errorf("output channel is required")
	}
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	return &WebsocketOutput{
		OutputChannel: outputChannel,
		sessionID:     sessionID,
		ws:            ws,
		done:          make(chan struct{}),
	}, nil
}

func (o *WebsocketOutput) Start() {
	go func() {
		defer close(o.done)
		for event := range o.OutputChannel {
			o.send(event)
		}
	}()
}

// send writes one event. After the first failed write the connection is
// assumed gone and later events are dropped so senders never block.
func (o *WebsocketOutput) send(event interface{}) {
	if o.failed {
		return
	}
	if err := o.ws.WriteJSON(event); err != nil {
		o.failed = true
		log.Printf("❌ Session %s write error: %v", o.sessionID, err)
	}
}

// Done is closed once the channel is drained and closed.
func (o *WebsocketOutput) Done() <-chan struct{} {
	return o.done
}
