package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/output"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/queue"
)

// Transcriber turns one slice into the merged session transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, userID int64, sessionID string, audio model.AudioSlice) (*model.Transcription, error)
}

// Stats summarises the work done for one session.
type Stats struct {
	Slices       int
	Failed       int
	AudioBytes   int
	FirstResult  time.Duration
	Transcribing time.Duration
}

// TranscriptionWorker transcribes the slices of one dictation session strictly
// in arrival order and emits one event per slice on OutputChannel.
type TranscriptionWorker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	userID        int64
	sessionID     string
	service       Transcriber
	backlog       *queue.Queue[model.AudioSlice]
	wake          chan struct{}
	finish        chan struct{}
	finishOnce    sync.Once
	done          chan struct{}
	OutputChannel chan<- interface{}

	started time.Time
	mu      sync.Mutex
	stats   Stats
}

func NewTranscriptionWorker(ctx context.Context, userID int64, sessionID string, service Transcriber, outputChannel chan<- interface{}) (*TranscriptionWorker, error) {
	// Params Validation
	if service == nil {
		return nil, fmt.Errorf("transcription service is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if outputChannel == nil {
		return nil, fmt.Errorf("output channel is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	return &TranscriptionWorker{
		ctx:           ctx,
		cancel:        cancel,
		userID:        userID,
		sessionID:     sessionID,
		service:       service,
		backlog:       queue.New[model.AudioSlice](),
		wake:          make(chan struct{}, 1),
		finish:        make(chan struct{}),
		done:          make(chan struct{}),
		OutputChannel: outputChannel,
	}, nil
}

func (tw *TranscriptionWorker) Start() {
	tw.started = time.Now()
	go tw.process()
}

// Enqueue adds a slice to the backlog.
func (tw *TranscriptionWorker) Enqueue(audio model.AudioSlice) {
	tw.backlog.Enqueue(audio)
	select {
	case tw.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of slices waiting to be transcribed.
func (tw *TranscriptionWorker) Pending() int {
	return tw.backlog.Len()
}

// Finish tells the worker no more slices will arrive. The worker drains the
// backlog and then closes Done.
func (tw *TranscriptionWorker) Finish() {
	tw.finishOnce.Do(func() { close(tw.finish) })
}

// Stop abandons the backlog.
func (tw *TranscriptionWorker) Stop() {
	tw.cancel()
}

func (tw *TranscriptionWorker) Done() <-chan struct{} {
	return tw.done
}

func (tw *TranscriptionWorker) Stats() Stats {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.stats
}

func (tw *TranscriptionWorker) process() {
	defer close(tw.done)
	defer tw.cancel()

	for {
		if !tw.drain() {
			return
		}
		select {
		case <-tw.ctx.Done():
			log.Printf("TranscriptionWorker %s: canceled with %d slice(s) pending", tw.sessionID, tw.Pending())
			return
		case <-tw.wake:
		case <-tw.finish:
			tw.drain()
			return
		}
	}
}

// drain transcribes everything currently queued. It returns false once the
// worker has been canceled.
func (tw *TranscriptionWorker) drain() bool {
	for {
		if tw.ctx.Err() != nil {
			return false
		}
		audio, ok := tw.backlog.Dequeue()
		if !ok {
			return true
		}
		tw.transcribe(audio)
	}
}

func (tw *TranscriptionWorker) transcribe(audio model.AudioSlice) {
	start := time.Now()
	result, err := tw.service.Transcribe(tw.ctx, tw.userID, tw.sessionID, audio)
	elapsed := time.Since(start)

	tw.mu.Lock()
	tw.stats.Slices++
	tw.stats.AudioBytes += audio.Len()
	tw.stats.Transcribing += elapsed
	if err != nil {
		tw.stats.Failed++
	} else if tw.stats.FirstResult == 0 {
		tw.stats.FirstResult = time.Since(tw.started)
	}
	tw.mu.Unlock()

	if err != nil {
		log.Printf("❌ Session %s slice failed: %v", tw.sessionID, err)
		tw.OutputChannel <- output.NewError(tw.sessionID, err.Error())
		return
	}

	log.Printf("Got Transcription for session %s (%d chars)", tw.sessionID, len(result.Text))
	tw.OutputChannel <- output.NewTranscript(tw.sessionID, result.ID, result.Text, tw.Pending())
}
