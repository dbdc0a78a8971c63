package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/cache"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/store"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt/mock_stt"
)

type fixture struct {
	store       *store.Store
	cache       *cache.Memory
	transcriber *mock_stt.MockTranscriber
	svc         *Transcriptions
	userID      int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.Options{Path: filepath.Join(t.TempDir(), "svc.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.Migrate(ctx)
	require.NoError(t, err)

	u, err := st.CreateUser(ctx, "svc@example.com", "hash", "Service")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	tr := mock_stt.NewMockTranscriber(ctrl)
	tr.EXPECT().Name().Return("mock").AnyTimes()

	c := cache.NewMemory(time.Hour)
	return &fixture{
		store:       st,
		cache:       c,
		transcriber: tr,
		svc:         NewTranscriptions(st, tr, c, Options{MaxAudioBytes: 1024}),
		userID:      u.ID,
	}
}

func slice(data string) model.AudioSlice {
	return model.AudioSlice{Data: []byte(data), ContentType: "audio/webm"}
}

func TestTranscribe_RejectsBadAudio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transcribe(ctx, f.userID, "", model.AudioSlice{})
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = f.svc.Transcribe(ctx, f.userID, "", model.AudioSlice{Data: make([]byte, 2048)})
	assert.ErrorIs(t, err, ErrAudioTooLarge)
}

func TestTranscribe_WithoutSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.transcriber.EXPECT().Transcribe(gomock.Any(), slice("a"), []stt.DictionaryHint{}).Return("Just one note.", nil)

	got, err := f.svc.Transcribe(ctx, f.userID, "", slice("a"))
	require.NoError(t, err)
	assert.Equal(t, "Just one note.", got.Text)
	assert.Nil(t, got.Metadata.SessionID)
	assert.Zero(t, f.cache.Len())
}

func TestTranscribe_PassesDictionaryHints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateDictionaryEntry(ctx, f.userID, "kube", "Kubernetes")
	require.NoError(t, err)

	want := []stt.DictionaryHint{{Keyword: "kube", Spelling: "Kubernetes"}}
	f.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), want).Return("Deploy to Kubernetes", nil)

	got, err := f.svc.Transcribe(ctx, f.userID, "", slice("a"))
	require.NoError(t, err)
	assert.Equal(t, "Deploy to Kubernetes", got.Text)
}

func TestTranscribe_MergesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const session = "sess-1"

	gomock.InOrder(
		f.transcriber.EXPECT().Transcribe(gomock.Any(), slice("1"), gomock.Any()).Return("Hello world this is", nil),
		f.transcriber.EXPECT().Transcribe(gomock.Any(), slice("2"), gomock.Any()).Return("this is a test", nil),
		f.transcriber.EXPECT().Transcribe(gomock.Any(), slice("3"), gomock.Any()).Return("a test of the system", nil),
	)

	first, err := f.svc.Transcribe(ctx, f.userID, session, slice("1"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world this is", first.Text)
	require.NotNil(t, first.Metadata.SessionID)
	assert.Equal(t, session, *first.Metadata.SessionID)

	second, err := f.svc.Transcribe(ctx, f.userID, session, slice("2"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world this is a test", second.Text)

	third, err := f.svc.Transcribe(ctx, f.userID, session, slice("3"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world this is a test of the system", third.Text)

	cached, ok, err := f.cache.Get(ctx, f.userID, session)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, third.Text, cached)

	latest, err := f.store.LatestSessionTranscription(ctx, f.userID, session)
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)
}

func TestTranscribe_CacheMissFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateTranscription(ctx, f.userID, "sess", "The quick brown fox")
	require.NoError(t, err)

	f.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("brown fox jumps over", nil)

	got, err := f.svc.Transcribe(ctx, f.userID, "sess", slice("x"))
	require.NoError(t, err)
	assert.Equal(t, "The quick brown fox jumps over", got.Text)
}

func TestTranscribe_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.transcriber.EXPECT().Transcribe(gomock.Any(), slice("a"), gomock.Any()).Return("alpha words", nil)
	f.transcriber.EXPECT().Transcribe(gomock.Any(), slice("b"), gomock.Any()).Return("beta words", nil)

	_, err := f.svc.Transcribe(ctx, f.userID, "one", slice("a"))
	require.NoError(t, err)
	got, err := f.svc.Transcribe(ctx, f.userID, "two", slice("b"))
	require.NoError(t, err)
	assert.Equal(t, "beta words", got.Text)
}

func TestTranscribe_TranscriberError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sttErr := &stt.Error{Provider: "mock", Kind: stt.KindRateLimit, StatusCode: 429, Err: errors.New("slow down")}
	f.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).Return("", sttErr)

	_, err := f.svc.Transcribe(ctx, f.userID, "sess", slice("a"))
	require.Error(t, err)
	assert.Equal(t, stt.KindRateLimit, stt.KindOf(err))

	_, err = f.store.LatestSessionTranscription(ctx, f.userID, "sess")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTranscribe_ConcurrentSliceKeepsEveryWord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 12

	f.transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, audio model.AudioSlice, _ []stt.DictionaryHint) (string, error) {
			return "word" + string(audio.Data), nil
		}).Times(n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Transcribe(ctx, f.userID, "busy", slice(fmt.Sprint(i)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	latest, err := f.store.LatestSessionTranscription(ctx, f.userID, "busy")
	require.NoError(t, err)
	words := strings.Fields(latest.Text)
	assert.Len(t, words, n)
	for i := range n {
		assert.Contains(t, words, fmt.Sprintf("word%d", i))
	}
	assert.Zero(t, f.svc.locks.size())
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.Set(ctx, f.userID, "done", "text"))
	f.svc.EndSession(ctx, f.userID, "done")
	_, ok, err := f.cache.Get(ctx, f.userID, "done")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
		close(released)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked key")
	case <-time.After(50 * time.Millisecond):
	}

	unlockA()
	<-acquired
	<-released
	unlockB()
	assert.Zero(t, k.size())
}
