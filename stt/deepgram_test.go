package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

func TestDeepgramClient_ListenURL(t *testing.T) {
	dg := NewDeepgramClient(DeepgramOptions{APIKey: "k", BaseURL: "https://dg.example/"})
	raw := dg.listenURL([]DictionaryHint{
		{Keyword: "kube", Spelling: "Kubernetes"},
		{Keyword: "Go", Spelling: "Go"},
		{Keyword: "blank", Spelling: ""},
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "dg.example", u.Host)
	assert.Equal(t, "/v1/listen", u.Path)

	q := u.Query()
	assert.Equal(t, "nova-2", q.Get("model"))
	assert.Equal(t, "true", q.Get("smart_format"))
	assert.Equal(t, "true", q.Get("punctuate"))
	assert.Equal(t, []string{"Kubernetes", "Go"}, q["keywords"])
	assert.Equal(t, []string{"kube:Kubernetes"}, q["replace"])
}

func TestDeepgramClient_Transcribe(t *testing.T) {
	var gotMethod, gotAuth, gotType, gotModel string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotModel = r.URL.Query().Get("model")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":" Hello from Deepgram. ","confidence":0.98}]}]}}`))
	}))
	defer srv.Close()

	dg := NewDeepgramClient(DeepgramOptions{APIKey: "dg-key", BaseURL: srv.URL, Timeout: 5 * time.Second})
	text, err := dg.Transcribe(context.Background(), model.AudioSlice{Data: []byte("opus"), ContentType: "audio/webm;codecs=opus"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello from Deepgram.", text)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Token dg-key", gotAuth)
	assert.Equal(t, "audio/webm", gotType)
	assert.Equal(t, "nova-2", gotModel)
	assert.Equal(t, []byte("opus"), gotBody)
}

func TestDeepgramClient_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	dg := NewDeepgramClient(DeepgramOptions{APIKey: "k", BaseURL: srv.URL})
	text, err := dg.Transcribe(context.Background(), model.AudioSlice{Data: []byte("x")}, nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDeepgramClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{"auth", http.StatusUnauthorized, `{"err_code":"INVALID_AUTH","err_msg":"Invalid credentials."}`, KindAuth, "INVALID_AUTH: Invalid credentials."},
		{"rate limit", http.StatusTooManyRequests, `{"err_msg":"slow down"}`, KindRateLimit, "slow down"},
		{"server", http.StatusBadGateway, `upstream down`, KindProvider, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			dg := NewDeepgramClient(DeepgramOptions{APIKey: "k", BaseURL: srv.URL})
			_, err := dg.Transcribe(context.Background(), model.AudioSlice{Data: []byte("x")}, nil)

			var sttErr *Error
			require.ErrorAs(t, err, &sttErr)
			assert.Equal(t, tt.wantKind, sttErr.Kind)
			assert.Equal(t, tt.status, sttErr.StatusCode)
			assert.Contains(t, sttErr.Error(), tt.wantMsg)
		})
	}
}

func TestDeepgramClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	dg := NewDeepgramClient(DeepgramOptions{APIKey: "k", BaseURL: srv.URL})
	_, err := dg.Transcribe(context.Background(), model.AudioSlice{Data: []byte("x")}, nil)
	assert.Equal(t, KindProvider, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestDeepgramClient_CanceledContext(t *testing.T) {
	dg := NewDeepgramClient(DeepgramOptions{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dg.Transcribe(ctx, model.AudioSlice{Data: []byte("x")}, nil)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}
