package stt

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

const (
	defaultDeepgramURL   = "https://api.deepgram.com"
	defaultDeepgramModel = "nova-2"
)

// listenResponse is the subset of the Deepgram pre-recorded response we read.
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type listenError struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// DeepgramClient transcribes audio with the Deepgram pre-recorded listen API.
type DeepgramClient struct {
	client   *fasthttp.Client
	apiKey   string
	endpoint string
	model    string
	timeout  time.Duration
}

// DeepgramOptions configures a DeepgramClient. Zero values select defaults.
type DeepgramOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewDeepgramClient(opts DeepgramOptions) *DeepgramClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultDeepgramURL
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = defaultDeepgramModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &DeepgramClient{
		client: &fasthttp.Client{
			Name:         "voice-keyboard",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		apiKey:   opts.APIKey,
		endpoint: base + "/v1/listen",
		model:    modelName,
		timeout:  timeout,
	}
}

func (dg *DeepgramClient) Name() string { return "deepgram" }

// listenURL builds the request URL. Hints become keyword boosts plus
// find-and-replace rules so the preferred spelling wins.
func (dg *DeepgramClient) listenURL(hints []DictionaryHint) string {
	q := url.Values{}
	q.Set("model", dg.model)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	for _, h := range hints {
		if h.Spelling == "" {
			continue
		}
		q.Add("keywords", h.Spelling)
		if h.Keyword != "" && h.Keyword != h.Spelling {
			q.Add("replace", h.Keyword+":"+h.Spelling)
		}
	}
	return dg.endpoint + "?" + q.Encode()
}

func (dg *DeepgramClient) Transcribe(ctx context.Context, audio model.AudioSlice, hints []DictionaryHint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Provider: dg.Name(), Kind: KindNetwork, Err: err}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(dg.listenURL(hints))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("Authorization", "Token "+dg.apiKey)
	req.Header.SetContentType(mediaType(audio.ContentType))
	req.SetBody(audio.Data)

	deadline := time.Now().Add(dg.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := dg.client.DoDeadline(req, resp, deadline); err != nil {
		return "", &Error{Provider: dg.Name(), Kind: KindNetwork, Err: err}
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK {
		return "", &Error{
			Provider:   dg.Name(),
			Kind:       kindForStatus(status),
			StatusCode: status,
			Err:        errors.New(errorMessage(resp.Body())),
		}
	}

	var parsed listenResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", &Error{Provider: dg.Name(), Kind: KindProvider, StatusCode: status, Err: errors.Wrap(err, "decode response")}
	}

	var text string
	if len(parsed.Results.Channels) > 0 && len(parsed.Results.Channels[0].Alternatives) > 0 {
		text = strings.TrimSpace(parsed.Results.Channels[0].Alternatives[0].Transcript)
	}

	log.Printf("🎙️ Deepgram transcribed %d bytes in %s (%d chars)", audio.Len(), time.Since(start).Round(time.Millisecond), len(text))
	return text, nil
}

func errorMessage(body []byte) string {
	var le listenError
	if err := json.Unmarshal(body, &le); err == nil && le.ErrMsg != "" {
		if le.ErrCode != "" {
			return le.ErrCode + ": " + le.ErrMsg
		}
		return le.ErrMsg
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty error response"
	}
	return msg
}
