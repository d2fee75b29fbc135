// Package google recognizes speech with the Google Speech-to-Text
// long-running REST API.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/httpclient/rest"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/recognition"
	"github.com/kbukum/verbatim/storage"
)

const (
	BackendName = "google"

	submitPath    = "/v1p1beta1/speech:longrunningrecognize"
	operationPath = "/v1p1beta1/operations/"
	gcsScheme     = "gs://"
)

// TokenSource supplies OAuth access tokens. *secret.TokenSource
// satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Recognizer submits one long-running operation per call and polls it.
type Recognizer struct {
	client       *rest.Client
	store        storage.Storage
	tokens       TokenSource
	timeout      time.Duration
	pollInterval time.Duration
	maxInline    int64
	log          *logger.Logger
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithTokenSource authenticates with tokens from ts. A rejected token is
// invalidated and the call is made once more with a fresh one.
func WithTokenSource(ts TokenSource) Option {
	return func(r *Recognizer) { r.tokens = ts }
}

// New creates a Recognizer. store resolves non-gs:// references whose
// content is sent inline; it may be nil when every reference is gs://.
func New(cfg recognition.Config, store storage.Storage, log *logger.Logger, opts ...Option) (*Recognizer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Recognizer{
		store:        store,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		maxInline:    cfg.Google.MaxInlineBytes,
		log:          log.WithComponent("recognition.google"),
	}
	for _, opt := range opts {
		opt(r)
	}

	hc := httpclient.Config{
		BaseURL: cfg.Google.BaseURL,
		Timeout: 5 * time.Minute,
		Retry:   httpclient.DefaultRetryConfig(),
	}
	switch {
	case r.tokens != nil:
		hc.Auth = httpclient.BearerTokenFunc(r.tokens.Token)
	case cfg.Google.AccessToken != "":
		hc.Auth = httpclient.BearerAuth(cfg.Google.AccessToken)
	case cfg.Google.APIKey != "":
		hc.Auth = httpclient.APIKeyAuthQuery(cfg.Google.APIKey, "key")
	}
	client, err := rest.New(hc)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	r.client = client
	return r, nil
}

func (r *Recognizer) Name() string { return BackendName }

// Recognize submits audioRef and waits for the operation to finish.
func (r *Recognizer) Recognize(ctx context.Context, audioRef string, opts recognition.Options) (*recognition.Result, error) {
	audio, err := r.audioFor(ctx, audioRef)
	if err != nil {
		var re *recognition.Error
		if errors.As(err, &re) {
			return nil, re
		}
		return nil, &recognition.Error{Backend: BackendName, Message: "audio could not be read", Err: err}
	}

	req := recognizeRequest{Config: buildConfig(opts), Audio: audio}
	resp, err := rest.Post[operation](ctx, r.client, submitPath, req)
	if err != nil && r.refreshToken(err) {
		resp, err = rest.Post[operation](ctx, r.client, submitPath, req)
	}
	if err != nil {
		return nil, r.callError("submit", resp, err)
	}
	if resp.Data.Name == "" {
		return nil, &recognition.Error{Backend: BackendName, Message: "operation name missing from submit response"}
	}
	r.log.Info("Recognition submitted", logger.Fields("operation", resp.Data.Name))

	op, err := r.wait(ctx, resp.Data.Name, &resp.Data)
	if err != nil {
		return nil, err
	}
	if op.Error != nil {
		return nil, &recognition.Error{Backend: BackendName, Message: op.Error.Message}
	}
	if op.Response == nil {
		return nil, &recognition.Error{Backend: BackendName, Message: "operation finished without a response"}
	}
	return toResult(op.Response, opts.Diarize), nil
}

// wait polls until the operation is done, ctx ends or the timeout passes.
func (r *Recognizer) wait(ctx context.Context, name string, first *operation) (*operation, error) {
	if first.Done {
		return first, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	path := operationPath + url.PathEscape(name)
	refreshed := false
	for {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &recognition.TimeoutError{Backend: BackendName, After: r.timeout, Err: waitCtx.Err()}
		case <-ticker.C:
		}

		resp, err := rest.Get[operation](waitCtx, r.client, path)
		if err != nil {
			if waitCtx.Err() != nil {
				continue
			}
			// One fresh token per rejection; a second 401 in a row is final.
			if !refreshed && r.refreshToken(err) {
				refreshed = true
				continue
			}
			return nil, r.callError("poll", resp, err)
		}
		refreshed = false
		if resp.Data.Done {
			return &resp.Data, nil
		}
		if p := resp.Data.Metadata.ProgressPercent; p > 0 {
			r.log.Debug("Recognition in progress", logger.Fields("operation", name, "progress", p))
		}
	}
}

// refreshToken invalidates the current token after an auth rejection and
// reports whether the call is worth repeating.
func (r *Recognizer) refreshToken(err error) bool {
	if r.tokens == nil || !httpclient.IsAuth(err) {
		return false
	}
	r.tokens.Invalidate()
	r.log.Warn("Access token rejected, resolving a fresh one")
	return true
}

// audioFor passes gs:// references through and inlines anything else, up
// to the inline limit. The size is checked before the object is read.
func (r *Recognizer) audioFor(ctx context.Context, ref string) (recognitionAudio, error) {
	if strings.HasPrefix(ref, gcsScheme) {
		return recognitionAudio{URI: ref}, nil
	}
	if r.store == nil {
		return recognitionAudio{}, errors.New("no storage configured for inline audio")
	}
	key, ok := storage.KeyOf(r.store, ref)
	if !ok {
		return recognitionAudio{}, fmt.Errorf("reference %q does not belong to the configured storage", ref)
	}

	// Largest raw size whose base64 encoding fits the limit.
	maxRaw := r.maxInline / 4 * 3
	if sizer, ok := r.store.(storage.Sizer); ok {
		n, err := sizer.Size(ctx, key)
		if err != nil {
			return recognitionAudio{}, err
		}
		if n > maxRaw {
			return recognitionAudio{}, r.tooLarge(n)
		}
	}

	rc, err := r.store.Download(ctx, key)
	if err != nil {
		return recognitionAudio{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxRaw+1))
	if err != nil {
		return recognitionAudio{}, err
	}
	if int64(len(data)) > maxRaw {
		return recognitionAudio{}, r.tooLarge(int64(len(data)))
	}
	return recognitionAudio{Content: base64.StdEncoding.EncodeToString(data)}, nil
}

func (r *Recognizer) tooLarge(size int64) *recognition.Error {
	return &recognition.Error{
		Backend: BackendName,
		Message: fmt.Sprintf("audio of %d bytes exceeds the %d byte inline request limit; use gcs storage so it is passed by gs:// reference",
			size, r.maxInline),
	}
}

func (r *Recognizer) callError(op string, resp *rest.Response[operation], err error) error {
	msg := op + " request failed"
	if resp != nil && resp.Data.Error != nil && resp.Data.Error.Message != "" {
		msg = resp.Data.Error.Message
	} else if httpclient.IsAuth(err) {
		msg = "credentials were rejected"
	}
	r.log.Warn("Recognition call failed", logger.Fields(logger.FieldOperation, op, logger.FieldError, err.Error()))
	return &recognition.Error{Backend: BackendName, Message: msg, Err: err}
}

func buildConfig(opts recognition.Options) recognitionConfig {
	cfg := recognitionConfig{
		Encoding:                   opts.Encoding,
		SampleRateHertz:            opts.SampleRate,
		AudioChannelCount:          opts.Channels,
		LanguageCode:               opts.Locale,
		Model:                      opts.Model,
		EnableAutomaticPunctuation: true,
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "FLAC"
	}
	if cfg.SampleRateHertz == 0 {
		cfg.SampleRateHertz = 16000
	}
	if cfg.AudioChannelCount == 0 {
		cfg.AudioChannelCount = 1
	}
	if opts.Diarize {
		cfg.DiarizationConfig = &diarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          opts.MinSpeakers,
			MaxSpeakerCount:          opts.MaxSpeakers,
		}
	}
	return cfg
}

// toResult keeps every result as a segment. With diarization on, the API
// repeats all words of the audio with speaker tags in the final result, so
// when that list is tagged it becomes the only word stream and earlier
// segments keep just their transcript.
func toResult(resp *recognizeResponse, diarize bool) *recognition.Result {
	out := &recognition.Result{Segments: make([]recognition.Segment, 0, len(resp.Results))}
	for _, res := range resp.Results {
		if out.Language == "" {
			out.Language = res.LanguageCode
		}
		if len(res.Alternatives) == 0 {
			continue
		}
		alt := res.Alternatives[0]
		out.Segments = append(out.Segments, recognition.Segment{
			Transcript: strings.TrimSpace(alt.Transcript),
			Words:      toWords(alt.Words),
		})
	}

	if !diarize || len(out.Segments) == 0 {
		return out
	}
	last := out.Segments[len(out.Segments)-1]
	if !anyTagged(last.Words) {
		return out
	}
	for i := range out.Segments[:len(out.Segments)-1] {
		out.Segments[i].Words = nil
	}
	return out
}

// toWords maps speakerTag 0 to untagged unless some word in the list is
// tagged, in which case it becomes UnknownSpeaker.
func toWords(in []wordInfo) []recognition.Word {
	if len(in) == 0 {
		return nil
	}
	tagged := false
	for _, w := range in {
		if w.SpeakerTag > 0 {
			tagged = true
			break
		}
	}
	words := make([]recognition.Word, len(in))
	for i, w := range in {
		words[i] = recognition.Word{Text: w.Word}
		switch {
		case w.SpeakerTag > 0:
			words[i].Speaker = recognition.Tag(w.SpeakerTag)
		case tagged:
			words[i].Speaker = recognition.Tag(recognition.UnknownSpeaker)
		}
	}
	return words
}

func anyTagged(words []recognition.Word) bool {
	for _, w := range words {
		if w.Speaker != nil && *w.Speaker != recognition.UnknownSpeaker {
			return true
		}
	}
	return false
}
