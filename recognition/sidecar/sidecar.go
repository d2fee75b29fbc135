// Package sidecar recognizes speech with two self-hosted HTTP services: a
// whisper transcriber and a pyannote diarizer. Their answers are merged by
// time overlap into one recognition.Result.
package sidecar

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/recognition"
	"github.com/kbukum/verbatim/storage"
)

const BackendName = "sidecar"

// Recognizer calls whisper, then pyannote when diarization is requested.
type Recognizer struct {
	whisper  *httpclient.Client
	pyannote *httpclient.Client
	store    storage.Storage
	timeout  time.Duration
	log      *logger.Logger
}

// New creates a Recognizer reading audio from store.
func New(cfg recognition.Config, store storage.Storage, log *logger.Logger) (*Recognizer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	whisper, err := httpclient.New(httpclient.Config{BaseURL: cfg.Sidecar.WhisperURL, Timeout: cfg.Timeout, TLS: cfg.Sidecar.TLS})
	if err != nil {
		return nil, fmt.Errorf("sidecar: whisper client: %w", err)
	}
	pyannote, err := httpclient.New(httpclient.Config{BaseURL: cfg.Sidecar.PyannoteURL, Timeout: cfg.Timeout, TLS: cfg.Sidecar.TLS})
	if err != nil {
		return nil, fmt.Errorf("sidecar: pyannote client: %w", err)
	}
	return &Recognizer{
		whisper:  whisper,
		pyannote: pyannote,
		store:    store,
		timeout:  cfg.Timeout,
		log:      log.WithComponent("recognition.sidecar"),
	}, nil
}

func (r *Recognizer) Name() string { return BackendName }

// Recognize transcribes audioRef. A diarizer failure degrades to an
// undiarized result instead of failing the call.
func (r *Recognizer) Recognize(ctx context.Context, audioRef string, opts recognition.Options) (*recognition.Result, error) {
	key, ok := storage.KeyOf(r.store, audioRef)
	if !ok {
		return nil, &recognition.Error{Backend: BackendName, Message: "audio reference does not belong to the configured storage"}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tr whisperResponse
	if err := r.post(callCtx, r.whisper, "/transcribe", key, whisperFields(opts), &tr); err != nil {
		return nil, r.wrap(ctx, callCtx, "transcription", err)
	}
	result := &recognition.Result{Language: tr.Language}

	if !opts.Diarize || len(tr.Segments) == 0 {
		result.Segments = plainSegments(tr)
		return result, nil
	}

	var dr pyannoteResponse
	err := r.post(callCtx, r.pyannote, "/diarize", key, pyannoteFields(opts), &dr)
	if err == nil && dr.Error != "" {
		err = errors.New(dr.Error)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("Diarization unavailable, keeping plain transcript", logger.Fields(logger.FieldError, err.Error()))
		result.Segments = plainSegments(tr)
		return result, nil
	}

	result.Segments = merge(tr.Segments, dr.Segments)
	return result, nil
}

func (r *Recognizer) post(ctx context.Context, client *httpclient.Client, endpoint, key string, fields map[string]string, out any) error {
	rc, err := r.store.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	body := &httpclient.MultipartBody{
		Fields: fields,
		Files: []httpclient.FileField{{
			FieldName: "audio",
			FileName:  path.Base(key),
			Reader:    rc,
		}},
	}
	resp, err := client.Do(ctx, httpclient.Request{Method: "POST", Path: endpoint, Body: body})
	if err != nil {
		return err
	}
	return decode(resp.Body, out)
}

func (r *Recognizer) wrap(parent, callCtx context.Context, stage string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &recognition.TimeoutError{Backend: BackendName, After: r.timeout, Err: err}
	}
	r.log.Warn("Sidecar call failed", logger.Fields(logger.FieldStage, stage, logger.FieldError, err.Error()))
	return &recognition.Error{Backend: BackendName, Message: stage + " service failed", Err: err}
}

func whisperFields(opts recognition.Options) map[string]string {
	fields := map[string]string{}
	if lang, _, _ := strings.Cut(opts.Locale, "-"); lang != "" {
		fields["language"] = strings.ToLower(lang)
	}
	return fields
}

func pyannoteFields(opts recognition.Options) map[string]string {
	fields := map[string]string{}
	if opts.MinSpeakers > 0 {
		fields["min_speakers"] = strconv.Itoa(opts.MinSpeakers)
	}
	if opts.MaxSpeakers > 0 {
		fields["max_speakers"] = strconv.Itoa(opts.MaxSpeakers)
	}
	return fields
}
