// Package audio converts uploaded recordings into the single canonical form
// the recognizers accept: mono, 16 kHz, losslessly encoded.
package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/process"
	"github.com/kbukum/verbatim/storage"
)

// commandRunner runs one external tool. *process.Runner satisfies it.
type commandRunner interface {
	Run(ctx context.Context, args ...string) (*process.Result, error)
}

// Normalizer downloads a stored recording, converts it with ffmpeg and
// stores the result.
type Normalizer struct {
	cfg     Config
	store   storage.Storage
	ffmpeg  commandRunner
	ffprobe commandRunner
	log     *logger.Logger
}

// NewNormalizer creates a Normalizer backed by the ffmpeg and ffprobe
// binaries named in cfg.
func NewNormalizer(cfg Config, store storage.Storage, log *logger.Logger) *Normalizer {
	cfg.ApplyDefaults()
	return &Normalizer{
		cfg:     cfg,
		store:   store,
		ffmpeg:  process.NewRunner(cfg.FFmpegPath, cfg.Timeout),
		ffprobe: process.NewRunner(cfg.FFprobePath, cfg.Timeout),
		log:     log.WithComponent("audio"),
	}
}

// CheckFormat applies the extension policy to filename.
func (n *Normalizer) CheckFormat(filename string) error {
	return CheckFormat(n.cfg, filename)
}

// CheckFormat applies cfg's deny and allow lists to filename.
func CheckFormat(cfg Config, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if slices.Contains(cfg.DenyExtensions, ext) {
		return &UnsupportedFormatError{Extension: ext}
	}
	if len(cfg.AllowExtensions) > 0 && !slices.Contains(cfg.AllowExtensions, ext) {
		return &UnsupportedFormatError{Extension: ext}
	}
	return nil
}

// Normalize converts the object at sourceKey and stores it at destKey,
// returning the stored reference. Scratch files are removed on every path.
func (n *Normalizer) Normalize(ctx context.Context, sourceKey, destKey string) (string, error) {
	if err := n.CheckFormat(sourceKey); err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp(n.cfg.TempDir, "verbatim-normalize-*")
	if err != nil {
		return "", fmt.Errorf("audio: create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			n.log.Warn("Scratch cleanup failed", logger.Fields("dir", workDir, logger.FieldError, err.Error()))
		}
	}()

	inPath := filepath.Join(workDir, "input"+strings.ToLower(filepath.Ext(sourceKey)))
	if err := n.fetch(ctx, sourceKey, inPath); err != nil {
		return "", err
	}

	if n.log.IsDebug() {
		if info, err := n.probe(ctx, inPath); err == nil {
			n.log.Debug("Input probed", logger.Fields(
				"source", sourceKey, "format", info.Format, "codec", info.Codec,
				"sample_rate", info.SampleRate, "channels", info.Channels,
			))
		}
	}

	outPath := filepath.Join(workDir, "normalized"+n.cfg.Extension())
	if err := n.convert(ctx, inPath, outPath); err != nil {
		return "", err
	}

	if err := n.put(ctx, outPath, destKey); err != nil {
		return "", err
	}
	return n.store.Ref(destKey), nil
}

func (n *Normalizer) fetch(ctx context.Context, key, path string) error {
	rc, err := n.store.Download(ctx, key)
	if err != nil {
		return &ConversionError{Message: "source audio is not readable", Err: err}
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create scratch file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return &ConversionError{Message: "source audio could not be downloaded", Err: err}
	}
	return nil
}

// Args returns the ffmpeg arguments for one conversion.
func (n *Normalizer) Args(inPath, outPath string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", inPath,
		"-vn",
		"-ac", strconv.Itoa(n.cfg.Channels),
		"-ar", strconv.Itoa(n.cfg.SampleRate),
		"-sample_fmt", "s16",
		"-c:a", n.cfg.Codec,
		outPath,
	}
}

func (n *Normalizer) convert(ctx context.Context, inPath, outPath string) error {
	res, err := n.ffmpeg.Run(ctx, n.Args(inPath, outPath)...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := res.StderrTail(5)
		exitCode := -1
		if res != nil {
			exitCode = res.ExitCode
		}
		n.log.Warn("ffmpeg failed", logger.Fields("exit_code", exitCode, "stderr", detail))
		return &ConversionError{Message: "the audio file could not be decoded", Detail: detail, Err: err}
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return &ConversionError{Message: "converter produced no output", Err: err}
	}
	return nil
}

func (n *Normalizer) put(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("audio: open converted file: %w", err)
	}
	defer f.Close()

	if err := n.store.Upload(ctx, key, f); err != nil {
		return fmt.Errorf("audio: store normalized audio: %w", err)
	}
	return nil
}
