package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/verbatim/app"
	"github.com/kbukum/verbatim/audio"
	"github.com/kbukum/verbatim/bootstrap"
	"github.com/kbukum/verbatim/export"
	"github.com/kbukum/verbatim/job"
	"github.com/kbukum/verbatim/logger"
	"github.com/kbukum/verbatim/version"
)

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return &usageError{msg: fmt.Sprintf(format, a...)}
}

type configPaths struct {
	config string
	env    string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *configPaths) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var p configPaths
	fs.StringVar(&p.config, "config", "", "config file (default: discovered config.yml)")
	fs.StringVar(&p.env, "env", "", "dotenv file (default: discovered .env)")
	return fs, &p
}

// parseArgs parses flags that may appear before or after positional
// arguments, and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, usagef("")
			}
			return nil, usagef("%s: %v", fs.Name(), err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func serve(ctx context.Context, args []string, _, stderr io.Writer) error {
	fs, paths := newFlagSet("serve", stderr)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usagef("serve takes no arguments")
	}

	cfg, err := app.Load(paths.config, paths.env)
	if err != nil {
		return err
	}
	a, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	svc, err := app.Wire(ctx, cfg, a.Components, a.Logger, app.WithEvents())
	if err != nil {
		return err
	}
	if _, err := svc.HTTP(a.Components); err != nil {
		return err
	}
	return a.Run(ctx)
}

func transcribe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, paths := newFlagSet("transcribe", stderr)
	formatName := fs.String("format", string(export.Plain), "export format: plain, markdown or docx")
	out := fs.String("out", "", "write the export here instead of stdout")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return usagef("usage: verbatim transcribe <file> [--format plain|markdown|docx] [--out path]")
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return usagef("%v", err)
	}
	if *out == "" && format == export.DOCX {
		return usagef("docx output needs --out")
	}

	cfg, err := app.Load(paths.config, paths.env)
	if err != nil {
		return err
	}
	// stdout may carry the transcript.
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	a, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	svc, err := app.Wire(ctx, cfg, a.Components, a.Logger)
	if err != nil {
		return err
	}

	return a.RunTask(ctx, func(ctx context.Context) error {
		doc, err := transcribeFile(ctx, svc.Jobs, rest[0])
		if err != nil {
			return err
		}
		body, err := export.Render(doc, format)
		if err != nil {
			return err
		}
		if *out == "" {
			_, err = stdout.Write(body)
			return err
		}
		if err := os.WriteFile(*out, body, 0o644); err != nil {
			return err
		}
		a.Logger.Info("Export written", logger.Fields("path", *out, logger.FieldFormat, string(format)))
		return nil
	})
}

type jobRunner interface {
	Submit(ctx context.Context, filename string, r io.Reader) (job.Job, error)
	Wait(ctx context.Context, id string) (job.Job, error)
}

// transcribeFile submits path as one job and returns its document.
func transcribeFile(ctx context.Context, jobs jobRunner, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	j, err := jobs.Submit(ctx, filepath.Base(path), f)
	f.Close()
	if err != nil {
		return "", err
	}

	j, err = jobs.Wait(ctx, j.ID)
	if err != nil {
		return "", err
	}
	if j.Status == job.StatusFailed {
		return "", fmt.Errorf("job %s failed: %s", j.ID, j.Error)
	}
	return j.Result, nil
}

func probe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, paths := newFlagSet("probe", stderr)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return usagef("usage: verbatim probe <file>")
	}

	cfg, err := app.Load(paths.config, paths.env)
	if err != nil {
		return err
	}
	cfg.ApplyDefaults()
	cfg.Logging.Output = "stderr"
	log := logger.New(&cfg.Logging, cfg.Name)

	info, err := audio.NewNormalizer(cfg.Audio, nil, log).Probe(ctx, rest[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func printVersion(_ context.Context, args []string, stdout, _ io.Writer) error {
	if len(args) > 0 {
		return usagef("version takes no arguments")
	}
	_, err := fmt.Fprintln(stdout, strings.TrimSpace(app.ServiceName+" "+version.Get().String()))
	return err
}
