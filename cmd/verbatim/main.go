// Command verbatim runs the transcription service, or a single job from the
// command line.
//
//	verbatim serve [--config path] [--env path]
//	verbatim transcribe <file> [--format plain|markdown|docx] [--out path]
//	verbatim probe <file>
//	verbatim version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

const usage = `usage: verbatim <command> [flags]

commands:
  serve        run the HTTP service
  transcribe   transcribe one file and print or write the export
  probe        print ffprobe facts about a file as JSON
  version      print the build version
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code: 0 on
// success, 1 on failure, 2 on a usage error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var cmd func(context.Context, []string, io.Writer, io.Writer) error
	switch args[0] {
	case "serve":
		cmd = serve
	case "transcribe":
		cmd = transcribe
	case "probe":
		cmd = probe
	case "version":
		cmd = printVersion
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err := cmd(ctx, args[1:], stdout, stderr); err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			if ue.msg != "" {
				fmt.Fprintln(stderr, ue.msg)
			}
			return 2
		}
		fmt.Fprintf(stderr, "[error] %v\n", err)
		return 1
	}
	return 0
}
