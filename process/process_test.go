package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/verbatim/process"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		cmd        process.Command
		wantErr    bool
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{name: "echo", cmd: process.Command{Binary: "echo", Args: []string{"hello", "world"}}, wantStdout: "hello world"},
		{name: "stdin", cmd: process.Command{Binary: "cat", Stdin: strings.NewReader("from stdin")}, wantStdout: "from stdin"},
		{name: "stderr", cmd: process.Command{Binary: "sh", Args: []string{"-c", "echo oops >&2"}}, wantStderr: "oops"},
		{name: "env", cmd: process.Command{Binary: "sh", Args: []string{"-c", "echo $VERBATIM_TEST_VAR"}, Env: []string{"VERBATIM_TEST_VAR=v1"}}, wantStdout: "v1"},
		{name: "exit code", cmd: process.Command{Binary: "sh", Args: []string{"-c", "exit 42"}}, wantErr: true, wantExit: 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := process.Run(context.Background(), tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if result.ExitCode != tt.wantExit {
				t.Errorf("exit code = %d, want %d", result.ExitCode, tt.wantExit)
			}
			if tt.wantStdout != "" && strings.TrimSpace(string(result.Stdout)) != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", result.Stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && strings.TrimSpace(string(result.Stderr)) != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", result.Stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunEmptyBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "killed by context") {
		t.Fatalf("err = %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := process.NewRunner("sleep", 100*time.Millisecond)
	r.GracePeriod = 200 * time.Millisecond
	if _, err := r.Run(context.Background(), "10"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestRunnerAvailable(t *testing.T) {
	if !process.NewRunner("sh", 0).Available() {
		t.Error("sh should be on PATH")
	}
	if process.NewRunner("definitely-not-a-binary-xyz", 0).Available() {
		t.Error("unexpected binary found")
	}
}

func TestStderrTail(t *testing.T) {
	r := &process.Result{Stderr: []byte("banner\nconfig\nline a\nInvalid data found\n")}
	if got := r.StderrTail(2); got != "line a\nInvalid data found" {
		t.Errorf("StderrTail = %q", got)
	}
	if got := r.StderrTail(10); !strings.HasPrefix(got, "banner") {
		t.Errorf("StderrTail(10) = %q", got)
	}
	var nilResult *process.Result
	if nilResult.StderrTail(3) != "" {
		t.Error("nil result should give empty tail")
	}
}
