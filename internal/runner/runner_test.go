package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake runner scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-hurl")
	content := "#!/bin/sh\n" + script
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestBuildArgs(t *testing.T) {
	r := New(Options{})
	args := r.buildArgs(Invocation{
		FilePath:      "collections/users.hurl",
		VariablesFile: "environments/dev.env",
		SecretsFile:   "environments/dev.secret.env",
	})

	want := []string{
		"--json", "--verbose",
		"--variables-file", "environments/dev.env",
		"--variables-file", "environments/dev.secret.env",
		"collections/users.hurl",
	}
	if len(args) != len(want) {
		t.Fatalf("unexpected args: %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, args[i], want[i])
		}
	}
}

func TestBuildArgsWithoutEnvironment(t *testing.T) {
	r := New(Options{})
	args := r.buildArgs(Invocation{FilePath: "x.hurl"})
	if len(args) != 3 {
		t.Fatalf("unexpected args: %v", args)
	}
	for _, a := range args {
		if a == "--variables-file" {
			t.Fatalf("unexpected variables flag: %v", args)
		}
	}
}

func TestRunCleanExit(t *testing.T) {
	bin := fakeBinary(t, `printf '{"success":true,"entries":[{"calls":[{"response":{"status":200,"headers":[]}}],"asserts":[{"line":3,"success":true}]}]}'
printf '* Response body:\n* ok\n*\n' >&2
exit 0
`)
	r := New(Options{Binary: bin, Timeout: 5 * time.Second})
	res := r.Run(context.Background(), Invocation{FilePath: "x.hurl"})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Trace == nil || len(res.Trace.Entries) != 1 {
		t.Fatalf("expected decoded trace, got %+v", res.Trace)
	}
	if !strings.Contains(res.Stderr, "* Response body:") {
		t.Fatalf("expected stderr captured, got %q", res.Stderr)
	}
}

func TestRunNonZeroExitKeepsTrace(t *testing.T) {
	bin := fakeBinary(t, `printf '{"success":false,"entries":[{"calls":[],"asserts":[{"line":5,"success":false,"message":"boom"}]}]}'
exit 1
`)
	r := New(Options{Binary: bin, Timeout: 5 * time.Second})
	res := r.Run(context.Background(), Invocation{FilePath: "x.hurl"})

	if res.Success {
		t.Fatalf("expected failure result")
	}
	if res.Err != "" {
		t.Fatalf("non-zero exit is not an invocation error: %q", res.Err)
	}
	if res.Trace == nil {
		t.Fatalf("expected trace from failed run")
	}
}

func TestRunMissingBinary(t *testing.T) {
	r := New(Options{Binary: filepath.Join(t.TempDir(), "missing"), Timeout: time.Second})
	res := r.Run(context.Background(), Invocation{FilePath: "x.hurl"})

	if res.Success {
		t.Fatalf("expected failure for missing binary")
	}
	if res.Err == "" {
		t.Fatalf("expected invocation error text")
	}
	if res.Trace != nil {
		t.Fatalf("expected no trace, got %+v", res.Trace)
	}
}

func TestRunTimeout(t *testing.T) {
	bin := fakeBinary(t, "sleep 5\n")
	r := New(Options{Binary: bin, Timeout: 100 * time.Millisecond})

	start := time.Now()
	res := r.Run(context.Background(), Invocation{FilePath: "x.hurl"})
	if time.Since(start) > 3*time.Second {
		t.Fatalf("run did not stop at the timeout")
	}
	if res.Success {
		t.Fatalf("expected timeout failure")
	}
	if !strings.Contains(res.Err, "timed out") {
		t.Fatalf("expected timeout error, got %q", res.Err)
	}
}

func TestRunOrphanedChildDoesNotBlock(t *testing.T) {
	// the grandchild inherits the output pipes and outlives the shell;
	// Run must still return shortly after the process itself is done
	bin := fakeBinary(t, `sleep 30 &
printf '{"success":true,"entries":[]}'
exit 0
`)
	r := New(Options{Binary: bin, Timeout: 5 * time.Second})

	start := time.Now()
	res := r.Run(context.Background(), Invocation{FilePath: "x.hurl"})
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("run blocked on orphaned child for %s", elapsed)
	}
	if !res.Success {
		t.Fatalf("clean exit with abandoned pipes should succeed, got %+v", res)
	}
	if res.Err != "" {
		t.Fatalf("unexpected invocation error: %q", res.Err)
	}
	if res.Trace == nil {
		t.Fatalf("output written before exit should be captured")
	}
}

func TestRunOutputCap(t *testing.T) {
	bin := fakeBinary(t, `i=0
while [ $i -lt 2000 ]; do printf 'xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx\n'; i=$((i+1)); done
exit 0
`)
	r := New(Options{Binary: bin, Timeout: 5 * time.Second, MaxOutput: 1024})
	res := r.Run(context.Background(), Invocation{FilePath: "x.hurl"})

	if res.Success {
		t.Fatalf("expected truncation failure")
	}
	if !res.Truncated {
		t.Fatalf("expected truncated flag")
	}
	if len(res.Stdout) > 1024 {
		t.Fatalf("stdout exceeds cap: %d bytes", len(res.Stdout))
	}
}

func TestDecodeTraceTolerant(t *testing.T) {
	if DecodeTrace(nil) != nil {
		t.Fatalf("empty output must decode to nil")
	}
	if DecodeTrace([]byte("not json {")) != nil {
		t.Fatalf("invalid json must decode to nil")
	}

	trace := DecodeTrace([]byte(`{"success":true,"entries":[]}`))
	if trace == nil || !trace.Success {
		t.Fatalf("unexpected trace: %+v", trace)
	}
	if trace.LastEntry() != nil {
		t.Fatalf("expected nil last entry for empty entries")
	}
}

func TestCappedBuffer(t *testing.T) {
	buf := newCappedBuffer(4)
	if _, err := buf.Write([]byte("abcdef")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "abcd" {
		t.Fatalf("unexpected content %q", buf.String())
	}
	if !buf.Truncated() {
		t.Fatalf("expected truncation")
	}
}
