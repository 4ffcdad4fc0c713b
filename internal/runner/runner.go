package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
	"github.com/unkn0wn-root/hurldeck/internal/telemetry"
	"github.com/unkn0wn-root/hurldeck/internal/util"
)

const (
	DefaultBinary    = "hurl"
	DefaultTimeout   = 30 * time.Second
	DefaultMaxOutput = 10 << 20 // per captured stream

	// waitDelay bounds how long Wait may keep copying output after the
	// process is gone. Without it an orphaned grandchild holding the
	// inherited pipes blocks Run past the timeout.
	waitDelay = 2 * time.Second
)

type Options struct {
	Binary    string
	Timeout   time.Duration
	MaxOutput int64
}

// Invocation describes one run of a request file. The variables and secrets
// files are both passed as --variables-file; they are separate on disk only
// so secrets can stay out of version control.
type Invocation struct {
	FilePath      string
	Environment   string
	VariablesFile string
	SecretsFile   string
}

// Result is the raw outcome of one invocation. Success means the process
// exited cleanly; a non-zero exit still carries whatever trace and output the
// process produced, since the runner exits non-zero precisely when assertions
// fail while still writing a full report.
type Result struct {
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
	Trace     *Trace        `json:"trace,omitempty"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	Err       string        `json:"error,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
}

type Runner struct {
	opts      Options
	telemetry telemetry.Instrumenter
}

func New(opts Options) *Runner {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = DefaultMaxOutput
	}
	return &Runner{opts: opts, telemetry: telemetry.Noop()}
}

// SetTelemetry configures the instrumenter used to emit spans per run.
// Passing nil restores the no-op implementation.
func (r *Runner) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	r.telemetry = instr
}

// Run executes the external runner on one file. It never returns an error:
// every failure mode (binary missing, timeout, output cap, non-zero exit)
// folds into the Result so the caller can always render something.
func (r *Runner) Run(ctx context.Context, inv Invocation) (res Result) {
	spanCtx, span := r.telemetry.Start(ctx, telemetry.RunStart{
		FilePath:    inv.FilePath,
		Environment: inv.Environment,
		Binary:      r.opts.Binary,
	})
	defer func() {
		status, failed := traceSummary(res.Trace)
		span.End(telemetry.RunResult{
			Success:       res.Success,
			Duration:      res.Duration,
			Truncated:     res.Truncated,
			StatusCode:    status,
			FailedAsserts: failed,
			Err:           errFromText(res.Err),
		})
	}()

	runCtx, cancel := context.WithTimeout(spanCtx, r.opts.Timeout)
	defer cancel()

	stdout := newCappedBuffer(r.opts.MaxOutput)
	stderr := newCappedBuffer(r.opts.MaxOutput)

	cmd := exec.CommandContext(runCtx, r.opts.Binary, r.buildArgs(inv)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res = Result{
		Duration:  time.Since(start),
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}
	res.Trace = DecodeTrace([]byte(res.Stdout))

	switch {
	case err == nil && !res.Truncated:
		res.Success = true
	case runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Err = errdef.New(
			errdef.CodeRunner,
			"runner timed out after %s",
			r.opts.Timeout,
		).Error()
	case res.Truncated:
		res.Err = errdef.New(
			errdef.CodeRunner,
			"runner output exceeded %d bytes",
			r.opts.MaxOutput,
		).Error()
	case errors.Is(err, exec.ErrWaitDelay):
		// clean exit, but something kept the pipes open past the grace
		// period; whatever output was copied before the abandon stands
		res.Success = true
	case isExitError(err):
		// assertion failures land here; the trace says what went wrong
	default:
		res.Err = errdef.Wrap(errdef.CodeRunner, err, "invoke %s", r.opts.Binary).Error()
	}
	return res
}

func (r *Runner) buildArgs(inv Invocation) []string {
	args := []string{"--json", "--verbose"}
	for _, vf := range util.DedupeNonEmptyStrings([]string{inv.VariablesFile, inv.SecretsFile}) {
		args = append(args, "--variables-file", vf)
	}
	return append(args, inv.FilePath)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func errFromText(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return errors.New(text)
}

// cappedBuffer accepts writes up to a fixed limit and drops the rest,
// remembering that it did. Killing the child on overflow would lose the
// trace; keeping the head of the output is more useful than either.
type cappedBuffer struct {
	limit     int64
	buf       strings.Builder
	truncated bool
}

func newCappedBuffer(limit int64) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - int64(b.buf.Len())
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string { return b.buf.String() }

func (b *cappedBuffer) Truncated() bool { return b.truncated }
