package generate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/naming"
	"github.com/backmassage/ariabatch/internal/planner"
)

// waitDelay bounds how long Execute waits for output pipes after the
// generator was killed.
const waitDelay = 5 * time.Second

// ExecResult holds the outcome of a single generator process.
type ExecResult struct {
	Stderr   string
	ExitCode int
	Err      error
}

// Invoker runs jobs through the external generator. It holds no per-job
// state; Invoke may be called for any number of jobs, one at a time.
type Invoker struct {
	Gen config.GeneratorConfig
	// Verbose streams generator stdout/stderr to Stdout/Stderr while it runs.
	// Stderr is captured for diagnostics either way.
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	// BaseEnv supplies the environment Environ pins values into.
	BaseEnv func() []string
}

// NewInvoker returns an Invoker configured from cfg.
func NewInvoker(cfg *config.Config) *Invoker {
	return &Invoker{
		Gen:     cfg.Generator,
		Verbose: cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		BaseEnv: os.Environ,
	}
}

// Invoke runs the generator once for job and blocks until it exits. The
// generator writes to a hidden partial path beside the output, which is
// renamed onto job.OutputPath only when the process exits 0 and the partial
// file exists. Any other result is Failed with a *GenerationFailure reason;
// the partial file is removed and an earlier continuation at OutputPath is
// left untouched.
func (inv *Invoker) Invoke(ctx context.Context, job planner.Job) planner.Outcome {
	if inv.Gen.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Gen.Timeout)
		defer cancel()
	}

	partial := job
	partial.OutputPath = naming.PartialPath(job.OutputPath, strconv.Itoa(os.Getpid()))
	defer os.Remove(partial.OutputPath)

	start := time.Now()
	res := inv.Execute(ctx, Build(inv.Gen, partial), Environ(job.Run, inv.baseEnv()))
	out := planner.Outcome{Job: job, Elapsed: time.Since(start)}

	if res.Err != nil {
		err := res.Err
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return failed(out, &GenerationFailure{
			Input:    job.Input.Path,
			ExitCode: res.ExitCode,
			Hint:     Classify(res.Stderr),
			Stderr:   tail(res.Stderr, stderrTailLines),
			Err:      err,
		})
	}

	fi, err := os.Stat(partial.OutputPath)
	if err != nil {
		return failed(out, &GenerationFailure{
			Input:  job.Input.Path,
			Stderr: tail(res.Stderr, stderrTailLines),
			Err:    ErrOutputMissing,
		})
	}
	if err := os.Rename(partial.OutputPath, job.OutputPath); err != nil {
		return failed(out, &GenerationFailure{Input: job.Input.Path, Err: err})
	}

	out.Status = planner.StatusSucceeded
	out.OutputBytes = fi.Size()
	return out
}

func failed(out planner.Outcome, f *GenerationFailure) planner.Outcome {
	out.Status = planner.StatusFailed
	out.Reason = f.Error()
	return out
}

// Execute runs args[0] with args[1:] and env. When verbose, stdout and
// stderr are tee'd to the invoker's writers in real time; stderr is always
// captured for classification.
func (inv *Invoker) Execute(ctx context.Context, args, env []string) ExecResult {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = env
	cmd.WaitDelay = waitDelay
	killGroup(cmd)

	var stderrBuf bytes.Buffer
	if inv.Verbose {
		cmd.Stdout = writerOrDiscard(inv.Stdout)
		cmd.Stderr = io.MultiWriter(&stderrBuf, writerOrDiscard(inv.Stderr))
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	res := ExecResult{Stderr: stderrBuf.String(), Err: err}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res
}

func (inv *Invoker) baseEnv() []string {
	if inv.BaseEnv == nil {
		return os.Environ()
	}
	return inv.BaseEnv()
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
