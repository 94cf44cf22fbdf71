package generate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrOutputMissing means the generator exited 0 without writing the output.
	ErrOutputMissing = errors.New("generator reported success but wrote no output")
	// ErrTimeout means the per-job timeout expired.
	ErrTimeout = errors.New("generator timed out")
)

// stderrTailLines bounds the diagnostic kept per failure.
const stderrTailLines = 20

// Pre-compiled regexes for naming common generator failures. Checked in
// order by Classify; the first match wins.
var (
	reOutOfMemory = regexp.MustCompile(
		`(?i)CUDA out of memory|OutOfMemoryError|CUBLAS_STATUS_ALLOC_FAILED`)

	reNoGPU = regexp.MustCompile(
		`(?i)no CUDA GPUs are available|CUDA driver|Torch not compiled with CUDA|` +
			`CUDA is not available|Found no NVIDIA driver`)

	reCheckpoint = regexp.MustCompile(
		`(?i)(FileNotFoundError|No such file).*\.(safetensors|pt|ckpt)|` +
			`safetensors.*(HeaderTooLarge|InvalidHeader|error)|` +
			`Error\(s\) in loading state_dict|checkpoint.*(not found|does not exist|failed)`)

	rePrompt = regexp.MustCompile(
		`(?i)MThd not found|Bad header|data byte must be in range|` +
			`(mido|midi).*(error|invalid)|EOFError`)

	reBadArgument = regexp.MustCompile(
		`(?i)argument --\w+: invalid|unrecognized arguments|invalid choice`)
)

// Failure categories returned by Classify.
const (
	HintOutOfMemory = "GPU out of memory"
	HintNoGPU       = "GPU unavailable"
	HintCheckpoint  = "checkpoint could not be loaded"
	HintPrompt      = "prompt MIDI unreadable"
	HintBadArgument = "generator rejected arguments"
)

// Classify names the likely cause of a generator failure from its stderr,
// or returns "" when nothing matches.
func Classify(stderr string) string {
	switch {
	case reOutOfMemory.MatchString(stderr):
		return HintOutOfMemory
	case reNoGPU.MatchString(stderr):
		return HintNoGPU
	case reBadArgument.MatchString(stderr):
		return HintBadArgument
	case rePrompt.MatchString(stderr):
		return HintPrompt
	case reCheckpoint.MatchString(stderr):
		return HintCheckpoint
	default:
		return ""
	}
}

// GenerationFailure describes one failed job. It is the Reason of a Failed
// outcome and never aborts the batch.
type GenerationFailure struct {
	Input    string
	ExitCode int    // -1 when the process did not exit normally.
	Hint     string // Classify result, may be empty.
	Stderr   string // Last stderrTailLines lines.
	Err      error
}

func (f *GenerationFailure) Error() string {
	var b strings.Builder
	b.WriteString(f.Err.Error())
	if f.Hint != "" {
		fmt.Fprintf(&b, " (%s)", f.Hint)
	}
	if last := lastLine(f.Stderr); last != "" {
		b.WriteString(": ")
		b.WriteString(last)
	}
	return b.String()
}

func (f *GenerationFailure) Unwrap() error { return f.Err }

// tail returns the last n lines of s, surrounding whitespace trimmed.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
