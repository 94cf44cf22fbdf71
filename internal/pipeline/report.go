package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/ariabatch/internal/display"
	"github.com/backmassage/ariabatch/internal/logging"
	"github.com/backmassage/ariabatch/internal/planner"
)

// FailureSink receives every failed outcome as it is recorded.
type FailureSink interface {
	CaptureFailure(runID string, o planner.Outcome)
}

// Failure identifies one failed input.
type Failure struct {
	Path   string
	Reason string
}

// Summary is the end-of-run tally.
type Summary struct {
	RunID     string
	Succeeded int
	Skipped   int
	Failed    int
	Planned   int
	// Failures lists failed inputs in the order they were observed.
	Failures []Failure
	// Interrupted is set when the run stopped early on cancellation.
	Interrupted bool
}

// Total is the number of recorded outcomes.
func (s Summary) Total() int { return s.Succeeded + s.Skipped + s.Failed + s.Planned }

// OK reports whether no job failed.
func (s Summary) OK() bool { return s.Failed == 0 }

// Reporter logs one line per outcome in the order outcomes arrive and
// accumulates the Summary. It has no influence on scheduling.
type Reporter struct {
	log     *logging.Logger
	root    string
	sink    FailureSink
	summary Summary
	bytes   int64
}

// NewReporter returns a Reporter for one run. root is used to shorten the
// paths it prints; sink may be nil.
func NewReporter(log *logging.Logger, runID, root string, sink FailureSink) *Reporter {
	return &Reporter{log: log, root: root, sink: sink, summary: Summary{RunID: runID}}
}

// Record logs o and adds it to the tally.
func (r *Reporter) Record(o planner.Outcome) {
	in, out := r.rel(o.Job.Input.Path), r.rel(o.Job.OutputPath)
	switch o.Status {
	case planner.StatusSucceeded:
		r.summary.Succeeded++
		r.bytes += o.OutputBytes
		r.log.Success("%s -> %s (%s, %s)", in, out,
			display.FormatDuration(o.Elapsed), display.FormatBytes(o.OutputBytes))
	case planner.StatusSkipped:
		r.summary.Skipped++
		if o.Reason == string(planner.SkipContinuation) {
			r.log.Debug("Skip (%s): %s", o.Reason, in)
		} else {
			r.log.Warn("Skip (%s): %s", o.Reason, out)
		}
	case planner.StatusPlanned:
		r.summary.Planned++
		r.log.Success("[DRY] Would generate %s -> %s", in, out)
	case planner.StatusFailed:
		r.summary.Failed++
		r.summary.Failures = append(r.summary.Failures, Failure{Path: o.Job.Input.Path, Reason: o.Reason})
		r.log.Error("Failed: %s -> %s (%s)", in, out, display.FormatDuration(o.Elapsed))
		r.log.Error("  %s", o.Reason)
		if r.sink != nil {
			r.sink.CaptureFailure(r.summary.RunID, o)
		}
	}
}

// Interrupted marks the run as stopped early.
func (r *Reporter) Interrupted() { r.summary.Interrupted = true }

// Summarize returns a copy of the tally so far.
func (r *Reporter) Summarize() Summary {
	s := r.summary
	s.Failures = append([]Failure(nil), r.summary.Failures...)
	return s
}

// OutputBytes is the total size of the continuations written this run.
func (r *Reporter) OutputBytes() int64 { return r.bytes }

func (r *Reporter) rel(path string) string {
	if r.root == "" {
		return path
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
