package planner

import (
	"time"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/corpus"
)

// Job binds one prompt file to its output path and the run's parameters. It
// is created by Plan, consumed once by the generator, then discarded.
type Job struct {
	Input      corpus.InputFile
	OutputPath string
	Run        config.RunConfig
}

// SkipReason explains why a file produced no job. Empty means "not skipped".
type SkipReason string

const (
	SkipContinuation SkipReason = "already a continuation"
	SkipExists       SkipReason = "continuation exists"
)

// Decision is the result of planning one file: either a Job or a skip.
type Decision struct {
	Job  Job
	Skip SkipReason
}

// Skipped reports whether the decision produced no job.
func (d Decision) Skipped() bool { return d.Skip != "" }

// Status is the final state of one file in a run.
type Status int

const (
	StatusSucceeded Status = iota
	StatusSkipped
	StatusFailed
	StatusPlanned // Dry run: the job would have been invoked.
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusPlanned:
		return "planned"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one file.
type Outcome struct {
	Job    Job
	Status Status
	// Reason is the skip reason or the failure diagnostic.
	Reason  string
	Elapsed time.Duration
	// OutputBytes is the size of the written continuation (Succeeded only).
	OutputBytes int64
}

// SkippedOutcome converts a skip decision into its Outcome.
func SkippedOutcome(d Decision) Outcome {
	return Outcome{Job: d.Job, Status: StatusSkipped, Reason: string(d.Skip)}
}
