// Package telemetry forwards generation failures to Sentry when a DSN is
// configured. A nil *Sink is valid and drops everything.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/backmassage/ariabatch/internal/planner"
)

const flushTimeout = 2 * time.Second

const environmentProduction = "production"

// Options configures the Sentry client.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Sink reports failed jobs as Sentry events on its own hub.
type Sink struct {
	hub *sentry.Hub
}

// New returns nil, nil when opts.DSN is empty.
func New(opts Options) (*Sink, error) {
	if opts.DSN == "" {
		return nil, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     "ariabatch@" + opts.Release,
		Debug:       opts.Environment != environmentProduction,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: init sentry: %w", err)
	}
	return newSink(client), nil
}

func newSink(client *sentry.Client) *Sink {
	return &Sink{hub: sentry.NewHub(client, sentry.NewScope())}
}

// JobFailure is the error value captured for a failed job.
type JobFailure struct {
	Input  string
	Reason string
}

func (e *JobFailure) Error() string {
	return fmt.Sprintf("generation failed for %s: %s", e.Input, e.Reason)
}

// CaptureFailure sends one event for a failed outcome, tagged with the run ID
// and the run's backend. Outcomes that did not fail are ignored.
func (s *Sink) CaptureFailure(runID string, o planner.Outcome) {
	if s == nil || o.Status != planner.StatusFailed {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("run_id", runID)
		scope.SetTag("backend", o.Job.Run.Backend)
		scope.SetTag("derived", fmt.Sprintf("%t", o.Job.Input.Derived))
		scope.SetContext("job", sentry.Context{
			"input":      o.Job.Input.Path,
			"output":     o.Job.OutputPath,
			"checkpoint": o.Job.Run.CheckpointPath,
			"temp":       o.Job.Run.Temperature,
			"min_p":      o.Job.Run.MinP,
			"seed":       o.Job.Run.Seed,
			"elapsed_ms": o.Elapsed.Milliseconds(),
		})
		s.hub.CaptureException(&JobFailure{Input: o.Job.Input.Path, Reason: o.Reason})
	})
}

// Flush waits briefly for queued events to be delivered.
func (s *Sink) Flush() {
	if s == nil {
		return
	}
	s.hub.Flush(flushTimeout)
}
