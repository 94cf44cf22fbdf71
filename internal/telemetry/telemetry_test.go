package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/corpus"
	"github.com/backmassage/ariabatch/internal/planner"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (r *eventRecorder) beforeSend(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func recordingSink(t *testing.T) (*Sink, *eventRecorder) {
	t.Helper()
	rec := &eventRecorder{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		// Events are dropped by BeforeSend, so nothing reaches this host.
		Dsn:        "https://public@sentry.invalid/1",
		BeforeSend: rec.beforeSend,
	})
	require.NoError(t, err)
	return newSink(client), rec
}

func failedOutcome() planner.Outcome {
	rc := config.DefaultConfig().Run
	return planner.Outcome{
		Job: planner.Job{
			Input:      corpus.InputFile{Path: "/corpus/A/x.mid", Derived: true},
			OutputPath: "/corpus/A/x_with_continuation.mid",
			Run:        rc,
		},
		Status:  planner.StatusFailed,
		Reason:  "exit status 1",
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestNew_EmptyDSN(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)
	assert.Nil(t, s)

	// A nil sink is usable.
	s.CaptureFailure("run", failedOutcome())
	s.Flush()
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(Options{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestCaptureFailure_TagsEvent(t *testing.T) {
	s, rec := recordingSink(t)

	s.CaptureFailure("run-123", failedOutcome())

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, sentry.LevelError, ev.Level)
	assert.Equal(t, "run-123", ev.Tags["run_id"])
	assert.Equal(t, "torch_cuda", ev.Tags["backend"])
	assert.Equal(t, "true", ev.Tags["derived"])
	require.Contains(t, ev.Contexts, "job")
	assert.Equal(t, "/corpus/A/x.mid", ev.Contexts["job"]["input"])
	require.NotEmpty(t, ev.Exception)
	assert.Contains(t, ev.Exception[len(ev.Exception)-1].Value, "exit status 1")
}

func TestCaptureFailure_IgnoresOtherStatuses(t *testing.T) {
	s, rec := recordingSink(t)

	o := failedOutcome()
	for _, st := range []planner.Status{planner.StatusSucceeded, planner.StatusSkipped, planner.StatusPlanned} {
		o.Status = st
		s.CaptureFailure("run", o)
	}
	assert.Empty(t, rec.events)
}

func TestCaptureFailure_ScopeDoesNotLeak(t *testing.T) {
	s, rec := recordingSink(t)

	s.CaptureFailure("first", failedOutcome())
	s.hub.CaptureMessage("unrelated")

	require.Len(t, rec.events, 2)
	assert.NotContains(t, rec.events[1].Tags, "run_id")
}
