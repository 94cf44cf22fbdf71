package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/logging"
	"github.com/backmassage/ariabatch/internal/planner"
)

// fakeInvoker writes each continuation it is asked for, except for the
// 1-based call numbers listed in failOn.
type fakeInvoker struct {
	jobs   []planner.Job
	failOn map[int]bool
	onCall func(n int)
}

func (f *fakeInvoker) Invoke(_ context.Context, job planner.Job) planner.Outcome {
	f.jobs = append(f.jobs, job)
	n := len(f.jobs)
	if f.onCall != nil {
		f.onCall(n)
	}
	if f.failOn[n] {
		return planner.Outcome{Job: job, Status: planner.StatusFailed, Reason: "exit status 1"}
	}
	if err := os.WriteFile(job.OutputPath, []byte("MThd"), 0o644); err != nil {
		return planner.Outcome{Job: job, Status: planner.StatusFailed, Reason: err.Error()}
	}
	return planner.Outcome{Job: job, Status: planner.StatusSucceeded, OutputBytes: 4}
}

func (f *fakeInvoker) inputs(root string) []string {
	var out []string
	for _, j := range f.jobs {
		rel, _ := filepath.Rel(root, j.Input.Path)
		out = append(out, rel)
	}
	return out
}

type recordingSink struct {
	runIDs   []string
	outcomes []planner.Outcome
}

func (s *recordingSink) CaptureFailure(runID string, o planner.Outcome) {
	s.runIDs = append(s.runIDs, runID)
	s.outcomes = append(s.outcomes, o)
}

func touch(t *testing.T, parts ...string) {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("MThd"), 0o644))
}

// testCorpus builds:
//
//	A/a1.mid A/a2.mid A/minorized/a1m.mid
//	B/b1.mid
//	C/minorized/c1m.mid
func testCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	touch(t, root, "B", "b1.mid")
	touch(t, root, "A", "a2.mid")
	touch(t, root, "A", "a1.mid")
	touch(t, root, "A", "minorized", "a1m.mid")
	touch(t, root, "C", "minorized", "c1m.mid")
	touch(t, root, "A", "notes.txt")
	return root
}

func testRun(t *testing.T, root string) (*config.Config, *logging.Logger, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Run.RootDir = root
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(&cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	log.SetOutput(&buf, &buf)
	return &cfg, log, &buf
}

func TestRun_OrderAndCounts(t *testing.T) {
	root := testCorpus(t)
	cfg, log, buf := testRun(t, root)
	inv := &fakeInvoker{}

	s, err := Run(context.Background(), cfg, log, inv, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"A/a1.mid",
		"A/a2.mid",
		"A/minorized/a1m.mid",
		"B/b1.mid",
		"C/minorized/c1m.mid",
	}, inv.inputs(root))
	assert.Equal(t, 5, s.Succeeded)
	assert.Zero(t, s.Skipped)
	assert.Zero(t, s.Failed)
	assert.NotEmpty(t, s.RunID)
	assert.True(t, s.OK())

	for _, j := range inv.jobs {
		assert.Equal(t, cfg.Run, j.Run)
		assert.Equal(t, filepath.Dir(j.Input.Path), filepath.Dir(j.OutputPath))
	}
	assert.FileExists(t, filepath.Join(root, "A", "minorized", "a1m_with_continuation.mid"))
	assert.Contains(t, buf.String(), "Done: 5 succeeded, 0 skipped, 0 failed")
}

func TestRun_FailureIsolation(t *testing.T) {
	root := testCorpus(t)
	cfg, log, buf := testRun(t, root)
	inv := &fakeInvoker{failOn: map[int]bool{3: true}}
	sink := &recordingSink{}

	s, err := Run(context.Background(), cfg, log, inv, sink)
	require.NoError(t, err)

	assert.Len(t, inv.jobs, 5, "later jobs still run")
	assert.Equal(t, 4, s.Succeeded)
	assert.Equal(t, 0, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	assert.False(t, s.OK())

	failed := filepath.Join(root, "A", "minorized", "a1m.mid")
	require.Len(t, s.Failures, 1)
	assert.Equal(t, Failure{Path: failed, Reason: "exit status 1"}, s.Failures[0])
	assert.Contains(t, buf.String(), failed+": exit status 1")

	require.Len(t, sink.outcomes, 1)
	assert.Equal(t, s.RunID, sink.runIDs[0])
	assert.Equal(t, failed, sink.outcomes[0].Job.Input.Path)
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	root := testCorpus(t)
	cfg, log, _ := testRun(t, root)

	first, err := Run(context.Background(), cfg, log, &fakeInvoker{}, nil)
	require.NoError(t, err)
	require.Equal(t, 5, first.Succeeded)

	inv := &fakeInvoker{}
	second, err := Run(context.Background(), cfg, log, inv, nil)
	require.NoError(t, err)

	assert.Empty(t, inv.jobs)
	assert.Zero(t, second.Succeeded)
	assert.Zero(t, second.Failed)
	// Five existing outputs plus the five continuation files themselves.
	assert.Equal(t, 10, second.Skipped)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_OverwriteRegenerates(t *testing.T) {
	root := testCorpus(t)
	cfg, log, _ := testRun(t, root)
	_, err := Run(context.Background(), cfg, log, &fakeInvoker{}, nil)
	require.NoError(t, err)

	cfg.Overwrite = true
	inv := &fakeInvoker{}
	s, err := Run(context.Background(), cfg, log, inv, nil)
	require.NoError(t, err)

	assert.Len(t, inv.jobs, 5, "continuations are never used as prompts")
	assert.Equal(t, 5, s.Succeeded)
	assert.Equal(t, 5, s.Skipped)
}

func TestRun_SelfReferenceGuard(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "A", "x_with_continuation.mid")
	cfg, log, _ := testRun(t, root)
	inv := &fakeInvoker{}

	s, err := Run(context.Background(), cfg, log, inv, nil)
	require.NoError(t, err)

	assert.Empty(t, inv.jobs)
	assert.Equal(t, 1, s.Skipped)
	assert.NoFileExists(t, filepath.Join(root, "A", "x_with_continuation_with_continuation.mid"))
}

func TestRun_InvalidRootInvokesNothing(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.mid")
	touch(t, file)

	for _, bad := range []string{filepath.Join(root, "missing"), file, ""} {
		cfg, log, _ := testRun(t, bad)
		inv := &fakeInvoker{}

		s, err := Run(context.Background(), cfg, log, inv, nil)

		var cerr *config.ConfigurationError
		require.ErrorAs(t, err, &cerr, "root %q", bad)
		assert.Equal(t, "root_dir", cerr.Field)
		assert.Empty(t, inv.jobs)
		assert.Zero(t, s.Total())
	}
}

func TestRun_InvalidParamsInvokesNothing(t *testing.T) {
	root := testCorpus(t)
	cfg, log, _ := testRun(t, root)
	cfg.Run.Temperature = 0
	inv := &fakeInvoker{}

	_, err := Run(context.Background(), cfg, log, inv, nil)

	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "temperature", cerr.Field)
	assert.Empty(t, inv.jobs)
}

func TestRun_DryRun(t *testing.T) {
	root := testCorpus(t)
	cfg, log, buf := testRun(t, root)
	cfg.DryRun = true
	inv := &fakeInvoker{}

	s, err := Run(context.Background(), cfg, log, inv, nil)
	require.NoError(t, err)

	assert.Empty(t, inv.jobs)
	assert.Equal(t, 5, s.Planned)
	assert.True(t, s.OK())
	assert.NoFileExists(t, filepath.Join(root, "A", "a1_with_continuation.mid"))
	assert.Contains(t, buf.String(), "[DRY] Would generate A/a1.mid -> A/a1_with_continuation.mid")
	assert.Contains(t, buf.String(), "Done (dry run): 5 planned, 0 skipped")
}

func TestRun_InterruptFinishesCurrentJob(t *testing.T) {
	root := testCorpus(t)
	cfg, log, buf := testRun(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inv := &fakeInvoker{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	s, err := Run(ctx, cfg, log, inv, nil)
	require.NoError(t, err)

	assert.Len(t, inv.jobs, 2)
	assert.Equal(t, 2, s.Succeeded)
	assert.True(t, s.Interrupted)
	assert.Contains(t, buf.String(), "Interrupted")
}

func TestRun_VariantWarnings(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "A", "a.mid")
	touch(t, root, "B", "minorized")
	cfg, log, buf := testRun(t, root)

	s, err := Run(context.Background(), cfg, log, &fakeInvoker{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Succeeded)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "variant path is not a directory")
	assert.NotContains(t, buf.String(), "no variant subdirectory", "missing variants are debug-only")
}
