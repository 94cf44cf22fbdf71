package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCorpus lays out a small corpus:
//
//	root/B/b1.mid
//	root/A/a2.mid, a1.mid, notes.txt, minorized/{m2.mid, m1.MID}
//	root/C/ (empty, minorized is a file)
//	root/stray.mid (ignored, not inside an item)
func buildCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	touch(t, root, "B", "b1.mid")
	touch(t, root, "A", "a2.mid")
	touch(t, root, "A", "a1.mid")
	touch(t, root, "A", "notes.txt")
	touch(t, root, "A/minorized", "m2.mid")
	touch(t, root, "A/minorized", "m1.MID")
	touch(t, root, "C", "minorized")
	touch(t, root, "", "stray.mid")
	return root
}

func TestDiscover_OrderAndPhases(t *testing.T) {
	root := buildCorpus(t)
	w := NewWalker("minorized", nil)

	files, err := w.Discover(root)
	require.NoError(t, err)

	want := []struct {
		rel     string
		derived bool
		item    string
	}{
		{"A/a1.mid", false, "A"},
		{"A/a2.mid", false, "A"},
		{"A/minorized/m1.MID", true, "A"},
		{"A/minorized/m2.mid", true, "A"},
		{"B/b1.mid", false, "B"},
	}
	require.Len(t, files, len(want))
	for i, exp := range want {
		assert.Equal(t, filepath.Join(root, exp.rel), files[i].Path, "index %d", i)
		assert.Equal(t, exp.derived, files[i].Derived, "index %d", i)
		assert.Equal(t, exp.item, files[i].Item.Name, "index %d", i)
	}
	assert.Equal(t, filepath.Join(root, "A", "minorized"), files[0].Item.VariantPath)
	assert.Same(t, files[0].Item, files[2].Item, "files of one item share the back-reference")
	assert.False(t, files[4].Item.HasVariants())
}

func TestDiscover_Restartable(t *testing.T) {
	root := buildCorpus(t)
	w := NewWalker("minorized", nil)

	first, err := w.Discover(root)
	require.NoError(t, err)
	second, err := w.Discover(root)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Path, second[i].Path)
		assert.Equal(t, first[i].Derived, second[i].Derived)
	}
}

func TestFiles_EarlyStop(t *testing.T) {
	root := buildCorpus(t)
	w := NewWalker("minorized", nil)

	var seen []string
	for f, err := range w.Files(root) {
		require.NoError(t, err)
		seen = append(seen, filepath.Base(f.Path))
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a1.mid", "a2.mid"}, seen)
}

func TestFiles_MissingRoot(t *testing.T) {
	w := NewWalker("minorized", nil)
	root := filepath.Join(t.TempDir(), "nope")

	n := 0
	for _, err := range w.Files(root) {
		n++
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
	assert.Equal(t, 1, n, "a root error is yielded once")

	_, err := w.Discover(root)
	assert.Error(t, err)
}

func TestDiscover_Warnings(t *testing.T) {
	root := buildCorpus(t)

	var warnings []DiscoveryWarning
	w := NewWalker("minorized", func(dw DiscoveryWarning) { warnings = append(warnings, dw) })
	_, err := w.Discover(root)
	require.NoError(t, err)

	require.Len(t, warnings, 2)
	assert.Equal(t, "B", warnings[0].Item)
	assert.True(t, warnings[0].Missing())
	assert.Equal(t, "C", warnings[1].Item)
	assert.False(t, warnings[1].Missing())
	assert.Contains(t, warnings[1].String(), "not a directory")
}

func TestDiscover_EmptyVariantDir(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "A", "a.mid")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "A", "minorized"), 0o755))

	files, err := NewWalker("minorized", nil).Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].Item.HasVariants())
}

func TestDiscover_EmptyRoot(t *testing.T) {
	files, err := NewWalker("minorized", nil).Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_YieldsContinuationFiles(t *testing.T) {
	// Listing is name-agnostic; the planner decides what to skip.
	root := t.TempDir()
	touch(t, root, "A", "a.mid")
	touch(t, root, "A", "a_with_continuation.mid")

	files, err := NewWalker("minorized", nil).Discover(root)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDiscover_RegularFilesOnly(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "A", "a.mid")
	touch(t, root, "shared", "linked.mid")
	item := filepath.Join(root, "A")
	require.NoError(t, os.MkdirAll(filepath.Join(item, "folder.mid"), 0o755))
	if err := os.Symlink(filepath.Join(root, "shared", "linked.mid"), filepath.Join(item, "b.mid")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.mid"), filepath.Join(item, "dangling.mid")))

	files, err := NewWalker("minorized", nil).Discover(root)
	require.NoError(t, err)

	var got []string
	for _, f := range files {
		got = append(got, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{"a.mid", "b.mid", "linked.mid"}, got)
}

func TestItems_SortedDirectoriesOnly(t *testing.T) {
	root := buildCorpus(t)
	items, err := NewWalker("minorized", nil).Items(root)
	require.NoError(t, err)

	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func touch(t *testing.T, root, dir, name string) {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, name), []byte("MThd"), 0o644))
}
