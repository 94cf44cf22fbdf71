// Package corpus discovers prompt files in a two-level corpus:
//
//	<root>/<item>/*.mid
//	<root>/<item>/<variant-dir>/*.mid
//
// Items are visited in name order; within an item, direct files come first
// and variant files second, each group sorted by name.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/backmassage/ariabatch/internal/naming"
)

const (
	reasonNoVariants  = "no variant subdirectory"
	reasonUnreadable  = "cannot list directory"
	reasonNotVariants = "variant path is not a directory"
)

// Walker enumerates prompt files. The zero value is not usable; set
// VariantDir (usually config.Config.VariantDir).
type Walker struct {
	VariantDir string
	// OnWarning, when set, receives every non-fatal discovery condition.
	OnWarning func(DiscoveryWarning)
}

// NewWalker returns a Walker for the given variant subdirectory name.
func NewWalker(variantDir string, onWarning func(DiscoveryWarning)) *Walker {
	return &Walker{VariantDir: variantDir, OnWarning: onWarning}
}

// Items lists the item directories directly under root, sorted by name.
// A root that cannot be listed is an error; plain files under root are
// ignored.
func (w *Walker) Items(root string) ([]*ItemDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: list root %s: %w", root, err)
	}

	var items []*ItemDir
	for _, e := range entries {
		if !isDir(root, e) {
			continue
		}
		item := &ItemDir{Name: e.Name(), Path: filepath.Join(root, e.Name())}
		item.VariantPath, _ = w.resolveVariant(item)
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Files returns the lazy, restartable sequence of prompt files under root.
// Each range over the sequence re-reads the filesystem. Directory listings
// are read whole, so nothing stays open between yields and the consumer may
// stop at any point. A root listing failure is yielded once as an error and
// ends the sequence; per-item problems are reported through OnWarning.
func (w *Walker) Files(root string) iter.Seq2[InputFile, error] {
	return func(yield func(InputFile, error) bool) {
		items, err := w.Items(root)
		if err != nil {
			yield(InputFile{}, err)
			return
		}
		for _, item := range items {
			for _, f := range w.itemFiles(item) {
				if !yield(f, nil) {
					return
				}
			}
		}
	}
}

// Discover collects Files into a slice.
func (w *Walker) Discover(root string) ([]InputFile, error) {
	var files []InputFile
	for f, err := range w.Files(root) {
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// itemFiles lists one item: direct files, then variant files.
func (w *Walker) itemFiles(item *ItemDir) []InputFile {
	direct, err := listMIDI(item.Path)
	if err != nil {
		w.warn(DiscoveryWarning{Item: item.Name, Path: item.Path, Reason: reasonUnreadable, Err: err})
		return nil
	}

	files := make([]InputFile, 0, len(direct))
	for _, p := range direct {
		files = append(files, InputFile{Path: p, Item: item})
	}

	variantPath, dw := w.resolveVariant(item)
	if dw != nil {
		w.warn(*dw)
		return files
	}

	item.VariantPath = variantPath
	derived, err := listMIDI(variantPath)
	if err != nil {
		w.warn(DiscoveryWarning{Item: item.Name, Path: variantPath, Reason: reasonUnreadable, Err: err})
		return files
	}
	for _, p := range derived {
		files = append(files, InputFile{Path: p, Item: item, Derived: true})
	}
	return files
}

// resolveVariant returns the item's variant subdirectory, or a warning
// explaining why it contributes no files.
func (w *Walker) resolveVariant(item *ItemDir) (string, *DiscoveryWarning) {
	variantPath := filepath.Join(item.Path, w.VariantDir)
	fi, err := os.Stat(variantPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &DiscoveryWarning{Item: item.Name, Path: variantPath, Reason: reasonNoVariants}
	case err != nil:
		return "", &DiscoveryWarning{Item: item.Name, Path: variantPath, Reason: reasonUnreadable, Err: err}
	case !fi.IsDir():
		return "", &DiscoveryWarning{Item: item.Name, Path: variantPath, Reason: reasonNotVariants}
	}
	return variantPath, nil
}

func (w *Walker) warn(dw DiscoveryWarning) {
	if w.OnWarning != nil {
		w.OnWarning(dw)
	}
}

// listMIDI returns the regular MIDI files directly inside dir, sorted by name.
func listMIDI(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !naming.IsMIDI(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !isRegular(path, e) {
			continue
		}
		out = append(out, path)
	}
	// ReadDir already sorts by filename; keep the guarantee explicit.
	sort.Strings(out)
	return out, nil
}

// isRegular keeps regular files, following symlinks. Dangling links,
// directories, FIFOs and devices are not prompts.
func isRegular(path string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// isDir follows symlinks so linked item folders are treated like real ones.
func isDir(parent string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && fi.IsDir()
}
