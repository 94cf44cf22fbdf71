package corpus

import "fmt"

// ItemDir is one top-level directory under the corpus root: a single musical
// item with its prompt files and, optionally, a variant subdirectory.
type ItemDir struct {
	Name string
	Path string
	// VariantPath is the variant subdirectory, or "" when it does not exist.
	VariantPath string
}

// HasVariants reports whether the item has a variant subdirectory on disk.
func (d *ItemDir) HasVariants() bool { return d.VariantPath != "" }

// InputFile is a discovered prompt file.
type InputFile struct {
	Path string
	// Item is the directory the file belongs to. Shared by all files of the
	// item; the file does not own it.
	Item *ItemDir
	// Derived is true for files found in the variant subdirectory.
	Derived bool
}

// DiscoveryWarning is a non-fatal condition met while walking one item.
// The affected item contributes fewer (possibly zero) files and the walk
// continues.
type DiscoveryWarning struct {
	Item   string
	Path   string
	Reason string
	Err    error
}

func (w DiscoveryWarning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %v", w.Path, w.Reason, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Missing reports whether the warning is only the absence of a variant
// subdirectory, which is the common case and usually not worth surfacing.
func (w DiscoveryWarning) Missing() bool { return w.Reason == reasonNoVariants }
