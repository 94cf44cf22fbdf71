package naming

import (
	"path/filepath"
	"strings"
)

// ContinuationSuffix marks a file as generator output. It is inserted between
// the stem and the extension of the prompt file name.
const ContinuationSuffix = "_with_continuation"

// Supported MIDI extensions (lowercase, with leading dot).
var midiExtensions = map[string]bool{
	".mid":  true,
	".midi": true,
}

// IsMIDI reports whether name has a MIDI extension (case-insensitive).
func IsMIDI(name string) bool {
	return midiExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsContinuation reports whether name already denotes generator output, i.e.
// its stem ends with ContinuationSuffix.
func IsContinuation(name string) bool {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, ContinuationSuffix)
}

// ContinuationPath returns the output path for a prompt: same directory, same
// extension, ContinuationSuffix appended to the stem. It depends only on the
// input path.
func ContinuationPath(input string) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+ContinuationSuffix+ext)
}

// PartialPath returns the scratch path a continuation is generated into
// before it is renamed onto output. It sits in the same directory, is
// hidden, and still counts as a continuation, so a leftover is never
// planned as a prompt.
func PartialPath(output, tag string) string {
	return filepath.Join(filepath.Dir(output), ".partial-"+tag+"."+filepath.Base(output))
}
