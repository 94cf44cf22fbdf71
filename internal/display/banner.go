package display

import (
	"fmt"
	"io"

	"github.com/backmassage/ariabatch/internal/term"
)

const banner = `             _       _           _       _
  __ _ _ __ (_) __ _| |__   __ _| |_ ___| |__
 / _' | '__|| |/ _' | '_ \ / _' | __/ __| '_ \
| (_| | |   | | (_| | |_) | (_| | || (__| | | |
 \__,_|_|   |_|\__,_|_.__/ \__,_|\__\___|_| |_|`

// PrintBanner writes the ASCII art banner to w, styled when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, term.Accent.Render(banner))
}
