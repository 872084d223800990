package display

import (
	"fmt"
	"io"

	"github.com/backmassage/brainbatch/internal/term"
)

// PrintBanner prints the ASCII art banner in the palette's magenta.
func PrintBanner(w io.Writer, colors term.Palette) {
	fmt.Fprint(w, colors.Magenta)
	fmt.Fprint(w, ` _               _       _           _       _
| |__  _ __ __ _(_)_ __ | |__   __ _| |_ ___| |__
| '_ \| '__/ _`+"`"+` | | '_ \| '_ \ / _`+"`"+` | __/ __| '_ \
| |_) | | | (_| | | | | | |_) | (_| | || (__| | | |
|_.__/|_|  \__,_|_|_| |_|_.__/ \__,_|\__\___|_| |_|
`)
	if colors.Enabled() {
		fmt.Fprintln(w, colors.Reset)
	}
}
