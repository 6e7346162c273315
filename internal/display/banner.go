package display

import (
	"fmt"
	"io"

	"github.com/backmassage/posefeed/internal/term"
)

// PrintBanner prints the ASCII art banner and version to w; uses Magenta
// if colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `                       __               _
 _ __   ___  ___  ___ / _| ___  ___  __| |
| '_ \ / _ \/ __|/ _ \ |_ / _ \/ _ \/ _`+"`"+` |
| |_) | (_) \__ \  __/  _|  __/  __/ (_| |
| .__/ \___/|___/\___|_|  \___|\___|\__,_|
|_|
`)
	fmt.Fprintf(w, "%s%sv%s%s\n", term.NC, term.Bold, version, term.NC)
}
