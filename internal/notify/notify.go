// Package notify prints the processing announcements devscope emits for
// items it is working on.
package notify

import (
	"fmt"
	"io"
	"os"
)

// Prefix is the literal announcement prefix, trailing space included.
const Prefix = "Processing: "

// Fprint writes "Processing: <item>" and a newline to w. The item goes out
// verbatim: no trimming, no quoting, no escaping.
func Fprint(w io.Writer, item string) {
	fmt.Fprintf(w, "%s%s\n", Prefix, item)
}

// Announce writes the announcement for item to stdout.
func Announce(item string) {
	Fprint(os.Stdout, item)
}
