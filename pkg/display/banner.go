// Package display renders the startup banner for liveserve.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	defaultRuleWidth = 50
	minRuleWidth     = 30
	maxRuleWidth     = 80
)

// Info describes what the server is doing, for the startup banner.
type Info struct {
	// Root is the directory being served.
	Root string

	// HTTPAddr is the address pages are served from, e.g. "localhost:8000".
	HTTPAddr string

	// NotifyAddr is the notification channel address, e.g. "localhost:8001".
	NotifyAddr string
}

// Banner writes the startup banner to w.
//
// The rule lines adapt to the terminal width when w is a terminal;
// otherwise a fixed width is used so piped output stays stable.
func Banner(w io.Writer, info Info) {
	rule := strings.Repeat("=", ruleWidth(w))

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  liveserve")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Serving:    %s\n", info.Root)
	fmt.Fprintf(w, "  HTTP:       http://%s\n", info.HTTPAddr)
	fmt.Fprintf(w, "  WebSocket:  ws://%s\n", info.NotifyAddr)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  Press Ctrl+C to stop")
	fmt.Fprintln(w)
}

// ruleWidth picks the separator width for the given writer.
func ruleWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultRuleWidth
	}

	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return defaultRuleWidth
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		return defaultRuleWidth
	}

	if width < minRuleWidth {
		return minRuleWidth
	}
	if width > maxRuleWidth {
		return maxRuleWidth
	}
	return width
}
