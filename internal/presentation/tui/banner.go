package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chains banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"       _           _           ", "#38bdf8"},
		{"   ___| |__   __ _(_)_ __  ___ ", "#22d3ee"},
		{"  / __| '_ \\ / _` | | '_ \\/ __|", "#2dd4bf"},
		{" | (__| | | | (_| | | | | \\__ \\", "#34d399"},
		{"  \\___|_| |_|\\__,_|_|_| |_|___/", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
