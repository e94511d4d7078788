package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the automator banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).Profile
	// Using a subtle gradient-like color scheme (Teal/Cyan)
	lines := []struct {
		text  string
		color string
	}{
		{"              _                        _             ", "#2dd4bf"},
		{"   __ _ _   _| |_ ___  _ __ ___   __ _| |_ ___  _ __ ", "#22d3ee"},
		{"  / _` | | | | __/ _ \\| '_ ` _ \\ / _` | __/ _ \\| '__|", "#38bdf8"},
		{" | (_| | |_| | || (_) | | | | | | (_| | || (_) | |   ", "#60a5fa"},
		{"  \\__,_|\\__,_|\\__\\___/|_| |_| |_|\\__,_|\\__\\___/|_|   ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  condition groups "+version).Faint())
	fmt.Fprintln(w)
}
