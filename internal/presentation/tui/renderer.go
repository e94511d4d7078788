package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWrap = 100

// Renderer turns markdown into the text written to the terminal.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a Renderer for out.
// When out is a terminal the markdown is styled with glamour, matching the
// terminal's colour profile and background; otherwise it is passed through as is
// so that pipes and files receive plain markdown.
func NewRenderer(out *os.File) Renderer {
	fd := int(out.Fd())
	if !term.IsTerminal(fd) {
		return Plain
	}

	width := defaultWrap
	if w, _, err := term.GetSize(fd); err == nil && w > 0 && w < width {
		width = w
	}

	output := termenv.NewOutput(out)
	style := "light"
	if output.HasDarkBackground() {
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithColorProfile(output.Profile),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return Plain
	}
	return r.Render
}

// Plain returns markdown unchanged.
func Plain(markdown string) (string, error) {
	return markdown, nil
}
