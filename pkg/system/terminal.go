package system

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultWidth = 80

var wellSupportedTerms = map[string]bool{
	"xterm-256color":        true,
	"screen-256color":       true,
	"tmux-256color":         true,
	"rxvt-unicode-256color": true,
}

// Terminal describes the capabilities of the attached terminal.
type Terminal struct {
	Shell     string
	Term      string
	ColorTerm string
	IsZsh     bool
	TrueColor bool
	// WellSupported is true for the 256-colour terminals known to render box
	// drawing characters reliably.
	WellSupported bool
	IsTTY         bool
	Width         int
}

// DetectTerminal inspects the environment and stdout.
func DetectTerminal() Terminal {
	return DetectTerminalFor(os.Stdout)
}

// DetectTerminalFor inspects the environment and w. Writers that are not
// files are never terminals.
func DetectTerminalFor(w io.Writer) Terminal {
	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	return detectTerminal(os.Getenv, fd)
}

func detectTerminal(getenv func(string) string, fd int) Terminal {
	t := Terminal{
		Shell:     getenv("SHELL"),
		Term:      getenv("TERM"),
		ColorTerm: getenv("COLORTERM"),
		Width:     defaultWidth,
	}
	t.IsZsh = strings.Contains(t.Shell, "zsh")
	t.TrueColor = t.ColorTerm == "truecolor" || t.ColorTerm == "24bit"
	t.WellSupported = wellSupportedTerms[t.Term]

	if fd >= 0 && term.IsTerminal(fd) {
		t.IsTTY = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			t.Width = w
		}
	}
	return t
}

// ASCIIBoxes reports whether code boxes should fall back to +-| borders.
func (t Terminal) ASCIIBoxes() bool {
	return t.IsZsh && !t.WellSupported
}
