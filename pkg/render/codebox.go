package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// BoxChars is the set of characters used to draw a code box.
type BoxChars struct {
	TopLeft, TopRight, BottomLeft, BottomRight string
	Horizontal, Vertical                       string
}

var (
	UnicodeBox = BoxChars{"┌", "┐", "└", "┘", "─", "│"}
	ASCIIBox   = BoxChars{"+", "+", "+", "+", "-", "|"}
)

// minBoxWidth keeps the header readable on very narrow terminals.
const minBoxWidth = 20

// CodeBox frames content under a header naming lang. Lines are left open on
// the right so long lines never need wrapping.
func CodeBox(lang, content string, width int, chars BoxChars) []string {
	if width < minBoxWidth {
		width = minBoxWidth
	}

	label := " " + lang + " "
	fill := width - runewidth.StringWidth(label) - 4
	if fill < 0 {
		fill = 0
	}

	lines := []string{
		chars.TopLeft + strings.Repeat(chars.Horizontal, 2) + label +
			strings.Repeat(chars.Horizontal, fill) + chars.TopRight,
	}
	for _, line := range strings.Split(content, "\n") {
		lines = append(lines, chars.Vertical+" "+strings.TrimRight(line, " \t\r"))
	}
	lines = append(lines, chars.BottomLeft+strings.Repeat(chars.Horizontal, width-2)+chars.BottomRight)
	return lines
}
