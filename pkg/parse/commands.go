package parse

import (
	"strings"
)

// Command is a shell command suggested on a "!" or "$" prefixed line.
type Command struct {
	Text string
	Line int // zero-based line index in the source text
}

type commandLine struct {
	index  int
	prefix string // leading whitespace kept when cleaning
	body   string // text after the marker, trimmed
}

// scanCommandLines yields every line outside fenced blocks that matches
// ^(!|\$)\s*(.+)$ once surrounding whitespace is trimmed.
func scanCommandLines(text string, blocks []Block) []commandLine {
	var out []commandLine
	offset := 0
	for index, line := range strings.Split(text, "\n") {
		start := offset
		offset += len(line) + 1

		if insideBlock(start, blocks) {
			continue
		}
		body, ok := commandBody(line)
		if !ok {
			continue
		}
		trimmed := strings.TrimLeft(line, " \t\r")
		out = append(out, commandLine{
			index:  index,
			prefix: line[:len(line)-len(trimmed)],
			body:   body,
		})
	}
	return out
}

// commandBody returns the command text of a marker line.
func commandBody(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 {
		return "", false
	}
	if trimmed[0] != '!' && trimmed[0] != '$' {
		return "", false
	}
	body := strings.TrimSpace(trimmed[1:])
	if body == "" {
		return "", false
	}
	return body, true
}

func insideBlock(offset int, blocks []Block) bool {
	for _, b := range blocks {
		if offset >= b.Start && offset < b.End {
			return true
		}
	}
	return false
}
