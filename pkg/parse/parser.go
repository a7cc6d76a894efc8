// Package parse extracts actionable candidates from model output: shell
// commands on "!"/"$" prefixed lines and fenced code blocks.
package parse

import (
	"log/slog"
	"strings"

	"ganaterm/pkg/safety"
)

// Result holds the candidates found in one response.
//
// Commands and Blocks are independently ordered; the executor resolves all
// commands before any block.
type Result struct {
	Commands []Command
	Blocks   []Block
	// Cleaned is the response for display: markers are stripped from kept
	// command lines and vetoed command lines are removed.
	Cleaned string
}

// Empty reports whether nothing actionable was found.
func (r Result) Empty() bool {
	return len(r.Commands) == 0 && len(r.Blocks) == 0
}

// Parse extracts commands and code blocks from text. Commands that the safety
// classifier flags are dropped and never reach the result.
func Parse(text string) Result {
	blocks := scanFences(text)
	lines := scanCommandLines(text, blocks)

	result := Result{Blocks: blocks}
	vetoed := make(map[int]bool)
	for _, cl := range lines {
		if rule, bad := safety.Match(cl.body); bad {
			slog.Info("command_vetoed", "rule", rule.Name, "line", cl.index)
			vetoed[cl.index] = true
			continue
		}
		result.Commands = append(result.Commands, Command{Text: cl.body, Line: cl.index})
	}
	result.Cleaned = clean(text, lines, vetoed)
	return result
}

func clean(text string, lines []commandLine, vetoed map[int]bool) string {
	if len(lines) == 0 {
		return text
	}
	src := strings.Split(text, "\n")
	for _, cl := range lines {
		src[cl.index] = cl.prefix + cl.body
	}
	out := src[:0]
	for i, line := range src {
		if !vetoed[i] {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
