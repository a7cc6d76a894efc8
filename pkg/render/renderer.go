package render

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"ganaterm/pkg/parse"
)

const defaultWPM = 256

// Options controls how output is styled.
type Options struct {
	UseMarkdown    bool
	UseTypewriter  bool
	TypingSpeedWPM int
	Width          int
	ASCIIBoxes     bool
	// BasicColor selects plainer inline-code highlighting.
	BasicColor bool
	// Plain strips all escape sequences, for output that is not a terminal.
	Plain bool
}

// Renderer writes everything the user sees. It is not safe for concurrent
// use except through Delta, which the stream aggregator calls from the
// driving goroutine.
type Renderer struct {
	out  io.Writer
	opts Options

	// Sleep paces the typewriter effect. Tests replace it.
	Sleep func(time.Duration)

	mdOnce sync.Once
	md     *glamour.TermRenderer
}

// New creates a Renderer writing to out.
func New(out io.Writer, opts Options) *Renderer {
	if opts.TypingSpeedWPM <= 0 {
		opts.TypingSpeedWPM = defaultWPM
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Renderer{out: out, opts: opts, Sleep: time.Sleep}
}

// Options returns the renderer's settings.
func (r *Renderer) Options() Options {
	return r.opts
}

func (r *Renderer) write(s string) {
	if r.opts.Plain {
		s = ansi.Strip(s)
	}
	_, _ = io.WriteString(r.out, s)
}

func (r *Renderer) line(s string) {
	r.write(s + "\n")
}

// Delta prints a streamed fragment as it arrives.
func (r *Renderer) Delta(fragment string) {
	r.write(fragment)
}

// EndStream terminates the streamed response line.
func (r *Renderer) EndStream() {
	r.write("\n")
}

// ProviderLabel announces which provider is answering.
func (r *Renderer) ProviderLabel(name string) {
	r.write("\n" + LabelStyle.Render("("+name+")") + "：")
}

// UserEcho repeats the user's prompt before the answer.
func (r *Renderer) UserEcho(prompt string) {
	r.line(LabelStyle.Render("User") + "：" + prompt)
}

func (r *Renderer) Title(msg string)   { r.line(TitleStyle.Render(msg)) }
func (r *Renderer) Info(msg string)    { r.line(InfoStyle.Render(msg)) }
func (r *Renderer) Warn(msg string)    { r.line(WarningStyle.Render(msg)) }
func (r *Renderer) Error(msg string)   { r.line(ErrorStyle.Render(msg)) }
func (r *Renderer) Success(msg string) { r.line(SuccessStyle.Render(msg)) }

// Plainf prints an unstyled line.
func (r *Renderer) Plainf(format string, args ...any) {
	r.line(fmt.Sprintf(format, args...))
}

// Stderr prints a line of child process error output.
func (r *Renderer) Stderr(line string) {
	r.line(ErrorStyle.Render(line))
}

// Stdout prints a line of child process output verbatim.
func (r *Renderer) Stdout(line string) {
	r.line(line)
}

// CodeBox prints content framed under a language header.
func (r *Renderer) CodeBox(lang, content string) {
	chars := UnicodeBox
	if r.opts.ASCIIBoxes {
		chars = ASCIIBox
	}
	lines := CodeBox(lang, content, r.opts.Width, chars)
	last := len(lines) - 1
	for i, l := range lines {
		if i == 0 || i == last {
			r.line(BorderStyle.Render(l))
			continue
		}
		r.line(l)
	}
}

// Copy places text on the clipboard through the OSC 52 escape sequence.
func (r *Renderer) Copy(text string) {
	if r.opts.Plain {
		return
	}
	_, _ = fmt.Fprint(r.out, osc52.New(text))
}

// Message prints a complete message, applying markdown and the typewriter
// effect as configured.
func (r *Renderer) Message(text string) {
	if r.opts.UseTypewriter {
		r.typewrite(text)
		return
	}
	if r.opts.UseMarkdown {
		r.Markdown(text)
		return
	}
	r.line(text)
}

// Recap redraws an answer that carries actions, with command markers
// already stripped, as formatted Markdown once its raw stream has ended. It
// does nothing unless Markdown rendering is on and output is a terminal.
func (r *Renderer) Recap(cleaned string) {
	if !r.opts.UseMarkdown || r.opts.Plain {
		return
	}
	r.Markdown(cleaned)
}

// Markdown renders text with fenced blocks drawn as code boxes and the
// remaining prose passed through glamour.
func (r *Renderer) Markdown(text string) {
	text = retagCommandFences(text)
	blocks := parse.Fences(text)

	last := 0
	for _, b := range blocks {
		r.prose(text[last:b.Start])
		r.CodeBox(b.Language, b.Content)
		last = b.End
	}
	rest := text[last:]
	if strings.Count(rest, "```")%2 != 0 {
		rest += "\n```"
	}
	r.prose(rest)
}

func (r *Renderer) prose(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	md := r.markdownRenderer()
	if md == nil {
		r.line(r.HighlightInline(s))
		return
	}
	out, err := md.Render(s)
	if err != nil {
		slog.Debug("markdown_render_failed", "error", err)
		r.line(s)
		return
	}
	r.write(out)
}

func (r *Renderer) markdownRenderer() *glamour.TermRenderer {
	r.mdOnce.Do(func() {
		style := glamour.WithAutoStyle()
		if r.opts.Plain {
			style = glamour.WithStandardStyle("notty")
		}
		md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(r.opts.Width))
		if err != nil {
			slog.Warn("markdown_renderer_unavailable", "error", err)
			return
		}
		r.md = md
	})
	return r.md
}

var commandFence = regexp.MustCompile("```命令\n")

// retagCommandFences rewrites command-tagged fences as bash so they are
// highlighted like shell.
func retagCommandFences(text string) string {
	return commandFence.ReplaceAllString(text, "```"+parse.ShellLanguage+"\n")
}

var inlineCode = regexp.MustCompile("`([^`\n]+)`")

// HighlightInline styles `code` spans that sit outside fenced blocks.
func (r *Renderer) HighlightInline(text string) string {
	return highlightInline(text, r.inlineStyle())
}

func (r *Renderer) inlineStyle() lipgloss.Style {
	if r.opts.BasicColor {
		return InlineCodeStyleBasic
	}
	return InlineCodeStyle
}

func highlightInline(text string, style lipgloss.Style) string {
	lines := strings.Split(text, "\n")
	inFence := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lines[i] = inlineCode.ReplaceAllStringFunc(l, func(m string) string {
			if isFenceFragment(l, m) {
				return m
			}
			return style.Render(m)
		})
	}
	return strings.Join(lines, "\n")
}

// isFenceFragment reports whether m is part of a longer backtick run.
func isFenceFragment(line, m string) bool {
	return strings.Contains(line, "`"+m) || strings.Contains(line, m+"`")
}
