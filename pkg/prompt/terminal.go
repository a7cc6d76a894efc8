package prompt

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"ganaterm/pkg/render"
)

// PromptLabel introduces the interactive question.
const PromptLabel = "你说（行尾输入 \\ 换行，Enter 提交）："

type lineReader interface {
	readLine() (string, error)
	restore()
}

// Terminal reads answers from the user. When input is a terminal it uses
// x/term line editing; otherwise it reads plain lines.
type Terminal struct {
	out   io.Writer
	plain bool
	lines lineReader
}

// NewTerminal reads from in and writes labels to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{out: out, plain: true}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.plain = false
		t.lines = &ttyReader{fd: int(f.Fd()), rw: struct {
			io.Reader
			io.Writer
		}{f, out}}
		return t
	}
	t.lines = &bufReader{r: bufio.NewReader(in)}
	return t
}

func (t *Terminal) label(s string) {
	s = render.SuccessStyle.Render(s)
	if t.plain {
		s = ansi.Strip(s)
	}
	_, _ = io.WriteString(t.out, s+"\n")
}

// Restore leaves raw mode if a read is in progress. It is safe to call
// from a signal handler goroutine.
func (t *Terminal) Restore() {
	t.lines.restore()
}

// Decide prints q and reads an answer. "rnm" without a name prompts for
// one.
func (t *Terminal) Decide(ctx context.Context, q Question) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	t.label(q.Label)
	answer, err := t.lines.readLine()
	if err != nil {
		return Decision{}, err
	}
	return resolveRename(ctx, t, ParseAnswer(q, answer))
}

// ReadLine prints label and returns one line of input.
func (t *Terminal) ReadLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if label != "" {
		t.label(label)
	}
	return t.lines.readLine()
}

// ReadPrompt reads the user's question. Enter submits; a line ending in a
// backslash continues onto the next line.
func (t *Terminal) ReadPrompt(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.label(PromptLabel)

	var parts []string
	for {
		line, err := t.lines.readLine()
		if err != nil {
			if errors.Is(err, ErrNoAnswer) && len(parts) > 0 {
				break
			}
			return "", err
		}
		if cont, ok := strings.CutSuffix(line, `\`); ok {
			parts = append(parts, cont)
			continue
		}
		parts = append(parts, line)
		break
	}
	return strings.Join(parts, "\n"), nil
}

type bufReader struct {
	r *bufio.Reader
}

func (b *bufReader) readLine() (string, error) {
	line, err := b.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *bufReader) restore() {}

type ttyReader struct {
	fd int
	rw io.ReadWriter
	// raw holds the saved state while a line is being read.
	raw atomic.Pointer[term.State]
}

func (r *ttyReader) readLine() (string, error) {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", err
	}
	r.raw.Store(state)
	defer r.restore()

	line, err := term.NewTerminal(r.rw, "").ReadLine()
	if errors.Is(err, io.EOF) {
		return "", ErrNoAnswer
	}
	return line, err
}

func (r *ttyReader) restore() {
	if state := r.raw.Swap(nil); state != nil {
		_ = term.Restore(r.fd, state)
	}
}
