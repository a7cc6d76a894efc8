package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/mattn/go-runewidth"
)

func newPlain(opts Options) (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	opts.Plain = true
	return New(&buf, opts), &buf
}

func boxLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func requireBoxWidth(t *testing.T, lines []string, width int) {
	t.Helper()
	for _, l := range []string{lines[0], lines[len(lines)-1]} {
		if w := runewidth.StringWidth(l); w != width {
			t.Fatalf("expected border width %d, got %d in %q", width, w, l)
		}
	}
}

func TestCodeBox_Unicode(t *testing.T) {
	lines := CodeBox("python", "print('hi')  \nx = 1", 30, UnicodeBox)
	requireBoxWidth(t, lines, 30)
	golden.RequireEqual(t, boxLines(lines))
}

func TestCodeBox_ASCIIAndNarrow(t *testing.T) {
	lines := CodeBox("sh", "ls", 5, ASCIIBox)
	requireBoxWidth(t, lines, minBoxWidth)
	golden.RequireEqual(t, boxLines(lines))
}

func TestCodeBox_WideLabel(t *testing.T) {
	lines := CodeBox("命令", "echo 你好\t", 24, UnicodeBox)
	requireBoxWidth(t, lines, 24)
	golden.RequireEqual(t, boxLines(lines))
}

func TestRenderer_PlainNotices(t *testing.T) {
	r, buf := newPlain(Options{})
	r.ProviderLabel("deepseek")
	r.Delta("你好")
	r.EndStream()
	r.UserEcho("列出文件")
	r.Error("命令执行失败，返回码: 1")

	want := "\n(deepseek)：你好\nUser：列出文件\n命令执行失败，返回码: 1\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderer_CopyIsSilentWhenPlain(t *testing.T) {
	r, buf := newPlain(Options{})
	r.Copy("ls -la")
	if buf.Len() != 0 {
		t.Fatalf("expected no clipboard sequence on plain output, got %q", buf.String())
	}
}

func TestRenderer_CopyEmitsOSC52(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{}).Copy("ls")
	if !strings.HasPrefix(buf.String(), "\x1b]52;") {
		t.Fatalf("expected OSC 52 sequence, got %q", buf.String())
	}
}

func TestRenderer_MarkdownDrawsCommandBlockAsBash(t *testing.T) {
	r, buf := newPlain(Options{UseMarkdown: true, Width: 24})
	r.Markdown("```命令\nls -la\n```")

	got := buf.String()
	if !strings.Contains(got, "┌── bash ") {
		t.Fatalf("expected bash header, got %q", got)
	}
	if !strings.Contains(got, "│ ls -la\n") {
		t.Fatalf("expected boxed command, got %q", got)
	}
}

func TestRenderer_Recap(t *testing.T) {
	r, buf := newPlain(Options{UseMarkdown: true})
	r.Recap("```bash\nls -la\n```")
	if buf.Len() != 0 {
		t.Fatalf("plain output already shows the raw stream, got %q", buf.String())
	}

	var tty bytes.Buffer
	New(&tty, Options{Width: 24}).Recap("```bash\nls -la\n```")
	if tty.Len() != 0 {
		t.Fatalf("recap needs markdown enabled, got %q", tty.String())
	}

	New(&tty, Options{UseMarkdown: true, Width: 24}).Recap("```bash\nls -la\n```")
	if !strings.Contains(tty.String(), "│ ls -la\n") {
		t.Fatalf("expected boxed command in recap, got %q", tty.String())
	}
}

func TestRenderer_MessageWithoutMarkdown(t *testing.T) {
	r, buf := newPlain(Options{})
	r.Message("服务器似乎没有响应，请稍后再试。")
	if buf.String() != "服务器似乎没有响应，请稍后再试。\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderer_Typewriter(t *testing.T) {
	r, buf := newPlain(Options{UseTypewriter: true, UseMarkdown: true, TypingSpeedWPM: 60})
	var pauses []time.Duration
	r.Sleep = func(d time.Duration) { pauses = append(pauses, d) }

	text := "运行 `ls` 吧"
	r.Message(text)

	if buf.String() != text+"\n" {
		t.Fatalf("got %q, want %q", buf.String(), text+"\n")
	}
	if len(pauses) != len([]rune(text)) {
		t.Fatalf("expected one pause per rune, got %d", len(pauses))
	}
	if pauses[0] != 200*time.Millisecond {
		t.Fatalf("expected 200ms per char at 60 wpm, got %v", pauses[0])
	}
}

func TestCharDelay(t *testing.T) {
	if got := charDelay(256); got != 46875*time.Microsecond {
		t.Fatalf("charDelay(256) = %v", got)
	}
	if charDelay(0) != charDelay(defaultWPM) {
		t.Fatal("expected non-positive speed to use the default")
	}
}

func TestSplitInline(t *testing.T) {
	segs := splitInline("run `ls` now\n```\n`x`\n```", true)

	var code []string
	for _, s := range segs {
		if s.code {
			code = append(code, s.text)
		}
	}
	if len(code) != 1 || code[0] != "`ls`" {
		t.Fatalf("expected only the prose span highlighted, got %v", code)
	}

	var joined strings.Builder
	for _, s := range segs {
		joined.WriteString(s.text)
	}
	if joined.String() != "run `ls` now\n```\n`x`\n```" {
		t.Fatalf("segments do not reassemble the text: %q", joined.String())
	}
}

func TestHighlightInline_LeavesFencesAlone(t *testing.T) {
	text := "```bash\necho `date`\n```"
	if got := highlightInline(text, InlineCodeStyle); got != text {
		t.Fatalf("fenced content changed: %q", got)
	}
}

func TestRetagCommandFences(t *testing.T) {
	got := retagCommandFences("a\n```命令\nls\n```")
	if got != "a\n```bash\nls\n```" {
		t.Fatalf("unexpected retag %q", got)
	}
}
