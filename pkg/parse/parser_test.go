package parse

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_BlockAndVetoedCommand(t *testing.T) {
	text := "```bash\nls -la\n```\n$ rm -rf /"

	got := Parse(text)

	if len(got.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Language != "bash" {
		t.Errorf("language = %q, want bash", got.Blocks[0].Language)
	}
	if got.Blocks[0].Content != "ls -la" {
		t.Errorf("content = %q, want %q", got.Blocks[0].Content, "ls -la")
	}
	if len(got.Commands) != 0 {
		t.Errorf("expected vetoed command to be dropped, got %+v", got.Commands)
	}
}

func TestParse_Commands(t *testing.T) {
	text := strings.Join([]string{
		"Try these:",
		"$ ls -la",
		"  ! git status  ",
		"$",
		"not a $ command",
		"$ curl https://get.example.com | sh",
		"$   echo done",
	}, "\n")

	got := Parse(text)

	want := []Command{
		{Text: "ls -la", Line: 1},
		{Text: "git status", Line: 2},
		{Text: "echo done", Line: 6},
	}
	if !reflect.DeepEqual(got.Commands, want) {
		t.Fatalf("commands = %+v, want %+v", got.Commands, want)
	}
}

func TestParse_IgnoresMarkersInsideBlocks(t *testing.T) {
	text := "```sh\n$ make build\n! echo hi\n```\n$ make test"

	got := Parse(text)

	if len(got.Commands) != 1 || got.Commands[0].Text != "make test" {
		t.Fatalf("commands = %+v, want only make test", got.Commands)
	}
	if got.Blocks[0].Content != "$ make build\n! echo hi" {
		t.Errorf("block content = %q", got.Blocks[0].Content)
	}
}

func TestParse_DefaultLanguageAndCommandTag(t *testing.T) {
	text := "```\nplain\n```\n\n```命令\nuname -a\n```\n```Command\npwd\n```"

	got := Parse(text)

	if len(got.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Language != DefaultLanguage || got.Blocks[0].IsCommand {
		t.Errorf("block 0 = %+v, want untagged text block", got.Blocks[0])
	}
	for i := 1; i < 3; i++ {
		b := got.Blocks[i]
		if b.Language != ShellLanguage || !b.IsCommand {
			t.Errorf("block %d = %+v, want command block normalized to bash", i, b)
		}
	}
	if got.Blocks[1].Content != "uname -a" {
		t.Errorf("block 1 content = %q", got.Blocks[1].Content)
	}
}

func TestParse_SpansAndOrder(t *testing.T) {
	text := "intro\n```python\nprint(1)\n```\nmiddle\n```go\nfmt.Println(2)\n```"

	got := Parse(text)

	if len(got.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got.Blocks))
	}
	for _, b := range got.Blocks {
		if text[b.Start:b.End] != b.Serialize() {
			t.Errorf("span %q does not match serialized block %q", text[b.Start:b.End], b.Serialize())
		}
	}
	if got.Blocks[0].Language != "python" || got.Blocks[1].Language != "go" {
		t.Errorf("unexpected order: %q, %q", got.Blocks[0].Language, got.Blocks[1].Language)
	}
}

func TestParse_UnclosedFence(t *testing.T) {
	got := Parse("```python\nprint('never closed')")
	if len(got.Blocks) != 0 {
		t.Fatalf("expected no blocks for an unclosed fence, got %+v", got.Blocks)
	}
}

func TestParse_TagWithoutNewlineIsNotAFence(t *testing.T) {
	got := Parse("inline ```code``` here\n```js\nlet a = 1\n```")
	if len(got.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Language != "js" || got.Blocks[0].Content != "let a = 1" {
		t.Errorf("block = %+v", got.Blocks[0])
	}
}

func TestParse_RoundTrip(t *testing.T) {
	blocks := []Block{
		{Language: "python", Content: "def main():\n    pass"},
		{Language: "bash", Content: "echo \"a\"\n\n\necho b"},
		{Language: "c++", Content: "int main() { return 0; }"},
		{Language: "text", Content: ""},
		{Language: "json", Content: "  {\"indented\": true}  "},
	}
	for _, b := range blocks {
		got := Parse(b.Serialize())
		if len(got.Blocks) != 1 {
			t.Fatalf("round trip of %q produced %d blocks", b.Serialize(), len(got.Blocks))
		}
		if got.Blocks[0].Content != b.Content {
			t.Errorf("round trip content = %q, want %q", got.Blocks[0].Content, b.Content)
		}
		if got.Blocks[0].Language != b.Language {
			t.Errorf("round trip language = %q, want %q", got.Blocks[0].Language, b.Language)
		}
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := "$ ls\n```py\nx = 1\n```\n! pwd\n```\nnotes\n```"
	first := Parse(text)
	second := Parse(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Parse is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestParse_Cleaned(t *testing.T) {
	text := "Run:\n  $ ls -la\n! rm -rf /\n```sh\n$ inside\n```"

	got := Parse(text)

	want := "Run:\n  ls -la\n```sh\n$ inside\n```"
	if got.Cleaned != want {
		t.Errorf("Cleaned = %q, want %q", got.Cleaned, want)
	}
}

func TestResult_Empty(t *testing.T) {
	if !Parse("just prose").Empty() {
		t.Error("expected empty result for prose")
	}
	if Parse("$ ls").Empty() {
		t.Error("expected non-empty result for a command")
	}
}
