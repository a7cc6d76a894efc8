package parse

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const fence = "```"

// DefaultLanguage is used for fences that carry no language tag.
const DefaultLanguage = "text"

// ShellLanguage is what command-tagged blocks are normalized to.
const ShellLanguage = "bash"

// commandTags are the tags that mark a block as a command rather than a
// script. The first entry is the word the system prompt asks the model to use.
var commandTags = []string{"命令", "command"}

// Block is a fenced code block extracted from model output.
type Block struct {
	Language  string
	Content   string
	Start     int // byte offset of the opening fence
	End       int // byte offset just past the closing fence
	IsCommand bool
}

// Serialize renders b back into fenced form.
func (b Block) Serialize() string {
	return fence + b.Language + "\n" + b.Content + "\n" + fence
}

// IsCommandTag reports whether tag is a localized spelling of "command".
func IsCommandTag(tag string) bool {
	for _, t := range commandTags {
		if strings.EqualFold(tag, t) {
			return true
		}
	}
	return false
}

// scanFences finds fenced blocks in source order.
//
// Grammar: "```" TAG? "\n" CONTENT "\n```", where TAG is a run of letters,
// digits and the characters _+#.- and CONTENT is the shortest run of bytes
// that is followed by "\n```". Content is captured verbatim.
func scanFences(text string) []Block {
	var blocks []Block
	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], fence)
		if i < 0 {
			break
		}
		open := pos + i

		tagEnd := open + len(fence)
		for tagEnd < len(text) {
			r, size := utf8.DecodeRuneInString(text[tagEnd:])
			if !isTagRune(r) {
				break
			}
			tagEnd += size
		}
		if tagEnd >= len(text) || text[tagEnd] != '\n' {
			pos = open + 1
			continue
		}

		contentStart := tagEnd + 1
		closeAt := strings.Index(text[contentStart:], "\n"+fence)
		if closeAt < 0 {
			// No later fence can close either.
			break
		}

		tag := text[open+len(fence) : tagEnd]
		block := Block{
			Language: tag,
			Content:  text[contentStart : contentStart+closeAt],
			Start:    open,
			End:      contentStart + closeAt + 1 + len(fence),
		}
		if block.Language == "" {
			block.Language = DefaultLanguage
		}
		if IsCommandTag(block.Language) {
			block.Language = ShellLanguage
			block.IsCommand = true
		}
		blocks = append(blocks, block)
		pos = block.End
	}
	return blocks
}

func isTagRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	switch r {
	case '_', '+', '#', '.', '-':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Fences returns the fenced blocks of text in source order without
// scanning for line commands.
func Fences(text string) []Block {
	return scanFences(text)
}
