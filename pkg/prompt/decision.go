// Package prompt turns user answers into typed decisions about the
// commands and code blocks found in a response.
package prompt

import (
	"context"
	"errors"
	"strings"
)

// Kind is the outcome of a question.
type Kind int

const (
	Rejected Kind = iota
	Confirmed
	ShowThenDecide
	EditRequested
	Renamed
	Copied
)

func (k Kind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case ShowThenDecide:
		return "show"
	case EditRequested:
		return "edit"
	case Renamed:
		return "rename"
	case Copied:
		return "copy"
	default:
		return "rejected"
	}
}

// Decision is a parsed answer. Text holds the edit request for
// EditRequested and the new file name for Renamed.
type Decision struct {
	Kind Kind
	Text string
}

// QuestionKind selects which answers a question accepts.
type QuestionKind int

const (
	// AskConfirm accepts y/n.
	AskConfirm QuestionKind = iota
	// AskCommand accepts y/n/c.
	AskCommand
	// AskBlock accepts y/n/e/rnm.
	AskBlock
	// AskBlockShown accepts y/n/r <text>/rnm.
	AskBlockShown
)

// Question is shown to the user before reading an answer.
type Question struct {
	Kind  QuestionKind
	Label string
}

// Allows reports whether k is a valid answer to q.
func (q Question) Allows(k Kind) bool {
	switch k {
	case Confirmed, Rejected:
		return true
	case Copied:
		return q.Kind == AskCommand
	case ShowThenDecide:
		return q.Kind == AskBlock
	case EditRequested:
		return q.Kind == AskBlockShown
	case Renamed:
		return q.Kind == AskBlock || q.Kind == AskBlockShown
	}
	return false
}

// RenameLabel asks for the replacement file name after "rnm".
const RenameLabel = "请输入新的文件名:"

// ErrNoAnswer is returned when input ends before an answer is read.
var ErrNoAnswer = errors.New("no answer")

// Source supplies decisions and free-form lines.
type Source interface {
	Decide(ctx context.Context, q Question) (Decision, error)
	ReadLine(ctx context.Context, label string) (string, error)
}

// ParseAnswer interprets a raw answer. Anything not understood, or not
// allowed for q, is a rejection.
func ParseAnswer(q Question, answer string) Decision {
	answer = strings.TrimSpace(answer)
	keyword, rest, _ := strings.Cut(answer, " ")
	keyword = strings.ToLower(keyword)
	rest = strings.TrimSpace(rest)

	var d Decision
	switch {
	case keyword == "y" || keyword == "yes":
		d = Decision{Kind: Confirmed}
	case keyword == "c" || keyword == "copy":
		d = Decision{Kind: Copied}
	case keyword == "e":
		d = Decision{Kind: ShowThenDecide}
	case keyword == "rnm":
		d = Decision{Kind: Renamed, Text: rest}
	case strings.HasPrefix(keyword, "r"):
		// "r fix the loop" and "rfix" both carry the edit text.
		text := strings.TrimSpace(strings.TrimSpace(answer)[1:])
		d = Decision{Kind: EditRequested, Text: text}
	default:
		d = Decision{Kind: Rejected}
	}

	if !q.Allows(d.Kind) {
		return Decision{Kind: Rejected}
	}
	return d
}

// resolveRename completes a Renamed decision without a name by asking for
// one.
func resolveRename(ctx context.Context, src Source, d Decision) (Decision, error) {
	if d.Kind != Renamed || d.Text != "" {
		return d, nil
	}
	name, err := src.ReadLine(ctx, RenameLabel)
	if err != nil {
		return Decision{}, err
	}
	d.Text = strings.TrimSpace(name)
	return d, nil
}
