package ai

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// EnvironmentInfo captures where the assistant is running so suggested
// commands fit the user's machine.
type EnvironmentInfo struct {
	OS         string
	Shell      string
	WorkingDir string
	GitBranch  string
}

// Empty reports whether no field was captured.
func (e EnvironmentInfo) Empty() bool {
	return strings.TrimSpace(e.OS) == "" &&
		strings.TrimSpace(e.Shell) == "" &&
		strings.TrimSpace(e.WorkingDir) == "" &&
		strings.TrimSpace(e.GitBranch) == ""
}

// Summary renders the captured fields, one "key: value" per line. Missing
// fields are omitted.
func (e EnvironmentInfo) Summary() string {
	var sb strings.Builder
	sb.WriteString("Environment (captured fields):\n")
	write := func(key, value string) {
		value = sanitize(value)
		if value == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", key, value))
	}
	write("os", e.OS)
	write("shell", e.Shell)
	write("cwd", e.WorkingDir)
	write("git_branch", e.GitBranch)
	return strings.TrimRight(sb.String(), "\n")
}

// WithEnvironment returns a request copy of messages whose leading system
// message carries the environment summary. The conversation itself is not
// modified, so history never stores machine details.
func WithEnvironment(messages []Message, env EnvironmentInfo) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	if env.Empty() || len(out) == 0 || out[0].Role != RoleSystem {
		return out
	}
	out[0].Content = out[0].Content + "\n\n" + env.Summary()
	return out
}

func sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ToValidUTF8(s, "")
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
