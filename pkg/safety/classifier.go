// Package safety flags shell commands that must never be executed on the
// user's behalf. It is a best-effort denylist, not a sandbox.
package safety

import "regexp"

// Rule is a single dangerous-command pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Rules is the fixed rule set. Each rule is independent; any match marks the
// command as dangerous. Keep this list exactly as is: callers and tests rely
// on its precise matching behavior (mv, for instance, is only flagged when the
// destination is literally / or ~).
var Rules = []Rule{
	{Name: "rm_root_home_parent", Pattern: regexp.MustCompile(`\brm\s+(-[rf]+\s+)?(/|~|\.\.)`)},
	{Name: "mv_to_root_home", Pattern: regexp.MustCompile(`\bmv\s+\S+\s+(/|~)`)},
	{Name: "dd", Pattern: regexp.MustCompile(`\bdd\s+`)},
	{Name: "format", Pattern: regexp.MustCompile(`\bformat\b`)},
	{Name: "mkfs", Pattern: regexp.MustCompile(`\bmkfs\b`)},
	{Name: "power", Pattern: regexp.MustCompile(`\b(halt|poweroff|shutdown|reboot)\b`)},
	{Name: "fork_bomb", Pattern: regexp.MustCompile(`:\(\)\{.*\};:`)},
	{Name: "chmod_recursive_777", Pattern: regexp.MustCompile(`\bchmod\s+-[R].*777\b`)},
	{Name: "download_pipe_shell", Pattern: regexp.MustCompile(`\b(wget|curl).*\|\s*(bash|sh)\b`)},
}

// IsDangerous reports whether command matches any rule.
func IsDangerous(command string) bool {
	_, ok := Match(command)
	return ok
}

// Match returns the first rule that matches command.
func Match(command string) (Rule, bool) {
	for _, rule := range Rules {
		if rule.Pattern.MatchString(command) {
			return rule, true
		}
	}
	return Rule{}, false
}
