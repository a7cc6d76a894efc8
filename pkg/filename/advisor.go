// Package filename suggests where a generated code block should be saved.
package filename

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var extensions = map[string]string{
	"python":     ".py",
	"py":         ".py",
	"javascript": ".js",
	"js":         ".js",
	"typescript": ".ts",
	"ts":         ".ts",
	"html":       ".html",
	"css":        ".css",
	"json":       ".json",
	"bash":       ".sh",
	"shell":      ".sh",
	"sh":         ".sh",
	"ruby":       ".rb",
	"go":         ".go",
	"java":       ".java",
	"c":          ".c",
	"cpp":        ".cpp",
	"c++":        ".cpp",
	"rust":       ".rs",
	"rs":         ".rs",
}

// Directives are tried in order; the first match wins.
var directives = []*regexp.Regexp{
	regexp.MustCompile(`(?://|#)\s*filename\s*:\s*(\S+)`),
	regexp.MustCompile(`/\*\s*filename\s*:\s*(\S+)\s*\*/`),
	regexp.MustCompile(`<!--\s*filename\s*:\s*(\S+)\s*-->`),
}

var pythonClass = regexp.MustCompile(`class\s+(\w+)`)

// Extension returns the file extension for a language tag, ".txt" when the
// language is unknown.
func Extension(lang string) string {
	if ext, ok := extensions[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return ext
	}
	return ".txt"
}

// Advisor picks file names for code blocks.
type Advisor struct {
	Now func() time.Time
}

// Suggest is Advisor.Suggest with the wall clock.
func Suggest(lang, content string) string {
	return Advisor{}.Suggest(lang, content)
}

// Suggest returns a file name for a block of the given language.
//
// An explicit "filename:" directive in a comment wins. Otherwise a few
// language heuristics apply, and the fallback is file_<unix>.<ext>.
func (a Advisor) Suggest(lang, content string) string {
	for _, re := range directives {
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}

	lang = strings.ToLower(strings.TrimSpace(lang))
	switch lang {
	case "python", "py":
		if strings.Contains(content, "def main") || strings.Contains(content, `if __name__ == "__main__"`) {
			return "main.py"
		}
		if strings.Contains(content, "class") {
			if m := pythonClass.FindStringSubmatch(content); m != nil {
				return strings.ToLower(m[1]) + ".py"
			}
		}
	case "js", "javascript":
		if strings.Contains(content, "function main") || strings.Contains(content, "const main") {
			return "main.js"
		}
	case "html":
		return "index.html"
	case "sh", "bash", "shell":
		return "script.sh"
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return fmt.Sprintf("file_%d%s", now().Unix(), Extension(lang))
}
