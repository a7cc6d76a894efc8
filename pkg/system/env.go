package system

import (
	"log/slog"
	"os"
	"strings"

	"ganaterm/pkg/ai"

	git "github.com/go-git/go-git/v5"
)

// Collect gathers the environment summary sent alongside each request.
// Every field is best effort; failures leave the field empty.
func Collect(dir string) ai.EnvironmentInfo {
	env := ai.EnvironmentInfo{
		Shell:      os.Getenv("SHELL"),
		WorkingDir: dir,
		GitBranch:  GitBranch(dir),
	}

	info, err := GetOSInfo()
	if err != nil {
		slog.Debug("os_info_failed", "error", err)
	}
	env.OS = info.String()
	return env
}

// GitBranch names the checked-out branch of the repository containing dir,
// or the short commit hash when HEAD is detached. Outside a repository it
// returns "".
func GitBranch(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}

	if name := head.Name(); name.IsBranch() {
		return name.Short()
	}
	hash := head.Hash().String()
	if len(hash) > 7 {
		hash = hash[:7]
	}
	return hash
}
