//go:build windows

package runner

import "os/exec"

func configureCommandProcess(cmd *exec.Cmd, interactive bool) {}

func terminateCommandProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
