//go:build !windows

package runner

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureCommandProcess leaves an interactive child in the terminal's
// foreground process group so sudo prompts and reads from /dev/tty work.
// Any other child leads its own group so cancellation reaches everything
// the shell spawned.
func configureCommandProcess(cmd *exec.Cmd, interactive bool) {
	if interactive {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminateCommandProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return
	}
	// Only signal a group the child leads; an interactive child shares ours.
	if pgid, err := unix.Getpgid(pid); err == nil && pgid == pid {
		_ = unix.Kill(-pgid, unix.SIGKILL)
		return
	}
	_ = unix.Kill(pid, unix.SIGKILL)
}
