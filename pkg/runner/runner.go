// Package runner executes approved shell commands while mirroring their
// output to the terminal.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/term"
)

const fallbackShell = "/bin/sh"

// Reporter receives the lines a command produces and the runner's own
// notices. *render.Renderer satisfies it.
type Reporter interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
	Stdout(line string)
	Stderr(line string)
}

// Result describes a finished command.
type Result struct {
	ExitCode int
	Success  bool
	Stdout   string
	Stderr   string
}

// Runner runs commands through the user's shell.
type Runner struct {
	// Shell defaults to $SHELL, then /bin/sh.
	Shell string
	Dir   string
	// Stdin is handed to the child; nil means os.Stdin. A terminal stdin
	// keeps the child in the foreground process group so it can prompt.
	Stdin io.Reader
	Out   Reporter

	mu sync.Mutex
}

// New returns a Runner reporting to out.
func New(out Reporter) *Runner {
	return &Runner{Out: out}
}

func (r *Runner) shell() string {
	if r.Shell != "" {
		return r.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return fallbackShell
}

func (r *Runner) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

// isTerminal reports whether in is a file attached to a terminal.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run executes command with "<shell> -c" and blocks until the child exits.
// A non-zero exit is reported in Result, not as an error; errors mean the
// command could not be started or ctx ended first.
func (r *Runner) Run(ctx context.Context, command string) (Result, error) {
	r.Out.Info("执行命令: " + command)

	cmd := exec.CommandContext(ctx, r.shell(), "-c", command)
	cmd.Dir = r.Dir
	cmd.Stdin = r.stdin()
	configureCommandProcess(cmd, isTerminal(cmd.Stdin))
	cmd.Cancel = func() error {
		terminateCommandProcess(cmd)
		return nil
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, r.startFailed(command, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, r.startFailed(command, err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, r.startFailed(command, err)
	}

	var outBuf, errBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.mirror(stdout, &outBuf, r.Out.Stdout)
	}()
	go func() {
		defer wg.Done()
		r.mirror(stderr, &errBuf, r.Out.Stderr)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
	}
	res.Success = waitErr == nil && res.ExitCode == 0

	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.Info("command_cancelled", "command", command, "error", ctxErr)
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return res, r.startFailed(command, waitErr)
	}

	slog.Info("command_finished", "command", command, "exit_code", res.ExitCode)
	if res.Success {
		r.Out.Success("命令执行成功")
	} else {
		r.Out.Error(fmt.Sprintf("命令执行失败，返回码: %d", res.ExitCode))
	}
	return res, nil
}

func (r *Runner) startFailed(command string, err error) error {
	slog.Error("command_start_failed", "command", command, "error", err)
	r.Out.Error("执行命令出错: " + err.Error())
	return fmt.Errorf("run %q: %w", command, err)
}

// mirror copies lines from src to emit and buf. emit calls are serialized
// across both pipes.
func (r *Runner) mirror(src io.Reader, buf *strings.Builder, emit func(string)) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')

		r.mu.Lock()
		emit(line)
		r.mu.Unlock()
	}
	if err := scanner.Err(); err != nil {
		slog.Debug("command_output_truncated", "error", err)
		// Drain the rest so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, src)
	}
}
