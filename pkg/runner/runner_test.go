package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	info   []string
	ok     []string
	errs   []string
	stdout []string
	stderr []string
}

func (r *recorder) Info(msg string)    { r.add(&r.info, msg) }
func (r *recorder) Success(msg string) { r.add(&r.ok, msg) }
func (r *recorder) Error(msg string)   { r.add(&r.errs, msg) }
func (r *recorder) Stdout(line string) { r.add(&r.stdout, line) }
func (r *recorder) Stderr(line string) { r.add(&r.stderr, line) }
func (r *recorder) add(dst *[]string, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*dst = append(*dst, s)
}

func newShRunner(rec *recorder) *Runner {
	r := New(rec)
	r.Shell = "/bin/sh"
	r.Stdin = strings.NewReader("")
	return r
}

func TestRun_Success(t *testing.T) {
	rec := &recorder{}
	res, err := newShRunner(rec).Run(context.Background(), "echo one; echo two")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.Success || res.ExitCode != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Stdout != "one\ntwo\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if strings.Join(rec.stdout, ",") != "one,two" {
		t.Fatalf("expected mirrored stdout, got %v", rec.stdout)
	}
	if len(rec.info) != 1 || rec.info[0] != "执行命令: echo one; echo two" {
		t.Fatalf("unexpected notice %v", rec.info)
	}
	if len(rec.ok) != 1 || rec.ok[0] != "命令执行成功" {
		t.Fatalf("expected success notice, got %v", rec.ok)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	rec := &recorder{}
	res, err := newShRunner(rec).Run(context.Background(), "echo bad >&2; exit 3")
	if err != nil {
		t.Fatalf("non-zero exit should not be an error, got %v", err)
	}
	if res.Success || res.ExitCode != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Stderr != "bad\n" || len(rec.stderr) != 1 || rec.stderr[0] != "bad" {
		t.Fatalf("expected mirrored stderr, got %q / %v", res.Stderr, rec.stderr)
	}
	if len(rec.errs) != 1 || rec.errs[0] != "命令执行失败，返回码: 3" {
		t.Fatalf("expected failure notice, got %v", rec.errs)
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	r := newShRunner(&recorder{})
	r.Dir = dir
	res, err := r.Run(context.Background(), "ls")
	if err != nil || !strings.Contains(res.Stdout, "marker") {
		t.Fatalf("expected command to run in %s, got %+v, %v", dir, res, err)
	}
}

func TestRun_MissingShell(t *testing.T) {
	rec := &recorder{}
	r := New(rec)
	r.Shell = filepath.Join(t.TempDir(), "no-such-shell")
	if _, err := r.Run(context.Background(), "true"); err == nil {
		t.Fatal("expected start error")
	}
	if len(rec.errs) != 1 || !strings.HasPrefix(rec.errs[0], "执行命令出错: ") {
		t.Fatalf("expected start failure notice, got %v", rec.errs)
	}
}

func TestRun_ContextCancelKillsGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newShRunner(&recorder{}).Run(ctx, "sleep 5 & sleep 5; wait")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("cancellation took %v", elapsed)
	}
}

func TestRun_StdinReachesChild(t *testing.T) {
	r := newShRunner(&recorder{})
	r.Stdin = strings.NewReader("hello\n")
	res, err := r.Run(context.Background(), "read x; echo got:$x")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Stdout != "got:hello\n" {
		t.Fatalf("expected child to read stdin, got %q", res.Stdout)
	}
}

func TestShellFallback(t *testing.T) {
	t.Setenv("SHELL", "")
	if got := (&Runner{}).shell(); got != fallbackShell {
		t.Fatalf("expected %s, got %s", fallbackShell, got)
	}
	t.Setenv("SHELL", "/bin/zsh")
	if got := (&Runner{}).shell(); got != "/bin/zsh" {
		t.Fatalf("expected $SHELL, got %s", got)
	}
}
