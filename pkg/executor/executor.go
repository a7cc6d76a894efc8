// Package executor walks the user through the commands and code blocks of
// a response: confirm, copy, show, edit, rename, write and run.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ganaterm/pkg/filename"
	"ganaterm/pkg/parse"
	"ganaterm/pkg/prompt"
	"ganaterm/pkg/runner"
	"ganaterm/pkg/safety"
)

// EditPrefix starts the follow-up prompt sent when the user asks the model
// to change a block.
const EditPrefix = "请修改代码："

// Runner executes a confirmed command.
type Runner interface {
	Run(ctx context.Context, command string) (runner.Result, error)
}

// Editor sends an edit request back to the model as a new turn.
type Editor interface {
	Edit(ctx context.Context, request string) error
}

// Output is what the executor prints through. *render.Renderer satisfies it.
type Output interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Success(msg string)
	CodeBox(lang, content string)
	Copy(text string)
}

// Executor processes parsed responses. Editor may be nil, in which case
// edit requests are declined.
type Executor struct {
	Decisions prompt.Source
	Runner    Runner
	Out       Output
	Editor    Editor
	// Dir resolves suggested and relative file names. Empty means the
	// process working directory.
	Dir     string
	Advisor filename.Advisor
}

// Process resolves every command, then every block. It stops early only
// when no more answers can be read or ctx ends.
func (e *Executor) Process(ctx context.Context, res parse.Result) error {
	for _, cmd := range res.Commands {
		if err := e.handleCommand(ctx, cmd.Text); err != nil {
			return err
		}
	}
	for _, b := range res.Blocks {
		if err := e.handleBlock(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) refuseDangerous(command string) bool {
	rule, ok := safety.Match(command)
	if !ok {
		return false
	}
	slog.Warn("command_refused", "rule", rule.Name, "command", command)
	e.Out.Error("拒绝执行潜在危险命令: " + command)
	return true
}

func (e *Executor) handleCommand(ctx context.Context, command string) error {
	if e.refuseDangerous(command) {
		return nil
	}

	d, err := e.Decisions.Decide(ctx, prompt.Question{
		Kind:  prompt.AskCommand,
		Label: fmt.Sprintf("！是否执行:`%s` ?(y/n/c) c:复制到剪贴板", command),
	})
	if err != nil {
		return err
	}

	switch d.Kind {
	case prompt.Confirmed:
		return e.run(ctx, command)
	case prompt.Copied:
		e.Out.Copy(command)
		e.Out.Success("已复制到剪贴板")
	default:
		e.Out.Warn("已取消执行")
	}
	return nil
}

// run executes command. Failures are already reported by the runner, so
// only cancellation is returned.
func (e *Executor) run(ctx context.Context, command string) error {
	if _, err := e.Runner.Run(ctx, command); err != nil {
		slog.Warn("command_failed", "command", command, "error", err)
		return ctx.Err()
	}
	return nil
}

func (e *Executor) dir() string {
	if e.Dir != "" {
		return e.Dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func blockType(b parse.Block) string {
	if b.IsCommand {
		return "命令"
	}
	return b.Language + "代码"
}

func (e *Executor) handleBlock(ctx context.Context, b parse.Block) error {
	name := e.Advisor.Suggest(b.Language, b.Content)
	path := filepath.Join(e.dir(), name)
	kind := blockType(b)

	d, err := e.Decisions.Decide(ctx, prompt.Question{
		Kind:  prompt.AskBlock,
		Label: fmt.Sprintf("！检测到%s块，是否写入文件%s?(y/n/e/rnm) y:写入 n:丢弃 e:显示内容 rnm:重命名", kind, name),
	})
	if err != nil {
		return err
	}

	if d.Kind == prompt.ShowThenDecide {
		e.Out.Info("代码内容:")
		e.Out.CodeBox(b.Language, b.Content)
		d, err = e.Decisions.Decide(ctx, prompt.Question{
			Kind:  prompt.AskBlockShown,
			Label: fmt.Sprintf("！是否写入文件%s?(y/n/r/rnm) y:写入 n:丢弃 r:返回让模型修改[r 需要修改的内容] rnm:重命名", name),
		})
		if err != nil {
			return err
		}
	}

	switch d.Kind {
	case prompt.EditRequested:
		return e.requestEdit(ctx, d.Text)
	case prompt.Renamed:
		return e.renameAndWrite(ctx, b, kind, d.Text)
	case prompt.Confirmed:
		return e.write(ctx, b, path)
	default:
		e.Out.Warn("已取消写入")
		return nil
	}
}

func (e *Executor) requestEdit(ctx context.Context, text string) error {
	if text == "" || e.Editor == nil {
		e.Out.Warn("未提供修改内容，已取消")
		return nil
	}
	e.Out.Info("正在请求修改...")
	if err := e.Editor.Edit(ctx, EditPrefix+text); err != nil {
		slog.Warn("edit_request_failed", "error", err)
		return ctx.Err()
	}
	return nil
}

func (e *Executor) renameAndWrite(ctx context.Context, b parse.Block, kind, name string) error {
	if name == "" {
		e.Out.Warn("未提供有效的文件名，已取消")
		return nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dir(), path)
	}

	d, err := e.Decisions.Decide(ctx, prompt.Question{
		Kind:  prompt.AskConfirm,
		Label: fmt.Sprintf("！是否将%s块写入文件%s?(y/n)", kind, filepath.Base(path)),
	})
	if err != nil {
		return err
	}
	if d.Kind != prompt.Confirmed {
		e.Out.Warn("已取消写入")
		return nil
	}
	return e.write(ctx, b, path)
}

func (e *Executor) write(ctx context.Context, b parse.Block, path string) error {
	if err := os.WriteFile(path, []byte(b.Content), 0644); err != nil {
		slog.Error("block_write_failed", "path", path, "error", err)
		e.Out.Error("写入文件失败")
		return nil
	}
	slog.Info("block_written", "path", path, "language", b.Language, "bytes", len(b.Content))
	e.Out.Success("！写入成功！文件位置: " + path)
	return e.offerExecution(ctx, b, path)
}

// offerExecution proposes running a freshly written script. Command blocks
// the classifier rejects are never offered; other scripts are not classified,
// since the rules describe single shell lines.
func (e *Executor) offerExecution(ctx context.Context, b parse.Block, path string) error {
	launch, isShell := launchCommand(b.Language, path)
	if launch == "" {
		return nil
	}
	if b.IsCommand && e.refuseDangerous(b.Content) {
		return nil
	}

	if isShell {
		ok, err := e.confirmAndRun(ctx, "chmod +x "+shellQuote(path))
		if err != nil || !ok {
			return err
		}
		e.Out.Success("权限设置成功")
	}
	_, err := e.confirmAndRun(ctx, launch)
	return err
}

// launchCommand returns the command that runs the script at path, and
// whether it is a shell script that needs the executable bit first.
func launchCommand(lang, path string) (string, bool) {
	lang = strings.ToLower(lang)
	ext := filepath.Ext(path)
	switch {
	case lang == "sh" || lang == "bash" || lang == "shell" || ext == ".sh":
		return shellQuote(path), true
	case lang == "python" || lang == "py" || ext == ".py":
		return "python3 " + shellQuote(path), false
	case lang == "javascript" || lang == "js" || ext == ".js":
		return "node " + shellQuote(path), false
	}
	return "", false
}

// confirmAndRun asks before running command and reports whether it ran
// and succeeded.
func (e *Executor) confirmAndRun(ctx context.Context, command string) (bool, error) {
	d, err := e.Decisions.Decide(ctx, prompt.Question{
		Kind:  prompt.AskConfirm,
		Label: fmt.Sprintf("！是否执行:`%s`? (y/n)", command),
	})
	if err != nil {
		return false, err
	}
	if d.Kind != prompt.Confirmed {
		e.Out.Warn("已取消执行")
		return false, nil
	}
	res, err := e.Runner.Run(ctx, command)
	if err != nil {
		slog.Warn("command_failed", "command", command, "error", err)
		return false, ctx.Err()
	}
	return res.Success, nil
}

// shellQuote single-quotes s unless it is made only of characters the
// shell passes through unchanged.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("/._-+:@%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
