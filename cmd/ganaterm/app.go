package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"ganaterm/pkg/ai"
	_ "ganaterm/pkg/ai/providers"
	"ganaterm/pkg/config"
	"ganaterm/pkg/executor"
	"ganaterm/pkg/history"
	"ganaterm/pkg/logging"
	"ganaterm/pkg/orchestrator"
	"ganaterm/pkg/prompt"
	"ganaterm/pkg/render"
	"ganaterm/pkg/runner"
	"ganaterm/pkg/status"
	"ganaterm/pkg/system"
	"ganaterm/pkg/version"
)

const programName = "ganaterm"

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitInterrupt = 130
	exitTerminate = 143
)

// exitError carries a process exit code out of a cobra RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(msg string) error {
	return &exitError{code: exitUsage, err: errors.New(msg)}
}

type options struct {
	test    bool
	version bool
}

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	mu     sync.Mutex
	input  *prompt.Terminal
	cancel context.CancelFunc
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

// run executes the CLI and returns the process exit code.
func (a *app) run(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	cmd := a.rootCommand(ctx)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	// Flag parsing errors.
	fmt.Fprintln(a.errOut, render.ErrorStyle.Render("错误: "+err.Error()))
	return exitUsage
}

// interrupt restores the terminal and returns the exit code for sig.
func (a *app) interrupt(sig os.Signal) int {
	a.mu.Lock()
	input, cancel := a.input, a.cancel
	a.mu.Unlock()

	if input != nil {
		input.Restore()
	}
	if cancel != nil {
		cancel()
	}
	fmt.Fprintln(a.errOut, "\n"+render.WarningStyle.Render("Ctrl+C 被按下，正在退出..."))
	return exitCodeFor(sig)
}

func exitCodeFor(sig os.Signal) int {
	if sig == syscall.SIGTERM {
		return exitTerminate
	}
	return exitInterrupt
}

func (a *app) rootCommand(ctx context.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   programName + " <provider> [prompt...]",
		Short: "Ask a model for shell help and act on its answer",
		Long: "ganaterm streams an answer from the selected provider, falls back to the\n" +
			"others when it fails, and offers to run the commands and save the code\n" +
			"blocks it suggests.\n\nProviders: " + ai.SelectorHelp(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRoot(ctx, opts, args)
		},
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	cmd.SetIn(a.in)

	flags := cmd.Flags()
	// Everything after the provider belongs to the prompt, dashes included.
	flags.SetInterspersed(false)
	flags.BoolVarP(&opts.test, "test", "t", false, "print the terminal compatibility report")
	flags.BoolVar(&opts.version, "version", false, "print version information")
	return cmd
}

func (a *app) printUsage() {
	fmt.Fprintln(a.errOut, render.WarningStyle.Render("用法: ganaterm <模型> [问题]"))
	fmt.Fprintln(a.errOut, render.WarningStyle.Render("模型: "+ai.SelectorHelp()))
	fmt.Fprintln(a.errOut, render.WarningStyle.Render("例如: ganaterm d '如何在Linux中查找文件?'"))
}

func (a *app) runRoot(ctx context.Context, opts *options, args []string) error {
	if opts.version {
		fmt.Fprint(a.out, version.Detailed(programName))
		return nil
	}

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		fmt.Fprintf(a.errOut, "Error loading config: %v\n", err)
		return &exitError{code: exitFailure, err: err}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(a.errOut, "Invalid config: %v\n", err)
		return &exitError{code: exitFailure, err: err}
	}

	term := system.DetectTerminalFor(a.out)
	out := newRenderer(a.out, cfg, term)

	if opts.test {
		printCompatReport(out, cfg, term)
		return nil
	}

	if len(args) == 0 {
		a.printUsage()
		return usageError("missing provider")
	}
	provider, ok := ai.ParseSelector(args[0])
	if !ok {
		fmt.Fprintln(a.errOut, render.ErrorStyle.Render("错误: 模型只能是 "+ai.SelectorHelp()))
		return usageError("unknown provider " + args[0])
	}

	input := prompt.NewTerminal(a.in, a.out)
	a.mu.Lock()
	a.input = input
	a.mu.Unlock()

	question := strings.Join(args[1:], " ")
	if strings.TrimSpace(question) == "" {
		question, err = input.ReadPrompt(ctx)
		if err != nil && !errors.Is(err, prompt.ErrNoAnswer) {
			return &exitError{code: exitFailure, err: err}
		}
	}
	if strings.TrimSpace(question) == "" {
		fmt.Fprintln(a.errOut, render.ErrorStyle.Render("错误: 请输入问题"))
		return usageError("empty prompt")
	}

	logger, err := logging.Init(cfg)
	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: logging disabled: %v\n", err)
	}

	store := history.NewStore(cfg.HistoryPath())
	conv, skipped, err := store.Load()
	if err != nil {
		logger.Warn("history_load_failed", "path", store.Path(), "error", err)
		conv = ai.NewConversation()
	}
	if skipped > 0 {
		out.Warn(fmt.Sprintf("历史文件解析错误，跳过 %d 行", skipped))
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	exec := &executor.Executor{
		Decisions: input,
		Runner:    &runner.Runner{Dir: wd, Out: out},
		Out:       out,
		Dir:       wd,
	}
	orch := &orchestrator.Orchestrator{
		Session:        &orchestrator.Session{Conversation: conv, Preferred: provider},
		Config:         cfg,
		History:        store,
		Out:            out,
		Executor:       exec,
		Env:            system.Collect(wd),
		IndicatorLabel: render.InfoStyle.Render(status.DefaultLabel),
		Logger:         logger,
	}
	if term.IsTTY {
		orch.IndicatorOut = a.out
	}
	exec.Editor = orch

	slog.Info("session_started", "provider", provider, "history_messages", conv.Len()-1)
	if _, err := orch.Turn(ctx, question); err != nil {
		if errors.Is(err, prompt.ErrNoAnswer) || errors.Is(err, context.Canceled) {
			return nil
		}
		logger.Error("turn_failed", "error", err)
		out.Error(err.Error())
	}
	return nil
}

func newRenderer(w io.Writer, cfg config.Config, term system.Terminal) *render.Renderer {
	return render.New(w, render.Options{
		UseMarkdown:    cfg.UseMarkdown,
		UseTypewriter:  cfg.UseTypewriter,
		TypingSpeedWPM: cfg.TypingSpeedWPM,
		Width:          term.Width,
		ASCIIBoxes:     term.ASCIIBoxes(),
		BasicColor:     term.IsZsh && !term.TrueColor,
		Plain:          !term.IsTTY,
	})
}
