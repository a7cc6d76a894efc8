// Package orchestrator runs one prompt/response turn: it tries providers
// in order until one streams a non-empty answer, records the exchange and
// hands the answer to the executor.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"ganaterm/pkg/ai"
	"ganaterm/pkg/config"
	"ganaterm/pkg/logging"
	"ganaterm/pkg/parse"
	"ganaterm/pkg/status"
	"ganaterm/pkg/stream"
)

// FallbackMessages are shown when every provider failed.
var FallbackMessages = []string{
	"看起来网络有点问题，无法连接到服务器。",
	"API服务暂时不可用，请稍后再试。",
	"无法连接到AI服务，请检查你的网络连接。",
	"服务器似乎没有响应，请稍后再试。",
	"API调用失败，请确认你的API密钥是否有效。",
}

// ErrNoProvider marks a turn in which no provider produced an answer. It
// is logged, never returned: the caller receives a fallback message.
var ErrNoProvider = errors.New("no provider produced a response")

// Session is the state carried between turns.
type Session struct {
	Conversation *ai.Conversation
	Preferred    ai.ProviderType
}

// Attempt is one entry of a turn's trial list.
type Attempt struct {
	Provider      ai.ProviderType
	HasCredential bool
}

// TrialList orders providers for a turn: preferred first, then order,
// without duplicates.
func TrialList(preferred ai.ProviderType, order []string, hasCredential func(string) bool) []Attempt {
	seen := make(map[ai.ProviderType]bool, len(order)+1)
	var attempts []Attempt
	add := func(p ai.ProviderType) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		attempts = append(attempts, Attempt{Provider: p, HasCredential: hasCredential(string(p))})
	}
	add(preferred)
	for _, name := range order {
		add(ai.ProviderType(name))
	}
	return attempts
}

// History persists messages as they are appended.
type History interface {
	Append(msg ai.Message) error
}

// Processor acts on the commands and blocks of an answer.
type Processor interface {
	Process(ctx context.Context, res parse.Result) error
}

// Output is what a turn prints through. *render.Renderer satisfies it.
type Output interface {
	UserEcho(prompt string)
	ProviderLabel(name string)
	Delta(fragment string)
	EndStream()
	Warn(msg string)
	Message(text string)
	Recap(cleaned string)
}

// ProviderFactory builds the provider for one attempt.
type ProviderFactory func(ai.ProviderType) (ai.Provider, error)

// Orchestrator drives turns for a Session.
type Orchestrator struct {
	Session  *Session
	Config   config.Config
	History  History
	Out      Output
	Executor Processor
	Env      ai.EnvironmentInfo

	// Providers defaults to the registry with Config.
	Providers ProviderFactory
	// IndicatorOut receives the thinking animation; nil disables it.
	IndicatorOut   io.Writer
	IndicatorLabel string
	// Rand picks the fallback message; defaults to math/rand/v2.
	Rand   func(n int) int
	Now    func() time.Time
	Logger *slog.Logger
}

// Turn sends prompt and returns the answer. When every provider fails it
// returns a fallback message and a nil error; errors come only from ctx or
// from the executor.
func (o *Orchestrator) Turn(ctx context.Context, prompt string) (string, error) {
	logger, turnID := logging.WithTurn(o.Logger)
	logger.Info("turn_started", "preferred", o.Session.Preferred)

	o.Out.UserEcho(prompt)
	o.record(logger, ai.RoleUser, prompt)

	attempts := TrialList(o.Session.Preferred, o.Config.FallbackOrder, o.Config.HasCredential)
	for _, a := range attempts {
		if !a.HasCredential {
			logger.Debug("provider_skipped", "provider", a.Provider, "reason", "no_credential")
			continue
		}

		text, err := o.attempt(ctx, logger, a.Provider)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			logger.Warn("provider_attempt_failed", "provider", a.Provider, "error", err)
			o.Out.Warn(fmt.Sprintf("模型 %s 失败，尝试下一个...", a.Provider))
			continue
		}

		o.record(logger, ai.RoleAssistant, text)
		o.Session.Preferred = a.Provider
		logger.Info("turn_completed", "provider", a.Provider, "chars", len(text))

		res := parse.Parse(text)
		if res.Empty() {
			return text, nil
		}
		o.Out.Recap(res.Cleaned)
		if o.Executor == nil {
			return text, nil
		}
		if err := o.Executor.Process(ctx, res); err != nil {
			return text, fmt.Errorf("turn %s: %w", turnID, err)
		}
		return text, nil
	}

	msg := FallbackMessages[o.intn(len(FallbackMessages))]
	logger.Warn("all_providers_failed", "error", ErrNoProvider, "attempts", len(attempts))
	o.record(logger, ai.RoleAssistant, msg)
	o.Out.Message(msg)
	return msg, nil
}

// Edit sends an edit request as a new turn.
func (o *Orchestrator) Edit(ctx context.Context, request string) error {
	_, err := o.Turn(ctx, request)
	return err
}

// attempt runs one provider. The indicator spins until the stream is open
// and is always stopped on return.
func (o *Orchestrator) attempt(ctx context.Context, logger *slog.Logger, p ai.ProviderType) (string, error) {
	label := o.IndicatorLabel
	if label == "" {
		label = status.DefaultLabel
	}
	indicator := status.Start(o.IndicatorOut, label)
	defer indicator.Stop()

	provider, err := o.provider(p)
	if err != nil {
		return "", fmt.Errorf("create %s provider: %w", p, err)
	}

	req := ai.ChatRequest{
		Messages: ai.WithEnvironment(o.Session.Conversation.Messages(), o.Env),
	}
	logger.Debug("provider_attempt", "provider", p, "messages", len(req.Messages))

	s, err := provider.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", err
	}
	indicator.Stop()

	labelled := false
	text, err := stream.Aggregate(ctx, s, func(fragment string) {
		if !labelled {
			o.Out.ProviderLabel(string(p))
			labelled = true
		}
		o.Out.Delta(fragment)
	})
	if labelled {
		o.Out.EndStream()
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) provider(p ai.ProviderType) (ai.Provider, error) {
	if o.Providers != nil {
		return o.Providers(p)
	}
	return ai.GetProvider(ai.ProviderConfig{Type: p, Config: o.Config})
}

// record appends to the conversation and persists. Persistence failures
// are logged; the turn goes on.
func (o *Orchestrator) record(logger *slog.Logger, role, content string) {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	msg := ai.Message{Role: role, Content: content, Timestamp: now()}
	o.Session.Conversation.Append(msg)

	if o.History == nil {
		return
	}
	if err := o.History.Append(msg); err != nil {
		logger.Warn("history_append_failed", "role", role, "error", err)
	}
}

func (o *Orchestrator) intn(n int) int {
	if o.Rand != nil {
		return o.Rand(n)
	}
	return rand.IntN(n)
}
