// Package greet answers casual messages in the assistant's voice, keeping the
// conversation warm without leaving the reporting domain.
package greet

import (
	"context"
	"log/slog"

	"github.com/sweetpotato0/reportflow/llm"
	"github.com/sweetpotato0/reportflow/message"
	"github.com/sweetpotato0/reportflow/pkg/logging"
	"github.com/sweetpotato0/reportflow/prompt"
)

var greetPrompt = prompt.MustTemplate("greet", `You are a friendly assistant for agents of a betting platform. You help them pull reports: Win Loss, Turnover, Outstanding and Top Outstanding.

The user's latest message is casual conversation, not a report request. Reply warmly in one or two short sentences, then remind them you can pull a report whenever they are ready. Reply in the user's language.

Recent conversation:
{{.history}}`)

// Fallback is returned when the model is unavailable; casual turns should
// never surface an error to the user.
const Fallback = "Hello! 👋 I can pull your Win Loss, Turnover, Outstanding or Top Outstanding report whenever you're ready."

// Greeter produces casual replies.
type Greeter struct {
	client llm.Client
	logger *slog.Logger
}

func New(client llm.Client) *Greeter {
	return &Greeter{client: client, logger: logging.WithComponent("greet")}
}

// Reply generates a casual response to the latest message.
func (g *Greeter) Reply(ctx context.Context, history []*message.Message, input string) string {
	var rendered string
	for _, m := range history {
		rendered += string(m.Role) + ": " + m.Content + "\n"
	}
	sys, err := greetPrompt.Render(map[string]any{"history": rendered})
	if err != nil {
		return Fallback
	}

	out, err := g.client.Complete(ctx, llm.NewRequest(sys, input))
	if err != nil || out == "" {
		g.logger.Warn("casual reply failed, using fallback", "error", err)
		return Fallback
	}
	return out
}
