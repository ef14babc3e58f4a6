// Package agentcore generates the automated reply for one conversation turn
// and decides whether the model itself wants a human to take over.
package agentcore

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/dealerflow/dealerflow/internal/metrics"
)

// cannedReply is used when the model is unreachable; the handover signal is
// still computed locally so financing/test-drive asks are never dropped.
const cannedReply = "Thanks for reaching out! I want to make sure I get you accurate details, so let me check on that and get right back to you."

// VarHandoverTriggers is the agent variable holding a comma-separated
// custom trigger list merged into the built-in one.
const VarHandoverTriggers = "handover_triggers"

// Decision is the outcome of one generation turn.
type Decision struct {
	Reply    string
	Handover bool
	Reason   string
	// Structured reports whether the model returned a parseable JSON
	// decision or the fallback path computed Handover locally.
	Structured bool
}

// GenerateInput carries everything one turn needs; the Core itself holds no
// per-conversation state.
type GenerateInput struct {
	SystemPrompt string
	History      []ChatMessage
	Variables    map[string]string
}

type Core struct {
	logger   *slog.Logger
	client   ChatClient
	counters *metrics.Counters
}

func New(log *slog.Logger, client ChatClient, counters *metrics.Counters) *Core {
	return &Core{
		logger:   log.With(slog.String("component", "agentcore")),
		client:   client,
		counters: counters,
	}
}

// Generate renders the prompt, calls the model, and parses the decision.
// It never returns an error: transport failures degrade to a canned reply
// with locally computed handover so the turn is always answered.
func (c *Core) Generate(ctx context.Context, in GenerateInput) Decision {
	systemPrompt := RenderTemplate(in.SystemPrompt, in.Variables)
	lastUser := lastUserMessage(in.History)
	custom := in.Variables[VarHandoverTriggers]

	raw, err := c.client.Chat(ctx, systemPrompt, in.History)
	if err != nil {
		c.logger.Warn("model call failed, degrading to canned reply", slog.Any("error", err))
		c.counters.ModelFailures.Add(1)
		return Decision{
			Reply:    cannedReply,
			Handover: DetectHandoverTriggers(lastUser, custom),
			Reason:   "model unavailable, local trigger detection",
		}
	}

	if structured, ok := parseStructured(raw); ok {
		return Decision{
			Reply:      structured.Reply,
			Handover:   structured.Handover,
			Reason:     structured.Reason,
			Structured: true,
		}
	}

	c.counters.ParseFallbacks.Add(1)
	c.logger.Debug("model output not structured, using raw text",
		slog.String("prefix", truncate(raw, 120)))
	return Decision{
		Reply:    strings.TrimSpace(raw),
		Handover: DetectHandoverTriggers(lastUser, custom),
		Reason:   "local trigger detection",
	}
}

// structuredOutput is the JSON contract the system prompt asks the model
// for. Only a string reply plus boolean handover is accepted as structured.
type structuredOutput struct {
	Reply    string
	Handover bool
	Reason   string
}

func parseStructured(raw string) (structuredOutput, bool) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &decoded); err != nil {
		return structuredOutput{}, false
	}
	reply, replyOK := decoded["reply"].(string)
	handover, handoverOK := decoded["handover"].(bool)
	if !replyOK || !handoverOK {
		return structuredOutput{}, false
	}
	reason, _ := decoded["reason"].(string)
	return structuredOutput{Reply: reply, Handover: handover, Reason: reason}, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func lastUserMessage(history []ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}
