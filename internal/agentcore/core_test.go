package agentcore

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerflow/dealerflow/internal/metrics"
)

type fakeChatClient struct {
	response  string
	err       error
	gotSystem string
}

func (f *fakeChatClient) Chat(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error) {
	f.gotSystem = systemPrompt
	return f.response, f.err
}

func newTestCore(client ChatClient, counters *metrics.Counters) *Core {
	return New(slog.Default(), client, counters)
}

func TestGenerateStructuredOutput(t *testing.T) {
	client := &fakeChatClient{response: `{"reply":"We have three hybrids in stock.","handover":false,"reason":""}`}
	core := newTestCore(client, metrics.NewCounters())

	d := core.Generate(context.Background(), GenerateInput{
		SystemPrompt: "You are {{agent_name}}.",
		History:      []ChatMessage{{Role: "user", Content: "Any hybrids?"}},
		Variables:    map[string]string{"agent_name": "Alex"},
	})

	assert.True(t, d.Structured)
	assert.Equal(t, "We have three hybrids in stock.", d.Reply)
	assert.False(t, d.Handover)
	assert.Equal(t, "You are Alex.", client.gotSystem)
}

func TestGenerateStructuredHandover(t *testing.T) {
	client := &fakeChatClient{response: `{"reply":"Let me get you to a teammate.","handover":true,"reason":"lead wants pricing"}`}
	core := newTestCore(client, metrics.NewCounters())

	d := core.Generate(context.Background(), GenerateInput{
		History: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	assert.True(t, d.Handover)
	assert.Equal(t, "lead wants pricing", d.Reason)
}

func TestGenerateStripsCodeFence(t *testing.T) {
	client := &fakeChatClient{response: "```json\n{\"reply\":\"Sure thing.\",\"handover\":false}\n```"}
	core := newTestCore(client, metrics.NewCounters())

	d := core.Generate(context.Background(), GenerateInput{})
	assert.True(t, d.Structured)
	assert.Equal(t, "Sure thing.", d.Reply)
}

func TestGenerateUnstructuredFallsBackToLocalDetection(t *testing.T) {
	client := &fakeChatClient{response: "Happy to help! Want to schedule a visit?"}
	counters := metrics.NewCounters()
	core := newTestCore(client, counters)

	d := core.Generate(context.Background(), GenerateInput{
		History: []ChatMessage{
			{Role: "assistant", Content: "Hi!"},
			{Role: "user", Content: "What financing options do I have?"},
		},
	})

	assert.False(t, d.Structured)
	assert.Equal(t, "Happy to help! Want to schedule a visit?", d.Reply)
	assert.True(t, d.Handover)
	assert.Equal(t, int64(1), counters.Snapshot()["parse_fallbacks"])
}

func TestGeneratePartialJSONIsNotStructured(t *testing.T) {
	// Handover must be a real boolean for the output to count as structured.
	client := &fakeChatClient{response: `{"reply":"hi","handover":"yes"}`}
	core := newTestCore(client, metrics.NewCounters())

	d := core.Generate(context.Background(), GenerateInput{})
	assert.False(t, d.Structured)
	assert.Equal(t, `{"reply":"hi","handover":"yes"}`, d.Reply)
}

func TestGenerateDegradesWhenModelUnavailable(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	counters := metrics.NewCounters()
	core := newTestCore(client, counters)

	d := core.Generate(context.Background(), GenerateInput{
		History: []ChatMessage{{Role: "user", Content: "Can I get a quote?"}},
	})

	require.NotEmpty(t, d.Reply)
	assert.False(t, d.Structured)
	assert.True(t, d.Handover)
	// Transport degradation is counted on its own, not as a parse fallback.
	assert.Equal(t, int64(1), counters.Snapshot()["model_failures"])
	assert.Equal(t, int64(0), counters.Snapshot()["parse_fallbacks"])
}

func TestGenerateCustomTriggersInFallback(t *testing.T) {
	client := &fakeChatClient{err: errors.New("timeout")}
	core := newTestCore(client, metrics.NewCounters())

	d := core.Generate(context.Background(), GenerateInput{
		History:   []ChatMessage{{Role: "user", Content: "do you take crypto?"}},
		Variables: map[string]string{VarHandoverTriggers: "crypto"},
	})
	assert.True(t, d.Handover)
}
