package handover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideConfigTriggerWins(t *testing.T) {
	cfg := Config{Triggers: []string{"financing", "test drive"}}

	d := Decide(cfg, "What FINANCING options do I have?", ModelSignal{Handover: false})
	require.True(t, d.Handover)
	assert.Equal(t, TriggeredByConfig, d.TriggeredBy)
	assert.Contains(t, d.Reason, "financing")
}

func TestDecideConfigBeatsModelReason(t *testing.T) {
	cfg := Config{Triggers: []string{"price"}}

	// Even when the model also wants a handover, the configured trigger is
	// reported as the source.
	d := Decide(cfg, "what's the price?", ModelSignal{Handover: true, Reason: "model says so"})
	assert.Equal(t, TriggeredByConfig, d.TriggeredBy)
}

func TestDecideModelSignal(t *testing.T) {
	d := Decide(Config{Triggers: []string{"price"}}, "tell me about the warranty", ModelSignal{Handover: true, Reason: "lead is frustrated"})
	require.True(t, d.Handover)
	assert.Equal(t, TriggeredByModel, d.TriggeredBy)
	assert.Equal(t, "lead is frustrated", d.Reason)
}

func TestDecideModelSignalDefaultReason(t *testing.T) {
	d := Decide(Config{}, "hello", ModelSignal{Handover: true})
	assert.Equal(t, "model requested handover", d.Reason)
}

func TestDecideNoHandover(t *testing.T) {
	d := Decide(Config{Triggers: []string{"price", " ", ""}}, "does it come in blue?", ModelSignal{})
	assert.False(t, d.Handover)
	assert.Empty(t, d.TriggeredBy)
}

func TestBuildBrief(t *testing.T) {
	history := []Turn{
		{Sender: "lead", Content: "I'm interested in the 2023 hybrid SUV you listed."},
		{Sender: "agent", Content: "Great choice! It has low mileage."},
		{Sender: "lead", Content: "What would my monthly payment be? I'd also like a test drive and a trade-in quote for my sedan."},
	}

	brief := BuildBrief(history, "Dana", "configured trigger \"payment\" matched", TriggeredByConfig)

	assert.Contains(t, brief.Summary, "Dana")
	assert.Contains(t, brief.Summary, "2 messages")
	assert.Contains(t, brief.Intents, "financing")
	assert.Contains(t, brief.Intents, "test_drive")
	assert.Contains(t, brief.Intents, "trade_in")
	assert.NotEmpty(t, brief.VehicleInterest)
	assert.Equal(t, TriggeredByConfig, brief.TriggeredBy)
}

func TestBuildBriefUrgency(t *testing.T) {
	low := BuildBrief([]Turn{{Sender: "lead", Content: "does it come in blue?"}}, "", "r", TriggeredByModel)
	assert.Equal(t, "low", low.Urgency)

	high := BuildBrief([]Turn{
		{Sender: "lead", Content: "I need the price and payment today"},
		{Sender: "lead", Content: "can we schedule an appointment asap, and quote my trade"},
	}, "", "r", TriggeredByModel)
	assert.Equal(t, "high", high.Urgency)
}

func TestBuildBriefEmptyHistory(t *testing.T) {
	brief := BuildBrief(nil, "", "reason", TriggeredByModel)
	assert.Equal(t, "Lead has not written yet.", brief.Summary)
	assert.Equal(t, "low", brief.Urgency)
	assert.Empty(t, brief.Intents)
}
