// Package handover decides when a conversation leaves the automated agent
// and builds the escalation brief for the human taking over.
package handover

import (
	"fmt"
	"regexp"
	"strings"
)

// Trigger sources. Configured rules are more auditable than model judgment,
// so "config" always wins over "model".
const (
	TriggeredByConfig = "config"
	TriggeredByModel  = "model"
)

// Config carries the per-agent handover rules.
type Config struct {
	Triggers  []string
	Recipient string
}

// ModelSignal is the model's own handover verdict for the turn.
type ModelSignal struct {
	Handover bool
	Reason   string
}

// Decision is the combined handover outcome.
type Decision struct {
	Handover    bool
	Reason      string
	TriggeredBy string
}

// Decide merges configured trigger keywords with the model signal. A
// configured keyword in the last user message forces handover regardless of
// what the model decided.
func Decide(cfg Config, lastUserMessage string, model ModelSignal) Decision {
	lower := strings.ToLower(lastUserMessage)
	for _, trigger := range cfg.Triggers {
		trigger = strings.ToLower(strings.TrimSpace(trigger))
		if trigger == "" {
			continue
		}
		if strings.Contains(lower, trigger) {
			return Decision{
				Handover:    true,
				Reason:      fmt.Sprintf("configured trigger %q matched", trigger),
				TriggeredBy: TriggeredByConfig,
			}
		}
	}
	if model.Handover {
		reason := model.Reason
		if reason == "" {
			reason = "model requested handover"
		}
		return Decision{Handover: true, Reason: reason, TriggeredBy: TriggeredByModel}
	}
	return Decision{}
}

// Turn is one stored message from the conversation history.
type Turn struct {
	Sender  string // lead or agent
	Content string
}

// Brief is the structured escalation summary persisted on the conversation
// and shown to the human agent.
type Brief struct {
	Summary         string   `json:"summary"`
	Urgency         string   `json:"urgency"`
	Intents         []string `json:"intents"`
	VehicleInterest string   `json:"vehicle_interest,omitempty"`
	LeadName        string   `json:"lead_name,omitempty"`
	Reason          string   `json:"reason"`
	TriggeredBy     string   `json:"triggered_by"`
}

var intentKeywords = map[string][]string{
	"financing":   {"financ", "loan", "credit", "approval", "payment"},
	"pricing":     {"price", "quote", "cost", "how much"},
	"test_drive":  {"test drive", "test-drive"},
	"trade_in":    {"trade-in", "trade in", "tradein"},
	"appointment": {"appointment", "schedule", "visit", "come in", "come by"},
}

var urgencyKeywords = []string{
	"price", "payment", "financ", "approval", "quote", "appointment",
	"schedule", "trade", "manager", "human", "test drive", "today",
	"asap", "now", "urgent",
}

var vehicleHints = regexp.MustCompile(`(?i)\b(suv|sedan|truck|coupe|hatchback|minivan|crossover|hybrid|ev|electric)\b|\b(19|20)\d{2}\b|interested in`)

// BuildBrief summarizes the conversation heuristically: first and latest
// lead turns, urgency from trigger keyword density, extracted intents, and
// the first vehicle-interest sentence.
func BuildBrief(history []Turn, leadName, reason, triggeredBy string) Brief {
	leadTurns := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Sender == "lead" && strings.TrimSpace(turn.Content) != "" {
			leadTurns = append(leadTurns, strings.TrimSpace(turn.Content))
		}
	}

	return Brief{
		Summary:         summarize(leadTurns, leadName),
		Urgency:         classifyUrgency(leadTurns),
		Intents:         extractIntents(leadTurns),
		VehicleInterest: extractVehicleInterest(leadTurns),
		LeadName:        leadName,
		Reason:          reason,
		TriggeredBy:     triggeredBy,
	}
}

func summarize(leadTurns []string, leadName string) string {
	who := leadName
	if who == "" {
		who = "Lead"
	}
	switch len(leadTurns) {
	case 0:
		return fmt.Sprintf("%s has not written yet.", who)
	case 1:
		return fmt.Sprintf("%s wrote: %s", who, firstSentence(leadTurns[0]))
	default:
		return fmt.Sprintf("%s sent %d messages. Opened with: %s Most recent: %s",
			who, len(leadTurns),
			firstSentence(leadTurns[0]),
			firstSentence(leadTurns[len(leadTurns)-1]))
	}
}

func classifyUrgency(leadTurns []string) string {
	hits := 0
	for _, turn := range leadTurns {
		lower := strings.ToLower(turn)
		for _, kw := range urgencyKeywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
	}
	switch {
	case hits >= 4:
		return "high"
	case hits >= 2:
		return "medium"
	default:
		return "low"
	}
}

func extractIntents(leadTurns []string) []string {
	found := []string{}
	seen := map[string]struct{}{}
	for _, turn := range leadTurns {
		lower := strings.ToLower(turn)
		for intent, keywords := range intentKeywords {
			if _, dup := seen[intent]; dup {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					seen[intent] = struct{}{}
					found = append(found, intent)
					break
				}
			}
		}
	}
	return found
}

func extractVehicleInterest(leadTurns []string) string {
	for _, turn := range leadTurns {
		for _, sentence := range splitSentences(turn) {
			if vehicleHints.MatchString(sentence) {
				return strings.TrimSpace(sentence)
			}
		}
	}
	return ""
}

func firstSentence(s string) string {
	sentences := splitSentences(s)
	if len(sentences) == 0 {
		return s
	}
	out := strings.TrimSpace(sentences[0])
	if len(out) > 200 {
		out = out[:200] + "..."
	}
	return out
}

var sentenceSplit = regexp.MustCompile(`(?m)[.!?\n]+`)

func splitSentences(s string) []string {
	parts := sentenceSplit.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}
