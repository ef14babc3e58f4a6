package agentcore

import "strings"

// defaultTriggers are the intents a human must take over: pricing,
// financing, scheduling, trade-ins, and explicit requests for a person.
var defaultTriggers = []string{
	"price",
	"payment",
	"financ",
	"approval",
	"quote",
	"appointment",
	"schedule",
	"trade-in",
	"trade in",
	"manager",
	"human",
	"real person",
	"speak to someone",
	"test drive",
	"visit",
	"come in",
}

// Triggers returns the built-in trigger phrases merged with a
// comma-separated custom list.
func Triggers(custom string) []string {
	out := make([]string, 0, len(defaultTriggers)+4)
	out = append(out, defaultTriggers...)
	for _, trigger := range strings.Split(custom, ",") {
		trigger = strings.ToLower(strings.TrimSpace(trigger))
		if trigger != "" {
			out = append(out, trigger)
		}
	}
	return out
}

// DetectHandoverTriggers reports whether text contains a handover trigger,
// matching the built-in phrase list plus a comma-separated custom list.
func DetectHandoverTriggers(text, custom string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range defaultTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	for _, trigger := range strings.Split(custom, ",") {
		trigger = strings.ToLower(strings.TrimSpace(trigger))
		if trigger != "" && strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
