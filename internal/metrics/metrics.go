// Package metrics holds advisory counters for the conversation engine.
// Counters are injected, never global, so tests stay isolated.
package metrics

import "sync/atomic"

type Counters struct {
	InboundReceived   atomic.Int64
	InboundDuplicates atomic.Int64
	OutboundSent      atomic.Int64
	OutboundFailed    atomic.Int64
	Handovers         atomic.Int64
	ParseFallbacks    atomic.Int64
	ModelFailures     atomic.Int64
}

func NewCounters() *Counters {
	return &Counters{}
}

// Snapshot returns the current counter values for the metrics endpoint.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"inbound_received":   c.InboundReceived.Load(),
		"inbound_duplicates": c.InboundDuplicates.Load(),
		"outbound_sent":      c.OutboundSent.Load(),
		"outbound_failed":    c.OutboundFailed.Load(),
		"handovers":          c.Handovers.Load(),
		"parse_fallbacks":    c.ParseFallbacks.Load(),
		"model_failures":     c.ModelFailures.Load(),
	}
}
