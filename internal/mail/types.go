// Package mail owns inbound normalization, RFC 5322 threading headers,
// and the outbound transports.
package mail

// InboundEmail is the canonical form of an inbound webhook delivery,
// regardless of which payload shape the provider used.
type InboundEmail struct {
	AgentLocalPart string `validate:"required"`
	AgentDomain    string `validate:"required"`
	FromEmail      string `validate:"required,email"`
	Subject        string `validate:"required"`
	Text           string
	HTML           string
	MessageID      string `validate:"required"`
	InReplyTo      string
	// References is never nil; parsers must default it to an empty list.
	References []string
	RawHeaders map[string]string
}

// OutboundMessage is a fully composed email handed to a Transport.
// MessageID is generated before the send so storage and the wire agree
// even when the provider call fails partway.
type OutboundMessage struct {
	From       string
	ReplyTo    string
	To         string
	Subject    string
	Text       string
	HTML       string
	MessageID  string
	InReplyTo  string
	References []string
}
