package mail

import "context"

// Transport dispatches a composed outbound message via an email provider.
type Transport interface {
	// Send returns the provider-side delivery id. The protocol Message-ID
	// is always msg.MessageID; providers must not mint their own.
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}
