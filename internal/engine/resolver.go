package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dealerflow/dealerflow/internal/mail"
)

// resolveConversation links an inbound email to its conversation:
//
//  1. In-Reply-To pointing at a stored message wins.
//  2. Otherwise walk References newest to oldest.
//  3. Otherwise reuse the latest conversation for this agent/lead pair.
//  4. Otherwise open a new conversation; its thread id is the inbound
//     In-Reply-To, else the inbound Message-ID, else a synthetic id.
func (e *Engine) resolveConversation(ctx context.Context, agent Agent, in mail.InboundEmail) (Conversation, error) {
	if in.InReplyTo != "" {
		if conv, ok, err := e.conversationByMessageID(ctx, in.InReplyTo); err != nil {
			return Conversation{}, err
		} else if ok {
			return conv, nil
		}
	}

	for i := len(in.References) - 1; i >= 0; i-- {
		if conv, ok, err := e.conversationByMessageID(ctx, in.References[i]); err != nil {
			return Conversation{}, err
		} else if ok {
			return conv, nil
		}
	}

	conv, ok, err := e.store.LatestConversationForLead(ctx, agent.ID, in.FromEmail)
	if err != nil {
		return Conversation{}, err
	}
	if ok {
		e.logger.Debug("linked by agent/lead pair",
			slog.String("conversation_id", conv.ID),
			slog.String("lead", in.FromEmail))
		return conv, nil
	}

	threadID := in.InReplyTo
	if threadID == "" {
		threadID = in.MessageID
	}
	if threadID == "" {
		threadID = mail.NewMessageID(agent.Domain)
	}
	created, err := e.store.CreateConversation(ctx, Conversation{
		AgentID:   agent.ID,
		LeadEmail: in.FromEmail,
		ThreadID:  mail.CanonicalID(threadID),
		Subject:   in.Subject,
	})
	if err != nil {
		return Conversation{}, fmt.Errorf("open conversation: %w", err)
	}
	e.logger.Info("opened conversation",
		slog.String("conversation_id", created.ID),
		slog.String("agent_id", agent.ID),
		slog.String("lead", in.FromEmail))
	return created, nil
}

func (e *Engine) conversationByMessageID(ctx context.Context, messageID string) (Conversation, bool, error) {
	msg, found, err := e.store.GetMessageByMessageID(ctx, mail.CanonicalID(messageID))
	if err != nil || !found {
		return Conversation{}, false, err
	}
	conv, err := e.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return Conversation{}, false, fmt.Errorf("conversation for message %s: %w", messageID, err)
	}
	return conv, true, nil
}
