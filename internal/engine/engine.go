// Package engine orchestrates the conversation lifecycle: inbound intake,
// response generation, handover, and manual sends.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dealerflow/dealerflow/internal/agentcore"
	"github.com/dealerflow/dealerflow/internal/config"
	"github.com/dealerflow/dealerflow/internal/handover"
	"github.com/dealerflow/dealerflow/internal/mail"
	"github.com/dealerflow/dealerflow/internal/metrics"
)

// Agent variables consumed by the engine, beyond the ones agentcore reads.
const (
	VarHandoffMessage    = "handoff_message"
	VarHandoverRecipient = "handover_recipient"
)

// historyTurns is how many stored messages feed the model per turn.
const historyTurns = 5

type Engine struct {
	logger    *slog.Logger
	store     Store
	core      *agentcore.Core
	transport mail.Transport
	counters  *metrics.Counters
	sending   config.SendingConfig
}

func New(log *slog.Logger, store Store, core *agentcore.Core, transport mail.Transport, counters *metrics.Counters, sending config.SendingConfig) *Engine {
	return &Engine{
		logger:    log.With(slog.String("service", "engine")),
		store:     store,
		core:      core,
		transport: transport,
		counters:  counters,
		sending:   sending,
	}
}

// ProcessInbound stores one normalized inbound email and, when the
// conversation is still active, generates the automated reply. Replays of an
// already-stored Message-ID are dropped silently; that unique key is the
// idempotency guarantee for webhook retries.
func (e *Engine) ProcessInbound(ctx context.Context, in mail.InboundEmail) error {
	e.counters.InboundReceived.Add(1)

	agent, err := e.store.GetAgentByMailbox(ctx, in.AgentLocalPart, in.AgentDomain)
	if err != nil {
		return err
	}

	if _, found, err := e.store.GetMessageByMessageID(ctx, in.MessageID); err != nil {
		return err
	} else if found {
		e.counters.InboundDuplicates.Add(1)
		e.logger.Info("duplicate inbound dropped",
			slog.String("message_id", in.MessageID))
		return nil
	}

	conv, err := e.resolveConversation(ctx, agent, in)
	if err != nil {
		return err
	}

	content := in.Text
	if content == "" {
		content = in.HTML
	}
	if _, err := e.store.InsertMessage(ctx, Message{
		ConversationID: conv.ID,
		Content:        content,
		Sender:         SenderLead,
		MessageID:      in.MessageID,
		InReplyTo:      in.InReplyTo,
		References:     in.References,
		Status:         MessageStored,
	}); err != nil {
		return err
	}
	if err := e.store.SetLastMessageID(ctx, conv.ID, in.MessageID); err != nil {
		return err
	}
	e.logger.Info("inbound stored",
		slog.String("conversation_id", conv.ID),
		slog.String("message_id", in.MessageID),
		slog.String("lead", in.FromEmail))

	if conv.Status == StatusHandedOver {
		e.logger.Info("conversation handed over, not replying",
			slog.String("conversation_id", conv.ID))
		return nil
	}

	_, err = e.GenerateResponse(ctx, conv.ID)
	return err
}

// GenerateResponse produces and sends the next automated reply for an active
// conversation. The outbound row is written as pending before the transport
// call; only a successful send flips it to sent and advances the
// conversation's last message pointer.
func (e *Engine) GenerateResponse(ctx context.Context, conversationID string) (Message, error) {
	conv, err := e.store.GetConversation(ctx, conversationID)
	if err != nil {
		return Message{}, err
	}
	if conv.Status == StatusHandedOver {
		return Message{}, ErrHandedOver
	}
	agent, err := e.store.GetAgentByID(ctx, conv.AgentID)
	if err != nil {
		return Message{}, err
	}

	recent, err := e.store.RecentMessages(ctx, conv.ID, historyTurns)
	if err != nil {
		return Message{}, err
	}
	history := make([]agentcore.ChatMessage, 0, len(recent))
	lastUser := ""
	for _, msg := range recent {
		role := "assistant"
		if msg.Sender == SenderLead {
			role = "user"
			lastUser = msg.Content
		}
		history = append(history, agentcore.ChatMessage{Role: role, Content: msg.Content})
	}

	generated := e.core.Generate(ctx, agentcore.GenerateInput{
		SystemPrompt: agent.SystemPrompt,
		History:      history,
		Variables:    agent.Variables,
	})

	decision := handover.Decide(
		handover.Config{
			Triggers:  agentcore.Triggers(agent.Variables[agentcore.VarHandoverTriggers]),
			Recipient: agent.Variables[VarHandoverRecipient],
		},
		lastUser,
		handover.ModelSignal{Handover: generated.Handover, Reason: generated.Reason},
	)

	reply := strings.TrimSpace(generated.Reply)
	if footer := urlFooter(matchURLTriggers(e.logger, agent.Variables, lastUser)); footer != "" {
		reply += footer
	}
	if decision.Handover {
		reply += "\n\n" + e.handoffSentence(agent)
	}

	messageID := mail.NewMessageID(agent.Domain)
	references := []string{}
	if conv.LastMessageID != "" {
		parentRefs := []string{}
		if parent, found, err := e.store.GetMessageByMessageID(ctx, conv.LastMessageID); err != nil {
			return Message{}, err
		} else if found {
			parentRefs = parent.References
		}
		references = mail.BuildReferences(parentRefs, conv.LastMessageID)
	}

	stored, err := e.store.InsertMessage(ctx, Message{
		ConversationID: conv.ID,
		Content:        reply,
		Sender:         SenderAgent,
		MessageID:      messageID,
		InReplyTo:      conv.LastMessageID,
		References:     references,
		Status:         MessagePending,
		HandoverNotice: decision.Handover,
	})
	if err != nil {
		return Message{}, err
	}

	_, sendErr := e.transport.Send(ctx, mail.OutboundMessage{
		From:       agent.Address(),
		ReplyTo:    agent.Address(),
		To:         conv.LeadEmail,
		Subject:    replySubject(conv.Subject),
		Text:       reply,
		MessageID:  messageID,
		InReplyTo:  conv.LastMessageID,
		References: references,
	})
	if sendErr != nil {
		e.counters.OutboundFailed.Add(1)
		if err := e.store.UpdateMessageStatus(ctx, stored.ID, MessageFailed); err != nil {
			e.logger.Error("mark failed", slog.String("message_id", messageID), slog.Any("error", err))
		}
		return Message{}, fmt.Errorf("send reply: %w", sendErr)
	}

	e.counters.OutboundSent.Add(1)
	if err := e.store.UpdateMessageStatus(ctx, stored.ID, MessageSent); err != nil {
		return Message{}, err
	}

	if decision.Handover {
		if err := e.handOver(ctx, conv, agent, decision, messageID); err != nil {
			return Message{}, err
		}
	} else if err := e.store.SetLastMessageID(ctx, conv.ID, messageID); err != nil {
		return Message{}, err
	}

	e.logger.Info("reply sent",
		slog.String("conversation_id", conv.ID),
		slog.String("message_id", messageID),
		slog.Bool("handover", decision.Handover),
		slog.Bool("structured", generated.Structured))
	stored.Status = MessageSent
	return stored, nil
}

func (e *Engine) handOver(ctx context.Context, conv Conversation, agent Agent, decision handover.Decision, lastMessageID string) error {
	all, err := e.store.AllMessages(ctx, conv.ID)
	if err != nil {
		return err
	}
	turns := make([]handover.Turn, 0, len(all))
	for _, msg := range all {
		turns = append(turns, handover.Turn{Sender: msg.Sender, Content: msg.Content})
	}
	brief := handover.BuildBrief(turns, leadName(conv.LeadEmail), decision.Reason, decision.TriggeredBy)
	briefJSON, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}
	if err := e.store.MarkHandedOver(ctx, conv.ID, decision.Reason, briefJSON, lastMessageID); err != nil {
		return err
	}
	e.counters.Handovers.Add(1)
	e.logger.Info("conversation handed over",
		slog.String("conversation_id", conv.ID),
		slog.String("triggered_by", decision.TriggeredBy),
		slog.String("reason", decision.Reason),
		slog.String("recipient", agent.Variables[VarHandoverRecipient]))
	return nil
}

func (e *Engine) handoffSentence(agent Agent) string {
	if custom := strings.TrimSpace(agent.Variables[VarHandoffMessage]); custom != "" {
		return custom
	}
	return e.sending.Handoff()
}

// SendRequest is a manual outbound send on behalf of an agent.
type SendRequest struct {
	AgentID        string
	To             string
	Subject        string
	HTML           string
	ConversationID string
}

// SendResult reports the identifiers of a manual send.
type SendResult struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	From           string `json:"from"`
	ReplyTo        string `json:"reply_to"`
}

// SendManual sends an operator-composed email from an agent's mailbox. The
// agent's domain must be on the sending allow-list. Without a conversation id
// a new conversation is opened for the recipient.
func (e *Engine) SendManual(ctx context.Context, req SendRequest) (SendResult, error) {
	agent, err := e.store.GetAgentByID(ctx, req.AgentID)
	if err != nil {
		return SendResult{}, err
	}
	if !e.sending.DomainAllowed(agent.Domain) {
		return SendResult{}, fmt.Errorf("%w: %s", ErrDomainNotAllowed, agent.Domain)
	}

	messageID := mail.NewMessageID(agent.Domain)

	var conv Conversation
	if req.ConversationID != "" {
		conv, err = e.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return SendResult{}, err
		}
	} else {
		conv, err = e.store.CreateConversation(ctx, Conversation{
			AgentID:   agent.ID,
			LeadEmail: req.To,
			ThreadID:  messageID,
			Subject:   req.Subject,
		})
		if err != nil {
			return SendResult{}, err
		}
	}

	references := []string{}
	if conv.LastMessageID != "" {
		references = mail.BuildReferences(nil, conv.LastMessageID)
	}
	stored, err := e.store.InsertMessage(ctx, Message{
		ConversationID: conv.ID,
		Content:        req.HTML,
		Sender:         SenderAgent,
		MessageID:      messageID,
		InReplyTo:      conv.LastMessageID,
		References:     references,
		Status:         MessagePending,
	})
	if err != nil {
		return SendResult{}, err
	}

	_, sendErr := e.transport.Send(ctx, mail.OutboundMessage{
		From:       agent.Address(),
		ReplyTo:    agent.Address(),
		To:         req.To,
		Subject:    req.Subject,
		HTML:       req.HTML,
		MessageID:  messageID,
		InReplyTo:  conv.LastMessageID,
		References: references,
	})
	if sendErr != nil {
		e.counters.OutboundFailed.Add(1)
		if err := e.store.UpdateMessageStatus(ctx, stored.ID, MessageFailed); err != nil {
			e.logger.Error("mark failed", slog.String("message_id", messageID), slog.Any("error", err))
		}
		return SendResult{}, fmt.Errorf("manual send: %w", sendErr)
	}

	e.counters.OutboundSent.Add(1)
	if err := e.store.UpdateMessageStatus(ctx, stored.ID, MessageSent); err != nil {
		return SendResult{}, err
	}
	if err := e.store.SetLastMessageID(ctx, conv.ID, messageID); err != nil {
		return SendResult{}, err
	}

	e.logger.Info("manual message sent",
		slog.String("agent_id", agent.ID),
		slog.String("conversation_id", conv.ID),
		slog.String("message_id", messageID))
	return SendResult{
		MessageID:      messageID,
		ConversationID: conv.ID,
		From:           agent.Address(),
		ReplyTo:        agent.Address(),
	}, nil
}

func replySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return "Re: your inquiry"
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

func leadName(leadEmail string) string {
	local, _, ok := strings.Cut(leadEmail, "@")
	if !ok || local == "" {
		return ""
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return strings.TrimSpace(local)
}
