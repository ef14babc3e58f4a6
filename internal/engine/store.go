package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dealerflow/dealerflow/internal/db"
	"github.com/dealerflow/dealerflow/internal/db/sqlc"
)

// Conversation status values. The transition active -> handed_over is
// one-way and terminal.
const (
	StatusActive     = "active"
	StatusHandedOver = "handed_over"
)

// Message sender values.
const (
	SenderLead  = "lead"
	SenderAgent = "agent"
)

// Message status values. Inbound messages are always stored; the
// pending/sent/failed lifecycle applies to outbound only.
const (
	MessageStored  = "stored"
	MessagePending = "pending"
	MessageSent    = "sent"
	MessageFailed  = "failed"
)

var (
	ErrAgentNotFound        = errors.New("agent not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrHandedOver           = errors.New("conversation already handed over")
	ErrDomainNotAllowed     = errors.New("sending domain not allowed")
)

// Agent is the sending identity loaded fresh per response generation.
type Agent struct {
	ID           string
	DisplayName  string
	LocalPart    string
	Domain       string
	Variables    map[string]string
	SystemPrompt string
}

// Address is the agent's own mailbox, used for From and Reply-To.
func (a Agent) Address() string {
	return a.LocalPart + "@" + a.Domain
}

type Conversation struct {
	ID            string
	AgentID       string
	LeadEmail     string
	ThreadID      string
	Subject       string
	Status        string
	LastMessageID string
	MessageCount  int
}

type Message struct {
	ID             string
	ConversationID string
	Content        string
	Sender         string
	MessageID      string
	InReplyTo      string
	References     []string
	Status         string
	HandoverNotice bool
}

// Store is the engine's view of persistence. The relational store is the
// single source of truth; nothing is cached across requests.
type Store interface {
	GetAgentByMailbox(ctx context.Context, localPart, domain string) (Agent, error)
	GetAgentByID(ctx context.Context, id string) (Agent, error)

	GetConversation(ctx context.Context, id string) (Conversation, error)
	LatestConversationForLead(ctx context.Context, agentID, leadEmail string) (Conversation, bool, error)
	CreateConversation(ctx context.Context, conv Conversation) (Conversation, error)
	SetLastMessageID(ctx context.Context, conversationID, messageID string) error
	MarkHandedOver(ctx context.Context, conversationID, reason string, brief []byte, lastMessageID string) error

	GetMessageByMessageID(ctx context.Context, messageID string) (Message, bool, error)
	InsertMessage(ctx context.Context, msg Message) (Message, error)
	UpdateMessageStatus(ctx context.Context, id, status string) error
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	AllMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// DBStore implements Store over the sqlc query layer.
type DBStore struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewDBStore(log *slog.Logger, queries *sqlc.Queries) *DBStore {
	return &DBStore{
		queries: queries,
		logger:  log.With(slog.String("component", "engine_store")),
	}
}

func (s *DBStore) GetAgentByMailbox(ctx context.Context, localPart, domain string) (Agent, error) {
	row, err := s.queries.GetAgentByMailbox(ctx, sqlc.GetAgentByMailboxParams{
		LocalPart: localPart,
		Domain:    domain,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrAgentNotFound
	}
	if err != nil {
		return Agent{}, fmt.Errorf("get agent by mailbox: %w", err)
	}
	return s.toAgent(ctx, row)
}

func (s *DBStore) GetAgentByID(ctx context.Context, id string) (Agent, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Agent{}, ErrAgentNotFound
	}
	row, err := s.queries.GetAgentByID(ctx, pgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrAgentNotFound
	}
	if err != nil {
		return Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return s.toAgent(ctx, row)
}

func (s *DBStore) toAgent(ctx context.Context, row sqlc.Agent) (Agent, error) {
	tpl, err := s.queries.GetPromptTemplateByID(ctx, row.PromptTemplateID)
	if err != nil {
		return Agent{}, fmt.Errorf("get prompt template: %w", err)
	}
	variables := map[string]string{}
	if len(row.Variables) > 0 {
		if err := json.Unmarshal(row.Variables, &variables); err != nil {
			s.logger.Warn("agent variables unmarshal failed",
				slog.String("agent_id", row.ID.String()), slog.Any("error", err))
		}
	}
	return Agent{
		ID:           row.ID.String(),
		DisplayName:  row.DisplayName,
		LocalPart:    row.LocalPart,
		Domain:       row.Domain,
		Variables:    variables,
		SystemPrompt: tpl.Body,
	}, nil
}

func (s *DBStore) GetConversation(ctx context.Context, id string) (Conversation, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Conversation{}, ErrConversationNotFound
	}
	row, err := s.queries.GetConversationByID(ctx, pgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return toConversation(row), nil
}

func (s *DBStore) LatestConversationForLead(ctx context.Context, agentID, leadEmail string) (Conversation, bool, error) {
	pgAgentID, err := db.ParseUUID(agentID)
	if err != nil {
		return Conversation{}, false, fmt.Errorf("invalid agent id: %w", err)
	}
	row, err := s.queries.GetLatestConversationByAgentAndLead(ctx, sqlc.GetLatestConversationByAgentAndLeadParams{
		AgentID:   pgAgentID,
		LeadEmail: leadEmail,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, fmt.Errorf("latest conversation: %w", err)
	}
	return toConversation(row), true, nil
}

func (s *DBStore) CreateConversation(ctx context.Context, conv Conversation) (Conversation, error) {
	pgAgentID, err := db.ParseUUID(conv.AgentID)
	if err != nil {
		return Conversation{}, fmt.Errorf("invalid agent id: %w", err)
	}
	row, err := s.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		AgentID:       pgAgentID,
		LeadEmail:     conv.LeadEmail,
		ThreadID:      conv.ThreadID,
		Subject:       conv.Subject,
		LastMessageID: conv.LastMessageID,
	})
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return toConversation(row), nil
}

func (s *DBStore) SetLastMessageID(ctx context.Context, conversationID, messageID string) error {
	pgID, err := db.ParseUUID(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation id: %w", err)
	}
	return s.queries.UpdateConversationLastMessage(ctx, sqlc.UpdateConversationLastMessageParams{
		ID:            pgID,
		LastMessageID: messageID,
	})
}

func (s *DBStore) MarkHandedOver(ctx context.Context, conversationID, reason string, brief []byte, lastMessageID string) error {
	pgID, err := db.ParseUUID(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation id: %w", err)
	}
	return s.queries.MarkConversationHandedOver(ctx, sqlc.MarkConversationHandedOverParams{
		ID:             pgID,
		HandoverReason: pgtype.Text{String: reason, Valid: reason != ""},
		HandoverBrief:  brief,
		LastMessageID:  lastMessageID,
	})
}

func (s *DBStore) GetMessageByMessageID(ctx context.Context, messageID string) (Message, bool, error) {
	row, err := s.queries.GetMessageByMessageID(ctx, messageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("get message: %w", err)
	}
	return toMessage(row), true, nil
}

func (s *DBStore) InsertMessage(ctx context.Context, msg Message) (Message, error) {
	pgConvID, err := db.ParseUUID(msg.ConversationID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid conversation id: %w", err)
	}
	refs := msg.References
	if refs == nil {
		refs = []string{}
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return Message{}, fmt.Errorf("marshal references: %w", err)
	}
	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		ConversationID: pgConvID,
		Content:        msg.Content,
		Sender:         msg.Sender,
		MessageID:      msg.MessageID,
		InReplyTo:      msg.InReplyTo,
		References:     refsJSON,
		Status:         msg.Status,
		HandoverNotice: msg.HandoverNotice,
	})
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	if err := s.queries.IncrementConversationMessageCount(ctx, pgConvID); err != nil {
		return Message{}, fmt.Errorf("bump message count: %w", err)
	}
	return toMessage(row), nil
}

func (s *DBStore) UpdateMessageStatus(ctx context.Context, id, status string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("invalid message id: %w", err)
	}
	return s.queries.UpdateMessageStatus(ctx, sqlc.UpdateMessageStatusParams{
		ID:     pgID,
		Status: status,
	})
}

func (s *DBStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	pgID, err := db.ParseUUID(conversationID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation id: %w", err)
	}
	rows, err := s.queries.ListRecentMessagesByConversation(ctx, sqlc.ListRecentMessagesByConversationParams{
		ConversationID: pgID,
		Lim:            int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	// Query returns newest first; callers want chronological order.
	out := make([]Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, toMessage(rows[i]))
	}
	return out, nil
}

func (s *DBStore) AllMessages(ctx context.Context, conversationID string) ([]Message, error) {
	pgID, err := db.ParseUUID(conversationID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation id: %w", err)
	}
	rows, err := s.queries.ListMessagesByConversation(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMessage(row))
	}
	return out, nil
}

func toConversation(row sqlc.Conversation) Conversation {
	return Conversation{
		ID:            row.ID.String(),
		AgentID:       row.AgentID.String(),
		LeadEmail:     row.LeadEmail,
		ThreadID:      row.ThreadID,
		Subject:       row.Subject,
		Status:        row.Status,
		LastMessageID: row.LastMessageID,
		MessageCount:  int(row.MessageCount),
	}
}

func toMessage(row sqlc.Message) Message {
	refs := []string{}
	if len(row.References) > 0 {
		_ = json.Unmarshal(row.References, &refs)
	}
	return Message{
		ID:             row.ID.String(),
		ConversationID: row.ConversationID.String(),
		Content:        row.Content,
		Sender:         row.Sender,
		MessageID:      row.MessageID,
		InReplyTo:      row.InReplyTo,
		References:     refs,
		Status:         row.Status,
		HandoverNotice: row.HandoverNotice,
	}
}

var _ Store = (*DBStore)(nil)
