package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dealerflow/dealerflow/internal/engine"
)

// ConversationsHandler exposes conversation state and the manual reply
// trigger.
type ConversationsHandler struct {
	engine *engine.Engine
	store  engine.Store
	logger *slog.Logger
}

func NewConversationsHandler(log *slog.Logger, eng *engine.Engine, store engine.Store) *ConversationsHandler {
	return &ConversationsHandler{
		engine: eng,
		store:  store,
		logger: log.With(slog.String("handler", "conversations")),
	}
}

func (h *ConversationsHandler) Register(e *echo.Echo) {
	group := e.Group("/conversations")
	group.GET("/:id", h.GetConversation)
	group.GET("/:id/messages", h.ListMessages)
	group.POST("/:id/reply", h.TriggerReply)
}

type conversationResponse struct {
	ID            string `json:"id"`
	AgentID       string `json:"agent_id"`
	LeadEmail     string `json:"lead_email"`
	ThreadID      string `json:"thread_id"`
	Subject       string `json:"subject"`
	Status        string `json:"status"`
	LastMessageID string `json:"last_message_id"`
	MessageCount  int    `json:"message_count"`
}

type messageResponse struct {
	ID             string   `json:"id"`
	Content        string   `json:"content"`
	Sender         string   `json:"sender"`
	MessageID      string   `json:"message_id"`
	InReplyTo      string   `json:"in_reply_to,omitempty"`
	References     []string `json:"references"`
	Status         string   `json:"status"`
	HandoverNotice bool     `json:"handover_notice"`
}

// GetConversation godoc
// @Summary Get a conversation
// @Tags conversations
// @Param id path string true "Conversation ID"
// @Success 200 {object} conversationResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id} [get]
func (h *ConversationsHandler) GetConversation(c echo.Context) error {
	conv, err := h.store.GetConversation(c.Request().Context(), strings.TrimSpace(c.Param("id")))
	if errors.Is(err, engine.ErrConversationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if err != nil {
		h.logger.Error("get conversation failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, toConversationResponse(conv))
}

// ListMessages godoc
// @Summary List messages in a conversation
// @Tags conversations
// @Param id path string true "Conversation ID"
// @Success 200 {array} messageResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages [get]
func (h *ConversationsHandler) ListMessages(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := h.store.GetConversation(c.Request().Context(), id); err != nil {
		if errors.Is(err, engine.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		h.logger.Error("get conversation failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	msgs, err := h.store.AllMessages(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("list messages failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, toMessageResponse(msg))
	}
	return c.JSON(http.StatusOK, out)
}

// TriggerReply godoc
// @Summary Generate and send the next automated reply
// @Tags conversations
// @Param id path string true "Conversation ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /conversations/{id}/reply [post]
func (h *ConversationsHandler) TriggerReply(c echo.Context) error {
	msg, err := h.engine.GenerateResponse(c.Request().Context(), strings.TrimSpace(c.Param("id")))
	if errors.Is(err, engine.ErrConversationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if errors.Is(err, engine.ErrHandedOver) {
		return echo.NewHTTPError(http.StatusConflict, "conversation already handed over")
	}
	if err != nil {
		h.logger.Error("reply generation failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "reply failed")
	}
	return c.JSON(http.StatusOK, toMessageResponse(msg))
}

func toConversationResponse(conv engine.Conversation) conversationResponse {
	return conversationResponse{
		ID:            conv.ID,
		AgentID:       conv.AgentID,
		LeadEmail:     conv.LeadEmail,
		ThreadID:      conv.ThreadID,
		Subject:       conv.Subject,
		Status:        conv.Status,
		LastMessageID: conv.LastMessageID,
		MessageCount:  conv.MessageCount,
	}
}

func toMessageResponse(msg engine.Message) messageResponse {
	refs := msg.References
	if refs == nil {
		refs = []string{}
	}
	return messageResponse{
		ID:             msg.ID,
		Content:        msg.Content,
		Sender:         msg.Sender,
		MessageID:      msg.MessageID,
		InReplyTo:      msg.InReplyTo,
		References:     refs,
		Status:         msg.Status,
		HandoverNotice: msg.HandoverNotice,
	}
}
