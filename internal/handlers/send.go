package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dealerflow/dealerflow/internal/auth"
	"github.com/dealerflow/dealerflow/internal/engine"
)

// SendHandler exposes the manual outbound send endpoint.
type SendHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSendHandler(log *slog.Logger, eng *engine.Engine) *SendHandler {
	return &SendHandler{
		engine: eng,
		logger: log.With(slog.String("handler", "send")),
	}
}

func (h *SendHandler) Register(e *echo.Echo) {
	e.POST("/send", h.Send)
}

type sendRequest struct {
	AgentID        string `json:"agent_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTML           string `json:"html"`
	ConversationID string `json:"conversation_id"`
}

// Send godoc
// @Summary Send a manual email from an agent mailbox
// @Tags send
// @Param request body sendRequest true "Outbound message"
// @Success 200 {object} engine.SendResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /send [post]
func (h *SendHandler) Send(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.AgentID) == "" || strings.TrimSpace(req.To) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "agent_id and to are required")
	}

	result, err := h.engine.SendManual(c.Request().Context(), engine.SendRequest{
		AgentID:        req.AgentID,
		To:             strings.TrimSpace(req.To),
		Subject:        req.Subject,
		HTML:           req.HTML,
		ConversationID: strings.TrimSpace(req.ConversationID),
	})
	if errors.Is(err, engine.ErrAgentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	if errors.Is(err, engine.ErrConversationNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if errors.Is(err, engine.ErrDomainNotAllowed) {
		return echo.NewHTTPError(http.StatusForbidden, "sending domain not allowed")
	}
	if err != nil {
		h.logger.Error("manual send failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "send failed")
	}

	operator, _ := auth.UserIDFromContext(c)
	h.logger.Info("manual send",
		slog.String("operator", operator),
		slog.String("conversation_id", result.ConversationID),
		slog.String("message_id", result.MessageID))
	return c.JSON(http.StatusOK, result)
}
