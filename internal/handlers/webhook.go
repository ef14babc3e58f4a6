package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dealerflow/dealerflow/internal/config"
	"github.com/dealerflow/dealerflow/internal/engine"
	"github.com/dealerflow/dealerflow/internal/mail"
)

// WebhookHandler receives inbound email webhooks from Mailgun.
type WebhookHandler struct {
	engine  *engine.Engine
	mailgun config.MailgunConfig
	logger  *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, eng *engine.Engine, mailgun config.MailgunConfig) *WebhookHandler {
	return &WebhookHandler{
		engine:  eng,
		mailgun: mailgun,
		logger:  log.With(slog.String("handler", "email_webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/email/mailgun/webhook", h.HandleMailgun)
}

// HandleMailgun godoc
// @Summary Mailgun inbound email webhook
// @Description Verifies the webhook signature and processes the inbound email
// @Tags email-webhook
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /email/mailgun/webhook [post]
func (h *WebhookHandler) HandleMailgun(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	c.Request().Body = io.NopCloser(bytes.NewReader(body))

	sig := mail.ExtractSignatureParams(c.Request(), body)
	if err := mail.VerifyWebhookSignature(h.mailgun.WebhookSigningKey, sig.Timestamp, sig.Token, sig.Signature); err != nil {
		h.logger.Warn("webhook signature rejected", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	c.Request().Body = io.NopCloser(bytes.NewReader(body))
	inbound, err := mail.Normalize(c.Request())
	if err != nil {
		if errors.Is(err, mail.ErrValidation) {
			h.logger.Warn("inbound payload rejected", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		h.logger.Error("inbound parse failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "parse failed")
	}

	if err := h.engine.ProcessInbound(c.Request().Context(), inbound); err != nil {
		if errors.Is(err, engine.ErrAgentNotFound) {
			// Not our mailbox. Acknowledge so Mailgun stops retrying.
			h.logger.Info("inbound for unknown recipient dropped",
				slog.String("local_part", inbound.AgentLocalPart),
				slog.String("domain", inbound.AgentDomain))
			return c.NoContent(http.StatusNoContent)
		}
		h.logger.Error("inbound processing failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}

	return c.NoContent(http.StatusNoContent)
}
