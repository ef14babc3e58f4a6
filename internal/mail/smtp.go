package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/dealerflow/dealerflow/internal/config"
)

// SMTPTransport sends outbound mail over plain SMTP for self-hosted setups.
type SMTPTransport struct {
	logger *slog.Logger
	cfg    config.SMTPConfig
}

func NewSMTPTransport(log *slog.Logger, cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{
		logger: log.With(slog.String("transport", "smtp")),
		cfg:    cfg,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return "", fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return "", fmt.Errorf("set to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return "", fmt.Errorf("set reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	m.SetMessageIDWithValue(innerID(msg.MessageID))
	if msg.InReplyTo != "" {
		m.SetGenHeader(gomail.Header("In-Reply-To"), CanonicalID(msg.InReplyTo))
	}
	if len(msg.References) > 0 {
		m.SetGenHeader(gomail.Header("References"), FormatReferences(msg.References))
	}

	opts := []gomail.Option{
		gomail.WithPort(t.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(t.cfg.Username),
		gomail.WithPassword(t.cfg.Password),
	}
	switch t.cfg.Security {
	case "tls":
		opts = append(opts, gomail.WithSSLPort(false), gomail.WithTLSPolicy(gomail.TLSMandatory))
	case "starttls":
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}

	t.logger.Debug("smtp accepted message", slog.String("message_id", msg.MessageID))
	return msg.MessageID, nil
}

var _ Transport = (*SMTPTransport)(nil)
