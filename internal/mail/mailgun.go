package mail

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	mg "github.com/mailgun/mailgun-go/v5"

	"github.com/dealerflow/dealerflow/internal/config"
)

// signatureFreshness rejects replayed webhook signatures older than this.
const signatureFreshness = 15 * time.Minute

// MailgunTransport sends outbound mail through the Mailgun API.
type MailgunTransport struct {
	logger *slog.Logger
	client *mg.Client
}

func NewMailgunTransport(log *slog.Logger, cfg config.MailgunConfig) *MailgunTransport {
	client := mg.NewMailgun(cfg.APIKey)
	if cfg.Region == "eu" {
		client.SetAPIBase(mg.APIBaseEU)
	}
	return &MailgunTransport{
		logger: log.With(slog.String("transport", "mailgun")),
		client: client,
	}
}

func (t *MailgunTransport) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	domain := addressDomain(msg.From)
	if domain == "" {
		return "", fmt.Errorf("sender %q has no domain", msg.From)
	}

	m := mg.NewMessage(domain, msg.From, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		m.SetHTML(msg.HTML)
	}
	for header, value := range BuildHeaders(msg.MessageID, msg.InReplyTo) {
		m.AddHeader(header, value)
	}
	if len(msg.References) > 0 {
		m.AddHeader("References", FormatReferences(msg.References))
	}
	if msg.ReplyTo != "" {
		m.AddHeader("Reply-To", msg.ReplyTo)
	}

	resp, err := t.client.Send(ctx, m)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	t.logger.Debug("mailgun accepted message",
		slog.String("message_id", msg.MessageID),
		slog.String("provider_id", resp.ID))
	return resp.ID, nil
}

// SignatureParams are the webhook signature fields Mailgun sends alongside
// either payload shape.
type SignatureParams struct {
	Timestamp string
	Token     string
	Signature string
}

// ExtractSignatureParams pulls the signature fields out of a webhook
// request. JSON payloads carry them either at the top level or under a
// "signature" object; form payloads carry them as flat fields.
func ExtractSignatureParams(r *http.Request, body []byte) SignatureParams {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var nested struct {
			Signature struct {
				Timestamp string `json:"timestamp"`
				Token     string `json:"token"`
				Signature string `json:"signature"`
			} `json:"signature"`
		}
		if err := json.Unmarshal(body, &nested); err == nil && nested.Signature.Signature != "" {
			return SignatureParams{
				Timestamp: nested.Signature.Timestamp,
				Token:     nested.Signature.Token,
				Signature: nested.Signature.Signature,
			}
		}
		var flat struct {
			Timestamp string `json:"timestamp"`
			Token     string `json:"token"`
			Signature string `json:"signature"`
		}
		_ = json.Unmarshal(body, &flat)
		return SignatureParams{Timestamp: flat.Timestamp, Token: flat.Token, Signature: flat.Signature}
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		_ = r.ParseForm()
	}
	return SignatureParams{
		Timestamp: r.FormValue("timestamp"),
		Token:     r.FormValue("token"),
		Signature: r.FormValue("signature"),
	}
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature Mailgun computes
// over timestamp+token, and enforces a freshness window against replays.
func VerifyWebhookSignature(signingKey, timestamp, token, signature string) error {
	if strings.TrimSpace(signingKey) == "" {
		return fmt.Errorf("webhook signing key not configured")
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp: %w", err)
	}
	if time.Since(time.Unix(ts, 0)) > signatureFreshness {
		return fmt.Errorf("webhook timestamp too old")
	}

	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(timestamp + token))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature verification failed")
	}
	return nil
}

func addressDomain(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	return strings.Trim(addr[at+1:], ">")
}

var _ Transport = (*MailgunTransport)(nil)
