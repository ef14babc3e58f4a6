package mail

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	netmail "net/mail"
	"net/http"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-playground/validator/v10"
)

// ErrValidation marks an inbound payload that must be rejected before any
// persistence. It is never retried.
var ErrValidation = errors.New("invalid inbound payload")

const maxContentChars = 50_000

var (
	validate       = validator.New(validator.WithRequiredStructEnabled())
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
	referenceSplit = regexp.MustCompile(`[\s,]+`)
)

// FlatPayload is the flat field shape Mailgun posts for route forwards.
type FlatPayload struct {
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Subject    string `json:"subject"`
	BodyPlain  string `json:"body-plain"`
	BodyHTML   string `json:"body-html"`
	MessageID  string `json:"Message-Id"`
	InReplyTo  string `json:"In-Reply-To"`
	References string `json:"References"`
}

// NestedPayload is the event-data/message/headers shape of stored events.
type NestedPayload struct {
	EventData struct {
		Recipient string `json:"recipient"`
		Message   struct {
			Headers struct {
				MessageID  string `json:"message-id"`
				From       string `json:"from"`
				To         string `json:"to"`
				Subject    string `json:"subject"`
				InReplyTo  string `json:"in-reply-to"`
				References string `json:"references"`
			} `json:"headers"`
		} `json:"message"`
		BodyPlain string `json:"body-plain"`
		BodyHTML  string `json:"body-html"`
	} `json:"event-data"`
}

// Normalize detects the payload shape of an inbound webhook request and
// parses it into the canonical InboundEmail.
func Normalize(r *http.Request) (InboundEmail, error) {
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/json") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return InboundEmail{}, fmt.Errorf("read webhook body: %w", err)
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return InboundEmail{}, fmt.Errorf("%w: malformed json", ErrValidation)
		}
		if _, ok := probe["event-data"]; ok {
			var nested NestedPayload
			if err := json.Unmarshal(body, &nested); err != nil {
				return InboundEmail{}, fmt.Errorf("%w: malformed event payload", ErrValidation)
			}
			return NormalizeNested(nested)
		}
		var flat FlatPayload
		if err := json.Unmarshal(body, &flat); err != nil {
			return InboundEmail{}, fmt.Errorf("%w: malformed flat payload", ErrValidation)
		}
		return NormalizeFlat(flat)
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		if err2 := r.ParseForm(); err2 != nil {
			return InboundEmail{}, fmt.Errorf("parse form: %w", err2)
		}
	}
	return NormalizeFlat(FlatPayload{
		Sender:     r.FormValue("sender"),
		Recipient:  r.FormValue("recipient"),
		Subject:    r.FormValue("subject"),
		BodyPlain:  r.FormValue("body-plain"),
		BodyHTML:   r.FormValue("body-html"),
		MessageID:  r.FormValue("Message-Id"),
		InReplyTo:  r.FormValue("In-Reply-To"),
		References: r.FormValue("References"),
	})
}

// NormalizeFlat converts the flat shape into the canonical record.
func NormalizeFlat(p FlatPayload) (InboundEmail, error) {
	in := InboundEmail{
		FromEmail:  extractAddress(p.Sender),
		Subject:    strings.TrimSpace(p.Subject),
		Text:       p.BodyPlain,
		HTML:       p.BodyHTML,
		MessageID:  CanonicalID(p.MessageID),
		InReplyTo:  CanonicalID(p.InReplyTo),
		References: parseReferences(p.References),
		RawHeaders: map[string]string{
			"Message-Id":  p.MessageID,
			"In-Reply-To": p.InReplyTo,
			"References":  p.References,
		},
	}
	in.AgentLocalPart, in.AgentDomain = splitMailbox(p.Recipient)
	return finalize(in)
}

// NormalizeNested converts the event-data shape into the canonical record.
func NormalizeNested(p NestedPayload) (InboundEmail, error) {
	h := p.EventData.Message.Headers
	recipient := p.EventData.Recipient
	if recipient == "" {
		recipient = h.To
	}
	in := InboundEmail{
		FromEmail:  extractAddress(h.From),
		Subject:    strings.TrimSpace(h.Subject),
		Text:       p.EventData.BodyPlain,
		HTML:       p.EventData.BodyHTML,
		MessageID:  CanonicalID(h.MessageID),
		InReplyTo:  CanonicalID(h.InReplyTo),
		References: parseReferences(h.References),
		RawHeaders: map[string]string{
			"Message-Id":  h.MessageID,
			"In-Reply-To": h.InReplyTo,
			"References":  h.References,
		},
	}
	in.AgentLocalPart, in.AgentDomain = splitMailbox(recipient)
	return finalize(in)
}

// finalize applies the shared validation and sanitization contract.
func finalize(in InboundEmail) (InboundEmail, error) {
	if in.References == nil {
		in.References = []string{}
	}
	if in.Text == "" && in.HTML != "" {
		if text, err := htmltomarkdown.ConvertString(in.HTML); err == nil {
			in.Text = text
		}
	}
	in.Text = sanitizeContent(in.Text)
	in.HTML = capContent(in.HTML)

	if err := validate.Struct(in); err != nil {
		return InboundEmail{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !strings.Contains(innerID(in.MessageID), "@") {
		return InboundEmail{}, fmt.Errorf("%w: message id %q lacks @", ErrValidation, in.MessageID)
	}
	return in, nil
}

// CanonicalID normalizes a Message-ID to the angle-bracketed form used for
// storage and comparison. Empty input stays empty.
func CanonicalID(id string) string {
	inner := innerID(id)
	if inner == "" {
		return ""
	}
	return "<" + inner + ">"
}

func innerID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}

func parseReferences(raw string) []string {
	refs := []string{}
	for _, part := range referenceSplit.Split(strings.TrimSpace(raw), -1) {
		if id := CanonicalID(part); id != "" {
			refs = append(refs, id)
		}
	}
	return refs
}

func extractAddress(s string) string {
	addr, err := netmail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return addr.Address
}

func splitMailbox(recipient string) (local, domain string) {
	addr := extractAddress(strings.Split(recipient, ",")[0])
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return addr, ""
	}
	return strings.ToLower(addr[:at]), strings.ToLower(addr[at+1:])
}

func sanitizeContent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return capContent(s)
}

func capContent(s string) string {
	if len(s) <= maxContentChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxContentChars {
		return s
	}
	return string(runes[:maxContentChars])
}
