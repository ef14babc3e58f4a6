package mail

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlat(t *testing.T) {
	in, err := NormalizeFlat(FlatPayload{
		Sender:     "Dana Lead <dana@example.com>",
		Recipient:  "Sales Bot <sales@dealer.example.com>",
		Subject:    "  Question about the hybrid  ",
		BodyPlain:  "Is the hybrid still available?",
		MessageID:  "abc123@mail.example.com",
		InReplyTo:  "<parent@dealer.example.com>",
		References: "<root@dealer.example.com>, <parent@dealer.example.com>",
	})
	require.NoError(t, err)

	assert.Equal(t, "dana@example.com", in.FromEmail)
	assert.Equal(t, "sales", in.AgentLocalPart)
	assert.Equal(t, "dealer.example.com", in.AgentDomain)
	assert.Equal(t, "Question about the hybrid", in.Subject)
	assert.Equal(t, "<abc123@mail.example.com>", in.MessageID)
	assert.Equal(t, "<parent@dealer.example.com>", in.InReplyTo)
	assert.Equal(t, []string{"<root@dealer.example.com>", "<parent@dealer.example.com>"}, in.References)
}

func TestNormalizeNested(t *testing.T) {
	var p NestedPayload
	p.EventData.Recipient = "sales@dealer.example.com"
	p.EventData.BodyPlain = "What would my monthly payment be?"
	p.EventData.Message.Headers.From = "lead@example.com"
	p.EventData.Message.Headers.Subject = "Payment question"
	p.EventData.Message.Headers.MessageID = "<nested@mail.example.com>"
	p.EventData.Message.Headers.References = "<a@x.com> <b@x.com>"

	in, err := NormalizeNested(p)
	require.NoError(t, err)
	assert.Equal(t, "lead@example.com", in.FromEmail)
	assert.Equal(t, "<nested@mail.example.com>", in.MessageID)
	assert.Equal(t, []string{"<a@x.com>", "<b@x.com>"}, in.References)
}

func TestNormalizeNestedRecipientFallsBackToToHeader(t *testing.T) {
	var p NestedPayload
	p.EventData.BodyPlain = "hello"
	p.EventData.Message.Headers.From = "lead@example.com"
	p.EventData.Message.Headers.To = "Sales <SALES@Dealer.Example.Com>"
	p.EventData.Message.Headers.Subject = "hi"
	p.EventData.Message.Headers.MessageID = "<m@x.com>"

	in, err := NormalizeNested(p)
	require.NoError(t, err)
	assert.Equal(t, "sales", in.AgentLocalPart)
	assert.Equal(t, "dealer.example.com", in.AgentDomain)
}

func TestNormalizeReferencesNeverNil(t *testing.T) {
	in, err := NormalizeFlat(FlatPayload{
		Sender:    "lead@example.com",
		Recipient: "sales@dealer.example.com",
		Subject:   "hi",
		BodyPlain: "hello",
		MessageID: "<m@x.com>",
	})
	require.NoError(t, err)
	require.NotNil(t, in.References)
	assert.Empty(t, in.References)
}

func TestNormalizeHTMLFallback(t *testing.T) {
	in, err := NormalizeFlat(FlatPayload{
		Sender:    "lead@example.com",
		Recipient: "sales@dealer.example.com",
		Subject:   "hi",
		BodyHTML:  "<p>Do you have the <strong>2024</strong> model?</p>",
		MessageID: "<m@x.com>",
	})
	require.NoError(t, err)
	assert.Contains(t, in.Text, "2024")
	assert.NotContains(t, in.Text, "<p>")
}

func TestNormalizeValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload FlatPayload
	}{
		{
			name: "missing sender",
			payload: FlatPayload{
				Recipient: "sales@dealer.example.com",
				Subject:   "hi", BodyPlain: "x", MessageID: "<m@x.com>",
			},
		},
		{
			name: "invalid sender address",
			payload: FlatPayload{
				Sender: "not-an-address", Recipient: "sales@dealer.example.com",
				Subject: "hi", BodyPlain: "x", MessageID: "<m@x.com>",
			},
		},
		{
			name: "missing message id",
			payload: FlatPayload{
				Sender: "lead@example.com", Recipient: "sales@dealer.example.com",
				Subject: "hi", BodyPlain: "x",
			},
		},
		{
			name: "message id without at sign",
			payload: FlatPayload{
				Sender: "lead@example.com", Recipient: "sales@dealer.example.com",
				Subject: "hi", BodyPlain: "x", MessageID: "<nodomain>",
			},
		},
		{
			name: "missing subject",
			payload: FlatPayload{
				Sender: "lead@example.com", Recipient: "sales@dealer.example.com",
				BodyPlain: "x", MessageID: "<m@x.com>",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeFlat(tc.payload)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNormalizeDetectsShape(t *testing.T) {
	form := url.Values{}
	form.Set("sender", "lead@example.com")
	form.Set("recipient", "sales@dealer.example.com")
	form.Set("subject", "hi")
	form.Set("body-plain", "hello")
	form.Set("Message-Id", "<form@x.com>")
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := Normalize(req)
	require.NoError(t, err)
	assert.Equal(t, "<form@x.com>", in.MessageID)

	nested := `{"event-data":{"recipient":"sales@dealer.example.com","body-plain":"hello",` +
		`"message":{"headers":{"from":"lead@example.com","subject":"hi","message-id":"<json@x.com>"}}}}`
	req = httptest.NewRequest("POST", "/webhook", strings.NewReader(nested))
	req.Header.Set("Content-Type", "application/json")

	in, err = Normalize(req)
	require.NoError(t, err)
	assert.Equal(t, "<json@x.com>", in.MessageID)
}

func TestSanitizeContent(t *testing.T) {
	got := sanitizeContent("a\r\nb\r\rc\n\n\n\n\nd")
	assert.Equal(t, "a\nb\n\nc\n\nd", got)
}

func TestContentCap(t *testing.T) {
	long := strings.Repeat("x", maxContentChars+500)
	in, err := NormalizeFlat(FlatPayload{
		Sender: "lead@example.com", Recipient: "sales@dealer.example.com",
		Subject: "hi", BodyPlain: long, MessageID: "<m@x.com>",
	})
	require.NoError(t, err)
	assert.Len(t, in.Text, maxContentChars)
}

func TestCanonicalID(t *testing.T) {
	assert.Equal(t, "<a@b.com>", CanonicalID("a@b.com"))
	assert.Equal(t, "<a@b.com>", CanonicalID("<a@b.com>"))
	assert.Equal(t, "<a@b.com>", CanonicalID("  <a@b.com>  "))
	assert.Equal(t, "", CanonicalID(""))
	assert.Equal(t, "", CanonicalID("<>"))
}
