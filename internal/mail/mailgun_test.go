package mail

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWebhook(key, timestamp, token string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(timestamp + token))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	key := "signing-key"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	token := "token-123"

	err := VerifyWebhookSignature(key, timestamp, token, signWebhook(key, timestamp, token))
	assert.NoError(t, err)
}

func TestVerifyWebhookSignatureRejectsTampering(t *testing.T) {
	key := "signing-key"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	err := VerifyWebhookSignature(key, timestamp, "token-123", signWebhook(key, timestamp, "other-token"))
	assert.Error(t, err)

	err = VerifyWebhookSignature(key, timestamp, "token-123", signWebhook("wrong-key", timestamp, "token-123"))
	assert.Error(t, err)
}

func TestVerifyWebhookSignatureRejectsStaleTimestamp(t *testing.T) {
	key := "signing-key"
	stale := strconv.FormatInt(time.Now().Add(-signatureFreshness-time.Minute).Unix(), 10)

	err := VerifyWebhookSignature(key, stale, "token-123", signWebhook(key, stale, "token-123"))
	assert.Error(t, err)
}

func TestVerifyWebhookSignatureRejectsBadInput(t *testing.T) {
	assert.Error(t, VerifyWebhookSignature("", "123", "t", "sig"))
	assert.Error(t, VerifyWebhookSignature("key", "not-a-number", "t", "sig"))
}

func TestExtractSignatureParamsForm(t *testing.T) {
	form := url.Values{}
	form.Set("timestamp", "1700000000")
	form.Set("token", "tok")
	form.Set("signature", "sig")
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	params := ExtractSignatureParams(req, nil)
	require.Equal(t, "1700000000", params.Timestamp)
	assert.Equal(t, "tok", params.Token)
	assert.Equal(t, "sig", params.Signature)
}

func TestExtractSignatureParamsJSON(t *testing.T) {
	nested := `{"signature":{"timestamp":"1700000000","token":"tok","signature":"sig"},"event-data":{}}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(nested))
	req.Header.Set("Content-Type", "application/json")

	params := ExtractSignatureParams(req, []byte(nested))
	assert.Equal(t, SignatureParams{Timestamp: "1700000000", Token: "tok", Signature: "sig"}, params)

	flat := `{"timestamp":"1700000000","token":"tok","signature":"sig"}`
	req = httptest.NewRequest("POST", "/webhook", strings.NewReader(flat))
	req.Header.Set("Content-Type", "application/json")

	params = ExtractSignatureParams(req, []byte(flat))
	assert.Equal(t, SignatureParams{Timestamp: "1700000000", Token: "tok", Signature: "sig"}, params)
}

func TestAddressDomain(t *testing.T) {
	assert.Equal(t, "dealer.example.com", addressDomain("sales@dealer.example.com"))
	assert.Equal(t, "", addressDomain("no-domain"))
}
