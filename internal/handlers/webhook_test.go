package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/dealerflow/dealerflow/internal/config"
)

const testSigningKey = "test-signing-key"

func signWebhook(timestamp, token string) string {
	mac := hmac.New(sha256.New, []byte(testSigningKey))
	mac.Write([]byte(timestamp + token))
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookTestServer() *echo.Echo {
	e := echo.New()
	h := NewWebhookHandler(slog.Default(), nil, config.MailgunConfig{WebhookSigningKey: testSigningKey})
	h.Register(e)
	return e
}

func postWebhookForm(e *echo.Echo, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/email/mailgun/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	e := newWebhookTestServer()

	form := url.Values{}
	form.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	form.Set("token", "tok")
	form.Set("signature", "not-the-right-signature")
	form.Set("sender", "lead@example.com")

	rec := postWebhookForm(e, form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	e := newWebhookTestServer()

	form := url.Values{}
	form.Set("sender", "lead@example.com")

	rec := postWebhookForm(e, form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsStaleSignature(t *testing.T) {
	e := newWebhookTestServer()

	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	form := url.Values{}
	form.Set("timestamp", stale)
	form.Set("token", "tok")
	form.Set("signature", signWebhook(stale, "tok"))

	rec := postWebhookForm(e, form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	e := newWebhookTestServer()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	form := url.Values{}
	form.Set("timestamp", timestamp)
	form.Set("token", "tok")
	form.Set("signature", signWebhook(timestamp, "tok"))
	// Signed but incomplete: no sender, no message id.
	form.Set("subject", "hi")

	rec := postWebhookForm(e, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
