package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn770123/line-recorder-bot-v3/internal/config"
	"github.com/hn770123/line-recorder-bot-v3/internal/line"
	"github.com/hn770123/line-recorder-bot-v3/internal/webhook"
)

const testChannelSecret = "test-secret"

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(testChannelSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestHandler(t *testing.T) http.HandlerFunc {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	lineClient, err := line.New(config.LineConfig{
		ChannelSecret: testChannelSecret,
		ChannelToken:  "test-token",
	}, "http://localhost", "Results", log)
	require.NoError(t, err)

	dispatcher := webhook.NewDispatcher(log, config.MessagesConfig{}, nil, nil,
		webhook.NewDeduplicator(time.Minute), nil)

	return webhookHandler(log, lineClient, dispatcher)
}

func TestWebhookHandlerAcceptsSignedDelivery(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	body := `{"destination":"xxx","events":[]}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookHandlerRejectsInvalidSignature(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	body := `{"destination":"xxx","events":[]}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", "bm90IGEgcmVhbCBzaWduYXR1cmU=")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandlerRejectsMissingSignature(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"events":[]}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandlerAcknowledgesUnparseableBody(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	body := `{not json`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
