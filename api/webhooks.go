package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/causewayhq/causeway/internal/config"
)

var WebhookSecret = config.GenFlag("payment.webhook_secret", "", "Shared secret for verifying payment provider webhook events")

type providerEvent struct {
	Type    string          `json:"type"`
	Created int             `json:"created"`
	Data    json.RawMessage `json:"data"`
}

type subscriptionEventData struct {
	TransactionID string `json:"transaction_id"`
}

// providerEvent handles payment provider callbacks. Only events carrying a
// valid HMAC-SHA256 signature over the raw body are accepted.
func (s *API) providerEvent(w http.ResponseWriter, r *http.Request) {
	if WebhookSecret.Value() == "" {
		slog.WarnContext(r.Context(), "Provider event was POSTed but no webhook secret was specified in config file")
		errorData(w, "Webhook secret not rolled out", 400)
		return
	}

	if r.Header.Get("X-Signature-Sha256") == "" {
		errorData(w, "Invalid Signature", 400)
		return
	}
	mac := hmac.New(sha256.New, []byte(WebhookSecret.Value()))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r.Body); err != nil {
		slog.WarnContext(r.Context(), "Couldn't read body to buffer", slog.Any("err", err))
		errorData(w, "Couldn't read body to buffer", 500)
		return
	}
	mac.Write(buf.Bytes())
	expectedMAC := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expectedMAC), []byte(r.Header.Get("X-Signature-Sha256"))) {
		errorData(w, "Invalid signature", 400)
		return
	}

	var event providerEvent
	if err := json.NewDecoder(&buf).Decode(&event); err != nil {
		slog.WarnContext(r.Context(), "Invalid JSON", slog.Any("err", err))
		errorData(w, "Invalid JSON", 400)
		return
	}

	switch event.Type {
	case "subscription.cancelled":
		var data subscriptionEventData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			slog.WarnContext(r.Context(), "Invalid JSON subscription data", slog.Any("err", err))
			errorData(w, "Invalid JSON subscription data", 400)
			return
		}
		if data.TransactionID == "" {
			errorData(w, "Missing transaction id", 400)
			return
		}
		if err := s.base.CancelSubscription(r.Context(), data.TransactionID); err != nil {
			statusError(w, err)
			return
		}
		returnData(w, "Subscription marked as cancelled")
	default:
		slog.InfoContext(r.Context(), "Ignoring provider event", slog.String("type", event.Type))
		returnData(w, "Event ignored")
	}
}
