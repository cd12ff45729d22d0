// Package handlers holds the HTTP entry points: the Meta Cloud API webhook
// that feeds the conversation engine and the admin report trigger.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mydailysportsreport/whatsapp-bot/internal/notify"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

// messageHandler is the conversation engine's entry point. An empty reply
// means nothing should be sent back (duplicate delivery).
type messageHandler interface {
	Handle(ctx context.Context, sender, text, eventID string) string
}

// WebhookHandler receives WhatsApp Cloud API callbacks: the one-time GET
// verification challenge and the POST message deliveries.
type WebhookHandler struct {
	verifyToken string
	handler     messageHandler
	sender      notify.Sender
	logger      *logging.Logger
}

type WebhookConfig struct {
	VerifyToken string
	Handler     messageHandler
	Sender      notify.Sender
	Logger      *logging.Logger
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: cfg.VerifyToken,
		handler:     cfg.Handler,
		sender:      cfg.Sender,
		logger:      logger,
	}
}

// Verify answers Meta's webhook registration challenge.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		h.logger.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// webhookPayload mirrors the slice of the Cloud API envelope we care about.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Receive processes inbound message deliveries. It always answers 200 —
// Meta retries non-2xx responses indefinitely, and a broken message is not
// something a retry will fix.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	defer func() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return
	}
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("unparseable webhook payload", "error", err)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" {
					continue
				}
				h.logger.Info("inbound message", "from", msg.From, "event_id", msg.ID)

				reply := h.handler.Handle(r.Context(), msg.From, msg.Text.Body, msg.ID)
				if reply == "" {
					continue
				}
				if err := h.sender.Send(r.Context(), msg.From, reply); err != nil {
					h.logger.Error("reply send failed", "to", msg.From, "error", err)
				}
			}
		}
	}
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "mysportsreport-whatsapp-bot",
	})
}
