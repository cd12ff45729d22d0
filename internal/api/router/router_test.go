package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mydailysportsreport/whatsapp-bot/internal/http/handlers"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, _, text, _ string) string { return "echo: " + text }

type noopSender struct{}

func (noopSender) Send(_ context.Context, _, _ string) error { return nil }

type noopTrigger struct{}

func (noopTrigger) Fire(_ context.Context, _ string) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	webhook := handlers.NewWebhookHandler(handlers.WebhookConfig{
		VerifyToken: "verify-token",
		Handler:     echoHandler{},
		Sender:      noopSender{},
		Logger:      logger,
	})

	return New(&Config{
		Logger:          logger,
		Webhook:         webhook,
		TriggerReport:   handlers.NewTriggerReportHandler(noopTrigger{}, logger),
		AdminAuthSecret: "secret",
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
		var resp map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode health response: %v", err)
		}
		if resp["status"] != "ok" {
			t.Errorf("expected status 'ok', got %q", resp["status"])
		}
	}
}

func TestRouterWebhookVerification(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=999", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "999" {
		t.Errorf("expected challenge echo, got %q", rr.Body.String())
	}
}

func TestRouterWebhookReceiveAlways200(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterAdminRequiresJWT(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/trigger-report",
		strings.NewReader(`{"subscriber_id":"sub-1"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
