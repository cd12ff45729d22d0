package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v21.0"

// Sender pushes a text message to a channel address. Best-effort: callers
// never roll anything back when a send fails.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// WhatsAppConfig controls the Meta Cloud API client.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *logging.Logger
}

// WhatsApp sends text messages through the Meta Cloud API. When no access
// token or phone ID is configured it runs in dry-run mode, logging instead of
// sending, so local development needs no Meta account.
type WhatsApp struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

func NewWhatsApp(cfg WhatsAppConfig) *WhatsApp {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsApp{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       baseURL,
		httpClient:    httpClient,
		logger:        logger,
	}
}

// Send posts one text message. Dry-run when unconfigured.
func (w *WhatsApp) Send(ctx context.Context, to, text string) error {
	if w.accessToken == "" || w.phoneNumberID == "" {
		w.logger.Info("whatsapp dry run", "to", to, "text", text)
		return nil
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		w.logger.Error("whatsapp api error",
			"status", resp.StatusCode,
			"body", string(detail),
			"to", to,
		)
		return fmt.Errorf("notify: whatsapp api returned status %d", resp.StatusCode)
	}
	return nil
}
