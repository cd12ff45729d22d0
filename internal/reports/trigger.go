// Package reports kicks off report generation for a subscriber by
// dispatching the GitHub Actions workflow that renders and emails it.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

const defaultGitHubAPIBaseURL = "https://api.github.com"

// Trigger fires asynchronous report generation for one subscriber.
type Trigger interface {
	Fire(ctx context.Context, subscriberID string) error
}

// GitHubConfig controls the workflow-dispatch client.
type GitHubConfig struct {
	Token      string
	Repo       string // "owner/name"
	Workflow   string // workflow file name, e.g. "daily-reports.yml"
	Ref        string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// GitHubTrigger dispatches the daily-reports workflow with a subscriber_id
// input. Unconfigured (no token) it logs and skips, like local dev.
type GitHubTrigger struct {
	token      string
	repo       string
	workflow   string
	ref        string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewGitHubTrigger(cfg GitHubConfig) *GitHubTrigger {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGitHubAPIBaseURL
	}
	ref := cfg.Ref
	if ref == "" {
		ref = "main"
	}
	workflow := cfg.Workflow
	if workflow == "" {
		workflow = "daily-reports.yml"
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
	return &GitHubTrigger{
		token:      cfg.Token,
		repo:       cfg.Repo,
		workflow:   workflow,
		ref:        ref,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Fire dispatches one workflow run. GitHub answers 204 on success.
func (t *GitHubTrigger) Fire(ctx context.Context, subscriberID string) error {
	if strings.TrimSpace(subscriberID) == "" {
		return errors.New("reports: subscriber id required")
	}
	if t.token == "" {
		t.logger.Info("github token not set, skipping report trigger", "subscriber_id", subscriberID)
		return nil
	}

	payload := map[string]any{
		"ref": t.ref,
		"inputs": map[string]string{
			"subscriber_id": subscriberID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("reports: marshal dispatch payload: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/actions/workflows/%s/dispatches", t.baseURL, t.repo, t.workflow)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reports: build dispatch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reports: dispatch workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		t.logger.Error("github dispatch error",
			"status", resp.StatusCode,
			"body", string(detail),
			"subscriber_id", subscriberID,
		)
		return fmt.Errorf("reports: github dispatch returned status %d", resp.StatusCode)
	}

	t.logger.Info("triggered report workflow", "subscriber_id", subscriberID)
	return nil
}
