package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

const subscriberColumns = "id,name,email,sports,color_theme,favorite_athlete,phone,active"

// SupabaseConfig controls how the Supabase REST client behaves.
type SupabaseConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Supabase talks to the subscribers table through PostgREST.
type Supabase struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewSupabase creates a configured client with sane defaults.
func NewSupabase(cfg SupabaseConfig) (*Supabase, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("directory: supabase base URL is required")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, errors.New("directory: supabase service key is required")
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
	return &Supabase{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Create inserts a subscriber row. Email is mirrored into parent_email and
// color_theme defaults to blue when the conversation never picked one.
func (s *Supabase) Create(ctx context.Context, fields map[string]any) (*Subscriber, error) {
	payload := map[string]any{
		"name":             fields["name"],
		"email":            fields["email"],
		"parent_email":     fields["email"],
		"color_theme":      stringOr(fields["color_theme"], "blue"),
		"favorite_athlete": stringOr(fields["favorite_athlete"], ""),
		"sports":           sportsOrEmpty(fields["sports"]),
		"active":           true,
	}
	if phone, ok := fields["phone"].(string); ok && phone != "" {
		payload["phone"] = phone
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("directory: marshal create payload: %w", err)
	}
	data, err := s.invoke(ctx, http.MethodPost, "/rest/v1/subscribers", nil, body)
	if err != nil {
		return nil, err
	}

	subs, err := decodeSubscribers(data)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, errors.New("directory: create returned no representation")
	}
	return &subs[0], nil
}

// FindByEmail returns active subscribers under an email.
func (s *Supabase) FindByEmail(ctx context.Context, email string) ([]Subscriber, error) {
	q := url.Values{}
	q.Set("email", "eq."+email)
	q.Set("active", "eq.true")
	q.Set("select", subscriberColumns)
	data, err := s.invoke(ctx, http.MethodGet, "/rest/v1/subscribers", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeSubscribers(data)
}

// FindByPhone returns active subscribers linked to a phone number.
func (s *Supabase) FindByPhone(ctx context.Context, phone string) ([]Subscriber, error) {
	q := url.Values{}
	q.Set("phone", "eq."+phone)
	q.Set("active", "eq.true")
	q.Set("select", subscriberColumns)
	data, err := s.invoke(ctx, http.MethodGet, "/rest/v1/subscribers", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeSubscribers(data)
}

// Update patches fields on one subscriber row.
func (s *Supabase) Update(ctx context.Context, id string, fields map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("directory: subscriber id required")
	}
	if len(fields) == 0 {
		return errors.New("directory: update requires at least one field")
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("directory: marshal update payload: %w", err)
	}
	q := url.Values{}
	q.Set("id", "eq."+id)
	_, err = s.invoke(ctx, http.MethodPatch, "/rest/v1/subscribers", q, body)
	return err
}

// Deactivate clears the active flag on rows matching the filters. The
// representation returned by PostgREST tells us whether anything matched.
func (s *Supabase) Deactivate(ctx context.Context, email, name string) (bool, error) {
	if email == "" && name == "" {
		return false, errors.New("directory: deactivate requires an email or a name")
	}
	q := url.Values{}
	q.Set("active", "eq.true")
	if email != "" {
		q.Set("email", "eq."+email)
	}
	if name != "" {
		q.Set("name", "eq."+name)
	}
	body, err := json.Marshal(map[string]any{"active": false})
	if err != nil {
		return false, fmt.Errorf("directory: marshal deactivate payload: %w", err)
	}
	data, err := s.invoke(ctx, http.MethodPatch, "/rest/v1/subscribers", q, body)
	if err != nil {
		return false, err
	}
	subs, err := decodeSubscribers(data)
	if err != nil {
		return false, err
	}
	return len(subs) > 0, nil
}

func (s *Supabase) invoke(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("directory: build request: %w", err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("directory: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("supabase request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("directory: %s %s returned status %d", method, path, resp.StatusCode)
	}
	return data, nil
}

func decodeSubscribers(data []byte) ([]Subscriber, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var subs []Subscriber
	if err := json.Unmarshal(data, &subs); err == nil {
		return subs, nil
	}
	// PostgREST can return a bare object for single-row inserts.
	var one Subscriber
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("directory: decode subscribers: %w", err)
	}
	return []Subscriber{one}, nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func sportsOrEmpty(v any) any {
	if v == nil {
		return []any{}
	}
	return v
}
