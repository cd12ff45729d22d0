package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

const (
	fallbackReply   = "Something went wrong — could you try again?"
	unparsableReply = "I didn't quite get that. Could you try again?"
)

// Extractor turns a free-form message (plus conversation history) into a
// structured Result by prompting the model and parsing its JSON output.
type Extractor struct {
	llm       LLMClient
	model     string
	maxTokens int32
	logger    *logging.Logger
}

func NewExtractor(llm LLMClient, model string, maxTokens int32, logger *logging.Logger) *Extractor {
	if llm == nil {
		panic("intent: llm client cannot be nil")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, model: model, maxTokens: maxTokens, logger: logger}
}

// Extract sends the message with its history to the model. A transport or
// model failure returns an error; malformed model output is recovered locally
// into a reply-only Result so the conversation keeps moving.
func (e *Extractor) Extract(ctx context.Context, message string, history []ChatMessage) (Result, error) {
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.model,
		System:      []string{SystemPrompt()},
		Messages:    messages,
		MaxTokens:   e.maxTokens,
		Temperature: -1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent: extraction failed: %w", err)
	}

	result, ok := parseResult(resp.Text)
	if !ok {
		e.logger.Warn("model output was not valid JSON, using raw reply", "output_len", len(resp.Text))
	}
	return result, nil
}

// parseResult decodes the model's JSON envelope. The second return reports
// whether a JSON object was actually decoded; when false the raw text (minus
// any trailing JSON-looking content) becomes the reply.
func parseResult(raw string) (Result, bool) {
	jsonStr := extractJSONObject(raw)

	var wire struct {
		Reply  string         `json:"reply"`
		Action *string        `json:"action"`
		Data   map[string]any `json:"data"`
		Needs  []string       `json:"needs"`
	}
	if jsonStr == "" || !decodeJSON(jsonStr, &wire) {
		clean := raw
		if start := strings.Index(raw, "{"); start > 0 {
			clean = strings.TrimSpace(raw[:start])
		}
		if strings.TrimSpace(clean) == "" || strings.HasPrefix(strings.TrimSpace(clean), "{") {
			clean = unparsableReply
		}
		return Result{Reply: clean, Action: ActionNone}, false
	}

	result := Result{
		Reply:  wire.Reply,
		Action: ActionNone,
		Data:   wire.Data,
		Needs:  wire.Needs,
	}
	if wire.Action != nil {
		result.Action = ParseAction(*wire.Action)
	}
	if result.Reply == "" {
		result.Reply = fallbackReply
	}
	return result, true
}

func decodeJSON(s string, v any) bool {
	return json.Unmarshal([]byte(s), v) == nil
}

// extractJSONObject finds the model's JSON object inside markdown fences or
// surrounding prose by matching the outermost braces.
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "```json"); idx != -1 {
		rest := raw[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(raw, "```"); idx != -1 {
		rest := raw[idx+len("```"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
