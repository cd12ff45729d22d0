package session

import (
	"time"

	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
	"github.com/mydailysportsreport/whatsapp-bot/internal/intent"
)

// Session is the conversation state for one sender phone number. It lives in
// process memory only; losing it on restart costs the parent a restated
// sentence, never committed data.
type Session struct {
	// History holds the most recent turns handed to the extractor, oldest
	// first, bounded by the store's max history.
	History []intent.ChatMessage
	// LastActive drives TTL expiry; refreshed on every inbound message.
	LastActive time.Time
	// KnownKids is the sender's existing subscribers, fetched once per
	// session on first contact. KidsLoaded distinguishes "not fetched yet"
	// from "fetched, none found".
	KnownKids  []directory.Subscriber
	KidsLoaded bool
	// Draft accumulates partial subscriber fields across turns until an
	// action consumes them. Never holds nil values.
	Draft map[string]any
	// PendingNeeds is the extractor's latest advisory list of missing
	// fields. Never gates dispatch.
	PendingNeeds []string

	maxHistory int
}

func newSession(now time.Time, maxHistory int) *Session {
	return &Session{
		LastActive: now,
		Draft:      make(map[string]any),
		maxHistory: maxHistory,
	}
}

// AppendHistory records one turn, evicting the oldest entries beyond the
// history bound so the extractor context stays small.
func (s *Session) AppendHistory(role, content string) {
	s.History = append(s.History, intent.ChatMessage{Role: role, Content: content})
	if s.maxHistory > 0 && len(s.History) > s.maxHistory {
		overflow := len(s.History) - s.maxHistory
		s.History = append(s.History[:0], s.History[overflow:]...)
	}
}

// MergeDraft folds extracted data into the draft. Non-nil values overwrite;
// nil values and absent keys never erase previously gathered fields, so a
// name given in turn 1 survives an email-only turn 3.
func (s *Session) MergeDraft(data map[string]any) {
	if s.Draft == nil {
		s.Draft = make(map[string]any)
	}
	for key, val := range data {
		if val == nil {
			continue
		}
		s.Draft[key] = val
	}
}

// MergedData returns the draft overlaid with this turn's data, the view the
// dispatcher acts on. The session draft itself is not modified.
func (s *Session) MergedData(data map[string]any) map[string]any {
	merged := make(map[string]any, len(s.Draft)+len(data))
	for k, v := range s.Draft {
		merged[k] = v
	}
	for k, v := range data {
		if v == nil {
			continue
		}
		merged[k] = v
	}
	return merged
}

// ClearDraft resets the accumulated draft and advisory needs after a
// successful creation closes that line of conversation.
func (s *Session) ClearDraft() {
	s.Draft = make(map[string]any)
	s.PendingNeeds = nil
}

// DraftString returns a string-typed draft field, or "" when absent.
func (s *Session) DraftString(key string) string {
	if v, ok := s.Draft[key].(string); ok {
		return v
	}
	return ""
}
