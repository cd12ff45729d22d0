package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydailysportsreport/whatsapp-bot/internal/dedup"
	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
	"github.com/mydailysportsreport/whatsapp-bot/internal/intent"
	"github.com/mydailysportsreport/whatsapp-bot/internal/session"
)

type scriptedExtractor struct {
	mu       sync.Mutex
	results  []intent.Result
	err      error
	messages []string
	history  [][]intent.ChatMessage
	calls    int
}

func (s *scriptedExtractor) Extract(_ context.Context, message string, history []intent.ChatMessage) (intent.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.messages = append(s.messages, message)
	snapshot := make([]intent.ChatMessage, len(history))
	copy(snapshot, history)
	s.history = append(s.history, snapshot)
	if s.err != nil {
		return intent.Result{}, s.err
	}
	res := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return res, nil
}

func newOrchestrator(dir *fakeDirectory, extractor IntentExtractor) *Orchestrator {
	return NewOrchestrator(OrchestratorConfig{
		Dedup:     dedup.NewMemory(dedup.DefaultTTL),
		Sessions:  session.NewStore(),
		Extractor: extractor,
		Dispatcher: NewDispatcher(DispatcherConfig{
			Directory:   dir,
			SettingsURL: "https://mydailysportsreport.com/signup.html",
		}),
		Directory: dir,
	})
}

func TestHandleDuplicateEventIsDropped(t *testing.T) {
	dir := &fakeDirectory{createResult: &directory.Subscriber{ID: "sub-1", Name: "Jake"}}
	extractor := &scriptedExtractor{results: []intent.Result{{
		Reply:  "Done!",
		Action: intent.ActionCreate,
		Data:   map[string]any{"name": "Jake", "email": "a@b.com"},
	}}}
	o := newOrchestrator(dir, extractor)

	first := o.Handle(context.Background(), "15551234567", "yes create it", "wamid.1")
	second := o.Handle(context.Background(), "15551234567", "yes create it", "wamid.1")

	assert.NotEmpty(t, first)
	assert.Empty(t, second)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, 1, dir.createCalls)
}

func TestHandleAccumulatesDraftAcrossTurns(t *testing.T) {
	dir := &fakeDirectory{createResult: &directory.Subscriber{ID: "sub-1", Name: "Jake", Email: "a@b.com"}}
	extractor := &scriptedExtractor{results: []intent.Result{
		{
			Reply:  "Love it! What color theme and email?",
			Action: intent.ActionNone,
			Data: map[string]any{
				"name":   "Jake",
				"sports": []any{map[string]any{"sport": "nba", "favorite_team": "Los Angeles Lakers"}},
			},
			Needs: []string{"color_theme", "email", "confirmation"},
		},
		{
			Reply:  "Done! Jake's report is on its way 🏀",
			Action: intent.ActionCreate,
			Data:   map[string]any{"color_theme": "blue", "email": "a@b.com"},
		},
	}}
	o := newOrchestrator(dir, extractor)

	o.Handle(context.Background(), "15551234567", "Sign up my son Jake, loves Lakers", "wamid.1")
	assert.Equal(t, 0, dir.createCalls)

	reply := o.Handle(context.Background(), "15551234567", "blue, send to a@b.com, yes create it", "wamid.2")

	require.Equal(t, 1, dir.createCalls)
	assert.Equal(t, "Jake", dir.createFields["name"])
	assert.Equal(t, "a@b.com", dir.createFields["email"])
	assert.Equal(t, "blue", dir.createFields["color_theme"])
	assert.Contains(t, dir.createFields, "sports")
	assert.Contains(t, reply, "Done! Jake's report is on its way 🏀")
	assert.Contains(t, reply, "?id=sub-1")
}

func TestHandleExtractorFailureLeavesSessionUntouched(t *testing.T) {
	dir := &fakeDirectory{}
	extractor := &scriptedExtractor{err: errors.New("bedrock timeout")}
	o := newOrchestrator(dir, extractor)

	reply := o.Handle(context.Background(), "15551234567", "sign up my kid", "wamid.1")
	assert.Equal(t, extractorApology, reply)

	// The failed turn left no history, so the next extract call still sees
	// an empty conversation.
	extractor.err = nil
	extractor.results = []intent.Result{{Reply: "Who's the report for?", Action: intent.ActionNone}}
	o.Handle(context.Background(), "15551234567", "sign up my kid", "wamid.2")
	require.Equal(t, 2, extractor.calls)
	assert.Empty(t, extractor.history[1])
}

func TestHandleInjectsKnownKidsNoteOnFirstTurnOnly(t *testing.T) {
	dir := &fakeDirectory{byPhone: []directory.Subscriber{
		{ID: "1", Name: "Tim", Email: "a@b.com"},
		{ID: "2", Name: "Danny", Email: "a@b.com"},
	}}
	extractor := &scriptedExtractor{results: []intent.Result{
		{Reply: "Hey! I see you have reports for Tim and Danny. What can I help with?", Action: intent.ActionNone},
		{Reply: "Sure — what should change?", Action: intent.ActionNone},
	}}
	o := newOrchestrator(dir, extractor)

	o.Handle(context.Background(), "15551234567", "hi", "wamid.1")
	o.Handle(context.Background(), "15551234567", "update Tim's report", "wamid.2")

	require.Len(t, extractor.messages, 2)
	assert.Contains(t, extractor.messages[0], "[SYSTEM: This parent's phone is linked to these existing reports: Tim, Danny (email: a@b.com).")
	assert.NotContains(t, extractor.messages[1], "[SYSTEM:")
	assert.Equal(t, 1, dir.findPhoneCalls)
}

func TestHandlePreSeedsDraftEmailForReturningParent(t *testing.T) {
	dir := &fakeDirectory{byPhone: []directory.Subscriber{
		{ID: "1", Name: "Tim", Email: "a@b.com"},
	}}
	extractor := &scriptedExtractor{results: []intent.Result{
		{Reply: "Welcome back!", Action: intent.ActionNone},
		{
			Reply:  "Done! Danny's report is set up.",
			Action: intent.ActionCreate,
			Data:   map[string]any{"name": "Danny"},
		},
	}}
	dir.createResult = &directory.Subscriber{ID: "2", Name: "Danny", Email: "a@b.com"}
	o := newOrchestrator(dir, extractor)

	o.Handle(context.Background(), "15551234567", "hi", "wamid.1")
	o.Handle(context.Background(), "15551234567", "sign up Danny too, same setup, yes", "wamid.2")

	// The create used the email linked to the phone without re-asking.
	require.Equal(t, 1, dir.createCalls)
	assert.Equal(t, "a@b.com", dir.createFields["email"])
}

func TestHandleRetriesKidLookupAfterFailure(t *testing.T) {
	dir := &fakeDirectory{byPhoneErr: errors.New("supabase down")}
	extractor := &scriptedExtractor{results: []intent.Result{
		{Reply: "Hi!", Action: intent.ActionNone},
		{Reply: "Hi again!", Action: intent.ActionNone},
	}}
	o := newOrchestrator(dir, extractor)

	o.Handle(context.Background(), "15551234567", "hi", "wamid.1")
	dir.byPhoneErr = nil
	o.Handle(context.Background(), "15551234567", "hello?", "wamid.2")

	assert.Equal(t, 2, dir.findPhoneCalls)
}

func TestHandleRecordsHistoryAndNeeds(t *testing.T) {
	dir := &fakeDirectory{}
	extractor := &scriptedExtractor{results: []intent.Result{
		{
			Reply:  "What email should we use?",
			Action: intent.ActionNone,
			Needs:  []string{"email", "confirmation"},
		},
		{Reply: "Got it.", Action: intent.ActionNone},
	}}
	o := newOrchestrator(dir, extractor)

	o.Handle(context.Background(), "15551234567", "sign up Jake", "wamid.1")
	o.Handle(context.Background(), "15551234567", "a@b.com", "wamid.2")

	// The second extract call sees the first turn's user and assistant
	// messages, oldest first.
	require.Len(t, extractor.history, 2)
	second := extractor.history[1]
	require.Len(t, second, 2)
	assert.Equal(t, intent.ChatRoleUser, second[0].Role)
	assert.Equal(t, "sign up Jake", second[0].Content)
	assert.Equal(t, intent.ChatRoleAssistant, second[1].Role)
	assert.Equal(t, "What email should we use?", second[1].Content)
}

func TestHandleConcurrentSendersProceedIndependently(t *testing.T) {
	dir := &fakeDirectory{}
	extractor := &scriptedExtractor{results: []intent.Result{{Reply: "Hi!", Action: intent.ActionNone}}}
	o := newOrchestrator(dir, extractor)

	done := make(chan string, 2)
	go func() { done <- o.Handle(context.Background(), "15551111111", "hi", "wamid.a") }()
	go func() { done <- o.Handle(context.Background(), "15552222222", "hi", "wamid.b") }()

	for i := 0; i < 2; i++ {
		select {
		case reply := <-done:
			assert.Equal(t, "Hi!", reply)
		case <-time.After(2 * time.Second):
			t.Fatal("handler deadlocked")
		}
	}
}
