package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydailysportsreport/whatsapp-bot/internal/intent"
)

func TestWithCreatesAndReusesSession(t *testing.T) {
	store := NewStore()

	store.With("15550001111", func(s *Session) {
		s.Draft["name"] = "Jake"
	})
	store.With("15550001111", func(s *Session) {
		assert.Equal(t, "Jake", s.Draft["name"])
	})
	assert.Equal(t, 1, store.Len())
}

func TestSessionsAreIsolatedPerSender(t *testing.T) {
	store := NewStore()

	store.With("alice", func(s *Session) { s.Draft["name"] = "Tim" })
	store.With("bob", func(s *Session) {
		assert.Empty(t, s.Draft)
	})
}

func TestExpiredSessionIsReplaced(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	store := NewStore(
		WithTTL(30*time.Minute),
		WithClock(func() time.Time { return current }),
	)

	store.With("15550001111", func(s *Session) {
		s.Draft["name"] = "Jake"
		s.KidsLoaded = true
		s.AppendHistory(intent.ChatRoleUser, "hi")
	})

	// Just inside the window: state survives.
	current = current.Add(29 * time.Minute)
	store.With("15550001111", func(s *Session) {
		assert.Equal(t, "Jake", s.Draft["name"])
		assert.True(t, s.KidsLoaded)
	})

	// Past the window: fresh session, known kids must be re-fetched.
	current = current.Add(31 * time.Minute)
	store.With("15550001111", func(s *Session) {
		assert.Empty(t, s.Draft)
		assert.Empty(t, s.History)
		assert.False(t, s.KidsLoaded)
	})
}

func TestActivityRefreshesTTL(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	store := NewStore(
		WithTTL(30*time.Minute),
		WithClock(func() time.Time { return current }),
	)

	store.With("s", func(s *Session) { s.Draft["name"] = "Tim" })
	for i := 0; i < 3; i++ {
		current = current.Add(20 * time.Minute)
		store.With("s", func(s *Session) {
			assert.Equal(t, "Tim", s.Draft["name"], "turn %d", i)
		})
	}
}

func TestHistoryIsBounded(t *testing.T) {
	store := NewStore(WithMaxHistory(4))

	store.With("s", func(s *Session) {
		for i := 0; i < 10; i++ {
			s.AppendHistory(intent.ChatRoleUser, fmt.Sprintf("msg %d", i))
		}
		require.Len(t, s.History, 4)
		assert.Equal(t, "msg 6", s.History[0].Content)
		assert.Equal(t, "msg 9", s.History[3].Content)
	})
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	current := time.Unix(1_700_000_000, 0)
	store := NewStore(
		WithTTL(time.Minute),
		WithClock(func() time.Time { return current }),
	)

	for i := 0; i < 10; i++ {
		store.With(fmt.Sprintf("sender-%d", i), func(s *Session) {})
	}
	require.Equal(t, 10, store.Len())

	current = current.Add(time.Hour)
	// Drive enough acquisitions to trigger the amortized sweep.
	for i := 0; i < sweepEvery+1; i++ {
		store.With("active", func(s *Session) {})
	}
	assert.LessOrEqual(t, store.Len(), 2)
}

func TestSameSenderTurnsAreSerialized(t *testing.T) {
	store := NewStore()
	const turns = 200

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.With("sender", func(s *Session) {
				// Non-atomic read-modify-write: only safe when turns
				// for one sender never overlap.
				count, _ := s.Draft["count"].(int)
				s.Draft["count"] = count + 1
			})
		}()
	}
	wg.Wait()

	store.With("sender", func(s *Session) {
		assert.Equal(t, turns, s.Draft["count"])
	})
}

func TestMergeDraftDropsNilsAndAccumulates(t *testing.T) {
	store := NewStore()
	store.With("s", func(s *Session) {
		s.MergeDraft(map[string]any{"name": "Jake", "sports": []any{"nba"}})
		s.MergeDraft(map[string]any{"email": "a@b.com", "name": nil})
		s.MergeDraft(map[string]any{"color_theme": "blue"})

		assert.Equal(t, "Jake", s.Draft["name"])
		assert.Equal(t, "a@b.com", s.Draft["email"])
		assert.Equal(t, "blue", s.Draft["color_theme"])
		assert.Len(t, s.Draft, 4)
	})
}

func TestMergeDraftLastNonNilWriteWins(t *testing.T) {
	s := newSession(time.Now(), 20)
	s.MergeDraft(map[string]any{"color_theme": "red"})
	s.MergeDraft(map[string]any{"color_theme": "navy"})
	assert.Equal(t, "navy", s.Draft["color_theme"])
}

func TestMergedDataOverlaysWithoutMutatingDraft(t *testing.T) {
	s := newSession(time.Now(), 20)
	s.MergeDraft(map[string]any{"name": "Jake"})

	merged := s.MergedData(map[string]any{"email": "a@b.com", "name": nil})
	assert.Equal(t, "Jake", merged["name"])
	assert.Equal(t, "a@b.com", merged["email"])
	_, inDraft := s.Draft["email"]
	assert.False(t, inDraft)
}

func TestClearDraftResetsDraftAndNeeds(t *testing.T) {
	s := newSession(time.Now(), 20)
	s.MergeDraft(map[string]any{"name": "Jake"})
	s.PendingNeeds = []string{"email"}

	s.ClearDraft()
	assert.Empty(t, s.Draft)
	assert.Nil(t, s.PendingNeeds)
}
