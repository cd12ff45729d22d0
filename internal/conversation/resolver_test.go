package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
)

func TestResolveTarget(t *testing.T) {
	tim := directory.Subscriber{ID: "1", Name: "Tim"}
	danny := directory.Subscriber{ID: "2", Name: "Danny"}

	tests := []struct {
		name      string
		candidate string
		kids      []directory.Subscriber
		wantID    string
		wantRes   Resolution
	}{
		{"exact match", "Tim", []directory.Subscriber{tim, danny}, "1", Resolved},
		{"case insensitive", "danny", []directory.Subscriber{tim, danny}, "2", Resolved},
		{"possessive stripped", "Tim's", []directory.Subscriber{tim, danny}, "1", Resolved},
		{"curly possessive stripped", "Tim’s", []directory.Subscriber{tim, danny}, "1", Resolved},
		{"candidate contains known name", "little timmy tim jr", []directory.Subscriber{tim, danny}, "1", Resolved},
		{"known name contains candidate", "dan", []directory.Subscriber{tim, danny}, "2", Resolved},
		{"empty name two kids is ambiguous", "", []directory.Subscriber{tim, danny}, "", Ambiguous},
		{"no match two kids is ambiguous", "Jake", []directory.Subscriber{tim, danny}, "", Ambiguous},
		{"single kid fallback ignores name", "Jake", []directory.Subscriber{tim}, "1", Resolved},
		{"single kid fallback empty name", "", []directory.Subscriber{tim}, "1", Resolved},
		{"no kids", "Tim", nil, "", NotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target, res := ResolveTarget(tc.candidate, tc.kids)
			assert.Equal(t, tc.wantRes, res)
			assert.Equal(t, tc.wantID, target.ID)
		})
	}
}

func TestResolveTargetPrefersExactOverSubstring(t *testing.T) {
	kids := []directory.Subscriber{
		{ID: "1", Name: "Timothy"},
		{ID: "2", Name: "Tim"},
	}
	target, res := ResolveTarget("tim", kids)
	assert.Equal(t, Resolved, res)
	assert.Equal(t, "2", target.ID)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "tim", normalizeName("  Tim's "))
	assert.Equal(t, "tim", normalizeName("TIM"))
	assert.Equal(t, "", normalizeName("   "))
}
