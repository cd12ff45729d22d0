package directory

import (
	"context"
	"encoding/json"
)

// Subscriber is one kid's report subscription as stored in the directory.
// The bot only reasons about id, name, and email; the rest rides along so
// replies and operator notifications can show context.
type Subscriber struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone,omitempty"`
	ColorTheme      string          `json:"color_theme,omitempty"`
	FavoriteAthlete string          `json:"favorite_athlete,omitempty"`
	Sports          json.RawMessage `json:"sports,omitempty"`
	Active          bool            `json:"active"`
}

// Client is the subscriber store the bot mutates. Implementations are
// external services; every call is a blocking, fallible network operation.
type Client interface {
	// Create inserts a new active subscriber and returns the stored record.
	Create(ctx context.Context, fields map[string]any) (*Subscriber, error)
	// FindByEmail returns active subscribers under an email.
	FindByEmail(ctx context.Context, email string) ([]Subscriber, error)
	// FindByPhone returns active subscribers linked to a phone number.
	FindByPhone(ctx context.Context, phone string) ([]Subscriber, error)
	// Update patches fields on one subscriber.
	Update(ctx context.Context, id string, fields map[string]any) error
	// Deactivate clears the active flag on subscribers matching the given
	// email and/or name filters. Returns false when nothing matched.
	Deactivate(ctx context.Context, email, name string) (bool, error)
}
