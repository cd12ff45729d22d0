package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsToGraphAPI(t *testing.T) {
	var got map[string]any
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	client := NewWhatsApp(WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL,
	})

	err := client.Send(context.Background(), "15551234567", "Hey there! 🏀")
	require.NoError(t, err)

	assert.Equal(t, "/12345/messages", path)
	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "15551234567", got["to"])
	text := got["text"].(map[string]any)
	assert.Equal(t, "Hey there! 🏀", text["body"])
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewWhatsApp(WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL,
	})

	err := client.Send(context.Background(), "15551234567", "hi")
	assert.Error(t, err)
}

func TestSendDryRunWhenUnconfigured(t *testing.T) {
	client := NewWhatsApp(WhatsAppConfig{})
	err := client.Send(context.Background(), "15551234567", "hi")
	assert.NoError(t, err)
}
