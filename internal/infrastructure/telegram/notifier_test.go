package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"aidigest/internal/config"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.Form.Get("chat_id")
		gotText = r.Form.Get("text")
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "token", ChatID: "42"})
	n.base = server.URL
	n.client = server.Client()

	require.NoError(t, n.PublishDigest(context.Background(), "3 items, outcome complete"))
	require.Equal(t, "/bottoken/sendMessage", gotPath)
	require.Equal(t, "42", gotChat)
	require.Equal(t, "3 items, outcome complete", gotText)
}

func TestPublishDigestAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "token", ChatID: "42"})
	n.base = server.URL
	n.client = server.Client()

	err := n.PublishDigest(context.Background(), "digest")
	require.Error(t, err)
	require.Contains(t, err.Error(), "telegram error")
}

func TestPublishDigestMisconfigured(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.TelegramConfig{})
	err := n.PublishDigest(context.Background(), "digest")
	require.Error(t, err)
}
