package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWelcome(t *testing.T) {
	var got sendMessageReq
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "T0K")
	require.NoError(t, c.SendWelcome(context.Background(), 42, "alice"))
	assert.Equal(t, "/botT0K/sendMessage", path)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Contains(t, got.Text, "Welcome to NUSFitness alice!")
}

func TestSendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "T").SendMessage(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessage_NotConfigured(t *testing.T) {
	err := NewClient("http://unused", "").SendMessage(context.Background(), 1, "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
