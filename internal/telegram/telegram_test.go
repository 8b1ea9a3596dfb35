package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	b := &Bot{chatID: 42}

	msg := func(chat int64, text string) tgbotapi.Update {
		return tgbotapi.Update{Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chat},
			From: &tgbotapi.User{UserName: "someone"},
		}}
	}

	cmd, ok := b.authorize(msg(42, "  /coin bitcoin 7 "))
	assert.True(t, ok)
	assert.Equal(t, "/coin bitcoin 7", cmd)

	cmd, ok = b.authorize(msg(42, "/portfolio@tracker_bot"))
	assert.True(t, ok)
	assert.Equal(t, "/portfolio", cmd)

	cmd, ok = b.authorize(msg(42, "/alert@tracker_bot bitcoin above 50000"))
	assert.True(t, ok)
	assert.Equal(t, "/alert bitcoin above 50000", cmd)

	_, ok = b.authorize(msg(7, "/portfolio"))
	assert.False(t, ok, "other chats are ignored")

	_, ok = b.authorize(msg(42, "hello"))
	assert.False(t, ok, "plain text is ignored")

	_, ok = b.authorize(tgbotapi.Update{})
	assert.False(t, ok)
}

// fakeBotAPI answers getMe and records sendMessage calls.
type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []url.Values
	rejectMD bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Tracker","username":"tracker_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		r.ParseForm()
		f.mu.Lock()
		f.sent = append(f.sent, r.Form)
		f.mu.Unlock()
		if f.rejectMD && r.Form.Get("parse_mode") != "" {
			io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": len(f.sent), "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeBot(t *testing.T, api *fakeBotAPI) *Bot {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := NewBot("TOKEN", 42, srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	return b
}

func TestSend_Markdown(t *testing.T) {
	api := &fakeBotAPI{}
	b := newFakeBot(t, api)

	require.NoError(t, b.Notify("Price Alert: Bitcoin", "BTC is above $50000"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.sent[0].Get("chat_id"))
	assert.Equal(t, "Markdown", api.sent[0].Get("parse_mode"))
	assert.Contains(t, api.sent[0].Get("text"), "*Price Alert: Bitcoin*")
	assert.NoError(t, b.Cue())
}

func TestSend_FallsBackToPlainText(t *testing.T) {
	api := &fakeBotAPI{rejectMD: true}
	b := newFakeBot(t, api)

	require.NoError(t, b.Send("wrapped_bitcoin *unbalanced"))
	require.Len(t, api.sent, 2)
	assert.Empty(t, api.sent[1].Get("parse_mode"))
}

func TestNewBot_RequiresCredentials(t *testing.T) {
	_, err := NewBot("", 42, "")
	assert.Error(t, err)
	_, err = NewBot("TOKEN", 0, "")
	assert.Error(t, err)
}
