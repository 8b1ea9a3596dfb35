package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot talks to a single authorized chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewBot authorizes token against the Bot API. endpoint may be empty for
// the public API; tests point it at a local server.
func NewBot(token string, chatID int64, endpoint string) (*Bot, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram token and chat id are required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	httpClient := &http.Client{Timeout: 75 * time.Second} // Longer than the 60s long-poll
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	zap.L().Info("Telegram authorized", zap.String("account", api.Self.UserName))
	return &Bot{api: api, chatID: chatID}, nil
}

// Send posts text to the authorized chat as Markdown, falling back to plain
// text when Telegram rejects the markup.
func (b *Bot) Send(text string) error {
	if text == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		zap.L().Debug("Markdown send failed, retrying as plain text", zap.Error(err))
		msg.ParseMode = ""
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

// Notify implements notify.Interface.
func (b *Bot) Notify(title, message string) error {
	return b.Send(fmt.Sprintf("🔔 *%s*\n%s", title, message))
}

// Cue is a no-op: chat clients play their own sound on delivery.
func (b *Bot) Cue() error { return nil }

// Stop ends the long-poll started by Listen.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// sendWithContext is Send bounded by ctx, so shutdown does not wait on Telegram.
func (b *Bot) sendWithContext(ctx context.Context, text string) error {
	done := make(chan error, 1)
	go func() { done <- b.Send(text) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
