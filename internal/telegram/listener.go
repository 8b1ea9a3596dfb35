package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// CommandHandler processes one slash command and returns the reply.
type CommandHandler func(ctx context.Context, command string) string

// Listen long-polls for commands until ctx is cancelled.
// It runs blocking, so it should be called in a goroutine.
func (b *Bot) Listen(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	zap.L().Info("Telegram listener started")
	for {
		select {
		case <-ctx.Done():
			b.Stop()
			zap.L().Info("Telegram listener stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			cmd, ok := b.authorize(update)
			if !ok {
				continue
			}
			zap.L().Info("Command received", zap.String("command", cmd))
			reply := handler(ctx, cmd)
			if err := b.sendWithContext(ctx, reply); err != nil {
				zap.L().Error("Failed to send reply", zap.Error(err))
			}
		}
	}
}

// authorize returns the command text of update if it is a slash command
// from the authorized chat.
func (b *Bot) authorize(update tgbotapi.Update) (string, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return "", false
	}

	// Access Control
	if msg.Chat.ID != b.chatID {
		user := ""
		if msg.From != nil {
			user = msg.From.UserName
		}
		zap.L().Warn("⚠️ Unauthorized access attempt",
			zap.String("user", user),
			zap.Int64("chat_id", msg.Chat.ID),
			zap.String("text", msg.Text))
		// No reply, to avoid leaking the bot's existence
		return "", false
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	// Group chats address commands as /cmd@botname
	if head, rest, found := strings.Cut(text, " "); found {
		text = stripMention(head) + " " + rest
	} else {
		text = stripMention(text)
	}
	return text, true
}

func stripMention(cmd string) string {
	if i := strings.Index(cmd, "@"); i > 0 {
		return cmd[:i]
	}
	return cmd
}
