package bot

import (
	"context"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aoe2bot/internal/library"
)

// sendAudio delivers one clip. A cached Telegram file ID is reused when
// available; otherwise the file is uploaded and the returned ID recorded,
// so every clip hits Telegram's servers at most once.
func (b *Bot) sendAudio(ctx context.Context, chatID int64, cat library.Category, path string) {
	// Cosmetic only, failures are irrelevant.
	_, _ = b.api.Request(tgbotapi.NewChatAction(chatID, "record_voice"))

	name := filepath.Base(path)

	if id, ok := b.cachedID(ctx, name); ok {
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FileID(id))
		audio.DisableNotification = true
		if _, err := b.api.Send(audio); err != nil {
			handlerErrorsTotal.Inc()
			b.log.Error("send audio failed", "chat", chatID, "file", name, "error", err)
			return
		}
		audioSentTotal.WithLabelValues(string(cat), "cache").Inc()
		b.log.Info("audio sent", "file", name, "source", "cache")
		return
	}

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Title = library.Stem(path)
	audio.DisableNotification = true

	sent, err := b.api.Send(audio)
	if err != nil {
		handlerErrorsTotal.Inc()
		b.log.Error("upload audio failed", "chat", chatID, "file", name, "error", err)
		return
	}

	if sent.Audio != nil {
		b.rememberID(ctx, name, sent.Audio.FileID)
	}
	audioSentTotal.WithLabelValues(string(cat), "upload").Inc()
	b.log.Info("audio sent", "file", name, "source", "upload")
}

func (b *Bot) cachedID(ctx context.Context, name string) (string, bool) {
	if b.ids == nil {
		return "", false
	}
	id, ok, err := b.ids.Get(ctx, name)
	if err != nil {
		// A broken cache only costs a re-upload.
		b.log.Warn("file-id lookup failed", "file", name, "error", err)
		return "", false
	}
	return id, ok
}

func (b *Bot) rememberID(ctx context.Context, name, id string) {
	if b.ids == nil {
		return
	}
	if err := b.ids.Put(ctx, name, id); err != nil {
		b.log.Warn("file-id store failed", "file", name, "error", err)
	}
}
