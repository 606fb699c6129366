// Package bot wires the Telegram client to the audio library: command
// routing, random clip selection, audio delivery, and file-id reuse.
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aoe2bot/internal/fileid"
	"aoe2bot/internal/library"
)

// sender is the subset of *tgbotapi.BotAPI the handlers need. Kept small
// so tests can record outgoing traffic without a live API.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot answers Telegram commands with Age of Empires II sound clips.
type Bot struct {
	tg  *tgbotapi.BotAPI
	api sender
	lib *library.Library
	ids *fileid.Store
	log *slog.Logger
}

// New authenticates against the Bot API and returns a ready Bot.
// The fileid store may be nil; clips are then uploaded on every send.
func New(token string, lib *library.Library, ids *fileid.Store, logger *slog.Logger) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		tg:  tg,
		api: tg,
		lib: lib,
		ids: ids,
		log: logger,
	}, nil
}

// Run registers the command menu and handles updates until ctx is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "sound", Description: "Random AoE2 quote"},
		tgbotapi.BotCommand{Command: "taunt", Description: "Random taunt"},
		tgbotapi.BotCommand{Command: "civilization", Description: "Random civilization sound"},
		tgbotapi.BotCommand{Command: "taunts", Description: "List all taunts"},
		tgbotapi.BotCommand{Command: "civilizations", Description: "List all civilizations"},
		tgbotapi.BotCommand{Command: "sounds", Description: "List all sounds"},
		tgbotapi.BotCommand{Command: "help", Description: "Show help (English)"},
		tgbotapi.BotCommand{Command: "aide", Description: "Afficher l'aide (Français)"},
	)); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.tg.StopReceivingUpdates()
	}()

	b.log.Info("bot running", "username", b.tg.Self.UserName)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleMessage(ctx, update.Message)
	}

	// The channel only closes once StopReceivingUpdates ran.
	return nil
}
