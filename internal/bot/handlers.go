package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aoe2bot/internal/library"
)

const startText = `🏰 *Welcome to the Age of Empires II Sound Box bot!* ⚔️

utilisez /aide pour la liste des commandes.
use /help for the list of commands.

Vous pouvez aussi utiliser /start pour revenir à ce message.
You can also use /start to return here.`

const helpText = `🏰 *Age of Empires II Bot* 🎮

*Random Audio Commands:*
/sound - Get a random AoE2 quote
/taunt - Get a random taunt
/civilization - Get a random civilization sound

*Specific Commands:*
/1 to /42 - Get a specific taunt by number
    _Example: /11 for "11"_
/britons, /celts, /vikings, etc. - Get a specific civilization sound
    _Example: /britons_

*List Commands:*
/taunts - Show all available taunts
/civilizations - Show all available civilizations
/sounds - Show all available sounds

*Help:*
/help - Show this help message (English)
/start - Welcome message

à la bataille! ⚔️`

const helpTextFrench = `🏰 *Bot Age of Empires II* 🎮

*Commandes audio aléatoires :*
/bruitage - Obtenir un son aléatoire de AoE2
/provocation - Obtenir une provocation aléatoire
/civilisation - Obtenir un son de civilisation aléatoire

*Commandes spécifiques :*
/1 à /42 - Obtenir une provocation spécifique par numéro
/britons, /celts, /vikings, etc. - Obtenir un son de civilisation spécifique

*Commandes de listes :*
/provocations - Afficher toutes les provocations disponibles
/civilisations - Afficher toutes les civilisations disponibles
/bruits - Afficher tous les sons disponibles

*Aide :*
/aide - Afficher ce message d'aide (Français)
/start - Message de bienvenue

à la bataille ! ⚔️`

const unknownText = "Unknown command. Use /help to see available commands.\n" +
	"Commande inconnue. Utilisez /aide pour voir les commandes disponibles."

// handleMessage routes a single incoming message. Non-command messages are
// ignored; the bot has no conversational surface.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	cmd := strings.ToLower(msg.Command())
	commandsTotal.WithLabelValues(cmd).Inc()
	b.log.Debug("command received", "command", cmd, "chat", chatID)

	switch cmd {
	case "start":
		b.sendMarkdown(chatID, startText)
	case "help":
		b.sendMarkdown(chatID, helpText)
	case "aide":
		b.sendMarkdown(chatID, helpTextFrench)
	case "sound", "bruitage":
		b.sendRandom(ctx, chatID, library.Sounds)
	case "taunt", "provocation":
		b.sendRandom(ctx, chatID, library.Taunts)
	case "civilization", "civilisation":
		b.sendRandom(ctx, chatID, library.Civilizations)
	case "taunts", "provocations":
		b.listTaunts(chatID)
	case "civilizations", "civilisations":
		b.listCivilizations(chatID)
	case "sounds", "bruits":
		b.listSounds(chatID)
	default:
		b.handleLookup(ctx, chatID, cmd)
	}
}

// handleLookup resolves commands that are not fixed keywords: a number is
// a taunt lookup, anything else is tried as a civilization name.
func (b *Bot) handleLookup(ctx context.Context, chatID int64, cmd string) {
	if n, err := strconv.Atoi(cmd); err == nil {
		path, err := b.lib.TauntByNumber(n)
		if errors.Is(err, library.ErrNotFound) {
			b.sendText(chatID, fmt.Sprintf("Taunt %02d not found", n))
			return
		}
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendAudio(ctx, chatID, library.Taunts, path)
		return
	}

	path, err := b.lib.CivilizationByName(cmd)
	if errors.Is(err, library.ErrNotFound) {
		// Not a civilization either: genuinely unknown.
		b.sendText(chatID, unknownText)
		return
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.sendAudio(ctx, chatID, library.Civilizations, path)
}

// sendRandom picks a uniform random clip from the category and sends it.
// An empty category yields a user-visible error, never a crash.
func (b *Bot) sendRandom(ctx context.Context, chatID int64, cat library.Category) {
	path, err := b.lib.Random(cat)
	if errors.Is(err, library.ErrNoFiles) {
		b.log.Warn("category is empty", "category", cat)
		handlerErrorsTotal.Inc()
		b.sendText(chatID, "Sorry, no audio files available.")
		return
	}
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.sendAudio(ctx, chatID, cat, path)
}

func (b *Bot) listTaunts(chatID int64) {
	taunts, err := b.lib.List(library.Taunts)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if len(taunts) == 0 {
		b.sendText(chatID, "No taunts available.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Available taunts:\n")
	for _, t := range taunts {
		number, name, found := strings.Cut(t, " ")
		if !found {
			continue
		}
		fmt.Fprintf(&sb, "/%s: %s\n", number, name)
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) listCivilizations(chatID int64) {
	civs, err := b.lib.List(library.Civilizations)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if len(civs) == 0 {
		b.sendText(chatID, "No civilizations available.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Available civilizations:\n")
	for _, civ := range civs {
		fmt.Fprintf(&sb, "/%s\n", strings.ToLower(civ))
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) listSounds(chatID int64) {
	sounds, err := b.lib.List(library.Sounds)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if len(sounds) == 0 {
		b.sendText(chatID, "No sounds available.")
		return
	}
	b.sendText(chatID, fmt.Sprintf("Available sounds (%d files):\n%s",
		len(sounds), strings.Join(sounds, "\n")))
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("send failed", "chat", chatID, "error", err)
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "chat", chatID, "error", err)
	}
}

// replyError reports an unexpected internal failure to the user and the log.
func (b *Bot) replyError(chatID int64, err error) {
	handlerErrorsTotal.Inc()
	b.log.Error("handler failed", "chat", chatID, "error", err)
	b.sendText(chatID, "Something went wrong, please try again.")
}
