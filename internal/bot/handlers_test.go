package bot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aoe2bot/internal/fileid"
	"aoe2bot/internal/library"
)

// fakeAPI records outgoing traffic instead of calling Telegram.
type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	msg := tgbotapi.Message{}
	if _, ok := c.(tgbotapi.AudioConfig); ok {
		msg.Audio = &tgbotapi.Audio{FileID: "uploaded-file-id"}
	}
	return msg, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastMessage returns the most recent plain message sent, failing the test
// if there is none.
func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	t.Fatal("no message was sent")
	return tgbotapi.MessageConfig{}
}

// lastAudio returns the most recent audio sent, failing the test if there
// is none.
func (f *fakeAPI) lastAudio(t *testing.T) tgbotapi.AudioConfig {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if audio, ok := f.sent[i].(tgbotapi.AudioConfig); ok {
			return audio
		}
	}
	t.Fatal("no audio was sent")
	return tgbotapi.AudioConfig{}
}

// newTestBot builds a Bot over a temp library populated with the given
// clips, wired to a fakeAPI. ids may be nil.
func newTestBot(t *testing.T, ids *fileid.Store, clips ...string) (*Bot, *fakeAPI) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range clips {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	api := &fakeAPI{}
	b := &Bot{
		api: api,
		lib: library.New(dir),
		ids: ids,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return b, api
}

// command builds an incoming message carrying a bot command.
func command(text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i != -1 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 7},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func handle(b *Bot, text string) {
	b.handleMessage(context.Background(), command(text))
}

func TestTauntCommand_SendsTaunt(t *testing.T) {
	b, api := newTestBot(t, nil,
		"01 start the game.mp3", "11 laugh.mp3", "Britons.mp3", "monk1.wav")

	handle(b, "/taunt")

	audio := api.lastAudio(t)
	path, ok := audio.File.(tgbotapi.FilePath)
	if !ok {
		t.Fatalf("audio file is %T, want FilePath", audio.File)
	}
	name := filepath.Base(string(path))
	if name != "01 start the game.mp3" && name != "11 laugh.mp3" {
		t.Errorf("sent %q, outside the taunt set", name)
	}
	if !audio.DisableNotification {
		t.Error("notification not disabled")
	}
	if len(api.requests) == 0 {
		t.Error("no chat action was sent")
	}
}

func TestCategoryCommands_NeverCrossCategories(t *testing.T) {
	b, api := newTestBot(t, nil,
		"01 start the game.mp3", "11 laugh.mp3",
		"Britons.mp3", "Celts.mp3",
		"monk1.wav", "villager2.wav")

	checks := []struct {
		cmd    string
		suffix string
	}{
		{"/sound", ".wav"},
		{"/bruitage", ".wav"},
		{"/taunt", ".mp3"},
		{"/civilization", ".mp3"},
	}
	for _, c := range checks {
		for i := 0; i < 25; i++ {
			handle(b, c.cmd)
			audio := api.lastAudio(t)
			path := string(audio.File.(tgbotapi.FilePath))
			if !strings.HasSuffix(path, c.suffix) {
				t.Fatalf("%s sent %q, want %s file", c.cmd, path, c.suffix)
			}
			if c.cmd == "/civilization" {
				base := filepath.Base(path)
				if base != "Britons.mp3" && base != "Celts.mp3" {
					t.Fatalf("/civilization sent %q", base)
				}
			}
		}
	}
}

func TestEmptyCivilizationFolder_UserVisibleError(t *testing.T) {
	// Corrupted install: taunts exist, civilizations do not.
	b, api := newTestBot(t, nil, "01 start the game.mp3")

	handle(b, "/civilization")

	msg := api.lastMessage(t)
	if !strings.Contains(strings.ToLower(msg.Text), "no audio files available") {
		t.Errorf("got %q, want user-visible error", msg.Text)
	}
}

func TestNumericCommand_SpecificTaunt(t *testing.T) {
	b, api := newTestBot(t, nil, "01 start the game.mp3", "11 laugh.mp3")

	handle(b, "/11")

	audio := api.lastAudio(t)
	path := string(audio.File.(tgbotapi.FilePath))
	if filepath.Base(path) != "11 laugh.mp3" {
		t.Errorf("sent %q, want 11 laugh.mp3", path)
	}
	if audio.Title != "11 laugh" {
		t.Errorf("title = %q, want %q", audio.Title, "11 laugh")
	}
}

func TestNumericCommand_NotFound(t *testing.T) {
	b, api := newTestBot(t, nil, "11 laugh.mp3")

	handle(b, "/99")

	msg := api.lastMessage(t)
	if !strings.Contains(msg.Text, "not found") {
		t.Errorf("got %q, want not-found reply", msg.Text)
	}
}

func TestCivilizationNameCommand(t *testing.T) {
	b, api := newTestBot(t, nil, "Britons.mp3", "Celts.mp3")

	handle(b, "/britons")

	audio := api.lastAudio(t)
	path := string(audio.File.(tgbotapi.FilePath))
	if filepath.Base(path) != "Britons.mp3" {
		t.Errorf("sent %q, want Britons.mp3", path)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, api := newTestBot(t, nil, "Britons.mp3")

	handle(b, "/atlantis")

	msg := api.lastMessage(t)
	if !strings.Contains(msg.Text, "Unknown command") {
		t.Errorf("got %q, want unknown-command reply", msg.Text)
	}
}

func TestNonCommandMessage_Ignored(t *testing.T) {
	b, api := newTestBot(t, nil, "Britons.mp3")

	b.handleMessage(context.Background(), &tgbotapi.Message{
		Text: "hello there",
		Chat: &tgbotapi.Chat{ID: 7},
	})

	if len(api.sent) != 0 {
		t.Errorf("sent %d messages for plain text, want 0", len(api.sent))
	}
}

func TestFileIDCache_SecondSendReusesUpload(t *testing.T) {
	ids, err := fileid.Open(filepath.Join(t.TempDir(), "fileid.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = ids.Close() }()

	b, api := newTestBot(t, ids, "11 laugh.mp3")

	handle(b, "/11")
	first := api.lastAudio(t)
	if _, ok := first.File.(tgbotapi.FilePath); !ok {
		t.Fatalf("first send is %T, want FilePath upload", first.File)
	}

	handle(b, "/11")
	second := api.lastAudio(t)
	id, ok := second.File.(tgbotapi.FileID)
	if !ok {
		t.Fatalf("second send is %T, want FileID", second.File)
	}
	if string(id) != "uploaded-file-id" {
		t.Errorf("second send used id %q", id)
	}
}

func TestHandleMessage_CallerContextGovernsCache(t *testing.T) {
	ids, err := fileid.Open(filepath.Join(t.TempDir(), "fileid.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = ids.Close() }()

	b, api := newTestBot(t, ids, "11 laugh.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.handleMessage(ctx, command("/11"))

	// The clip is still delivered as an upload.
	if _, ok := api.lastAudio(t).File.(tgbotapi.FilePath); !ok {
		t.Fatalf("send is %T, want FilePath upload", api.lastAudio(t).File)
	}

	// The cancelled context stops the cache write, so nothing is recorded.
	n, err := ids.Len(context.Background())
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Errorf("cache holds %d entries after cancelled context, want 0", n)
	}
}

func TestListCommands(t *testing.T) {
	b, api := newTestBot(t, nil,
		"01 start the game.mp3", "11 laugh.mp3",
		"Britons.mp3", "monk1.wav")

	handle(b, "/taunts")
	msg := api.lastMessage(t)
	if !strings.Contains(msg.Text, "/01: start the game") || !strings.Contains(msg.Text, "/11: laugh") {
		t.Errorf("taunt list = %q", msg.Text)
	}

	handle(b, "/civilizations")
	msg = api.lastMessage(t)
	if !strings.Contains(msg.Text, "/britons") {
		t.Errorf("civilization list = %q", msg.Text)
	}

	handle(b, "/sounds")
	msg = api.lastMessage(t)
	if !strings.Contains(msg.Text, "monk1") || !strings.Contains(msg.Text, "1 files") {
		t.Errorf("sound list = %q", msg.Text)
	}
}

func TestStartAndHelp(t *testing.T) {
	b, api := newTestBot(t, nil)

	handle(b, "/start")
	msg := api.lastMessage(t)
	if !strings.Contains(msg.Text, "Welcome") || msg.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("start reply = %+v", msg)
	}

	handle(b, "/help")
	msg = api.lastMessage(t)
	if !strings.Contains(msg.Text, "/taunt") {
		t.Errorf("help reply = %q", msg.Text)
	}

	handle(b, "/aide")
	msg = api.lastMessage(t)
	if !strings.Contains(msg.Text, "/provocation") {
		t.Errorf("french help reply = %q", msg.Text)
	}
}
