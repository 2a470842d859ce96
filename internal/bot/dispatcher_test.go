package bot_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kinobot/internal/access"
	"kinobot/internal/bot"
	"kinobot/internal/catalog"
	"kinobot/internal/config"
	"kinobot/internal/delivery"
	"kinobot/internal/ingest"
	"kinobot/internal/library"
	"kinobot/internal/logging"
	"kinobot/internal/subscription"
	"kinobot/internal/testsupport"
	"kinobot/internal/texts"
)

type sentMessage struct {
	userID   int64
	text     string
	keyboard *bot.Keyboard
}

type sentDocument struct {
	userID  int64
	code    string
	caption string
}

type fakeSender struct {
	messages  []sentMessage
	documents []sentDocument
}

func (f *fakeSender) SendMessage(_ context.Context, userID int64, text string, keyboard *bot.Keyboard) error {
	f.messages = append(f.messages, sentMessage{userID: userID, text: text, keyboard: keyboard})
	return nil
}

func (f *fakeSender) SendDocument(_ context.Context, userID int64, entry *catalog.Entry, _ *os.File, caption string) error {
	f.documents = append(f.documents, sentDocument{userID: userID, code: entry.Code, caption: caption})
	return nil
}

type denyChecker struct{}

func (denyChecker) IsChannelMember(context.Context, int64) (bool, error) { return false, nil }

type fixture struct {
	cfg        *config.Config
	store      *catalog.Store
	texts      *texts.Catalog
	library    *library.Library
	pipeline   *ingest.Pipeline
	dispatcher *bot.Dispatcher
}

func newFixture(t *testing.T, checker subscription.Checker, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	tc, err := texts.Load(cfg.Languages.Default, cfg.Languages.Supported)
	if err != nil {
		t.Fatalf("texts.Load: %v", err)
	}

	lib := library.New(cfg.Paths.MoviesDir)
	logger := logging.NewNop()
	pipeline := ingest.NewPipeline(store, lib, logger)
	deliverer := delivery.NewDeliverer(store, lib, logger)
	admins := access.NewList(cfg.Bot.AdminIDs)

	dispatcher := bot.NewDispatcher(cfg, store, tc, admins, pipeline, deliverer, lib, checker, logger)
	return &fixture{
		cfg:        cfg,
		store:      store,
		texts:      tc,
		library:    lib,
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}
}

func attachment(name string, data []byte) *bot.Attachment {
	return &bot.Attachment{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func handle(t *testing.T, f *fixture, upd bot.Update) *fakeSender {
	t.Helper()
	sender := &fakeSender{}
	if err := f.dispatcher.HandleUpdate(context.Background(), upd, sender); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	return sender
}

func seedEntry(t *testing.T, f *fixture, code, title string, contents []byte) *catalog.Entry {
	t.Helper()
	if err := os.MkdirAll(f.cfg.Paths.MoviesDir, 0o755); err != nil {
		t.Fatalf("mkdir movies dir: %v", err)
	}
	path := filepath.Join(f.cfg.Paths.MoviesDir, code+".mp4")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write movie file: %v", err)
	}
	return testsupport.NewEntry(t, f.store, code, title, code+".mp4", path, int64(len(contents)))
}

func TestStartPromptsLanguageForNewUser(t *testing.T) {
	f := newFixture(t, nil)

	sender := handle(t, f, bot.Update{UserID: 11, FirstName: "Ann", Command: "/start"})

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	msg := sender.messages[0]
	if msg.text != f.texts.Get(f.texts.Default(), "select_language") {
		t.Fatalf("unexpected reply: %q", msg.text)
	}
	if msg.keyboard == nil || len(msg.keyboard.Rows) != len(f.texts.Languages()) {
		t.Fatalf("expected one keyboard row per language")
	}

	user, err := f.store.GetUser(context.Background(), 11)
	if err != nil || user == nil {
		t.Fatalf("expected user to be created, got %v, %v", user, err)
	}
}

func TestStartWelcomesKnownUser(t *testing.T) {
	f := newFixture(t, nil)

	handle(t, f, bot.Update{UserID: 11, FirstName: "Ann", Command: "/start"})
	sender := handle(t, f, bot.Update{UserID: 11, FirstName: "Ann", Command: "/start"})

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	if !strings.Contains(sender.messages[0].text, "Ann") {
		t.Fatalf("expected personalized welcome, got %q", sender.messages[0].text)
	}
}

func TestAdminCommandsSilentForNonAdmin(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7))

	for _, upd := range []bot.Update{
		{UserID: 99, Command: "/admin"},
		{UserID: 99, Command: "/add_movie", Args: []string{"A1", "Movie"}},
		{UserID: 99, Command: "/remove_movie", Args: []string{"A1"}},
		{UserID: 99, Command: "/list_movies"},
		{UserID: 99, Command: "/stats"},
		{UserID: 99, Attachment: attachment("clip.mp4", []byte("data"))},
	} {
		sender := handle(t, f, upd)
		if len(sender.messages) != 0 || len(sender.documents) != 0 {
			t.Fatalf("expected silence for %+v, got %d messages", upd, len(sender.messages))
		}
	}
}

func TestTwoPhaseIngestion(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7))

	sender := handle(t, f, bot.Update{UserID: 7, Command: "/add_movie", Args: []string{"A1", "Movie", "One"}})
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0].text, "A1") {
		t.Fatalf("expected registration confirmation, got %+v", sender.messages)
	}

	payload := bytes.Repeat([]byte("x"), 2048)
	sender = handle(t, f, bot.Update{UserID: 7, Attachment: attachment("clip.mp4", payload)})
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0].text, "A1") {
		t.Fatalf("expected ingest confirmation, got %+v", sender.messages)
	}

	entry, err := f.store.GetEntry(context.Background(), "A1")
	if err != nil || entry == nil {
		t.Fatalf("expected stored entry, got %v, %v", entry, err)
	}
	if entry.Filename != "A1.mp4" {
		t.Fatalf("expected filename A1.mp4, got %q", entry.Filename)
	}
	if entry.Title != "Movie One" {
		t.Fatalf("expected joined title, got %q", entry.Title)
	}
	if !f.library.Exists(entry.FilePath) {
		t.Fatalf("expected stored file at %q", entry.FilePath)
	}
	if _, _, ok := f.pipeline.Pending(7); ok {
		t.Fatal("expected pending registration to be cleared")
	}
}

func TestAttachmentWithoutRegistration(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7))

	sender := handle(t, f, bot.Update{UserID: 7, Attachment: attachment("clip.mp4", []byte("data"))})

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	if sender.messages[0].text != f.texts.Get(f.texts.Default(), "no_pending_movie") {
		t.Fatalf("unexpected reply: %q", sender.messages[0].text)
	}
}

func TestAttachmentOverSizeLimit(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7), testsupport.WithMaxFileSizeMiB(1))

	handle(t, f, bot.Update{UserID: 7, Command: "/add_movie", Args: []string{"A1", "Movie"}})

	big := &bot.Attachment{
		Name: "clip.mp4",
		Size: 2 * 1024 * 1024,
		Open: func() (io.ReadCloser, error) {
			t.Fatal("oversized attachment must not be opened")
			return nil, nil
		},
	}
	sender := handle(t, f, bot.Update{UserID: 7, Attachment: big})

	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0].text, "1") {
		t.Fatalf("expected size refusal naming the limit, got %+v", sender.messages)
	}
	if _, _, ok := f.pipeline.Pending(7); !ok {
		t.Fatal("registration should survive a size refusal")
	}
}

func TestDuplicateCodeAttachment(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7))
	seedEntry(t, f, "A1", "Existing", []byte("original"))

	handle(t, f, bot.Update{UserID: 7, Command: "/add_movie", Args: []string{"A1", "Replacement"}})
	sender := handle(t, f, bot.Update{UserID: 7, Attachment: attachment("clip.mkv", []byte("new data"))})

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	if sender.messages[0].text != f.texts.Get(f.texts.Default(), "movie_code_exists") {
		t.Fatalf("unexpected reply: %q", sender.messages[0].text)
	}

	entry, err := f.store.GetEntry(context.Background(), "A1")
	if err != nil || entry == nil || entry.Title != "Existing" {
		t.Fatalf("existing entry must be untouched, got %+v, %v", entry, err)
	}
}

func TestCodeDelivery(t *testing.T) {
	f := newFixture(t, nil)
	seedEntry(t, f, "A1", "Movie One", []byte("movie bytes"))

	sender := handle(t, f, bot.Update{UserID: 42, Text: "A1"})

	if len(sender.documents) != 1 {
		t.Fatalf("expected one document, got %d", len(sender.documents))
	}
	doc := sender.documents[0]
	if doc.code != "A1" || doc.userID != 42 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !strings.Contains(doc.caption, "Movie One") {
		t.Fatalf("expected caption with title, got %q", doc.caption)
	}

	entry, err := f.store.GetEntry(context.Background(), "A1")
	if err != nil || entry == nil {
		t.Fatalf("GetEntry: %v, %v", entry, err)
	}
	if entry.DownloadCount != 1 {
		t.Fatalf("expected one recorded download, got %d", entry.DownloadCount)
	}
}

func TestUnknownCodeReply(t *testing.T) {
	f := newFixture(t, nil)

	sender := handle(t, f, bot.Update{UserID: 42, Text: "ZZ"})

	if len(sender.documents) != 0 {
		t.Fatal("no document expected for unknown code")
	}
	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0].text, "ZZ") {
		t.Fatalf("expected unknown-code reply naming the code, got %+v", sender.messages)
	}
}

func TestSubscriptionGateBlocksDelivery(t *testing.T) {
	f := newFixture(t, denyChecker{})
	seedEntry(t, f, "A1", "Movie One", []byte("movie bytes"))

	sender := handle(t, f, bot.Update{UserID: 42, Text: "A1"})

	if len(sender.documents) != 0 {
		t.Fatal("delivery must wait for subscription")
	}
	if len(sender.messages) != 1 || sender.messages[0].keyboard == nil {
		t.Fatalf("expected subscription prompt with keyboard, got %+v", sender.messages)
	}
}

func TestLanguageCallbackStoresPreference(t *testing.T) {
	f := newFixture(t, nil)

	sender := handle(t, f, bot.Update{UserID: 42, Callback: "lang_ru"})

	user, err := f.store.GetUser(context.Background(), 42)
	if err != nil || user == nil {
		t.Fatalf("GetUser: %v, %v", user, err)
	}
	if user.LanguageCode != "ru" {
		t.Fatalf("expected language ru, got %q", user.LanguageCode)
	}
	if len(sender.messages) != 1 || sender.messages[0].text != f.texts.Get("ru", "language_changed") {
		t.Fatalf("expected localized confirmation, got %+v", sender.messages)
	}
}

func TestRemoveMovieDeletesRowAndFile(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7))
	entry := seedEntry(t, f, "A1", "Movie One", []byte("movie bytes"))

	sender := handle(t, f, bot.Update{UserID: 7, Command: "/remove_movie", Args: []string{"A1"}})

	if len(sender.messages) != 1 || !strings.Contains(sender.messages[0].text, "A1") {
		t.Fatalf("expected removal confirmation, got %+v", sender.messages)
	}
	got, err := f.store.GetEntry(context.Background(), "A1")
	if err != nil || got != nil {
		t.Fatalf("expected entry gone, got %+v, %v", got, err)
	}
	if f.library.Exists(entry.FilePath) {
		t.Fatal("expected stored file to be deleted")
	}
}

func TestStatsCommand(t *testing.T) {
	f := newFixture(t, nil, testsupport.WithAdmins(7))
	seedEntry(t, f, "A1", "Movie One", []byte("movie bytes"))
	handle(t, f, bot.Update{UserID: 42, Text: "A1"})

	sender := handle(t, f, bot.Update{UserID: 7, Command: "/stats"})

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	text := sender.messages[0].text
	if strings.Contains(text, "{total_users}") {
		t.Fatalf("expected placeholders substituted, got %q", text)
	}
}
