package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"kinobot/internal/access"
	"kinobot/internal/catalog"
	"kinobot/internal/config"
	"kinobot/internal/delivery"
	"kinobot/internal/ingest"
	"kinobot/internal/library"
	"kinobot/internal/logging"
	"kinobot/internal/subscription"
	"kinobot/internal/texts"
)

// Dispatcher routes inbound updates to the catalog, ingestion, and delivery
// paths and localizes every reply.
type Dispatcher struct {
	cfg     *config.Config
	store   *catalog.Store
	texts   *texts.Catalog
	admins  *access.List
	ingest  *ingest.Pipeline
	deliver *delivery.Deliverer
	library *library.Library
	checker subscription.Checker
	logger  *slog.Logger
}

// NewDispatcher wires the dispatcher. A nil checker gets the noop
// implementation; a nil logger is silenced.
func NewDispatcher(
	cfg *config.Config,
	store *catalog.Store,
	tc *texts.Catalog,
	admins *access.List,
	pipeline *ingest.Pipeline,
	deliverer *delivery.Deliverer,
	lib *library.Library,
	checker subscription.Checker,
	logger *slog.Logger,
) *Dispatcher {
	if checker == nil {
		checker = subscription.NoopChecker{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		cfg:     cfg,
		store:   store,
		texts:   tc,
		admins:  admins,
		ingest:  pipeline,
		deliver: deliverer,
		library: lib,
		checker: checker,
		logger:  logger,
	}
}

// HandleUpdate processes one inbound event. Errors from the transport
// propagate; domain outcomes become localized replies instead of errors.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd Update, send Sender) error {
	switch {
	case upd.Callback != "":
		return d.handleCallback(ctx, upd, send)
	case upd.Command != "":
		return d.handleCommand(ctx, upd, send)
	case upd.Attachment != nil:
		return d.handleAttachment(ctx, upd, send)
	default:
		return d.handleText(ctx, upd, send)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, upd Update, send Sender) error {
	cmd := strings.TrimPrefix(strings.ToLower(upd.Command), "/")
	switch cmd {
	case "start":
		return d.handleStart(ctx, upd, send)
	case "language":
		lang := d.userLang(ctx, upd.UserID)
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "select_language"), languageKeyboard(d.texts))
	case "admin":
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		lang := d.userLang(ctx, upd.UserID)
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "admin_panel"), adminKeyboard(d.texts, lang))
	case "add_movie":
		return d.handleAddMovie(ctx, upd, send)
	case "remove_movie":
		return d.handleRemoveMovie(ctx, upd, send)
	case "list_movies":
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		return d.sendMovieList(ctx, upd.UserID, send)
	case "stats":
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		return d.sendStats(ctx, upd.UserID, send)
	default:
		return nil
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, upd Update, send Sender) error {
	existing, err := d.store.GetUser(ctx, upd.UserID)
	if err != nil {
		return err
	}
	user, err := d.store.UpsertUser(ctx, upd.UserID, upd.Username, upd.FirstName, upd.LastName)
	if err != nil {
		return err
	}

	if existing == nil {
		// First contact: pick a language before anything else.
		lang := d.texts.Resolve(upd.Language)
		if lang != d.texts.Default() {
			if err := d.store.SetUserLanguage(ctx, upd.UserID, lang); err != nil {
				return err
			}
		}
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "select_language"), languageKeyboard(d.texts))
	}

	lang := user.LanguageCode
	text := d.texts.Format(lang, "welcome_message", map[string]string{"first_name": displayName(user)})
	return send.SendMessage(ctx, upd.UserID, text, nil)
}

func (d *Dispatcher) handleAddMovie(ctx context.Context, upd Update, send Sender) error {
	if !d.admins.Allowed(upd.UserID) {
		return nil
	}
	lang := d.userLang(ctx, upd.UserID)
	if len(upd.Args) < 2 {
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "add_movie_usage"), nil)
	}
	code := strings.TrimSpace(upd.Args[0])
	title := strings.TrimSpace(strings.Join(upd.Args[1:], " "))
	if code == "" || title == "" {
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "add_movie_usage"), nil)
	}

	d.ingest.BeginRegistration(upd.UserID, code, title)
	text := d.texts.Format(lang, "send_movie_file", map[string]string{"code": code, "title": title})
	return send.SendMessage(ctx, upd.UserID, text, nil)
}

func (d *Dispatcher) handleRemoveMovie(ctx context.Context, upd Update, send Sender) error {
	if !d.admins.Allowed(upd.UserID) {
		return nil
	}
	lang := d.userLang(ctx, upd.UserID)
	if len(upd.Args) != 1 || strings.TrimSpace(upd.Args[0]) == "" {
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "remove_movie_usage"), nil)
	}
	code := strings.TrimSpace(upd.Args[0])

	entry, err := d.store.GetEntry(ctx, code)
	if err != nil {
		d.logger.Error("remove lookup failed", logging.String("code", code), logging.Error(err))
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "movie_remove_error"), nil)
	}
	if entry == nil {
		text := d.texts.Format(lang, "movie_not_found", map[string]string{"code": code})
		return send.SendMessage(ctx, upd.UserID, text, nil)
	}

	if _, err := d.store.DeleteEntry(ctx, code); err != nil {
		d.logger.Error("remove failed", logging.String("code", code), logging.Error(err))
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "movie_remove_error"), nil)
	}
	if _, err := d.library.Delete(entry.FilePath); err != nil {
		// Row removal wins; the stray file is logged for manual cleanup.
		d.logger.Warn("stored file not removed",
			logging.String("code", code),
			logging.String("path", entry.FilePath),
			logging.Error(err))
	}

	text := d.texts.Format(lang, "movie_removed", map[string]string{"code": code})
	return send.SendMessage(ctx, upd.UserID, text, nil)
}

func (d *Dispatcher) handleText(ctx context.Context, upd Update, send Sender) error {
	code := strings.TrimSpace(upd.Text)
	if code == "" {
		return nil
	}
	user, err := d.store.UpsertUser(ctx, upd.UserID, upd.Username, upd.FirstName, upd.LastName)
	if err != nil {
		return err
	}
	lang := user.LanguageCode

	if !user.Subscribed {
		member, err := d.checker.IsChannelMember(ctx, upd.UserID)
		if err != nil {
			d.logger.Warn("membership check failed", logging.Int64("user", upd.UserID), logging.Error(err))
		} else if member {
			if err := d.store.SetSubscriptionStatus(ctx, upd.UserID, true, nil); err != nil {
				return err
			}
		} else {
			kb := subscriptionKeyboard(d.texts, lang, d.cfg.Bot.ChannelURL, d.cfg.Bot.Instagram)
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "subscription_request"), kb)
		}
	}

	sink := &senderSink{ctx: ctx, userID: upd.UserID, send: send, texts: d.texts, lang: lang}
	if _, err := d.deliver.Deliver(ctx, upd.UserID, code, sink); err != nil {
		switch {
		case errors.Is(err, delivery.ErrInvalidCode):
			text := d.texts.Format(lang, "invalid_code", map[string]string{"code": code})
			return send.SendMessage(ctx, upd.UserID, text, nil)
		case errors.Is(err, delivery.ErrFileMissing):
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "movie_file_not_found"), nil)
		default:
			d.logger.Error("delivery failed",
				logging.Int64("user", upd.UserID),
				logging.String("code", code),
				logging.Error(err))
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "movie_send_error"), nil)
		}
	}
	return nil
}

func (d *Dispatcher) handleAttachment(ctx context.Context, upd Update, send Sender) error {
	if !d.admins.Allowed(upd.UserID) {
		return nil
	}
	att := upd.Attachment
	lang := d.userLang(ctx, upd.UserID)

	if _, _, ok := d.ingest.Pending(upd.UserID); !ok {
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "no_pending_movie"), nil)
	}

	if limit := d.cfg.MaxFileSizeBytes(); limit > 0 && att.Size > limit {
		text := d.texts.Format(lang, "file_too_large", map[string]string{
			"limit": strconv.FormatInt(d.cfg.Bot.MaxFileSizeMiB, 10),
		})
		return send.SendMessage(ctx, upd.UserID, text, nil)
	}

	stagedPath, err := d.stageAttachment(att)
	if err != nil {
		d.logger.Error("staging failed",
			logging.Int64("admin", upd.UserID),
			logging.String("name", att.Name),
			logging.Error(err))
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "file_upload_error"), nil)
	}

	entry, err := d.ingest.AttachFile(ctx, upd.UserID, stagedPath, att.Name, att.Size)
	if err != nil {
		// Whatever wasn't moved into the library is staging debris.
		_ = os.Remove(stagedPath)
		switch {
		case errors.Is(err, ingest.ErrNoPendingRegistration):
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "no_pending_movie"), nil)
		case errors.Is(err, catalog.ErrDuplicateCode):
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "movie_code_exists"), nil)
		default:
			d.logger.Error("ingest failed",
				logging.Int64("admin", upd.UserID),
				logging.String("name", att.Name),
				logging.Error(err))
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "movie_save_error"), nil)
		}
	}

	text := d.texts.Format(lang, "movie_added", map[string]string{
		"code":  entry.Code,
		"title": entry.Title,
	})
	return send.SendMessage(ctx, upd.UserID, text, nil)
}

func (d *Dispatcher) handleCallback(ctx context.Context, upd Update, send Sender) error {
	data := upd.Callback

	if code, ok := strings.CutPrefix(data, callbackLangPrefix); ok {
		lang := d.texts.Resolve(code)
		if _, err := d.store.UpsertUser(ctx, upd.UserID, upd.Username, upd.FirstName, upd.LastName); err != nil {
			return err
		}
		if err := d.store.SetUserLanguage(ctx, upd.UserID, lang); err != nil {
			return err
		}
		kb := subscriptionKeyboard(d.texts, lang, d.cfg.Bot.ChannelURL, d.cfg.Bot.Instagram)
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "language_changed"), kb)
	}

	lang := d.userLang(ctx, upd.UserID)
	switch data {
	case callbackCheckSub:
		member, err := d.checker.IsChannelMember(ctx, upd.UserID)
		if err != nil {
			d.logger.Warn("membership check failed", logging.Int64("user", upd.UserID), logging.Error(err))
			member = false
		}
		if !member {
			kb := subscriptionKeyboard(d.texts, lang, d.cfg.Bot.ChannelURL, d.cfg.Bot.Instagram)
			return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "not_subscribed"), kb)
		}
		if err := d.store.SetSubscriptionStatus(ctx, upd.UserID, true, nil); err != nil {
			return err
		}
		text := d.texts.Format(lang, "instagram_follow_request", map[string]string{
			"instagram": instagramURL(d.cfg.Bot.Instagram),
		})
		return send.SendMessage(ctx, upd.UserID, text, instagramFollowKeyboard(d.texts, lang, d.cfg.Bot.Instagram))
	case callbackInstagramDone:
		followed := true
		if err := d.store.SetSubscriptionStatus(ctx, upd.UserID, true, &followed); err != nil {
			return err
		}
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "setup_complete"), nil)
	case callbackSkipSub:
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "skip_subscription_message"), nil)
	case callbackBackToSub:
		kb := subscriptionKeyboard(d.texts, lang, d.cfg.Bot.ChannelURL, d.cfg.Bot.Instagram)
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "subscription_request"), kb)
	case callbackAdminAdd:
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "add_movie_instructions"), nil)
	case callbackAdminList:
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		return d.sendMovieList(ctx, upd.UserID, send)
	case callbackAdminStats:
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		return d.sendStats(ctx, upd.UserID, send)
	case callbackAdminClose:
		if !d.admins.Allowed(upd.UserID) {
			return nil
		}
		return send.SendMessage(ctx, upd.UserID, d.texts.Get(lang, "admin_panel_closed"), nil)
	default:
		return nil
	}
}

func (d *Dispatcher) sendMovieList(ctx context.Context, userID int64, send Sender) error {
	lang := d.userLang(ctx, userID)
	entries, err := d.store.ListEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return send.SendMessage(ctx, userID, d.texts.Get(lang, "no_movies"), nil)
	}

	var b strings.Builder
	b.WriteString(d.texts.Get(lang, "movies_list_header"))
	for _, entry := range entries {
		fmt.Fprintf(&b, "\n%s: %s (%s: %d)",
			entry.Code, entry.Title, d.texts.Get(lang, "downloads"), entry.DownloadCount)
	}
	return send.SendMessage(ctx, userID, b.String(), nil)
}

func (d *Dispatcher) sendStats(ctx context.Context, userID int64, send Sender) error {
	lang := d.userLang(ctx, userID)
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return err
	}
	text := d.texts.Format(lang, "stats_message", map[string]string{
		"total_users":      strconv.Itoa(stats.TotalUsers),
		"subscribed_users": strconv.Itoa(stats.SubscribedUsers),
		"total_movies":     strconv.Itoa(stats.TotalEntries),
		"total_downloads":  strconv.Itoa(stats.TotalDownloads),
	})
	return send.SendMessage(ctx, userID, text, nil)
}

// stageAttachment copies the attachment bytes into the staging directory
// under a unique name; ingestion later moves the file into the library.
func (d *Dispatcher) stageAttachment(att *Attachment) (string, error) {
	if err := os.MkdirAll(d.cfg.Paths.StagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	reader, err := att.Open()
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer reader.Close()

	path := filepath.Join(d.cfg.Paths.StagingDir, uuid.NewString()+filepath.Ext(att.Name))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("stage attachment: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

// userLang returns the stored language preference, or the default for
// unknown users.
func (d *Dispatcher) userLang(ctx context.Context, userID int64) string {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil || user == nil {
		return d.texts.Default()
	}
	return user.LanguageCode
}

func displayName(user *catalog.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return user.Username
	}
	return strconv.FormatInt(user.ID, 10)
}

// senderSink adapts a Sender to the delivery sink interface, capturing the
// request context and destination user.
type senderSink struct {
	ctx    context.Context
	userID int64
	send   Sender
	texts  *texts.Catalog
	lang   string
}

func (s *senderSink) Send(entry *catalog.Entry, file *os.File) error {
	caption := s.texts.Format(s.lang, "movie_sent", map[string]string{"title": entry.Title})
	return s.send.SendDocument(s.ctx, s.userID, entry, file, caption)
}
