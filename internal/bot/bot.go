package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hentity/fretty/internal/config"
	"github.com/hentity/fretty/internal/database"
	"github.com/hentity/fretty/internal/scheduler"
	"github.com/hentity/fretty/internal/session"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of the Telegram API the bot talks to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// practice is one user's lesson state held between updates
type practice struct {
	mu       sync.Mutex
	engine   *spaced_repetition.Engine
	session  *session.Session
	version  int64 // stored progress version the session was built on
	stale    bool  // dropped from the cache; holders must reload
	lastUsed time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api              sender
	botAPI           *tgbotapi.BotAPI
	token            string
	config           *BotConfig
	params           spaced_repetition.Params
	loc              *time.Location
	adminUserIDs     map[int64]bool
	schedulerEnabled bool
	schedulerOpts    scheduler.Options
	scheduler        *scheduler.Scheduler

	userRepo     *database.UserRepository
	progressRepo *database.ProgressRepository
	attemptRepo  *database.AttemptLogRepository

	mu        sync.Mutex
	practices map[int64]*practice
	handlers  sync.WaitGroup
	now       func() time.Time
}

// New creates a new bot instance
func New(cfg *config.Config) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Bot{
		token:            cfg.TelegramToken,
		config:           DefaultConfig(),
		params:           cfg.Params,
		loc:              loc,
		adminUserIDs:     cfg.AdminUserIDs,
		schedulerEnabled: cfg.SchedulerEnabled,
		schedulerOpts: scheduler.Options{
			Location:  loc,
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
			Params:    cfg.Params,
		},
		userRepo:     database.NewUserRepository(),
		progressRepo: database.NewProgressRepository(),
		attemptRepo:  database.NewAttemptLogRepository(),
		practices:    make(map[int64]*practice),
		now:          time.Now,
	}, nil
}

// Start connects to Telegram and handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.botAPI = botAPI
	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	if b.schedulerEnabled {
		s, err := scheduler.New(b, b.schedulerOpts)
		if err != nil {
			return err
		}
		if err := s.Start(); err != nil {
			return err
		}
		b.scheduler = s
		log.Printf("Reminder scheduler started (%02d:00-%02d:00 %s)",
			b.schedulerOpts.StartHour, b.schedulerOpts.EndHour, b.loc)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handlers.Add(1)
			go func() {
				defer b.handlers.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// Stop stops receiving updates and waits for in-flight handlers
func (b *Bot) Stop(ctx context.Context) error {
	if b.botAPI != nil {
		b.botAPI.StopReceivingUpdates()
	}
	if b.scheduler != nil {
		b.scheduler.Stop()
	}

	done := make(chan struct{})
	go func() {
		b.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for handlers: %w", ctx.Err())
	}
}

// SendReminder implements scheduler.Notifier
func (b *Bot) SendReminder(user models.User, reminder scheduler.Reminder) error {
	chatID := user.ChatID
	if chatID == 0 {
		// private chats share the user's ID
		chatID = user.ID
	}
	msg := tgbotapi.NewMessage(chatID, reminder.Message())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎸 Start lesson", CallbackData: callbackLesson}},
	})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	log.Printf("Sent reminder to user %d (%d spots)", user.ID, reminder.Spots)
	return nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

func (b *Bot) today() models.Date {
	return models.DateOf(b.now().In(b.loc))
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.config.UpdateTimeout)
	defer cancel()

	var err error
	var chatID int64
	switch {
	case update.Message != nil && update.Message.IsCommand():
		chatID = update.Message.Chat.ID
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		chatID = update.Message.Chat.ID
		err = b.sendMessage(withMenu(tgbotapi.NewMessage(chatID, "I don't understand. Use /help to see what I can do.")))
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
		err = b.HandleCallback(ctx, update.CallbackQuery)
	default:
		return
	}

	if err != nil {
		log.Printf("Error handling update %d: %v", update.UpdateID, err)
		b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Something went wrong. Please try again later."))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// errNoProgress means the user has not run /start yet
var errNoProgress = errors.New("no progress for user")

// errProgressChanged means the stored progress was replaced while a session
// held an older copy
var errProgressChanged = errors.New("progress changed elsewhere")

// practiceFor returns the user's lesson state, loading their progress on
// first use. Idle entries are dropped along the way.
func (b *Bot) practiceFor(ctx context.Context, userID int64) (*practice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for id, p := range b.practices {
		if id != userID && now.Sub(p.lastUsed) > b.config.SessionIdleTimeout && p.mu.TryLock() {
			p.stale = true
			delete(b.practices, id)
			p.mu.Unlock()
		}
	}

	if p, ok := b.practices[userID]; ok {
		p.lastUsed = now
		return p, nil
	}

	progress, version, err := b.progressRepo.LoadVersion(ctx, userID)
	if errors.Is(err, database.ErrProgressNotFound) {
		return nil, errNoProgress
	}
	if err != nil {
		return nil, err
	}
	engine, err := spaced_repetition.NewEngine(b.params, nil)
	if err != nil {
		return nil, err
	}
	p := &practice{
		engine:   engine,
		session:  session.New(engine, progress, b.today()),
		version:  version,
		lastUsed: now,
	}
	b.practices[userID] = p
	return p, nil
}

// lockPractice returns the user's lesson state with its mutex held.
// State dropped while we waited for the lock is reloaded.
func (b *Bot) lockPractice(ctx context.Context, userID int64) (*practice, error) {
	for {
		p, err := b.practiceFor(ctx, userID)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		if !p.stale {
			return p, nil
		}
		p.mu.Unlock()
	}
}

// saveProgress stores the session's progress unless someone else saved
// since it was loaded. On any failure the cached state is dropped so the
// next update starts from what is stored. p.mu must be held.
func (b *Bot) saveProgress(ctx context.Context, userID int64, p *practice) error {
	version, err := b.progressRepo.SaveVersion(ctx, userID, p.session.Progress(), p.version)
	if err != nil {
		b.drop(userID, p)
		if errors.Is(err, database.ErrProgressConflict) {
			log.Printf("Progress for user %d changed elsewhere, discarding cached session", userID)
			return errProgressChanged
		}
		return err
	}
	p.version = version
	return nil
}

// drop marks p stale and removes it from the cache. p.mu must be held.
func (b *Bot) drop(userID int64, p *practice) {
	p.stale = true
	b.mu.Lock()
	if b.practices[userID] == p {
		delete(b.practices, userID)
	}
	b.mu.Unlock()
}
