package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hentity/fretty/internal/database"
	"github.com/hentity/fretty/internal/excel"
	"github.com/hentity/fretty/internal/fretboard"
	"github.com/hentity/fretty/internal/session"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// Constants for callback data
const (
	callbackMainMenu = "main_menu"
	callbackLesson   = "lesson"
	callbackProgress = "progress"
	callbackStats    = "stats"
	callbackHelp     = "help"
	callbackOutcome  = "outcome_"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	chatID, userID := message.Chat.ID, message.From.ID
	args := strings.TrimSpace(message.CommandArguments())

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(chatID)
	case "menu":
		err = b.handleMainMenu(chatID)
	case "lesson":
		err = b.handleLesson(ctx, chatID, userID)
	case "progress":
		err = b.handleProgress(ctx, chatID, userID)
	case "stats":
		err = b.handleStats(ctx, chatID, userID)
	case "tuning":
		err = b.handleTuning(ctx, chatID, userID, args)
	case "export":
		err = b.handleExport(ctx, chatID, userID, args)
	case "notify":
		err = b.handleNotifyCommand(ctx, chatID, userID, args)
	case "time":
		err = b.handleTimeCommand(ctx, chatID, userID, args)
	case "admin_stats":
		if !b.isAdmin(userID) {
			return b.sendMessage(tgbotapi.NewMessage(chatID, "This command is only available for administrators."))
		}
		err = b.handleAdminStats(ctx, chatID)
	default:
		err = b.handleUnknownCommand(chatID)
	}
	return b.replyToError(chatID, err)
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Warning: Failed to answer callback: %v", err)
	}

	chatID, userID := callback.Message.Chat.ID, callback.From.ID

	var err error
	switch data := callback.Data; {
	case data == callbackMainMenu:
		err = b.handleMainMenu(chatID)
	case data == callbackLesson:
		err = b.handleLesson(ctx, chatID, userID)
	case data == callbackProgress:
		err = b.handleProgress(ctx, chatID, userID)
	case data == callbackStats:
		err = b.handleStats(ctx, chatID, userID)
	case data == callbackHelp:
		err = b.handleHelp(chatID)
	case strings.HasPrefix(data, callbackOutcome):
		outcome, perr := spaced_repetition.ParseOutcome(strings.TrimPrefix(data, callbackOutcome))
		if perr != nil {
			return fmt.Errorf("invalid outcome in callback data: %w", perr)
		}
		err = b.handleOutcome(ctx, chatID, userID, outcome)
	default:
		return b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Unknown action"))
	}
	return b.replyToError(chatID, err)
}

// replyToError answers the errors a user can act on and passes the rest up
func (b *Bot) replyToError(chatID int64, err error) error {
	switch {
	case errors.Is(err, errNoProgress):
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Send /start first to set up your fretboard."))
	case errors.Is(err, errProgressChanged):
		return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID,
			"⚠️ Your progress was changed elsewhere, so this lesson was discarded. Send /lesson to continue.")))
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user := &models.User{
		ID:                  message.From.ID,
		ChatID:              message.Chat.ID,
		Username:            message.From.UserName,
		FirstName:           message.From.FirstName,
		NotificationEnabled: true,
		NotificationHour:    b.config.DefaultNotificationHour,
	}
	if err := b.userRepo.Create(ctx, user); err != nil {
		return err
	}

	_, err := b.progressRepo.Load(ctx, user.ID)
	if errors.Is(err, database.ErrProgressNotFound) {
		progress := fretboard.NewProgress(fretboard.StandardTuning, b.config.Frets, b.params)
		if err := b.progressRepo.Save(ctx, user.ID, progress); err != nil {
			return err
		}
		log.Printf("Created progress for user %d (%s)", user.ID, fretboard.StandardTuning)
	} else if err != nil {
		return err
	}

	text := "👋 Welcome to Fretty!\n\n" +
		"I'll help you learn every note on the fretboard with spaced repetition.\n\n" +
		"🔹 How it works:\n" +
		"1. Each day you get a short lesson of fretboard spots\n" +
		"2. Find the note on the string and rate how it went\n" +
		"3. Spots you know come back less often, tricky ones sooner\n\n" +
		"Your first lesson walks you through a few landmark notes."
	return b.sendMessage(withMenu(tgbotapi.NewMessage(message.Chat.ID, text)))
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Commands\n\n" +
		"/lesson - Start or continue today's lesson\n" +
		"/progress - Fretboard mastery overview\n" +
		"/stats - Practice statistics\n" +
		"/tuning <notes> - Change tuning, e.g. /tuning D2 A2 D3 G3 B3 E4 (resets progress)\n" +
		"/export [xlsx|csv] - Download your progress\n" +
		"/notify on|off - Enable or disable reminders\n" +
		"/time <hour> - Set the reminder hour (0-23)\n\n" +
		"🎯 Rating a spot:\n" +
		"Easy - found it instantly\n" +
		"Good - found it after a moment\n" +
		"Hard - found it with effort\n" +
		"Fail - couldn't find it"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleMainMenu(chatID int64) error {
	return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID, "🎸 Main menu")))
}

// mainMenuButtons returns the main menu layout
func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "🎸 Lesson", CallbackData: callbackLesson}},
		{{Text: "🗺 Progress", CallbackData: callbackProgress}, {Text: "📊 Stats", CallbackData: callbackStats}},
		{{Text: "❓ Help", CallbackData: callbackHelp}},
	}
}

func withMenu(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return msg
}

func outcomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return createKeyboard([][]MenuButton{{
		{Text: "😎 Easy", CallbackData: callbackOutcome + spaced_repetition.Easy.String()},
		{Text: "🙂 Good", CallbackData: callbackOutcome + spaced_repetition.Good.String()},
		{Text: "😬 Hard", CallbackData: callbackOutcome + spaced_repetition.Hard.String()},
		{Text: "❌ Fail", CallbackData: callbackOutcome + spaced_repetition.Fail.String()},
	}})
}

func (b *Bot) handleLesson(ctx context.Context, chatID, userID int64) error {
	p, err := b.lockPractice(ctx, userID)
	if err != nil {
		return err
	}
	defer p.mu.Unlock()

	sess := p.session
	sess.Refresh(b.today())
	progress := sess.Progress()

	switch sess.State() {
	case session.During:
		spot, _ := sess.Current()
		return b.sendPrompt(chatID, spot, progress.Tuning, sess.Remaining(), "Continuing your lesson.\n\n")
	case session.After:
		return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID,
			"✅ You've finished today's lesson.\n"+nextLessonLine(progress, sess.Today()))))
	}

	if !sess.Start() {
		return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID,
			"Nothing to practice today.\n"+nextLessonLine(progress, sess.Today()))))
	}
	if err := b.saveProgress(ctx, userID, p); err != nil {
		return err
	}
	log.Printf("User %d started lesson %s (%d spots, tutorial=%v)",
		userID, sess.ID(), sess.Remaining()+1, sess.IsTutorial())

	intro := fmt.Sprintf("🎸 Today's lesson: %d spots.\n\n", sess.Remaining()+1)
	if sess.IsTutorial() {
		intro = "🎸 Your first lesson: a few landmark notes to get you started.\n\n"
	}
	spot, _ := sess.Current()
	return b.sendPrompt(chatID, spot, progress.Tuning, sess.Remaining(), intro)
}

func (b *Bot) handleOutcome(ctx context.Context, chatID, userID int64, outcome spaced_repetition.Outcome) error {
	p, err := b.lockPractice(ctx, userID)
	if err != nil {
		return err
	}
	defer p.mu.Unlock()

	sess := p.session
	res, err := sess.Submit(outcome)
	if errors.Is(err, session.ErrNoActiveLesson) {
		return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID, "No lesson in progress. Send /lesson to start one.")))
	}
	if err != nil {
		return err
	}

	progress := sess.Progress()
	if err := b.saveProgress(ctx, userID, p); err != nil {
		return err
	}
	entry := &models.AttemptLog{
		LessonID:   sess.ID().String(),
		UserID:     userID,
		SpotKey:    res.Spot.Key().Text(),
		Note:       res.Spot.Note,
		Outcome:    outcome.String(),
		Graduated:  res.Graduated,
		Interval:   res.Spot.Interval,
		LessonDate: sess.Today().String(),
	}
	if err := b.attemptRepo.Record(ctx, entry); err != nil {
		// statistics only; the lesson itself is already saved
		log.Printf("Error recording attempt for user %d: %v", userID, err)
	}

	feedback := outcomeFeedback(res)
	if res.Finished {
		log.Printf("User %d finished lesson %s", userID, sess.ID())
		text := feedback + "\n\n🎉 Lesson complete! " +
			fmt.Sprintf("%d spots practiced.\n", len(sess.Completed())) +
			nextLessonLine(progress, sess.Today())
		return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID, text)))
	}
	return b.sendPrompt(chatID, *res.Next, progress.Tuning, sess.Remaining(), feedback+"\n\n")
}

func (b *Bot) sendPrompt(chatID int64, spot models.Spot, tuning []string, remaining int, prefix string) error {
	msg := tgbotapi.NewMessage(chatID, prefix+spotPrompt(spot, tuning, remaining))
	msg.ReplyMarkup = outcomeKeyboard()
	return b.sendMessage(msg)
}

func (b *Bot) handleProgress(ctx context.Context, chatID, userID int64) error {
	p, err := b.lockPractice(ctx, userID)
	if err != nil {
		return err
	}
	defer p.mu.Unlock()

	progress := p.session.Progress()
	today := b.today()
	sum := spaced_repetition.Summarize(progress)

	var sb strings.Builder
	sb.WriteString("<pre>")
	sb.WriteString(renderBoard(progress))
	sb.WriteString("</pre>\n")
	fmt.Fprintf(&sb, "Tuning: %s\n", strings.Join(progress.Tuning, " "))
	fmt.Fprintf(&sb, "Mastered: %d / %d\n", sum.Mastered, sum.Total())
	fmt.Fprintf(&sb, "Practicing: %d\n", sum.Practicing)
	fmt.Fprintf(&sb, "Not yet practiced: %d\n", sum.Unpracticed)
	sb.WriteString(nextLessonLine(progress, today))

	msg := withMenu(tgbotapi.NewMessage(chatID, sb.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	return b.sendMessage(msg)
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) error {
	stats, err := b.attemptRepo.GetStats(ctx, userID)
	if err != nil {
		return err
	}
	text := "📊 Your statistics\n\n" +
		fmt.Sprintf("Lessons: %d\n", stats.Lessons) +
		fmt.Sprintf("Attempts: %d\n", stats.Attempts) +
		fmt.Sprintf("😎 Easy: %d  🙂 Good: %d  😬 Hard: %d  ❌ Fail: %d\n", stats.Easy, stats.Good, stats.Hard, stats.Fail) +
		fmt.Sprintf("Graduations: %d", stats.Graduated)
	if stats.Attempts > 0 {
		text += fmt.Sprintf("\nSuccess rate: %d%%", (stats.Attempts-stats.Fail)*100/stats.Attempts)
	}
	return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID, text)))
}

// handleTuning shows the tuning or replaces it. A new tuning changes which
// note every spot sounds, so it starts progress over.
func (b *Bot) handleTuning(ctx context.Context, chatID, userID int64, args string) error {
	p, err := b.lockPractice(ctx, userID)
	if err != nil {
		return err
	}
	defer p.mu.Unlock()

	current := p.session.Progress().Tuning
	if args == "" {
		text := fmt.Sprintf("Current tuning: %s\n\nTo change it: /tuning E2 A2 D3 G3 B3 E4\n"+
			"⚠️ Changing the tuning resets your progress.", strings.Join(current, " "))
		return b.sendMessage(tgbotapi.NewMessage(chatID, text))
	}
	if p.session.State() == session.During {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Finish your lesson before changing the tuning."))
	}

	tuning, err := fretboard.ParseTuning(strings.Fields(args))
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("Invalid tuning: %v", err)))
	}
	if strings.Join(current, " ") == tuning.String() {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "That is already your tuning."))
	}

	// swap the session in place so updates waiting on p.mu see the reset
	p.session = session.New(p.engine, fretboard.NewProgress(tuning, b.config.Frets, b.params), b.today())
	if err := b.saveProgress(ctx, userID, p); err != nil {
		return err
	}
	log.Printf("User %d retuned to %s, progress reset", userID, tuning)

	return b.sendMessage(withMenu(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("✅ Tuning set to %s. Your progress has been reset.", tuning))))
}

func (b *Bot) handleExport(ctx context.Context, chatID, userID int64, args string) error {
	format, err := excel.ParseFormat(args)
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Usage: /export [xlsx|csv]"))
	}

	p, err := b.lockPractice(ctx, userID)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	today := b.today()
	err = excel.Export(&buf, format, p.session.Progress(), today)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  format.FileName(userID, today),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "📄 Your fretboard progress"
	return b.sendMessage(doc)
}

func (b *Bot) handleNotifyCommand(ctx context.Context, chatID, userID int64, args string) error {
	var enabled bool
	switch strings.ToLower(args) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Please specify on or off: /notify <on|off>"))
	}

	user, err := b.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.userRepo.UpdateNotificationSettings(ctx, userID, enabled, user.NotificationHour); err != nil {
		return err
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Reminders %s", boolToEnabledString(enabled))))
}

func (b *Bot) handleTimeCommand(ctx context.Context, chatID, userID int64, args string) error {
	if args == "" {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Please specify an hour (0-23): /time <hour>"))
	}
	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Please specify a valid hour (0-23)"))
	}

	user, err := b.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.userRepo.UpdateNotificationSettings(ctx, userID, user.NotificationEnabled, hour); err != nil {
		return err
	}

	text := fmt.Sprintf("✅ Reminder time set to %d:00", hour)
	if hour < b.schedulerOpts.StartHour || hour > b.schedulerOpts.EndHour {
		text += fmt.Sprintf("\n⚠️ Reminders are only sent between %d:00 and %d:00.",
			b.schedulerOpts.StartHour, b.schedulerOpts.EndHour)
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleAdminStats(ctx context.Context, chatID int64) error {
	users, err := b.userRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	enabled := 0
	for _, u := range users {
		if u.NotificationEnabled {
			enabled++
		}
	}
	b.mu.Lock()
	active := len(b.practices)
	b.mu.Unlock()

	text := fmt.Sprintf("👥 Users: %d\n🔔 Reminders enabled: %d\n🎸 Active sessions: %d", len(users), enabled, active)
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleUnknownCommand(chatID int64) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see the available commands."))
}

// boolToEnabledString converts a boolean to a human-readable enabled/disabled string
func boolToEnabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
