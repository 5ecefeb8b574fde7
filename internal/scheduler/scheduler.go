package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/hentity/fretty/internal/database"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	engine    *spaced_repetition.Engine
	loc       *time.Location
	startHour int
	endHour   int
	users     *database.UserRepository
	progress  *database.ProgressRepository
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(user models.User, reminder Reminder) error
}

// Options configures the reminder window
type Options struct {
	Location  *time.Location
	StartHour int // first hour reminders may go out (inclusive)
	EndHour   int // last hour reminders may go out (inclusive)
	Params    spaced_repetition.Params
}

// New creates a new scheduler instance
func New(notifier Notifier, opts Options) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	// the scheduler gets its own engine since engines are not shared across goroutines
	engine, err := spaced_repetition.NewEngine(opts.Params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder engine: %w", err)
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(opts.Location),
		notifier:  notifier,
		engine:    engine,
		loc:       opts.Location,
		startHour: opts.StartHour,
		endHour:   opts.EndHour,
		users:     database.NewUserRepository(),
		progress:  database.NewProgressRepository(),
		now:       time.Now,
	}, nil
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Hourly check for users whose reminder hour has come
	if _, err := s.scheduler.Every(1).Hour().StartAt(s.nextHour()).Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) nextHour() time.Time {
	return s.now().In(s.loc).Truncate(time.Hour).Add(time.Hour)
}

// inWindow reports whether hour is inside the notification window
func (s *Scheduler) inWindow(hour int) bool {
	return hour >= s.startHour && hour <= s.endHour
}

func (s *Scheduler) checkAndSendReminders() {
	now := s.now().In(s.loc)
	currentHour := now.Hour()
	if !s.inWindow(currentHour) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.startHour, s.endHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := s.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	today := models.DateOf(now)
	sent := 0
	for _, user := range users {
		ok, err := s.remind(ctx, user, today)
		if err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
			continue
		}
		if ok {
			sent++
		}
	}
	log.Printf("Reminder check at %02d:00: %d users eligible, %d reminders sent", currentHour, len(users), sent)
}

// remind sends the user's reminder for today, if there is one
func (s *Scheduler) remind(ctx context.Context, user models.User, today models.Date) (bool, error) {
	progress, err := s.progress.Load(ctx, user.ID)
	if errors.Is(err, database.ErrProgressNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var lastReminded models.Date
	if user.LastReminderDate != "" {
		if lastReminded, err = models.ParseDate(user.LastReminderDate); err != nil {
			log.Printf("Ignoring bad last reminder date for user %d: %v", user.ID, err)
		}
	}

	reminder := Decide(s.engine, progress, today, lastReminded)
	if reminder.Kind == NoReminder {
		return false, nil
	}
	if err := s.notifier.SendReminder(user, reminder); err != nil {
		return false, err
	}
	if err := s.users.MarkReminded(ctx, user.ID, today); err != nil {
		return true, err
	}
	return true, nil
}

// RunManualCheck forces a check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.remind(ctx, *user, models.DateOf(s.now().In(s.loc)))
}
