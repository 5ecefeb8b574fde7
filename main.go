package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hentity/fretty/internal/bot"
	"github.com/hentity/fretty/internal/config"
	"github.com/hentity/fretty/internal/database"
	"github.com/hentity/fretty/internal/excel"
	"github.com/hentity/fretty/internal/fretboard"
	"github.com/hentity/fretty/internal/session"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "fretty",
		Short:         "Spaced-repetition fretboard trainer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file to load")

	root.AddCommand(newServeCmd(&envFile))
	root.AddCommand(newPreviewCmd(&envFile))
	root.AddCommand(newExportCmd(&envFile))
	root.AddCommand(newImportCmd(&envFile))
	root.AddCommand(newResetCmd(&envFile))
	return root
}

// openDB loads the configuration and connects to its database
func openDB(envFile string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DBPath
	if cfg.DBType == "postgres" {
		dsn = cfg.DatabaseURL
	}
	if err := database.Connect(cfg.DBType, dsn); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the reminder scheduler",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := openDB(*envFile)
			if err != nil {
				return err
			}
			defer database.Close()

			b, err := bot.New(cfg)
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan struct{})
			go func() {
				sig := <-sigChan
				log.Printf("Received signal: %v", sig)
				cancel()

				// Give handlers time to finish
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := b.Stop(shutdownCtx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
				close(done)
			}()

			log.Println("Bot started. Press Ctrl+C to stop.")
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot error: %w", err)
			}
			if ctx.Err() == nil {
				// updates channel closed without a signal
				return nil
			}

			<-done
			log.Println("Bot stopped successfully")
			return nil
		},
	}
}

func newPreviewCmd(envFile *string) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the spots a user's lesson would contain today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := openDB(*envFile)
			if err != nil {
				return err
			}
			defer database.Close()

			progress, err := database.NewProgressRepository().Load(cmd.Context(), userID)
			if err != nil {
				return err
			}
			engine, err := spaced_repetition.NewEngine(cfg.Params, nil)
			if err != nil {
				return err
			}

			today := models.Today(cfg.Location)
			out := cmd.OutOrStdout()
			if progress.ReviewedOn(today) {
				_, _ = fmt.Fprintln(out, "lesson already completed today")
				return nil
			}
			spots := session.Preview(engine, progress, today)
			if len(spots) == 0 {
				_, _ = fmt.Fprintln(out, "nothing to practice today")
				return nil
			}
			for _, s := range spots {
				_, _ = fmt.Fprintf(out, "%-5s %-3s %s\n", s.Key().Text(), s.Note, s.Learnability)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newExportCmd(envFile *string) *cobra.Command {
	var (
		userID int64
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's progress to an xlsx or csv file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := openDB(*envFile)
			if err != nil {
				return err
			}
			defer database.Close()

			format, err := excel.ParseFormat(filepath.Ext(out))
			if err != nil {
				return err
			}
			progress, err := database.NewProgressRepository().Load(cmd.Context(), userID)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := excel.Export(f, format, progress, models.Today(cfg.Location)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d spots to %s\n", len(progress.Spots), out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	cmd.Flags().StringVar(&out, "out", "progress.xlsx", "output file (.xlsx or .csv)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newImportCmd(envFile *string) *cobra.Command {
	var (
		userID int64
		tuning []string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a user's progress with spots from an exported sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := openDB(*envFile)
			if err != nil {
				return err
			}
			defer database.Close()

			t, err := fretboard.ParseTuning(tuning)
			if err != nil {
				return err
			}
			format, err := excel.ParseFormat(filepath.Ext(args[0]))
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := excel.ImportSpots(f, format, cfg.Params)
			if err != nil {
				return err
			}
			for _, msg := range result.Errors {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			if len(result.Spots) == 0 {
				return fmt.Errorf("no spots imported from %s", args[0])
			}

			progress := spaced_repetition.NewProgress(t.Strings(), result.Spots)
			progress.New = false
			progress.Calendar.SetCapacity(cfg.Params.MaxDailySpots)
			for _, s := range progress.Spots {
				if day, ok := result.Schedule[s.Key()]; ok {
					progress.Calendar.Schedule(s.Key(), day, 0)
				}
			}

			ctx := cmd.Context()
			if err := ensureUser(ctx, userID); err != nil {
				return err
			}
			if err := database.NewProgressRepository().Save(ctx, userID, progress); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d spots (%d skipped) for user %d\n",
				len(result.Spots), result.Skipped, userID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	cmd.Flags().StringSliceVar(&tuning, "tuning", fretboard.StandardTuning.Strings(), "open-string notes, thickest first")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newResetCmd(envFile *string) *cobra.Command {
	var (
		userID int64
		tuning []string
		frets  int
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start a user's progress over, optionally with a new tuning",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := openDB(*envFile)
			if err != nil {
				return err
			}
			defer database.Close()

			t, err := fretboard.ParseTuning(tuning)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := ensureUser(ctx, userID); err != nil {
				return err
			}
			progress := fretboard.NewProgress(t, frets, cfg.Params)
			if err := database.NewProgressRepository().Save(ctx, userID, progress); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reset user %d to %s (%d spots)\n", userID, t, len(progress.Spots))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	cmd.Flags().StringSliceVar(&tuning, "tuning", fretboard.StandardTuning.Strings(), "open-string notes, thickest first")
	cmd.Flags().IntVar(&frets, "frets", fretboard.DefaultFrets, "number of frets to practice")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// ensureUser creates a bare user row so progress can reference it
func ensureUser(ctx context.Context, userID int64) error {
	repo := database.NewUserRepository()
	_, err := repo.GetByID(ctx, userID)
	if errors.Is(err, database.ErrUserNotFound) {
		return repo.Create(ctx, &models.User{ID: userID, ChatID: userID, NotificationEnabled: true, NotificationHour: 18})
	}
	return err
}
