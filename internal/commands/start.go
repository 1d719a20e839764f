package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/fencer/internal/engine"
	fencererrors "github.com/balkashynov/fencer/internal/errors"
	"github.com/balkashynov/fencer/internal/logger"
	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/parser"
	"github.com/balkashynov/fencer/internal/tui"
)

func newStartCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [duration]",
		Short: "Start a focus session",
		Long: `Start a focus session. Opens the interactive timer by default, use --no-ui for a plain countdown.

Examples:
  fencer start                  # Default length from settings
  fencer start 45m              # 45 minute session
  fencer start 1h --apps slack  # Block only slack this time
  fencer start 25 --no-ui       # Countdown without the timer screen`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(open, runStart),
	}

	cmd.Flags().StringSlice("apps", nil, "Apps to block for this session (default: your blocked list)")
	cmd.Flags().Bool("no-ui", false, "Start timer without interactive UI")
	return cmd
}

func runStart(cmd *cobra.Command, args []string, app *App) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	settings := app.Store.LoadSettings(ctx)

	minutes := settings.DefaultDuration
	if len(args) == 1 {
		parsed, err := parser.ParseMinutes(args[0])
		if err != nil {
			return err
		}
		minutes = parsed
	}

	apps := settings.BlockedApps
	if cmd.Flags().Changed("apps") {
		raw, _ := cmd.Flags().GetStringSlice("apps")
		apps = parser.ParseApps(raw...)
	}
	if len(apps) == 0 {
		return fmt.Errorf("no apps to block. Add some with 'fencer apps add <app>' or pass --apps")
	}

	e := engine.New(ctx, app.Store, app.engineOptions())
	defer e.Close()

	session, err := e.Start(minutes, apps)
	if err != nil {
		return err
	}
	app.Log.Debug("starting focus session", "id", session.ID, "ui", !noUI(cmd))

	var finished *models.Session
	if noUI(cmd) {
		fmt.Fprintf(out, "🛡️  Focus session started: %s, blocking %s\n",
			parser.FormatMinutes(minutes), strings.Join(session.BlockedApps, ", "))
		fmt.Fprintf(out, "Started at: %s · Ctrl+C to give up\n", session.StartedAt.Format("15:04:05"))
		finished, err = runLineMode(ctx, out, e, app.Config.Timer.BlockCheckSeconds)
	} else {
		restoreLog := logger.FileOnly()
		finished, err = tui.RunTimerTUI(e, tui.TimerOptions{
			Theme:       settings.Theme,
			ConfirmStop: app.Config.Timer.ConfirmStop,
			BlockCheck:  time.Duration(app.Config.Timer.BlockCheckSeconds) * time.Second,
		})
		restoreLog()
	}

	printSessionSummary(out, finished, e.Stats())

	// a failed save leaves the session finished; report it without failing the command
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), fencererrors.Format(err))
	}
	return nil
}

func noUI(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-ui")
	return v
}

// runLineMode prints the countdown once a minute until the session ends.
// An interrupt gives up the session.
func runLineMode(ctx context.Context, out io.Writer, e *engine.Engine, blockCheckSeconds int) (*models.Session, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format, args...)
	}

	done := make(chan engine.Snapshot, 1)
	unsubscribe := e.Subscribe(func(s engine.Snapshot) {
		switch s.Event {
		case engine.EventTick:
			if s.Remaining%60 == 0 {
				printf("⏱️  %s remaining\n", parser.FormatClock(s.Remaining))
			}
		case engine.EventCompleted, engine.EventStopped:
			select {
			case done <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	var blockTick <-chan time.Time
	if blockCheckSeconds > 0 {
		ticker := time.NewTicker(time.Duration(blockCheckSeconds) * time.Second)
		defer ticker.Stop()
		blockTick = ticker.C
	}

	warned := ""
	for {
		select {
		case s := <-done:
			return s.Finished, s.Err

		case <-ctx.Done():
			printf("\n⏹️  Interrupted\n")
			finished, err := e.Stop(false)
			if finished == nil {
				// completed while the interrupt was arriving; its snapshot
				// follows once the session is saved
				s := <-done
				return s.Finished, s.Err
			}
			return finished, err

		case <-blockTick:
			blocked, err := e.CheckBlocked(ctx)
			if err != nil || blocked == warned {
				continue
			}
			warned = blocked
			if blocked != "" {
				printf("⚠️  %s is running. Close it and get back to work.\n", blocked)
			}
		}
	}
}

func printSessionSummary(out io.Writer, finished *models.Session, st models.UserStats) {
	if finished == nil {
		return
	}

	if finished.WasCompleted {
		fmt.Fprintf(out, "✅ Session complete: %s focused\n", parser.FormatMinutes(finished.PlannedMinutes()))
		fmt.Fprintf(out, "🔥 Streak: %d (best %d)\n", st.CurrentStreak, st.BestStreak)
		return
	}

	elapsed := finished.CompletedAt.Sub(finished.StartedAt).Round(time.Second)
	fmt.Fprintf(out, "⏹️  Session stopped after %s. It won't count as completed.\n", elapsed)
}
