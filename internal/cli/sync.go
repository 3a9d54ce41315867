package cli

import (
	"fmt"
	"time"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay queued operations against the remote",
	Long: `Replay queued operations against the remote journal repository.

Operations replay oldest-first; an operation waits until everything it
depends on has completed. Version conflicts are parked for 'casebook
resolve' and never retried automatically.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("sync", err)
	}
	defer app.Close()

	if !app.monitor.Online() {
		fmt.Println("Offline; queued operations will replay when connectivity returns.")
		return nil
	}

	queued, err := app.sync.PendingCount()
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("count queue: %w", err))
	}
	if queued == 0 && len(app.sync.Conflicts()) == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	fmt.Printf("%s (%d queued)\n", headerStyle.Render("SYNCING"), queued)

	// Completions are counted from the completed-status delta so an
	// operation that moved to failed or conflicted is not mistaken for
	// a success.
	completedBefore, err := app.cache.CountOperations(models.StatusCompleted)
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("count queue: %w", err))
	}

	start := time.Now()
	conflicted, err := app.sync.ProcessQueue(cmd.Context())
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("process queue: %w", err))
	}

	completedAfter, err := app.cache.CountOperations(models.StatusCompleted)
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("count queue: %w", err))
	}
	failed, err := app.cache.CountOperations(models.StatusFailed)
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("count queue: %w", err))
	}

	completed := int(completedAfter - completedBefore)
	telemetryClient.TrackSyncCompleted(completed, int(failed), time.Since(start).Milliseconds())

	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	fmt.Printf("  %s %d completed\n", successStyle.Render("v"), completed)
	if failed > 0 {
		fmt.Printf("  %s %d failed\n", errorStyle.Render("x"), failed)
	}
	if conflicts := app.sync.Conflicts(); len(conflicts) > 0 {
		for _, c := range conflicts {
			telemetryClient.TrackConflictDetected(string(c.Kind))
		}
		fmt.Printf("  %s %d conflicts\n", warnStyle.Render("!"), len(conflicts))
		fmt.Println("\nRun 'casebook resolve' to pick a side for each conflict.")
	} else if conflicted {
		fmt.Println("\nConflicts were detected during this run.")
	}

	return nil
}
