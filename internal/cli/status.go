package cli

import (
	"fmt"
	"time"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity, queue depth, and last sync time",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("status", err)
	}
	defer app.Close()

	onlineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	offlineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	connectivity := offlineStyle.Render("offline")
	if app.monitor.Online() {
		connectivity = onlineStyle.Render("online")
	}

	pending, err := app.cache.CountOperations(models.StatusPending, models.StatusSyncing)
	if err != nil {
		return trackCLIError("status", fmt.Errorf("count queue: %w", err))
	}
	failed, err := app.cache.CountOperations(models.StatusFailed)
	if err != nil {
		return trackCLIError("status", fmt.Errorf("count queue: %w", err))
	}

	lastSync := "never"
	if v, err := app.cache.GetSyncMeta(models.SyncMetaLastSync); err == nil && v != "" {
		if t, perr := time.Parse(time.RFC3339, v); perr == nil {
			lastSync = formatTimeSince(t)
		}
	}

	telemetryClient.TrackQueueDepth(int(pending), int(failed))

	fmt.Printf("Backend:      %s\n", app.cfg.Backend)
	fmt.Printf("Connectivity: %s\n", connectivity)
	fmt.Printf("Pending ops:  %d\n", pending)
	fmt.Printf("Failed ops:   %d\n", failed)
	fmt.Printf("Conflicts:    %d\n", len(app.sync.Conflicts()))
	fmt.Printf("Last sync:    %s\n", lastSync)

	if failed > 0 {
		fmt.Println("\nUse 'casebook queue list' to inspect failed operations.")
	}

	return nil
}

// formatTimeSince formats a duration since a time in a human-readable way.
func formatTimeSince(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
