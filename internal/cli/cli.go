// Package cli provides the command-line interface for Casebook.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/casebook-dev/casebook/internal/telemetry"
	"github.com/casebook-dev/casebook/pkg/version"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var telemetryClient telemetry.Client

var commandStartTime time.Time

var rootCmd = &cobra.Command{
	Use:   "casebook",
	Short: "Offline-first case-study journaling",
	Long: `Offline-first case-study journaling

Casebook keeps project case studies and daily journal entries in a local
cache, queues every change while offline, and replays the queue against
the remote journal repository when connectivity returns.

Telemetry:
  Telemetry is enabled by default, always anonymous, and will never track
  entry content, project names, or IP addresses.

  It will only be used to improve Casebook.

  Opt-out with:
  	CASEBOOK_TELEMETRY_TRACKING_ENABLED=false`,
	SilenceUsage: true,
	RunE:         runStatus,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "casebook" {
			durationMs := time.Since(commandStartTime).Milliseconds()
			telemetryClient.TrackCommandExecuted(cmd.Name(), durationMs)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(assetCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context, tc telemetry.Client) error {
	if tc == nil {
		tc = telemetry.New(nil)
	}
	telemetryClient = tc

	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Short()),
		fang.WithCommit(version.Commit),
	)
}

// trackCLIError wraps an error with telemetry tracking.
// Call this before returning errors from CLI commands.
func trackCLIError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	errorType := classifyError(err)
	telemetryClient.TrackCommandError(cmdName, errorType)
	return err
}

// classifyError determines the error type for telemetry.
func classifyError(err error) string {
	errStr := err.Error()
	switch {
	case containsAny(errStr, "config", "configuration"):
		return "config_error"
	case containsAny(errStr, "database", "cache"):
		return "cache_error"
	case containsAny(errStr, "network", "timeout", "connection", "offline"):
		return "network_error"
	case containsAny(errStr, "conflict", "stale"):
		return "conflict_error"
	case containsAny(errStr, "permission", "access denied"):
		return "permission_error"
	case containsAny(errStr, "not found", "does not exist", "not cached"):
		return "not_found_error"
	case containsAny(errStr, "invalid", "parse", "format"):
		return "validation_error"
	default:
		return "unknown_error"
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
