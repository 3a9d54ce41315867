package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve version conflicts one at a time",
	Long: `Resolve version conflicts between local edits and the remote.

For each conflict you pick a side:

  keep local   - push your cached version, overwriting the remote
  keep remote  - adopt the remote version, discarding your queued edit

Conflicts are detected during sync; this command re-checks parked
operations first, so conflicts survive across sessions.`,
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("resolve", err)
	}
	defer app.Close()

	if !app.monitor.Online() {
		return trackCLIError("resolve", fmt.Errorf("offline: conflict resolution needs the remote"))
	}

	// Conflicts are held in memory per session. A replay pass re-runs
	// parked operations, so a fresh process rediscovers them against
	// current remote state.
	if _, err := app.sync.ProcessQueue(cmd.Context()); err != nil {
		return trackCLIError("resolve", fmt.Errorf("process queue: %w", err))
	}

	conflicts := app.sync.Conflicts()
	if len(conflicts) == 0 {
		fmt.Println("No conflicts to resolve.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	fmt.Printf("%s (%d)\n\n", headerStyle.Render("CONFLICTS"), len(conflicts))

	for i, c := range conflicts {
		fmt.Printf("%d/%d  %s %s\n", i+1, len(conflicts), c.Kind, c.EntityID)
		printConflictSide("local", c.Local)
		printConflictSide("remote", c.Remote)

		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Resolve %s %s", c.Kind, c.EntityID)).
					Options(
						huh.NewOption("Keep local (push my version)", "local"),
						huh.NewOption("Keep remote (discard my edit)", "remote"),
						huh.NewOption("Skip for now", "skip"),
					).
					Value(&choice),
			),
		)
		if err := form.Run(); err != nil {
			return trackCLIError("resolve", err)
		}

		switch choice {
		case "local":
			if err := app.sync.ResolveKeepLocal(c.OperationID); err != nil {
				return trackCLIError("resolve", fmt.Errorf("keep local: %w", err))
			}
			telemetryClient.TrackConflictResolved(string(c.Kind), "keep_local")
		case "remote":
			if err := app.sync.ResolveKeepRemote(c.OperationID); err != nil {
				return trackCLIError("resolve", fmt.Errorf("keep remote: %w", err))
			}
			telemetryClient.TrackConflictResolved(string(c.Kind), "keep_remote")
		default:
			fmt.Println("Skipped.")
		}
		fmt.Println()
	}

	// Keep-local re-queues the operation with the remote's current
	// version as its new base; push those now.
	if _, err := app.sync.ProcessQueue(cmd.Context()); err != nil {
		return trackCLIError("resolve", fmt.Errorf("process queue: %w", err))
	}

	if remaining := app.sync.Conflicts(); len(remaining) > 0 {
		fmt.Printf("%d conflicts remaining.\n", len(remaining))
	} else {
		fmt.Println("All conflicts resolved.")
	}

	return nil
}

// printConflictSide shows a compact summary of one side of a conflict.
func printConflictSide(label string, payload json.RawMessage) {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil || len(fields) == 0 {
		fmt.Printf("  %s: %s\n", label, dimStyle.Render("(unavailable)"))
		return
	}

	for _, key := range []string{"name", "date", "updated_at"} {
		if v, ok := fields[key].(string); ok && v != "" {
			fmt.Printf("  %s %s: %s\n", dimStyle.Render(label), key, v)
		}
	}
}
