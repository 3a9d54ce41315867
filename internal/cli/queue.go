package cli

import (
	"fmt"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the sync queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued operations, oldest first",
	RunE:  runQueueList,
}

var queueRetryCmd = &cobra.Command{
	Use:   "retry <operation-id>",
	Short: "Retry a failed operation with a fresh attempt budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueRetry,
}

var queueCancelCmd = &cobra.Command{
	Use:   "cancel <operation-id>",
	Short: "Cancel a pending or failed operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueCancel,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove completed operations from the queue",
	RunE:  runQueueClear,
}

func init() {
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueRetryCmd)
	queueCmd.AddCommand(queueCancelCmd)
	queueCmd.AddCommand(queueClearCmd)
}

func runQueueList(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("queue", err)
	}
	defer app.Close()

	ops, err := app.sync.Operations()
	if err != nil {
		return trackCLIError("queue", fmt.Errorf("list operations: %w", err))
	}

	if len(ops) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	fmt.Printf("%s (%d operations)\n", headerStyle.Render("SYNC QUEUE"), len(ops))
	fmt.Println("──────────────────────────────────────────────────")

	for _, op := range ops {
		fmt.Printf("  %s %s %s %s/%s\n",
			statusBadge(op.Status), op.ID, op.Action, op.Kind, op.EntityID)
		fmt.Printf("    queued %s, %d attempts\n",
			formatTimeSince(op.CreatedAt), op.Attempts)
		if len(op.DependsOn) > 0 {
			fmt.Printf("    depends on %v\n", op.DependsOn)
		}
		if op.LastError != "" {
			fmt.Printf("    last error: %s\n", op.LastError)
		}
	}

	return nil
}

func runQueueRetry(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("queue", err)
	}
	defer app.Close()

	conflicted, err := app.sync.Retry(cmd.Context(), args[0])
	if err != nil {
		return trackCLIError("queue", err)
	}

	op, err := app.cache.GetOperation(args[0])
	if err != nil {
		return trackCLIError("queue", err)
	}

	switch {
	case op.Status == models.StatusCompleted:
		fmt.Printf("Operation %s completed.\n", op.ID)
	case conflicted:
		fmt.Printf("Operation %s hit a version conflict; run 'casebook resolve'.\n", op.ID)
	default:
		fmt.Printf("Operation %s is %s.\n", op.ID, op.Status)
		if op.LastError != "" {
			fmt.Printf("  last error: %s\n", op.LastError)
		}
	}

	return nil
}

func runQueueCancel(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("queue", err)
	}
	defer app.Close()

	if err := app.sync.Cancel(args[0]); err != nil {
		return trackCLIError("queue", err)
	}
	fmt.Printf("Cancelled %s.\n", args[0])
	fmt.Println("Operations that depended on it stay blocked until cancelled too.")
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("queue", err)
	}
	defer app.Close()

	if err := app.sync.ClearCompleted(); err != nil {
		return trackCLIError("queue", fmt.Errorf("clear completed: %w", err))
	}
	fmt.Println("Removed completed operations.")
	return nil
}

func statusBadge(status models.SyncStatus) string {
	switch status {
	case models.StatusCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("v")
	case models.StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("x")
	case models.StatusSyncing:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("~")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("o")
	}
}
