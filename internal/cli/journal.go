package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/syncer"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage journal entries",
}

var journalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a journal entry",
	Long: `Add or update a journal entry.

One entry per project per day; adding again on the same date updates the
existing entry. The entry is cached immediately and queued for sync.

Examples:
  casebook journal add -p payment-rework --decision "Switched to idempotency keys"
  casebook journal add -p payment-rework --milestone "Shipped v2" --attach diagram.png`,
	RunE: runJournalAdd,
}

var journalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show journal entries for a project",
	RunE:  runJournalShow,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a journal entry",
	RunE:  runJournalDelete,
}

var (
	journalProject string
	journalDate    string
	journalTags    []string
	journalSection string

	entryDecision  string
	entryWhy       string
	entryMilestone string
	entryChange    string
	entryTradeoff  string
	entryFeedback  string
	entryText      string

	attachPath string
	attachAlt  string
	attachRole string
)

func init() {
	for _, c := range []*cobra.Command{journalAddCmd, journalShowCmd, journalDeleteCmd} {
		c.Flags().StringVarP(&journalProject, "project", "p", "", "Project slug (required)")
		c.Flags().StringVarP(&journalDate, "date", "d", "", "Entry date, YYYY-MM-DD (default today)")
	}

	journalAddCmd.Flags().StringSliceVar(&journalTags, "tags", nil, "Comma-separated tags")
	journalAddCmd.Flags().StringVar(&journalSection, "section", "", "Case-study section this entry belongs to")
	journalAddCmd.Flags().StringVar(&entryDecision, "decision", "", "Decision made")
	journalAddCmd.Flags().StringVar(&entryWhy, "why", "", "Reasoning behind the decision")
	journalAddCmd.Flags().StringVar(&entryMilestone, "milestone", "", "Milestone reached")
	journalAddCmd.Flags().StringVar(&entryChange, "change", "", "What changed")
	journalAddCmd.Flags().StringVar(&entryTradeoff, "tradeoff", "", "Tradeoff accepted")
	journalAddCmd.Flags().StringVar(&entryFeedback, "feedback", "", "Feedback received")
	journalAddCmd.Flags().StringVar(&entryText, "text", "", "Free-form entry text")
	journalAddCmd.Flags().StringVar(&attachPath, "attach", "", "File to upload alongside the entry")
	journalAddCmd.Flags().StringVar(&attachAlt, "alt", "", "Alt text for the attachment")
	journalAddCmd.Flags().StringVar(&attachRole, "role", "", "Role of the attachment (diagram, screenshot, ...)")

	journalCmd.AddCommand(journalAddCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDeleteCmd)
}

func runJournalAdd(cmd *cobra.Command, args []string) error {
	if journalProject == "" {
		return trackCLIError("journal", fmt.Errorf("--project is required"))
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("journal", err)
	}
	defer app.Close()

	in := syncer.EntryInput{
		ProjectID: journalProject,
		Date:      journalDate,
		Tags:      journalTags,
		Section:   journalSection,
		Content: models.EntryContent{
			Decision:  entryDecision,
			Why:       entryWhy,
			Milestone: entryMilestone,
			Change:    entryChange,
			Tradeoff:  entryTradeoff,
			Feedback:  entryFeedback,
			Text:      entryText,
		},
	}

	if attachPath != "" {
		data, err := os.ReadFile(attachPath)
		if err != nil {
			return trackCLIError("journal", fmt.Errorf("read attachment: %w", err))
		}
		in.Attachment = &syncer.AssetInput{
			Filename: attachPath,
			Data:     data,
			MimeType: http.DetectContentType(data),
			Role:     attachRole,
			AltText:  attachAlt,
		}
	}

	entry, err := app.sync.AddEntry(cmd.Context(), in)
	if err != nil {
		return trackCLIError("journal", err)
	}

	if !app.monitor.Online() {
		telemetryClient.TrackOfflineMutation(string(models.KindJournal), string(models.ActionCreate))
	}

	fmt.Printf("Saved entry %s for %s\n", entry.Date, entry.ProjectID)
	if len(entry.Assets) > 0 {
		fmt.Printf("  attached: %s\n", strings.Join(entry.Assets, ", "))
	}
	if !app.monitor.Online() {
		fmt.Println("Offline; the entry will sync when connectivity returns.")
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	if journalProject == "" {
		return trackCLIError("journal", fmt.Errorf("--project is required"))
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("journal", err)
	}
	defer app.Close()

	if journalDate != "" {
		result, err := app.sync.FetchEntry(cmd.Context(), journalProject, journalDate)
		if err != nil {
			return trackCLIError("journal", err)
		}
		printEntry(result.Entry, result.FromCache)
		return nil
	}

	result, err := app.sync.FetchEntries(cmd.Context(), journalProject)
	if err != nil {
		return trackCLIError("journal", err)
	}
	if len(result.Entries) == 0 {
		fmt.Printf("No entries for %s.\n", journalProject)
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	source := "remote"
	if result.FromCache {
		source = "cached"
	}
	fmt.Printf("%s (%d entries, %s)\n", headerStyle.Render(journalProject), len(result.Entries), source)
	fmt.Println("──────────────────────────────────────────────────")
	for i := range result.Entries {
		printEntry(&result.Entries[i], false)
		fmt.Println()
	}
	return nil
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	if journalProject == "" || journalDate == "" {
		return trackCLIError("journal", fmt.Errorf("--project and --date are required"))
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("journal", err)
	}
	defer app.Close()

	if err := app.sync.DeleteEntry(cmd.Context(), journalProject, journalDate); err != nil {
		return trackCLIError("journal", err)
	}
	if !app.monitor.Online() {
		telemetryClient.TrackOfflineMutation(string(models.KindJournal), string(models.ActionDelete))
	}
	fmt.Printf("Deleted entry %s for %s.\n", journalDate, journalProject)
	return nil
}

func printEntry(e *models.JournalEntry, fromCache bool) {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	suffix := ""
	if fromCache {
		suffix = dimStyle.Render(" (cached)")
	}
	fmt.Printf("  %s%s\n", e.Date, suffix)
	if len(e.Tags) > 0 {
		fmt.Printf("    tags: %s\n", strings.Join(e.Tags, ", "))
	}

	sections := []struct {
		label string
		value string
	}{
		{"decision", e.Content.Decision},
		{"why", e.Content.Why},
		{"milestone", e.Content.Milestone},
		{"change", e.Content.Change},
		{"tradeoff", e.Content.Tradeoff},
		{"feedback", e.Content.Feedback},
	}
	for _, s := range sections {
		if s.value != "" {
			fmt.Printf("    %s: %s\n", dimStyle.Render(s.label), s.value)
		}
	}
	if e.Content.Text != "" {
		fmt.Printf("    %s\n", e.Content.Text)
	}
	if len(e.Assets) > 0 {
		fmt.Printf("    assets: %s\n", strings.Join(e.Assets, ", "))
	}
}
