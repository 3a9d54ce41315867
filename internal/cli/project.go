package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage case-study projects",
}

var projectNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a project",
	Long: `Create a project.

The project is cached immediately and queued for sync; it works offline.

Examples:
  casebook project new "Payment Rework" --role "Tech lead" --tags infra,go`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a project and everything under it",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var (
	projectRole string
	projectTags []string
	deleteYes   bool
)

func init() {
	projectNewCmd.Flags().StringVar(&projectRole, "role", "", "Your role on the project")
	projectNewCmd.Flags().StringSliceVar(&projectTags, "tags", nil, "Comma-separated tags")
	projectDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("project", err)
	}
	defer app.Close()

	p, err := app.sync.CreateProject(cmd.Context(), &models.Project{
		Name: args[0],
		Role: projectRole,
		Tags: projectTags,
	})
	if err != nil {
		return trackCLIError("project", err)
	}

	if !app.monitor.Online() {
		telemetryClient.TrackOfflineMutation(string(models.KindProject), string(models.ActionCreate))
	}

	fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
	if !app.monitor.Online() {
		fmt.Println("Offline; the project will sync when connectivity returns.")
	}
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("project", err)
	}
	defer app.Close()

	result, err := app.sync.FetchProjects(cmd.Context())
	if err != nil {
		return trackCLIError("project", fmt.Errorf("fetch projects: %w", err))
	}

	if len(result.Projects) == 0 {
		fmt.Println("No projects yet.")
		fmt.Println("\nUse 'casebook project new <name>' to create one.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	source := "remote"
	if result.FromCache {
		source = "cached"
	}
	fmt.Printf("%s (%d projects, %s)\n", headerStyle.Render("PROJECTS"), len(result.Projects), source)
	fmt.Println("──────────────────────────────────────────────────")

	for _, p := range result.Projects {
		unsynced := ""
		if !p.HasRemote() {
			unsynced = dimStyle.Render(" (not yet synced)")
		}
		fmt.Printf("  %s  %s%s\n", p.ID, p.Name, unsynced)
		if p.Role != "" {
			fmt.Printf("    role: %s\n", p.Role)
		}
		if len(p.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(p.Tags, ", "))
		}
	}

	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("project", err)
	}
	defer app.Close()

	slug := args[0]
	if !deleteYes {
		fmt.Printf("Delete project '%s' and all of its entries and assets? [y/N] ", slug)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := app.sync.DeleteProject(cmd.Context(), slug); err != nil {
		return trackCLIError("project", err)
	}
	if !app.monitor.Online() {
		telemetryClient.TrackOfflineMutation(string(models.KindProject), string(models.ActionDelete))
	}
	fmt.Printf("Deleted %s.\n", slug)
	return nil
}
