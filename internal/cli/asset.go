package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/syncer"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage project assets",
}

var assetAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Upload an asset to a project",
	Long: `Upload an asset to a project.

The file is staged in the local cache and queued for sync, so uploads
work offline. Filenames get a timestamp prefix to stay unique.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssetAdd,
}

var assetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's assets",
	RunE:  runAssetList,
}

var assetDeleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetDelete,
}

var (
	assetProject string
	assetRole    string
	assetAlt     string
)

func init() {
	for _, c := range []*cobra.Command{assetAddCmd, assetListCmd, assetDeleteCmd} {
		c.Flags().StringVarP(&assetProject, "project", "p", "", "Project slug (required)")
	}
	assetAddCmd.Flags().StringVar(&assetRole, "role", "", "Role of the asset (diagram, screenshot, ...)")
	assetAddCmd.Flags().StringVar(&assetAlt, "alt", "", "Alt text")

	assetCmd.AddCommand(assetAddCmd)
	assetCmd.AddCommand(assetListCmd)
	assetCmd.AddCommand(assetDeleteCmd)
}

func runAssetAdd(cmd *cobra.Command, args []string) error {
	if assetProject == "" {
		return trackCLIError("asset", fmt.Errorf("--project is required"))
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("asset", err)
	}
	defer app.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return trackCLIError("asset", fmt.Errorf("read file: %w", err))
	}

	asset, err := app.sync.UploadAsset(cmd.Context(), assetProject, syncer.AssetInput{
		Filename: args[0],
		Data:     data,
		MimeType: http.DetectContentType(data),
		Role:     assetRole,
		AltText:  assetAlt,
	})
	if err != nil {
		return trackCLIError("asset", err)
	}

	if !app.monitor.Online() {
		telemetryClient.TrackOfflineMutation(string(models.KindAsset), string(models.ActionCreate))
	}
	fmt.Printf("Queued upload of %s (%d bytes)\n", asset.Filename, asset.FileSize)
	return nil
}

func runAssetList(cmd *cobra.Command, args []string) error {
	if assetProject == "" {
		return trackCLIError("asset", fmt.Errorf("--project is required"))
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("asset", err)
	}
	defer app.Close()

	result, err := app.sync.FetchAssets(cmd.Context(), assetProject)
	if err != nil {
		return trackCLIError("asset", err)
	}
	if len(result.Assets) == 0 {
		fmt.Printf("No assets for %s.\n", assetProject)
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	source := "remote"
	if result.FromCache {
		source = "cached"
	}
	fmt.Printf("%s (%d assets, %s)\n", headerStyle.Render(assetProject), len(result.Assets), source)
	fmt.Println("──────────────────────────────────────────────────")
	for _, a := range result.Assets {
		fmt.Printf("  %s\n", a.Filename)
		if a.Role != "" {
			fmt.Printf("    role: %s\n", a.Role)
		}
		if a.FileSize > 0 {
			fmt.Printf("    size: %d bytes\n", a.FileSize)
		}
	}
	return nil
}

func runAssetDelete(cmd *cobra.Command, args []string) error {
	if assetProject == "" {
		return trackCLIError("asset", fmt.Errorf("--project is required"))
	}

	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("asset", err)
	}
	defer app.Close()

	if err := app.sync.DeleteAsset(cmd.Context(), assetProject, args[0]); err != nil {
		return trackCLIError("asset", err)
	}
	if !app.monitor.Online() {
		telemetryClient.TrackOfflineMutation(string(models.KindAsset), string(models.ActionDelete))
	}
	fmt.Printf("Deleted %s.\n", args[0])
	return nil
}
