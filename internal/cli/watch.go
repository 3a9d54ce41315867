package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch connectivity and sync automatically on reconnect",
	Long: `Watch connectivity and sync automatically on reconnect.

Probes the remote on an interval (CASEBOOK_PROBE_INTERVAL seconds) and
replays the queue whenever connectivity comes back. Runs until
interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context())
	if err != nil {
		return trackCLIError("watch", err)
	}
	defer app.Close()

	if app.cfg.ProbeIntervalSec <= 0 {
		return trackCLIError("watch", fmt.Errorf("probing disabled: set CASEBOOK_PROBE_INTERVAL to a positive number of seconds"))
	}

	onlineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	offlineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// The sync manager's own subscription replays the queue before this
	// one runs; by the time we report, the backlog has been pushed.
	app.monitor.Subscribe(func(online bool) {
		if online {
			pending, _ := app.sync.PendingCount()
			telemetryClient.TrackReconnect(int(pending))
			fmt.Printf("%s queue replayed, %d still pending\n", onlineStyle.Render("online"), pending)
		} else {
			fmt.Printf("%s queueing changes locally\n", offlineStyle.Render("offline"))
		}
	})

	state := offlineStyle.Render("offline")
	if app.monitor.Online() {
		state = onlineStyle.Render("online")
	}
	fmt.Printf("Watching connectivity (%s, probing every %ds). Ctrl-C to stop.\n",
		state, app.cfg.ProbeIntervalSec)

	app.monitor.Run(cmd.Context())
	return nil
}
