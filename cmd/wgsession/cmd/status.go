package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/ctlapi"
)

// queryTimeout bounds read-only requests from the CLI.
const queryTimeout = 10 * time.Second

var requestFlag bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long:  "Connect to the daemon via Unix socket and display the session state.",
	RunE:  runStatus,
}

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Check whether a tunnel can be brought up",
	RunE:  runReady,
}

func init() {
	readyCmd.Flags().BoolVar(&requestFlag, "request", false, "ask the daemon to satisfy missing prerequisites")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(readyCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	client := newClient()
	defer client.Close()

	st, err := client.Session(ctx)
	if err != nil {
		return fmt.Errorf("wgsession status: %w", err)
	}
	printStatus(cmd.OutOrStdout(), st)
	return nil
}

func printStatus(w io.Writer, st *ctlapi.SessionStatus) {
	fmt.Fprintf(w, "State:     %s\n", st.State)
	fmt.Fprintf(w, "Tunnel:    %s (%s)\n", st.TunnelName, st.TunnelID)
	fmt.Fprintf(w, "Ready:     %s\n", yesNo(st.Ready))
	if st.LastEvent.IsDefault() {
		fmt.Fprintln(w, "Traffic:   none")
	} else {
		fmt.Fprintf(w, "Duration:  %s\n", st.LastEvent.Duration)
		fmt.Fprintf(w, "Download:  %s\n", st.LastEvent.DownloadRate)
		fmt.Fprintf(w, "Upload:    %s\n", st.LastEvent.UploadRate)
	}
	fmt.Fprintf(w, "Streams:   %d (%d events dropped)\n", st.Subscribers, st.DroppedEvents)
}

func runReady(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	client := newClient()
	defer client.Close()

	var (
		st  *ctlapi.ReadinessStatus
		err error
	)
	if requestFlag {
		st, err = client.RequestReadiness(ctx)
	} else {
		st, err = client.Readiness(ctx)
	}
	if err != nil {
		return fmt.Errorf("wgsession ready: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ready: %s\n", yesNo(st.Ready))
	if !st.Ready {
		return fmt.Errorf("wgsession ready: platform not ready")
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
