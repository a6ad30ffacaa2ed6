package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/ctlapi"
	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

// requestTimeout bounds a waited lifecycle request from the CLI.
const requestTimeout = 60 * time.Second

var (
	tunnelFile   string
	excludedApps []string
	waitFlag     bool
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Bring the tunnel up",
	Long: "Validate a tunnel file and ask the daemon to bring the tunnel up.\n" +
		"If a session is already active it is stopped instead.",
	RunE: runConnect,
}

var reconfigureCmd = &cobra.Command{
	Use:   "reconfigure",
	Short: "Restart the tunnel with a new configuration",
	RunE:  runReconfigure,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Tear the tunnel down",
	RunE:  runDisconnect,
}

func init() {
	for _, c := range []*cobra.Command{connectCmd, reconfigureCmd} {
		c.Flags().StringVarP(&tunnelFile, "file", "f", "", "tunnel file (YAML)")
		c.Flags().StringArrayVar(&excludedApps, "exclude", nil, "user name or uid whose traffic bypasses the tunnel (repeatable)")
		c.Flags().BoolVar(&waitFlag, "wait", false, "wait for the request to finish")
		_ = c.MarkFlagRequired("file")
	}
	disconnectCmd.Flags().BoolVar(&waitFlag, "wait", false, "wait for the request to finish")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(reconfigureCmd)
	rootCmd.AddCommand(disconnectCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	return launch(cmd, "connect", (*ctlapi.Client).Start)
}

func runReconfigure(cmd *cobra.Command, _ []string) error {
	return launch(cmd, "reconfigure", (*ctlapi.Client).Reconfigure)
}

type launchFunc func(*ctlapi.Client, context.Context, ctlapi.StartRequest, bool) (*ctlapi.OpResponse, error)

func launch(cmd *cobra.Command, name string, fn launchFunc) error {
	fields, err := tunnelconfig.LoadFields(tunnelFile)
	if err != nil {
		return fmt.Errorf("wgsession %s: %w", name, err)
	}
	// Fail before touching the daemon; it validates again.
	if _, err := tunnelconfig.New(fields); err != nil {
		printProblems(cmd.ErrOrStderr(), err)
		return fmt.Errorf("wgsession %s: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	client := newClient()
	defer client.Close()

	resp, err := fn(client, ctx, ctlapi.StartRequest{Config: fields, ExcludedApps: excludedApps}, waitFlag)
	if err != nil {
		return fmt.Errorf("wgsession %s: %w", name, err)
	}
	printOpResponse(cmd.OutOrStdout(), resp)
	return nil
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	client := newClient()
	defer client.Close()

	resp, err := client.Stop(ctx, waitFlag)
	if err != nil {
		return fmt.Errorf("wgsession disconnect: %w", err)
	}
	printOpResponse(cmd.OutOrStdout(), resp)
	return nil
}

func printOpResponse(w io.Writer, resp *ctlapi.OpResponse) {
	if resp.Queued {
		fmt.Fprintf(w, "%s: queued\n", resp.Op)
		return
	}
	if resp.Outcome == "" {
		fmt.Fprintf(w, "%s: done\n", resp.Op)
		return
	}
	fmt.Fprintf(w, "%s: %s", resp.Op, resp.Outcome)
	if resp.TunnelID != "" {
		fmt.Fprintf(w, " (tunnel %s)", resp.TunnelID)
	}
	fmt.Fprintln(w)
}
