package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/notify"
)

var indicatorCmd = &cobra.Command{
	Use:   "indicator",
	Short: "Trigger actions on the persistent indicator",
}

var indicatorDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Press the indicator's Disconnect action",
	RunE:  runIndicatorDisconnect,
}

func init() {
	indicatorCmd.AddCommand(indicatorDisconnectCmd)
	rootCmd.AddCommand(indicatorCmd)
}

func runIndicatorDisconnect(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	client := newClient()
	defer client.Close()

	if err := client.TriggerAction(ctx, notify.ActionDisconnect); err != nil {
		return fmt.Errorf("wgsession indicator disconnect: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "disconnect requested")
	return nil
}
