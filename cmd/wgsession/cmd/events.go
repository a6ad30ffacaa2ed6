package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/notify"
)

var eventsJSON bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow the session status stream",
	Long:  "Print every status broadcast until interrupted. The current status is printed first.",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print events as JSON lines")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	client := newClient()
	defer client.Close()

	w := cmd.OutOrStdout()
	err := client.Events(cmd.Context(), func(e notify.Event) error {
		return printEvent(w, e, eventsJSON)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wgsession events: %w", err)
	}
	return nil
}

func printEvent(w io.Writer, e notify.Event, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(e)
	}
	_, err := fmt.Fprintf(w, "%s  %-12s %s  %s  %s\n",
		e.Time.Format("15:04:05"), e.State, e.Duration, e.DownloadRate, e.UploadRate)
	return err
}
