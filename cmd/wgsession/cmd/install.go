package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/packaging"
)

var (
	installInterface string
	installNow       bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install wgsession as a systemd service",
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installInterface, "interface", "", "WireGuard interface name written to a new config (default wgs0)")
	installCmd.Flags().BoolVar(&installNow, "now", false, "enable and start the service after installing")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := packaging.InstallConfig{
		InterfaceName: installInterface,
		Start:         installNow,
	}
	installer := packaging.NewInstaller(cfg, packaging.NewSystemdController(), packaging.NewRootChecker(), logger)

	if err := installer.Install(); err != nil {
		return fmt.Errorf("wgsession install: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "wgsession installed successfully")
	return nil
}
