package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a private key",
	RunE:  runGenkey,
}

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Derive the public key of a private key read from stdin",
	RunE:  runPubkey,
}

var templateFlag bool

func init() {
	genkeyCmd.Flags().BoolVar(&templateFlag, "template", false, "print a tunnel file holding the new key instead of the bare key")
	rootCmd.AddCommand(genkeyCmd)
	rootCmd.AddCommand(pubkeyCmd)
}

func runGenkey(cmd *cobra.Command, _ []string) error {
	kp, err := tunnelconfig.GenerateKeypair()
	if err != nil {
		return fmt.Errorf("wgsession genkey: %w", err)
	}
	if !templateFlag {
		fmt.Fprintln(cmd.OutOrStdout(), kp.EncodePrivateKey())
		return nil
	}

	// Peer fields are left empty for the user to fill in.
	data, err := tunnelconfig.MarshalFields(tunnelconfig.Fields{
		PrivateKey: kp.EncodePrivateKey(),
		ListenPort: defaultListenPort,
	})
	if err != nil {
		return fmt.Errorf("wgsession genkey: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

const defaultListenPort = 51820

func runPubkey(cmd *cobra.Command, _ []string) error {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("wgsession pubkey: read private key: %w", err)
	}
	pub, err := tunnelconfig.PublicKey(strings.TrimSpace(line))
	if err != nil {
		return fmt.Errorf("wgsession pubkey: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pub)
	return nil
}
