package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

var validateCmd = &cobra.Command{
	Use:   "validate -f FILE",
	Short: "Validate a tunnel file",
	Long:  "Check every field of a tunnel file and list all problems found.",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&tunnelFile, "file", "f", "", "tunnel file (YAML)")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if _, err := tunnelconfig.Load(tunnelFile); err != nil {
		printProblems(cmd.ErrOrStderr(), err)
		return fmt.Errorf("wgsession validate: %s is invalid", tunnelFile)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", tunnelFile)
	return nil
}

// printProblems lists each field problem on its own line.
func printProblems(w io.Writer, err error) {
	var ve *tunnelconfig.ValidationError
	if !errors.As(err, &ve) {
		fmt.Fprintln(w, err)
		return
	}
	for _, p := range ve.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
	if ve.HasField(tunnelconfig.FieldPrivateKey) {
		fmt.Fprintln(w, "hint: create a private key with 'wgsession genkey'")
	}
}
