package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/pkg/ppk"
)

var pubCmd = &cobra.Command{
	Use:   "pub <ppk-file>",
	Short: "Print the OpenSSH public key of a PPK key",
	Long: `Print the public key of a PPK file as an OpenSSH authorized_keys line.

No passphrase is needed: the public blob is stored unencrypted.

Examples:
  ppkey pub id_rsa.ppk >> ~/.ssh/authorized_keys
  ppkey pub id_rsa.ppk --out id_rsa.pub`,
	Args: cobra.ExactArgs(1),
	RunE: runPub,
}

var pubOut string

func init() {
	pubCmd.Flags().StringVarP(&pubOut, "out", "o", "", "Output file (default: stdout)")
}

func runPub(cmd *cobra.Command, args []string) error {
	k, err := ppk.LoadLocked(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	line, err := k.AuthorizedKey()
	if err != nil {
		return err
	}

	if pubOut == "" {
		_, err = cmd.OutOrStdout().Write(line)
		return err
	}
	if err := os.WriteFile(pubOut, line, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", pubOut, err)
	}
	fmt.Printf("Public key written to %s\n", pubOut)
	return nil
}
