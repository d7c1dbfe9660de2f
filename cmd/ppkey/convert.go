package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/audit"
)

var convertCmd = &cobra.Command{
	Use:   "convert <ppk-file>",
	Short: "Re-encrypt a PPK key or change its comment",
	Long: `Rewrite a PPK file with a new passphrase and/or comment.

The input is unlocked with --passphrase; the output is written with
--new-passphrase, or unencrypted when --new-passphrase is empty.

Examples:
  # Add a passphrase
  ppkey convert clear.ppk --new-passphrase secret --out encrypted.ppk

  # Remove a passphrase
  ppkey convert encrypted.ppk --passphrase secret --out clear.ppk

  # Change the comment only
  ppkey convert key.ppk --passphrase secret --new-passphrase secret --comment laptop --out key.ppk`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertOut           string
	convertComment       string
	convertPassphrase    string
	convertNewPassphrase string
)

func init() {
	flags := convertCmd.Flags()
	flags.StringVarP(&convertOut, "out", "o", "", "Output PPK file (required)")
	flags.StringVarP(&convertComment, "comment", "C", "", "New comment (default: keep)")
	flags.StringVarP(&convertPassphrase, "passphrase", "p", "", "Passphrase of the input file")
	flags.StringVar(&convertNewPassphrase, "new-passphrase", "", "Passphrase for the output file (empty = unencrypted)")
	_ = convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	k, err := openPPK(input, resolvePassphrase(convertPassphrase))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("comment") {
		if err := k.SetComment(convertComment); err != nil {
			return err
		}
	}

	newPassphrase := []byte(convertNewPassphrase)
	if err := k.Save(convertOut, newPassphrase); err != nil {
		return fmt.Errorf("failed to write %s: %w", convertOut, err)
	}

	if err := audit.LogKeyConverted(keyObject(convertOut, k), input, encryptionName(newPassphrase)); err != nil {
		return err
	}

	fmt.Printf("Key converted successfully.\n")
	fmt.Printf("  Input:      %s\n", input)
	fmt.Printf("  Output:     %s\n", convertOut)
	fmt.Printf("  Comment:    %s\n", k.Comment())
	fmt.Printf("  Encryption: %s\n", encryptionName(newPassphrase))

	return nil
}
