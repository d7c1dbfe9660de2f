package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/internal/crypto"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

var importCmd = &cobra.Command{
	Use:   "import <pem-file>",
	Short: "Convert a PEM RSA private key to PPK",
	Long: `Convert an RSA private key in PEM format to a PuTTY PPK v2 file.

PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted.
Legacy encrypted PEM blocks are decrypted with --pem-passphrase.

Without a passphrase the PPK file is written with "Encryption: none".

Examples:
  # Unencrypted PPK
  ppkey import id_rsa --out id_rsa.ppk

  # Encrypted PPK with a comment
  ppkey import id_rsa --out id_rsa.ppk --passphrase secret --comment "deploy key"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importOut           string
	importComment       string
	importPassphrase    string
	importPEMPassphrase string
)

func init() {
	flags := importCmd.Flags()
	flags.StringVarP(&importOut, "out", "o", "", "Output PPK file (required)")
	flags.StringVarP(&importComment, "comment", "C", "", "Key comment (default from config, else rsa-key)")
	flags.StringVarP(&importPassphrase, "passphrase", "p", "", "Passphrase for the PPK file")
	flags.StringVar(&importPEMPassphrase, "pem-passphrase", "", "Passphrase of an encrypted PEM input")
	_ = importCmd.MarkFlagRequired("out")
}

func runImport(cmd *cobra.Command, args []string) error {
	input := args[0]

	priv, err := crypto.LoadPrivateKey(input, []byte(importPEMPassphrase))
	if err != nil {
		return err
	}

	k, err := ppk.FromRSAPrivateKey(priv)
	if err != nil {
		return fmt.Errorf("failed to convert key: %w", err)
	}
	if err := k.SetComment(resolveComment(importComment)); err != nil {
		return err
	}

	passphrase := resolvePassphrase(importPassphrase)
	if err := k.Save(importOut, passphrase); err != nil {
		return fmt.Errorf("failed to write %s: %w", importOut, err)
	}

	if err := audit.LogKeyImported(keyObject(importOut, k), input, encryptionName(passphrase)); err != nil {
		return err
	}

	fp, _ := k.Fingerprint()
	fmt.Printf("Key imported successfully.\n")
	fmt.Printf("  Input:       %s\n", input)
	fmt.Printf("  Output:      %s\n", importOut)
	fmt.Printf("  Bits:        %d\n", k.Bits())
	fmt.Printf("  Comment:     %s\n", k.Comment())
	fmt.Printf("  Encryption:  %s\n", encryptionName(passphrase))
	fmt.Printf("  Fingerprint: %s\n", fp)

	return nil
}
