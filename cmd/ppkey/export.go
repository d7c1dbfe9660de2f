package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/internal/crypto"
)

var exportCmd = &cobra.Command{
	Use:   "export <ppk-file>",
	Short: "Convert a PPK key to a PEM RSA private key",
	Long: `Convert a PuTTY PPK v2 RSA key to a PEM private key.

The MAC is verified before any private material is written. The output is
PKCS#1 by default; use --format pkcs8 for a "PRIVATE KEY" block.

Examples:
  ppkey export id_rsa.ppk --passphrase secret --out id_rsa
  ppkey export id_rsa.ppk --format pkcs8 --out id_rsa.pk8
  ppkey export id_rsa.ppk --out id_rsa.pem --pem-passphrase other`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportOut           string
	exportFormat        string
	exportPassphrase    string
	exportPEMPassphrase string
)

func init() {
	flags := exportCmd.Flags()
	flags.StringVarP(&exportOut, "out", "o", "", "Output PEM file (required)")
	flags.StringVarP(&exportFormat, "format", "f", "pkcs1", "PEM format: pkcs1, pkcs8")
	flags.StringVarP(&exportPassphrase, "passphrase", "p", "", "Passphrase of the PPK file")
	flags.StringVar(&exportPEMPassphrase, "pem-passphrase", "", "Encrypt the PEM output (legacy AES-256 PEM encryption)")
	_ = exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, args []string) error {
	input := args[0]

	format, err := crypto.ParsePEMFormat(exportFormat)
	if err != nil {
		return err
	}

	k, err := openPPK(input, resolvePassphrase(exportPassphrase))
	if err != nil {
		return err
	}

	priv, err := k.RSAPrivateKey()
	if err != nil {
		return fmt.Errorf("failed to build RSA key: %w", err)
	}
	if err := crypto.SavePrivateKey(exportOut, priv, format, []byte(exportPEMPassphrase)); err != nil {
		return err
	}

	obj := keyObject(exportOut, k)
	obj.Type = "pem"
	if err := audit.LogKeyExported(obj, input, string(format), exportPEMPassphrase != ""); err != nil {
		return err
	}

	fmt.Printf("Key exported successfully.\n")
	fmt.Printf("  Input:       %s\n", input)
	fmt.Printf("  Output:      %s\n", exportOut)
	fmt.Printf("  Format:      %s\n", format)
	fmt.Printf("  Fingerprint: %s\n", obj.Fingerprint)
	if exportPEMPassphrase != "" {
		fmt.Printf("  Encrypted:   yes\n")
	}

	return nil
}
