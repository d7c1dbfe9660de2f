package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/internal/crypto"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a new RSA key as PPK",
	Long: `Generate a new RSA key pair and write it as a PuTTY PPK v2 file.

Supported algorithms:
  rsa-2048  - RSA 2048-bit (default)
  rsa-3072  - RSA 3072-bit
  rsa-4096  - RSA 4096-bit

Examples:
  ppkey gen --out key.ppk
  ppkey gen --algorithm rsa-4096 --passphrase secret --comment ci --out ci.ppk`,
	RunE: runGen,
}

var (
	genAlgorithm  string
	genOut        string
	genComment    string
	genPassphrase string
)

func init() {
	flags := genCmd.Flags()
	flags.StringVarP(&genAlgorithm, "algorithm", "a", string(crypto.AlgRSA2048),
		"Key algorithm: "+strings.Join(crypto.AlgorithmNames(), ", "))
	flags.StringVarP(&genOut, "out", "o", "", "Output PPK file (required)")
	flags.StringVarP(&genComment, "comment", "C", "", "Key comment (default from config, else rsa-key)")
	flags.StringVarP(&genPassphrase, "passphrase", "p", "", "Passphrase for the PPK file")
	_ = genCmd.MarkFlagRequired("out")
}

func runGen(cmd *cobra.Command, args []string) error {
	alg, err := crypto.ParseAlgorithm(genAlgorithm)
	if err != nil {
		return err
	}

	kp, err := crypto.GenerateKeyPair(alg)
	if err != nil {
		return err
	}

	k, err := ppk.FromRSAPrivateKey(kp.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to convert key: %w", err)
	}
	if err := k.SetComment(resolveComment(genComment)); err != nil {
		return err
	}

	passphrase := resolvePassphrase(genPassphrase)
	if err := k.Save(genOut, passphrase); err != nil {
		return fmt.Errorf("failed to write %s: %w", genOut, err)
	}

	obj := keyObject(genOut, k)
	if err := audit.LogKeyGenerated(obj, alg.String(), k.Bits(), encryptionName(passphrase)); err != nil {
		return err
	}

	fmt.Printf("Key generated successfully.\n")
	fmt.Printf("  Algorithm:   %s\n", alg.Description())
	fmt.Printf("  Output:      %s\n", genOut)
	fmt.Printf("  Comment:     %s\n", k.Comment())
	fmt.Printf("  Encryption:  %s\n", encryptionName(passphrase))
	fmt.Printf("  Fingerprint: %s\n", obj.Fingerprint)

	return nil
}
