package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/pkg/ppk"
)

var infoCmd = &cobra.Command{
	Use:   "info <ppk-file>",
	Short: "Display information about a PPK key",
	Long: `Display the algorithm, size, comment, encryption and fingerprint of a
PPK key.

The public part is readable without a passphrase. Unencrypted files are
always MAC-checked; encrypted files are checked when a passphrase is given.

Examples:
  ppkey info id_rsa.ppk
  ppkey info id_rsa.ppk --passphrase secret
  ppkey info id_rsa.ppk --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

var (
	infoPassphrase string
	infoFormat     string
)

func init() {
	flags := infoCmd.Flags()
	flags.StringVarP(&infoPassphrase, "passphrase", "p", "", "Passphrase to verify an encrypted key")
	flags.StringVarP(&infoFormat, "format", "f", "text", "Output format: text, yaml, json")
}

// keyInfo is the printable description of a key.
type keyInfo struct {
	Path          string `json:"path" yaml:"path"`
	Algorithm     string `json:"algorithm" yaml:"algorithm"`
	Bits          int    `json:"bits" yaml:"bits"`
	Comment       string `json:"comment" yaml:"comment"`
	Encryption    string `json:"encryption" yaml:"encryption"`
	Fingerprint   string `json:"fingerprint" yaml:"fingerprint"`
	AuthorizedKey string `json:"authorized_key" yaml:"authorized_key"`
	Verified      bool   `json:"verified" yaml:"verified"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]

	switch infoFormat {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("unknown format: %s (supported: text, yaml, json)", infoFormat)
	}

	k, err := ppk.LoadLocked(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	passphrase := resolvePassphrase(infoPassphrase)
	verified := false
	if len(passphrase) > 0 || !k.Encryption().IsEncrypted() {
		if err := unlockPPK(path, k, passphrase); err != nil {
			return err
		}
		verified = true
	}

	info, err := describeKey(path, k, verified)
	if err != nil {
		return err
	}

	if err := audit.LogKeyInspected(keyObject(path, k), info.Encryption, info.Bits); err != nil {
		return err
	}

	return writeInfo(cmd.OutOrStdout(), info, infoFormat)
}

func describeKey(path string, k *ppk.Key, verified bool) (*keyInfo, error) {
	fp, err := k.Fingerprint()
	if err != nil {
		return nil, err
	}
	line, err := k.AuthorizedKey()
	if err != nil {
		return nil, err
	}
	return &keyInfo{
		Path:          path,
		Algorithm:     k.Algorithm(),
		Bits:          k.Bits(),
		Comment:       k.Comment(),
		Encryption:    k.Encryption().String(),
		Fingerprint:   fp,
		AuthorizedKey: strings.TrimSuffix(string(line), "\n"),
		Verified:      verified,
	}, nil
}

func writeInfo(w io.Writer, info *keyInfo, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	}

	mac := "not checked (no passphrase)"
	if info.Verified {
		mac = "verified"
	}
	_, err := fmt.Fprintf(w, `Key: %s
  Algorithm:   %s
  Size:        %d bits
  Comment:     %s
  Encryption:  %s
  MAC:         %s
  Fingerprint: %s
`, info.Path, info.Algorithm, info.Bits, info.Comment, info.Encryption, mac, info.Fingerprint)
	return err
}
