// Command ppkey converts RSA keys between PuTTY PPK v2 and PEM.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/audit"
	"github.com/remiblancher/ppkey/internal/config"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	configPath   string
	auditLogPath string
)

// cfg is the configuration loaded by the root command.
var cfg = config.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ppkey",
	Short: "PuTTY PPK key converter",
	Long: `ppkey reads and writes PuTTY private key files (PPK version 2) holding
RSA keys, and converts them to and from PEM (PKCS#1 or PKCS#8).

Encrypted PPK files use aes256-cbc with a key derived from the passphrase;
every file carries an HMAC-SHA1 that is checked on load.

Passphrases can be given with --passphrase or read from the environment
variable named by passphrase_env in the configuration file.

Examples:
  # Convert an OpenSSH/PEM RSA key to PPK
  ppkey import id_rsa --out id_rsa.ppk --comment "work laptop"

  # Convert a PPK key back to PEM
  ppkey export id_rsa.ppk --passphrase secret --out id_rsa

  # Show key details and the authorized_keys line
  ppkey info id_rsa.ppk
  ppkey pub id_rsa.ppk

  # Generate a new encrypted key
  ppkey gen --algorithm rsa-3072 --passphrase secret --out new.ppk`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadSettings(); err != nil {
			return err
		}
		if err := audit.InitFile(auditLogPath); err != nil {
			return fmt.Errorf("failed to initialize audit log: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

// loadSettings loads the configuration file and resolves the audit log
// path: flag, then environment, then config file.
func loadSettings() error {
	loaded, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if auditLogPath == "" {
		auditLogPath = os.Getenv("PPKEY_AUDIT_LOG")
	}
	if auditLogPath == "" {
		auditLogPath = cfg.AuditLog
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML configuration file (or set PPKEY_CONFIG env var)")
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set PPKEY_AUDIT_LOG env var)")

	// Conversions
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(genCmd)

	// Inspection
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(pubCmd)

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
}
