package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log management",
	Long: `Commands for reading and verifying the audit log.

The audit log is a tamper-evident record of key operations (import, export,
convert, generate, inspect and failed passphrases). Each event is chained to
the previous one with a SHA-256 hash. Passphrases and key material are never
logged.

The log is taken from --log, else from --audit-log, PPKEY_AUDIT_LOG or the
audit_log setting of the configuration file.

Examples:
  # Verify audit log integrity
  ppkey audit verify --log /var/log/ppkey/audit.jsonl

  # Show last 10 events
  ppkey audit tail --log /var/log/ppkey/audit.jsonl -n 10`,
	// Reading the log must not open it for writing: a damaged chain would
	// otherwise prevent verification.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings()
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log integrity",
	Long: `Verify the cryptographic hash chain of an audit log file.

Each event in the log contains:
  - hash_prev: SHA-256 hash of the previous event
  - hash: SHA-256 hash of the current event

The chain starts with hash_prev="sha256:genesis" for the first event.

If the chain is broken (events modified, deleted, or inserted),
this command will report the location and nature of the tampering.`,
	Args: cobra.NoArgs,
	RunE: runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent audit events",
	Long:  `Display the most recent audit events from the log file.`,
	Args:  cobra.NoArgs,
	RunE:  runAuditTail,
}

var (
	auditLogFile  string
	auditTailNum  int
	auditShowJSON bool
)

func init() {
	auditVerifyCmd.Flags().StringVar(&auditLogFile, "log", "", "Path to audit log file")

	auditTailCmd.Flags().StringVar(&auditLogFile, "log", "", "Path to audit log file")
	auditTailCmd.Flags().IntVarP(&auditTailNum, "num", "n", 10, "Number of events to show")
	auditTailCmd.Flags().BoolVar(&auditShowJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
}

// auditLogTarget returns the log selected by --log or the global settings.
func auditLogTarget() (string, error) {
	if auditLogFile != "" {
		return auditLogFile, nil
	}
	if auditLogPath != "" {
		return auditLogPath, nil
	}
	return "", fmt.Errorf("no audit log given (use --log, --audit-log or PPKEY_AUDIT_LOG)")
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := auditLogTarget()
	if err != nil {
		return err
	}

	fmt.Printf("Verifying audit log: %s\n\n", path)

	count, err := audit.VerifyChain(path)
	if err != nil {
		fmt.Printf("VERIFICATION FAILED\n")
		fmt.Printf("  Valid events: %d\n", count)
		fmt.Printf("  Error: %s\n", err)
		return fmt.Errorf("audit log verification failed: %w", err)
	}

	fmt.Printf("VERIFICATION PASSED\n")
	fmt.Printf("  Total events: %d\n", count)
	fmt.Printf("  Hash chain: VALID\n")

	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	path, err := auditLogTarget()
	if err != nil {
		return err
	}

	events, err := audit.ReadEvents(path, auditTailNum)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if auditShowJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if events == nil {
			events = []*audit.Event{}
		}
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Fprintln(out, "Audit log is empty")
		return nil
	}
	for _, e := range events {
		printEvent(cmd, e)
	}
	return nil
}

func printEvent(cmd *cobra.Command, e *audit.Event) {
	out := cmd.OutOrStdout()

	resultIcon := "✓"
	if e.Result == audit.ResultFailure {
		resultIcon = "✗"
	}

	fmt.Fprintf(out, "[%s] %s %s\n", e.Timestamp, resultIcon, e.EventType)
	fmt.Fprintf(out, "    Actor:  %s@%s\n", e.Actor.ID, e.Actor.Host)

	if e.Object.Type != "" {
		fmt.Fprintf(out, "    Object: %s", e.Object.Type)
		if e.Object.Path != "" {
			fmt.Fprintf(out, " path=%s", e.Object.Path)
		}
		if e.Object.Fingerprint != "" {
			fmt.Fprintf(out, " fingerprint=%s", e.Object.Fingerprint)
		}
		if e.Object.Comment != "" {
			fmt.Fprintf(out, " comment=%q", e.Object.Comment)
		}
		fmt.Fprintln(out)
	}

	c := e.Context
	if c.Algorithm != "" || c.Encryption != "" || c.Format != "" || c.Source != "" || c.Reason != "" {
		fmt.Fprint(out, "    Context:")
		if c.Algorithm != "" {
			fmt.Fprintf(out, " algorithm=%s", c.Algorithm)
		}
		if c.Bits != 0 {
			fmt.Fprintf(out, " bits=%d", c.Bits)
		}
		if c.Encryption != "" {
			fmt.Fprintf(out, " encryption=%s", c.Encryption)
		}
		if c.Format != "" {
			fmt.Fprintf(out, " format=%s", c.Format)
		}
		if c.Source != "" {
			fmt.Fprintf(out, " source=%s", c.Source)
		}
		if c.Reason != "" {
			fmt.Fprintf(out, " reason=%s", c.Reason)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
}
