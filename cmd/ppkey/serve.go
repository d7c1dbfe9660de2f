package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ppkey/internal/api/server"
)

// Serve command flags
var (
	servePort    int
	serveHost    string
	serveTLSCert string
	serveTLSKey  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the ppkey REST API.

Endpoints:
  POST /api/v1/keys/inspect   Describe a PPK key
  POST /api/v1/keys/import    PEM to PPK
  POST /api/v1/keys/export    PPK to PEM
  POST /api/v1/keys/convert   Re-encrypt a PPK key
  POST /api/v1/keys/generate  Generate an RSA key
  GET  /api/v1/audit/logs     Recent audit entries
  POST /api/v1/audit/verify   Verify the audit chain

Flags override the server section of the configuration file.

Environment variables:
  PPKEY_PORT      Port to listen on
  PPKEY_HOST      Host to bind to
  PPKEY_TLS_CERT  TLS certificate file
  PPKEY_TLS_KEY   TLS private key file

Examples:
  ppkey serve --port 8080
  ppkey serve --port 8443 --tls-cert server.crt --tls-key server.key --audit-log audit.jsonl`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: 8443)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")
}

func runServe(cmd *cobra.Command, args []string) error {
	srvCfg, err := buildServerConfig()
	if err != nil {
		return err
	}
	return server.New(srvCfg, version).Start()
}

// buildServerConfig merges flags and environment over the config file.
func buildServerConfig() (*server.Config, error) {
	applyServeEnvVars()

	srvCfg := server.FromSettings(cfg)
	srvCfg.AuditLog = auditLogPath

	if servePort != 0 {
		srvCfg.Port = servePort
	}
	if serveHost != "" {
		srvCfg.Host = serveHost
	}
	if serveTLSCert != "" {
		srvCfg.TLSCert = serveTLSCert
	}
	if serveTLSKey != "" {
		srvCfg.TLSKey = serveTLSKey
	}

	if srvCfg.Port <= 0 || srvCfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", srvCfg.Port)
	}
	if (srvCfg.TLSCert == "") != (srvCfg.TLSKey == "") {
		return nil, fmt.Errorf("--tls-cert and --tls-key must be used together")
	}
	return srvCfg, nil
}

func applyServeEnvVars() {
	if servePort == 0 {
		if v := os.Getenv("PPKEY_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				servePort = p
			}
		}
	}
	if serveHost == "" {
		serveHost = os.Getenv("PPKEY_HOST")
	}
	if serveTLSCert == "" {
		serveTLSCert = os.Getenv("PPKEY_TLS_CERT")
	}
	if serveTLSKey == "" {
		serveTLSKey = os.Getenv("PPKEY_TLS_KEY")
	}
}
