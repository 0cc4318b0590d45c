package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gqlwire/gqlwire/pkg/client"
	"github.com/gqlwire/gqlwire/pkg/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Persistent flags shared by the subcommands.
var (
	flagEndpoint string
	flagConfig   string
	flagHeaders  []string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "gqlwire",
	Short:         "GraphQL client for queries, mutations, and subscriptions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "GraphQL endpoint URL")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a client config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringArrayVarP(&flagHeaders, "header", "H", nil, "Request header in 'Name: value' form (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// buildClient assembles a client from --config plus flag overrides.
func buildClient() (*client.Client, error) {
	cfg := &config.ClientConfig{}
	if flagConfig != "" {
		loaded, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
		if isWebSocketURL(flagEndpoint) {
			cfg.WSEndpoint = flagEndpoint
			// The HTTP side is unused for subscribe, but the config
			// requires a valid endpoint URL.
			cfg.Endpoint = "http" + strings.TrimPrefix(flagEndpoint, "ws")
		}
	}
	if cfg.LogLevel == "" || flagLogLevel != "info" {
		cfg.LogLevel = flagLogLevel
	}

	headers, err := parseHeaderFlags(flagHeaders)
	if err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range headers {
			cfg.Headers[k] = v[0]
		}
	}

	return cfg.Client()
}

// parseHeaderFlags parses repeated -H 'Name: value' flags.
func parseHeaderFlags(raw []string) (http.Header, error) {
	h := make(http.Header)
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", entry)
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h, nil
}

// parseVariables parses the --variables JSON flag.
func parseVariables(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, fmt.Errorf("invalid variables JSON: %w", err)
	}
	return vars, nil
}

func isWebSocketURL(u string) bool {
	return strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://")
}
