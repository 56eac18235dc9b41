// Package commands is the meramarket command line: the API server plus a few
// operator tools that run against the same configuration.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"meramarket/config"
	"meramarket/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadConfig is replaced in tests.
var loadConfig = config.LoadConfig

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "meramarket",
		Short:         "Mera Local Market classifieds backend",
		Long:          "meramarket serves the marketplace API and carries operator tools for providers, expiry and contact filtering.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("mock", false, "pin every integration to its mock provider (overrides USE_MOCKS)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newProvidersCmd())
	root.AddCommand(newExpireCmd())
	root.AddCommand(newSanitizeCmd())
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// setup loads configuration and the shared logger for commands that touch
// the services.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg.UseMocks = true
	}
	return cfg, utils.GetLogger(), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
