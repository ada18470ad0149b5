package cmd

import (
	"fmt"

	"github.com/siteauditor/site-auditor/internal/audit"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version can be set at build time using ldflags
var Version = audit.Version

var rootCmd = &cobra.Command{
	Use:   "site-auditor",
	Short: "Audit websites for SEO, security, performance, accessibility and UX issues",
	Long: `Site Auditor drives a headless browser through a website, analyzes its
pages across eight categories and produces a rated report with prioritized
advice.

Run a one-off audit with 'site-auditor audit <url>' or start the HTTP API
with 'site-auditor serve'.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Site Auditor - Use 'site-auditor help' for available commands")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is .siteaudit.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "table", "output format (table, json, markdown)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("site-auditor version %s\n", Version)
		},
	})
}

// loadConfig reads and validates the configuration named by --config and
// builds the logger for it. --verbose forces debug logging.
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, logger.New(cfg.Logging), nil
}
