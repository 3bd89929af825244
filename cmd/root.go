// Package cmd implements the civic-crawler command-line interface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// cfgFile is an optional YAML config file.
	cfgFile string
	// profile selects the crawl profile defaults.
	profile string
	// logLevel overrides the configured log level.
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "civic-crawler",
		Short: "A polite crawler for UK council websites",
		Long: `civic-crawler crawls council websites, classifies the pages it finds,
scores their quality and writes a structured, cited dataset.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "",
		"crawl profile: focused, comprehensive or enhanced (default focused)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(crawlCommand())
	rootCmd.AddCommand(recordsCommand())
	rootCmd.AddCommand(statsCommand())
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(compareCommand())
}
