// Package cmd implements the CLI surface: a single binary with sane
// defaults for every option, built from a root command plus
// subcommands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hn-archiver",
	Short: "Archive a Hacker News-style front page to disk",
	Long:  `hn-archiver periodically polls a news aggregator's front page, downloads each new story's page and comment thread, and persists every outbound comment link it finds.`,
}

// Execute runs the root command; main sets the process exit code from
// its returned error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path; not read: run always loads $XDG_CONFIG_HOME/hn-archiver/config.yaml, or ~/.config/hn-archiver/config.yaml")
}
