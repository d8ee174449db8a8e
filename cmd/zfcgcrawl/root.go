// Package main provides the entry point for the zfcgcrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for zfcgcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zfcgcrawl",
		Short: "Crawler for Fujian government procurement announcements",
		Long: `zfcgcrawl collects procurement announcements from the Fujian provincial
government procurement portal (zfcg.czt.fujian.gov.cn).

It drives a real Chrome browser through the portal's CAPTCHA gate, queries
announcements by procurement unit, walks every result page, and optionally
visits each announcement's detail page. Collected records are written as
JSON and CSV, and can also be saved to a SQLite database.

The portal requires a CAPTCHA before searching. The tool displays the
challenge in the browser window and prompts for the code on the terminal,
so the browser should normally run with a visible window.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
