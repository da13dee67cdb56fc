// Package main provides the entry point for the docmirror CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docmirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docmirror",
		Short: "Mirror a documentation website as local Markdown",
		Long: `docmirror crawls a documentation website and writes a local mirror of it.

Pages are rendered in a headless browser so JavaScript-built sites work,
reduced to their main content, and converted to Markdown files laid out to
match the site's URL structure. Images shared across pages are downloaded
once into a common assets directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
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
