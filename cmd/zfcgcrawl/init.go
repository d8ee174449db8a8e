package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/zfcgcrawl.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".zfcgcrawl"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new zfcgcrawl configuration file",
		Long: `Initialize creates a new .zfcgcrawl configuration file in the current directory.

The generated file includes:
- Default settings for the search URL, procurement unit, and page cap
- Timing options (render pause, detail-page delay, table wait)
- Output options (directory, checkpoint interval, database persistence)

Examples:
  # Create .zfcgcrawl in current directory
  zfcgcrawl init

  # Create config file at a specific path
  zfcgcrawl init -o myconfig.yaml

  # Force overwrite existing file
  zfcgcrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/zfcgcrawl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure crawl settings such as:")
	fmt.Println("  - The procurement unit and result-page cap")
	fmt.Println("  - Timing between navigations and detail visits")
	fmt.Println("  - Output directory and database persistence")

	return nil
}
