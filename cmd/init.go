package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"cbridge/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file holding the default settings",
	Long: `Write a YAML configuration file holding every default setting, ready to be
edited and passed back with -c. The file defaults to cbridge.yaml in the
current directory.

Examples:
  # Write cbridge.yaml
  cbridge init

  # Replace an existing file
  cbridge init --overwrite config/imgui.yaml`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	},
	RunE: runInit,
}

var overwrite bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite the file if it exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "cbridge.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	cmd.SilenceUsage = true

	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s already exists, use --overwrite to replace it", path)
	}

	content, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("💾 Wrote default configuration to %s\n", path)
	return nil
}

func defaultConfigYAML() ([]byte, error) {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	header := "# cbridge configuration\n" +
		"# Generated by cbridge init with the built-in defaults.\n" +
		"# Entries left out of this file fall back to the defaults.\n\n"
	return append([]byte(header), data...), nil
}
