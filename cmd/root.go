package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbridge/pkg/config"
	"cbridge/pkg/pipeline"
)

// UsageError marks a problem with the command line rather than the input
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

var rootCmd = &cobra.Command{
	Use:   "cbridge <source.h>",
	Short: "Generate a C API for a C++ header",
	Long: `cbridge reads a C++ header and writes three files next to the given
output path: a C header (.h), a C++ file of thunks that forward every C
function to the original C++ one (.cpp), and a JSON description of the C API
(.json) for binding generators.`,
	Example: `  cbridge imgui.h -o generated/dcimgui
  cbridge imgui.h -o generated/dcimgui -t src/templates -c cbridge.yaml --verify`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	},
	SilenceErrors: true,
	RunE:          runConvert,
}

var (
	outputPath  string
	templateDir string
	configPath  string
	verifyFlag  bool
	clangFormat bool
	formatBin   string
	formatStyle string
	quiet       bool
)

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path without extension (required)")
	rootCmd.Flags().StringVarP(&templateDir, "templatedir", "t", "./src/templates", "Directory holding the boilerplate templates")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults are used when omitted)")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "Check the generated files with tree-sitter before writing them")
	rootCmd.Flags().BoolVar(&clangFormat, "clang-format", false, "Run clang-format over the generated header and implementation")
	rootCmd.Flags().StringVar(&formatBin, "clang-format-binary", "clang-format", "clang-format executable used with --clang-format")
	rootCmd.Flags().StringVar(&formatStyle, "clang-format-style", "file", "Value passed to clang-format --style")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report errors")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if outputPath == "" {
		return &UsageError{Err: fmt.Errorf("required flag \"output\" not set")}
	}
	cmd.SilenceUsage = true

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	result, err := pipeline.Convert(context.Background(), pipeline.Options{
		Source:            args[0],
		Output:            outputPath,
		TemplateDir:       templateDir,
		Config:            cfg,
		Verify:            verifyFlag,
		ClangFormat:       clangFormat,
		ClangFormatBinary: formatBin,
		ClangFormatStyle:  formatStyle,
		Warnings:          os.Stderr,
	})
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("✅ Converted %s (%d functions, %d structs)\n", args[0], result.Functions, result.Structs)
		fmt.Printf("   %s\n   %s\n   %s\n", result.HeaderPath, result.ImplementationPath, result.MetadataPath)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
