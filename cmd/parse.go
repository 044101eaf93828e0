package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
	"cbridge/pkg/generators"
	"cbridge/pkg/lexer"
	"cbridge/pkg/pipeline"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a C++ header and print the element tree",
	Long: `Parse a C++ header and print the element tree the converter works on.
With --modified the tree is shown after all modifier passes ran, as it is
when the output files are generated. The json format prints the metadata
document instead of the tree.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		cmd.SilenceUsage = true

		content, err := os.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read file %s", filename)
		}

		root, err := parseForDisplay(filename, string(content), parseModified, parseConfig)
		if err != nil {
			return err
		}

		switch parseFormat {
		case "json":
			return generators.WriteMetadata(os.Stdout, root)
		default:
			printElement(os.Stdout, root, 0)
			return nil
		}
	},
}

// outputFormat is a --format value restricted to the known formats
type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(v string) error {
	switch v {
	case "human", "json":
		*f = outputFormat(v)
		return nil
	}
	return fmt.Errorf("must be one of human, json")
}

func (f *outputFormat) Type() string { return "format" }

var (
	parseFormat   = outputFormat("human")
	parseModified bool
	parseConfig   string
)

func init() {
	parseCmd.Flags().VarP(&parseFormat, "format", "f", "Output format (human, json)")
	parseCmd.Flags().BoolVarP(&parseModified, "modified", "m", false, "Show the tree after the modifier passes")
	parseCmd.Flags().StringVarP(&parseConfig, "config", "c", "", "YAML configuration file")
}

func parseForDisplay(filename, content string, modified bool, configFile string) (dom.Element, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if modified {
		return pipeline.Transform(filename, content, cfg, os.Stderr)
	}
	parseCtx := dom.NewParseContext(filename, cfg.APIMacros)
	return dom.ParseHeaderFile(parseCtx, lexer.NewTokenStream(content))
}

func printElement(w io.Writer, e dom.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	label := e.Kind().String()
	if name := dom.NameOf(e); name != "" {
		label += " " + name
	}
	if summary := summarize(e); summary != "" {
		label += ": " + summary
	}
	fmt.Fprintf(w, "%s%s\n", indent, label)
	for _, list := range dom.ChildLists(e) {
		for _, child := range *list {
			printElement(w, child, depth+1)
		}
	}
}

// summarize renders leaf declarations on one line
func summarize(e dom.Element) string {
	switch e.(type) {
	case *dom.FunctionDeclaration, *dom.FieldDeclaration, *dom.Typedef, *dom.Define, *dom.Include:
		return strings.Join(strings.Fields(dom.Render(e, dom.WriteContext{})), " ")
	}
	return ""
}
