// Package verify checks generated sources with the tree-sitter C and C++
// grammars so that a broken artifact is caught before it is written out.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

// Language selects the grammar a source is checked against
type Language string

const (
	C   Language = "c"
	CPP Language = "cpp"
)

// SyntaxError locates the first error node tree-sitter produced
type SyntaxError struct {
	Name   string
	Line   int
	Column int
	Text   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Name, e.Line, e.Column, e.Text)
}

func newParser(lang Language) (*sitter.Parser, error) {
	parser := sitter.NewParser()
	switch lang {
	case C:
		parser.SetLanguage(c.GetLanguage())
	case CPP:
		parser.SetLanguage(cpp.GetLanguage())
	default:
		parser.Close()
		return nil, errors.Errorf("unsupported language %q", lang)
	}
	return parser, nil
}

// Check parses source as lang and returns a *SyntaxError if the tree holds
// any error or missing node. Macros are blanked out first since tree-sitter
// does not expand them; column positions are preserved.
func Check(ctx context.Context, lang Language, name, source string, macros ...string) error {
	parser, err := newParser(lang)
	if err != nil {
		return err
	}
	defer parser.Close()

	text := []byte(blankMacros(source, macros))
	tree, err := parser.ParseCtx(ctx, nil, text)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", name)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	pt := bad.StartPoint()
	snippet := bad.Content(text)
	if len(snippet) > 40 {
		snippet = snippet[:40]
	}
	return &SyntaxError{Name: name, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Text: snippet}
}

// Header checks a generated C header as a C compiler sees it, with the
// __cplusplus-only blocks removed
func Header(ctx context.Context, name, source string, macros ...string) error {
	return Check(ctx, C, name, stripCPlusPlusBlocks(source), macros...)
}

// Implementation checks a generated C++ implementation file
func Implementation(ctx context.Context, name, source string, macros ...string) error {
	return Check(ctx, CPP, name, source, macros...)
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.IsMissing() || node.Type() == "ERROR" {
		return node
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

func blankMacros(source string, macros []string) string {
	for _, macro := range macros {
		if macro == "" {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(macro) + `\b`)
		source = re.ReplaceAllStringFunc(source, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}
	return source
}

// stripCPlusPlusBlocks empties the lines of every "#ifdef __cplusplus"
// block, keeping the line count intact
func stripCPlusPlusBlocks(source string) string {
	lines := strings.Split(source, "\n")
	depth := 0
	for i, line := range lines {
		directive := strings.Join(strings.Fields(line), " ")
		switch {
		case depth == 0 && directive == "#ifdef __cplusplus":
			depth = 1
		case depth > 0 && strings.HasPrefix(directive, "#if"):
			depth++
		case depth > 0 && strings.HasPrefix(directive, "#endif"):
			depth--
		case depth == 0:
			continue
		}
		lines[i] = ""
	}
	return strings.Join(lines, "\n")
}
