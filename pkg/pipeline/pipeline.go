// Package pipeline drives a whole conversion: it reads and parses the source
// header, runs the modifier passes, renders the three artifacts and writes
// them out only once all of them succeeded.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
	"cbridge/pkg/formatter"
	"cbridge/pkg/generators"
	"cbridge/pkg/lexer"
	"cbridge/pkg/modifiers"
	"cbridge/pkg/verify"
)

// Options controls a conversion
type Options struct {
	Source      string // path of the C++ header
	Output      string // output path without extension
	TemplateDir string // directory holding the boilerplate templates
	Config      *config.Config
	Verify      bool // check the artifacts with tree-sitter before writing
	ClangFormat bool // run clang-format over the header and implementation
	Warnings    io.Writer

	// ClangFormatBinary and ClangFormatStyle override the clang-format
	// executable and its --style argument
	ClangFormatBinary string
	ClangFormatStyle  string
}

// Artifacts holds the generated text of one conversion
type Artifacts struct {
	Header         string
	Implementation string
	Metadata       string
}

// Result describes a finished conversion
type Result struct {
	HeaderPath         string
	ImplementationPath string
	MetadataPath       string
	Functions          int
	Structs            int
}

// Convert runs a conversion and writes <Output>.h, <Output>.cpp and
// <Output>.json. Nothing is written unless every step succeeds.
func Convert(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Warnings == nil {
		opts.Warnings = os.Stderr
	}

	var f *formatter.Formatter
	if opts.ClangFormat {
		f = newFormatter(opts)
		if !f.Available() {
			return nil, errors.Errorf("clang-format binary %q not found", f.Binary())
		}
	}

	content, err := os.ReadFile(opts.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", opts.Source)
	}

	root, err := Transform(opts.Source, string(content), opts.Config, opts.Warnings)
	if err != nil {
		return nil, err
	}

	fileNames := newNames(opts.Source, opts.Output)
	artifacts, err := Generate(root, opts.Config)
	if err != nil {
		return nil, err
	}

	bp, err := loadBoilerplate(opts.TemplateDir, fileNames)
	if err != nil {
		return nil, err
	}
	artifacts.Header = bp.header + artifacts.Header
	if bp.implementation == "" {
		bp.implementation = defaultImplementationPreamble(fileNames, opts.Config)
	}
	artifacts.Implementation = bp.implementation + artifacts.Implementation

	if f != nil {
		if err := formatArtifacts(ctx, f, artifacts, fileNames); err != nil {
			return nil, err
		}
	}

	if opts.Verify {
		macros := append([]string{opts.Config.CAPIMacro}, opts.Config.APIMacros...)
		if err := verify.Header(ctx, fileNames.header, artifacts.Header, macros...); err != nil {
			return nil, errors.Wrap(err, "verifying header")
		}
		if err := verify.Implementation(ctx, fileNames.implementation, artifacts.Implementation, macros...); err != nil {
			return nil, errors.Wrap(err, "verifying implementation")
		}
	}

	result := &Result{
		HeaderPath:         opts.Output + ".h",
		ImplementationPath: opts.Output + ".cpp",
		MetadataPath:       opts.Output + ".json",
		Functions:          len(dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root)),
		Structs:            len(dom.ListAllChildrenOfType[*dom.ClassStructUnion](root)),
	}
	err = writeFiles(map[string]string{
		result.HeaderPath:         artifacts.Header,
		result.ImplementationPath: artifacts.Implementation,
		result.MetadataPath:       artifacts.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Transform parses content and runs the configured modifier passes over it.
// The returned root is the header file set.
func Transform(filename, content string, cfg *config.Config, warnings io.Writer) (*dom.HeaderFileSet, error) {
	parseCtx := dom.NewParseContext(filename, cfg.APIMacros)
	parseCtx.Warnings = warnings
	file, err := dom.ParseHeaderFile(parseCtx, lexer.NewTokenStream(content))
	if err != nil {
		return nil, err
	}

	set := &dom.HeaderFileSet{}
	dom.AddChild(set, file)
	if err := dom.SaveUnmodifiedClones(set); err != nil {
		return nil, errors.Wrap(err, "saving unmodified tree")
	}
	if err := modifiers.Run(set, modifiers.Pipeline(cfg)); err != nil {
		return nil, err
	}
	return set, nil
}

// Generate renders the three artifacts of a transformed tree
func Generate(root dom.Element, cfg *config.Config) (*Artifacts, error) {
	var header, impl, metadata bytes.Buffer
	if err := generators.WriteHeader(&header, root); err != nil {
		return nil, errors.Wrap(err, "generating header")
	}
	if err := generators.WriteImplementation(&impl, root, cfg); err != nil {
		return nil, errors.Wrap(err, "generating implementation")
	}
	if err := generators.WriteMetadata(&metadata, root); err != nil {
		return nil, errors.Wrap(err, "generating metadata")
	}
	return &Artifacts{
		Header:         header.String(),
		Implementation: impl.String(),
		Metadata:       metadata.String(),
	}, nil
}

func newFormatter(opts Options) *formatter.Formatter {
	f := formatter.New()
	if opts.ClangFormatBinary != "" {
		f = f.WithBinary(opts.ClangFormatBinary)
	}
	if opts.ClangFormatStyle != "" {
		f = f.WithStyle(opts.ClangFormatStyle)
	}
	return f
}

func formatArtifacts(ctx context.Context, f *formatter.Formatter, artifacts *Artifacts, n names) error {
	header, err := f.Format(ctx, artifacts.Header, n.header)
	if err != nil {
		return errors.Wrap(err, "formatting header")
	}
	impl, err := f.Format(ctx, artifacts.Implementation, n.implementation)
	if err != nil {
		return errors.Wrap(err, "formatting implementation")
	}
	artifacts.Header = header
	artifacts.Implementation = impl
	return nil
}

// writeFiles stages every file next to its destination and renames them into
// place only after all of them were written
func writeFiles(files map[string]string) (err error) {
	staged := map[string]string{}
	defer func() {
		if err != nil {
			for tmp := range staged {
				os.Remove(tmp)
			}
		}
	}()

	for path, content := range files {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
		if err != nil {
			return errors.Wrapf(err, "staging %s", path)
		}
		staged[tmp.Name()] = path
		if _, err := tmp.WriteString(content); err != nil {
			tmp.Close()
			return errors.Wrapf(err, "writing %s", path)
		}
		if err := tmp.Close(); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		if err := os.Chmod(tmp.Name(), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}

	for tmp, path := range staged {
		if err := os.Rename(tmp, path); err != nil {
			return errors.Wrapf(err, "replacing %s", path)
		}
		delete(staged, tmp)
	}
	return nil
}

// names are the file names the boilerplate placeholders expand to
type names struct {
	base           string // source base name without extension
	source         string
	original       string
	header         string
	headerNoIntern string
	implementation string
}

func newNames(source, output string) names {
	original := filepath.Base(source)
	header := filepath.Base(output) + ".h"
	return names{
		base:           strings.TrimSuffix(original, filepath.Ext(original)),
		source:         filepath.ToSlash(source),
		original:       original,
		header:         header,
		headerNoIntern: strings.Replace(header, "_internal", "", 1),
		implementation: filepath.Base(output) + ".cpp",
	}
}

func (n names) expand(text string) string {
	return strings.NewReplacer(
		"%OUTPUT_HEADER_NAME_NO_INTERNAL%", n.headerNoIntern,
		"%OUTPUT_HEADER_NAME%", n.header,
		"%OUTPUT_CPP_NAME%", n.implementation,
		"%ORIGINAL_HEADER_NAME%", n.original,
		"%SOURCE_FILE_NAME%", n.source,
	).Replace(text)
}
