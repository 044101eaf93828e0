// Package formatter runs clang-format over generated sources
package formatter

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// Formatter invokes a clang-format binary
type Formatter struct {
	binary string
	style  string
}

// New creates a formatter that uses clang-format from PATH with the style
// file found next to the sources
func New() *Formatter {
	return &Formatter{
		binary: "clang-format",
		style:  "file",
	}
}

// WithBinary returns a copy of f that runs the given executable
func (f *Formatter) WithBinary(binary string) *Formatter {
	c := *f
	c.binary = binary
	return &c
}

// WithStyle returns a copy of f that passes style to --style
func (f *Formatter) WithStyle(style string) *Formatter {
	c := *f
	c.style = style
	return &c
}

// Binary returns the executable f runs
func (f *Formatter) Binary() string {
	return f.binary
}

// Style returns the --style argument f passes
func (f *Formatter) Style() string {
	return f.style
}

// Available reports whether the clang-format binary can be found
func (f *Formatter) Available() bool {
	_, err := exec.LookPath(f.binary)
	return err == nil
}

// Format formats code as if it were stored in a file called filename; the
// extension selects the language
func (f *Formatter) Format(ctx context.Context, code, filename string) (string, error) {
	tmpFile, err := os.CreateTemp("", "cbridge-*"+filepath.Ext(filename))
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(code); err != nil {
		return "", errors.Wrap(err, "failed to write to temp file")
	}
	tmpFile.Close()

	args := []string{"--assume-filename=" + filename}
	if f.style != "" {
		args = append(args, "--style="+f.style)
	}
	args = append(args, tmpFile.Name())

	cmd := exec.CommandContext(ctx, f.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "%s failed", f.binary)
	}
	return string(output), nil
}
