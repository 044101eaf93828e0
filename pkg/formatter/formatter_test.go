package formatter

import (
	"context"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	f := New()
	if f.binary != "clang-format" {
		t.Errorf("Expected binary clang-format, got %s", f.binary)
	}
	if f.style != "file" {
		t.Errorf("Expected style file, got %s", f.style)
	}
}

func TestWithOptionsCopies(t *testing.T) {
	f := New()
	g := f.WithBinary("clang-format-17").WithStyle("LLVM")
	if f.binary != "clang-format" || f.style != "file" {
		t.Errorf("Original formatter was modified: %+v", f)
	}
	if g.binary != "clang-format-17" || g.style != "LLVM" {
		t.Errorf("Unexpected copy: %+v", g)
	}
}

func TestFormatMissingBinary(t *testing.T) {
	f := New().WithBinary("cbridge-no-such-formatter")
	if f.Available() {
		t.Skip("unexpected binary on PATH")
	}
	if _, err := f.Format(context.Background(), "int x;\n", "out.h"); err == nil {
		t.Error("Expected an error for a missing binary")
	}
}

func TestFormatWithClang(t *testing.T) {
	f := New().WithStyle("LLVM")
	if !f.Available() {
		t.Skip("clang-format not installed")
	}
	got, err := f.Format(context.Background(), "int   Sum( int a,int b );\n", "out.h")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(got, "int Sum(int a, int b);") {
		t.Errorf("Unexpected formatted output: %q", got)
	}
}
