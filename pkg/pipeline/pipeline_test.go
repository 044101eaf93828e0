package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSource = `#pragma once

#define IMGUI_VERSION "1.90"

struct ImVec2
{
    float x, y;
};

namespace ImGui
{
    // Adds two numbers
    IMGUI_API int Sum(int a, int b);

    IMGUI_API ImVec2 GetPos();
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "imgui.h")
	writeFile(t, source, sampleSource)
	templates := filepath.Join(dir, "templates")
	writeFile(t, filepath.Join(templates, "imgui-header-template.h"), "// %OUTPUT_HEADER_NAME% generated from %ORIGINAL_HEADER_NAME%\n")
	writeFile(t, filepath.Join(templates, "imgui-impl-template.cpp"),
		"#include \"%ORIGINAL_HEADER_NAME%\"\nnamespace cimgui\n{\n#include \"%OUTPUT_HEADER_NAME%\"\n}\n// %OUTPUT_CPP_NAME%")

	output := filepath.Join(dir, "out", "dcimgui")
	var warnings bytes.Buffer
	result, err := Convert(context.Background(), Options{
		Source:      source,
		Output:      output,
		TemplateDir: templates,
		Warnings:    &warnings,
	})
	if err != nil {
		t.Fatalf("Convert failed: %+v", err)
	}
	if result.HeaderPath != output+".h" || result.ImplementationPath != output+".cpp" || result.MetadataPath != output+".json" {
		t.Errorf("Unexpected paths: %+v", result)
	}
	if result.Functions != 2 {
		t.Errorf("Expected 2 functions, got %d", result.Functions)
	}

	header := readFile(t, result.HeaderPath)
	if !strings.HasPrefix(header, "// dcimgui.h generated from imgui.h\n") {
		t.Errorf("Header boilerplate missing:\n%s", header)
	}
	for _, want := range []string{"CIMGUI_API int ImGui_Sum(int a, int b);", "CIMGUI_API ImVec2 ImGui_GetPos(void);"} {
		if !strings.Contains(header, want) {
			t.Errorf("Header missing %q:\n%s", want, header)
		}
	}

	impl := readFile(t, result.ImplementationPath)
	if !strings.HasPrefix(impl, "#include \"imgui.h\"\nnamespace cimgui\n{\n#include \"dcimgui.h\"\n}\n// dcimgui.cpp\n") {
		t.Errorf("Implementation boilerplate missing:\n%s", impl)
	}
	if !strings.Contains(impl, "::ImGui::Sum(a, b)") {
		t.Errorf("Implementation missing the Sum thunk:\n%s", impl)
	}

	metadata := readFile(t, result.MetadataPath)
	if !strings.Contains(metadata, `"name": "ImGui_Sum"`) || !strings.Contains(metadata, `"Adds two numbers"`) && !strings.Contains(metadata, `"// Adds two numbers"`) {
		t.Errorf("Unexpected metadata:\n%s", metadata)
	}

	entries, err := os.ReadDir(filepath.Dir(output))
	if err != nil {
		t.Fatalf("Failed to list output: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected exactly 3 output files, got %d", len(entries))
	}
}

func TestConvertWithoutTemplates(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "imgui.h")
	writeFile(t, source, sampleSource)
	output := filepath.Join(dir, "dcimgui")

	result, err := Convert(context.Background(), Options{
		Source:      source,
		Output:      output,
		TemplateDir: filepath.Join(dir, "missing"),
	})
	if err != nil {
		t.Fatalf("Convert failed: %+v", err)
	}
	header := readFile(t, result.HeaderPath)
	if !strings.Contains(header, "#pragma once") || strings.Contains(header, "generated from") {
		t.Errorf("Expected only the generated code:\n%s", header)
	}
	impl := readFile(t, result.ImplementationPath)
	if !strings.Contains(impl, "namespace cimgui\n{\n    #include \"dcimgui.h\"\n}\n") {
		t.Errorf("Expected the default preamble:\n%s", impl)
	}
}

func TestConvertVerified(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "imgui.h")
	writeFile(t, source, "namespace ImGui\n{\n    IMGUI_API int Sum(int a, int b);\n\n    IMGUI_API void Reset();\n}\n")

	_, err := Convert(context.Background(), Options{
		Source: source,
		Output: filepath.Join(dir, "dcimgui"),
		Verify: true,
	})
	if err != nil {
		t.Fatalf("Convert with verification failed: %+v", err)
	}
}

func TestConvertFailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "imgui.h")
	writeFile(t, source, "template<typename K, typename V>\nstruct Pair\n{\n    K key;\n};\n")
	output := filepath.Join(dir, "dcimgui")
	for _, ext := range []string{".h", ".cpp", ".json"} {
		writeFile(t, output+ext, "previous"+ext)
	}

	if _, err := Convert(context.Background(), Options{Source: source, Output: output}); err == nil {
		t.Fatal("Expected the conversion to fail")
	}
	for _, ext := range []string{".h", ".cpp", ".json"} {
		if got := readFile(t, output+ext); got != "previous"+ext {
			t.Errorf("%s was modified: %q", ext, got)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 4 {
		t.Errorf("Expected no staged files to remain, found %d entries", len(entries))
	}
}

func TestConvertClangFormatOptions(t *testing.T) {
	f := newFormatter(Options{ClangFormatBinary: "/opt/llvm/bin/clang-format", ClangFormatStyle: "LLVM"})
	if f.Binary() != "/opt/llvm/bin/clang-format" || f.Style() != "LLVM" {
		t.Errorf("Unexpected formatter %s --style=%s", f.Binary(), f.Style())
	}
	f = newFormatter(Options{})
	if f.Binary() != "clang-format" || f.Style() != "file" {
		t.Errorf("Unexpected default formatter %s --style=%s", f.Binary(), f.Style())
	}

	dir := t.TempDir()
	source := filepath.Join(dir, "imgui.h")
	writeFile(t, source, sampleSource)
	_, err := Convert(context.Background(), Options{
		Source:            source,
		Output:            filepath.Join(dir, "dcimgui"),
		ClangFormat:       true,
		ClangFormatBinary: "cbridge-missing-clang-format",
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Expected a missing binary error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected nothing written, found %d entries", len(entries))
	}
}

func TestConvertMissingSource(t *testing.T) {
	_, err := Convert(context.Background(), Options{Source: filepath.Join(t.TempDir(), "nope.h"), Output: "x"})
	if err == nil || !strings.Contains(err.Error(), "reading") {
		t.Errorf("Expected a read error, got %v", err)
	}
}

func TestNames(t *testing.T) {
	n := newNames("src/imgui_internal.h", "out/dcimgui_internal")
	got := n.expand("%OUTPUT_HEADER_NAME%|%OUTPUT_HEADER_NAME_NO_INTERNAL%|%OUTPUT_CPP_NAME%|%ORIGINAL_HEADER_NAME%|%SOURCE_FILE_NAME%")
	want := "dcimgui_internal.h|dcimgui.h|dcimgui_internal.cpp|imgui_internal.h|src/imgui_internal.h"
	if got != want {
		t.Errorf("expand() = %q, want %q", got, want)
	}
	if n.base != "imgui_internal" {
		t.Errorf("base = %q", n.base)
	}
}

func TestWriteFilesStagesInPlace(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		filepath.Join(dir, "a.h"):   "a",
		filepath.Join(dir, "b.cpp"): "b",
	}
	if err := writeFiles(files); err != nil {
		t.Fatalf("writeFiles failed: %v", err)
	}
	for path, want := range files {
		if got := readFile(t, path); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("Expected 2 files, got %d", len(entries))
	}
}
