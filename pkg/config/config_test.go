package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if len(cfg.APIMacros) != 1 || cfg.APIMacros[0] != "IMGUI_API" {
		t.Errorf("expected api_macros [IMGUI_API], got %v", cfg.APIMacros)
	}
	if cfg.NamespacePrefixes["ImGui"] != "ImGui_" {
		t.Errorf("expected ImGui namespace prefix ImGui_, got %q", cfg.NamespacePrefixes["ImGui"])
	}
	if !cfg.IsByValue("ImVec2") || cfg.IsByValue("ImGuiStyle") {
		t.Errorf("unexpected by-value defaults: %v", cfg.ByValueStructs)
	}
	if cfg.Disambiguation.NameSuffixRemaps["const char*"] != "Str" {
		t.Errorf("expected const char* to remap to Str")
	}
	if cfg.DefaultArgs.Placement != PlacementBefore {
		t.Errorf("expected default helpers before the Ex version, got %s", cfg.DefaultArgs.Placement)
	}
}

func TestParseMergesOverDefaults(t *testing.T) {
	data := []byte(`
api_macros: [MYLIB_API]
namespace_prefixes:
  MyLib: MyLib_
disambiguation:
  name_suffix_remaps:
    "const MyString&": Str
default_arguments:
  placement: after
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(cfg.APIMacros) != 1 || cfg.APIMacros[0] != "MYLIB_API" {
		t.Errorf("expected loaded api_macros, got %v", cfg.APIMacros)
	}
	// maps merge key by key
	if cfg.NamespacePrefixes["MyLib"] != "MyLib_" || cfg.NamespacePrefixes["ImGui"] != "ImGui_" {
		t.Errorf("expected merged namespace prefixes, got %v", cfg.NamespacePrefixes)
	}
	if cfg.Disambiguation.NameSuffixRemaps["const MyString&"] != "Str" || cfg.Disambiguation.NameSuffixRemaps["void*"] != "Ptr" {
		t.Errorf("expected merged suffix remaps, got %v", cfg.Disambiguation.NameSuffixRemaps)
	}
	if cfg.Disambiguation.MaxSuffixTokens != 4 {
		t.Errorf("expected default max_suffix_tokens, got %d", cfg.Disambiguation.MaxSuffixTokens)
	}
	if cfg.DefaultArgs.Placement != PlacementAfter {
		t.Errorf("expected placement after, got %s", cfg.DefaultArgs.Placement)
	}
	if cfg.CAPIMacro != "CIMGUI_API" {
		t.Errorf("expected default c_api_macro, got %s", cfg.CAPIMacro)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("no_such_setting: 1\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no api macros", func(c *Config) { c.APIMacros = nil }, true},
		{"zero suffix tokens", func(c *Config) { c.Disambiguation.MaxSuffixTokens = 0 }, true},
		{"bad placement", func(c *Config) { c.DefaultArgs.Placement = "middle" }, true},
		{"empty ex suffix", func(c *Config) { c.DefaultArgs.ExSuffix = "" }, true},
		{"string view without suffix", func(c *Config) { c.StringView.Suffix = "" }, true},
		{"bad namespace prefix", func(c *Config) { c.NamespacePrefixes["X"] = "X::" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.Cause(err) != ErrInvalidConfig {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg == nil {
		t.Fatalf("Load(\"\") = %v, %v", cfg, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "cbridge.yaml")
	if err := os.WriteFile(path, []byte("include_guard: CIMGUI_H\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.IncludeGuard != "CIMGUI_H" {
		t.Errorf("expected include guard CIMGUI_H, got %q", cfg.IncludeGuard)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMatchesDefine(t *testing.T) {
	patterns := []string{"IMGUI_IMPL_API", "IM_MSVC_*"}
	tests := []struct {
		name string
		want bool
	}{
		{"IMGUI_IMPL_API", true},
		{"IM_MSVC_RUNTIME_CHECKS_OFF", true},
		{"IMGUI_VERSION", false},
	}
	for _, tt := range tests {
		if got := MatchesDefine(patterns, tt.name); got != tt.want {
			t.Errorf("MatchesDefine(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVarargsSuffix(t *testing.T) {
	cfg := Default()
	cfg.VarargsSuffixes["Log"] = "Va"
	if got := cfg.VarargsSuffix("Text"); got != "V" {
		t.Errorf("expected V, got %s", got)
	}
	if got := cfg.VarargsSuffix("Log"); got != "Va" {
		t.Errorf("expected Va, got %s", got)
	}
}
