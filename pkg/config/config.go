// Package config holds the settings that steer a conversion: which names are
// remapped, which declarations are dropped, which structs travel by value.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Placement of a generated default-argument helper relative to its Ex version
const (
	PlacementBefore = "before"
	PlacementAfter  = "after"
)

// Config holds all conversion settings
type Config struct {
	// APIMacros are the export macros recognised in the source header
	APIMacros []string `yaml:"api_macros"`
	// CAPIMacro replaces them on every generated C function
	CAPIMacro string `yaml:"c_api_macro"`
	// CNamespace is the namespace the C header is wrapped in inside the
	// implementation file, used to tell C types from C++ types in casts
	CNamespace string `yaml:"c_namespace"`

	NamespacePrefixes   map[string]string `yaml:"namespace_prefixes"`
	LooseFunctionPrefix string            `yaml:"loose_function_prefix"`

	ByValueStructs    []string `yaml:"by_value_structs"`
	ExcludedFunctions []string `yaml:"excluded_functions"`
	ExcludedStructs   []string `yaml:"excluded_structs"`

	Disambiguation DisambiguationConfig `yaml:"disambiguation"`
	DefaultArgs    DefaultArgsConfig    `yaml:"default_arguments"`
	StringView     StringViewConfig     `yaml:"string_view"`

	// VarargsSuffixes overrides the "V" suffix of the va_list sibling a
	// varargs function forwards to, keyed by original function name
	VarargsSuffixes map[string]string `yaml:"varargs_suffixes"`

	// ManualHelpers are extra C declarations implemented by hand in the
	// implementation template
	ManualHelpers []string `yaml:"manual_helpers"`

	KeptIncludes            []string          `yaml:"kept_includes"`
	DefineRenames           map[string]string `yaml:"define_renames"`
	MetadataExcludedDefines []string          `yaml:"metadata_excluded_defines"`

	// IncludeGuard names the guard macro of the C header; empty means
	// "#pragma once"
	IncludeGuard string `yaml:"include_guard"`
}

// DisambiguationConfig controls overload renaming
type DisambiguationConfig struct {
	// NameSuffixRemaps maps a type spelling to the suffix token it
	// contributes, e.g. "const char*" to "Str"
	NameSuffixRemaps map[string]string `yaml:"name_suffix_remaps"`
	// FunctionsToIgnore are left alone even when overloaded
	FunctionsToIgnore []string `yaml:"functions_to_ignore"`
	// TypePriorities break ties between equally long overloads; the highest
	// total keeps the plain name
	TypePriorities  map[string]int `yaml:"type_priorities"`
	MaxSuffixTokens int            `yaml:"max_suffix_tokens"`
}

// DefaultArgsConfig controls default-argument helper generation
type DefaultArgsConfig struct {
	TrivialArgumentNames []string `yaml:"trivial_argument_names"`
	TrivialArgumentTypes []string `yaml:"trivial_argument_types"`
	// TrivialValues are the default values that count as zero/null
	TrivialValues []string `yaml:"trivial_values"`
	Placement     string   `yaml:"placement"`
	ExSuffix      string   `yaml:"ex_suffix"`
}

// StringViewConfig describes the library's string-view type
type StringViewConfig struct {
	Type string `yaml:"type"`
	// Helper converts a const char* into Type in the implementation file
	Helper string `yaml:"helper"`
	// Suffix is appended to the name of the function taking Type once a
	// const char* twin exists
	Suffix string `yaml:"suffix"`
}

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads a YAML config file and merges it over the defaults. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(data)
}

// Parse decodes YAML config data and merges it over the defaults
func Parse(data []byte) (*Config, error) {
	loaded := &Config{}
	if err := yaml.UnmarshalStrict(data, loaded); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	merged := Merge(loaded, Default())
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate checks that config values are usable
func Validate(cfg *Config) error {
	if len(cfg.APIMacros) == 0 {
		return errors.Wrap(ErrInvalidConfig, "api_macros must not be empty")
	}
	if cfg.Disambiguation.MaxSuffixTokens <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_suffix_tokens must be positive, got %d",
			cfg.Disambiguation.MaxSuffixTokens)
	}
	switch cfg.DefaultArgs.Placement {
	case PlacementBefore, PlacementAfter:
	default:
		return errors.Wrapf(ErrInvalidConfig, "placement must be %q or %q, got %q",
			PlacementBefore, PlacementAfter, cfg.DefaultArgs.Placement)
	}
	if cfg.DefaultArgs.ExSuffix == "" {
		return errors.Wrap(ErrInvalidConfig, "ex_suffix must not be empty")
	}
	if cfg.StringView.Type != "" && cfg.StringView.Suffix == "" {
		return errors.Wrap(ErrInvalidConfig, "string_view.suffix is required when string_view.type is set")
	}
	for ns, prefix := range cfg.NamespacePrefixes {
		if strings.ContainsAny(prefix, " :") {
			return errors.Wrapf(ErrInvalidConfig, "namespace prefix for %s is not an identifier: %q", ns, prefix)
		}
	}
	return nil
}

// IsByValue reports whether a struct is passed by value in the C API
func (c *Config) IsByValue(name string) bool {
	return contains(c.ByValueStructs, name)
}

// VarargsSuffix returns the suffix of the va_list sibling of a function
func (c *Config) VarargsSuffix(function string) string {
	if suffix, ok := c.VarargsSuffixes[function]; ok {
		return suffix
	}
	return "V"
}

// MatchesDefine reports whether a define name matches one of the patterns;
// a trailing '*' matches any suffix.
func MatchesDefine(patterns []string, name string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(name, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
