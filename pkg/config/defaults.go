package config

// Default returns the settings used for Dear ImGui style headers
func Default() *Config {
	return &Config{
		APIMacros:  []string{"IMGUI_API"},
		CAPIMacro:  "CIMGUI_API",
		CNamespace: "cimgui",

		NamespacePrefixes:   map[string]string{"ImGui": "ImGui_"},
		LooseFunctionPrefix: "c",

		ByValueStructs: []string{"ImVec2", "ImVec4", "ImColor", "ImRect", "ImTextureRef"},

		Disambiguation: DisambiguationConfig{
			NameSuffixRemaps: map[string]string{
				"const char*":   "Str",
				"char*":         "Str",
				"unsigned int":  "Uint",
				"unsigned int*": "UintPtr",
				"ImGuiID":       "ID",
				"const void*":   "Ptr",
				"void*":         "Ptr",
			},
			FunctionsToIgnore: []string{"ImFileOpen", "ImFileClose", "ImFileGetSize", "ImFileRead", "ImFileWrite"},
			TypePriorities: map[string]int{
				"const char*": 20,
				"ImGuiID":     10,
				"ImVec2":      5,
				"float":       2,
				"int":         1,
			},
			MaxSuffixTokens: 4,
		},

		DefaultArgs: DefaultArgsConfig{
			TrivialArgumentNames: []string{"flags", "popup_flags", "tab_flags", "p_open"},
			TrivialArgumentTypes: []string{"ImGuiWindowFlags", "ImGuiChildFlags", "ImGuiInputTextFlags",
				"ImGuiTreeNodeFlags", "ImGuiSelectableFlags", "ImGuiComboFlags", "ImGuiTabBarFlags",
				"ImGuiTabItemFlags", "ImGuiColorEditFlags", "ImGuiSliderFlags", "ImGuiTableFlags",
				"ImGuiTableColumnFlags", "ImGuiTableRowFlags", "ImGuiHoveredFlags", "ImGuiFocusedFlags",
				"ImGuiDragDropFlags", "ImGuiPopupFlags", "ImGuiButtonFlags", "ImGuiCond"},
			TrivialValues: []string{"0", "NULL", "nullptr", "false", "0.0f", "0.0"},
			Placement:     PlacementBefore,
			ExSuffix:      "Ex",
		},

		StringView: StringViewConfig{
			Type:   "ImStrv",
			Helper: "ImStrv",
			Suffix: "ImStrv",
		},

		VarargsSuffixes: map[string]string{},

		KeptIncludes:            []string{"stdio.h", "stdint.h", "stddef.h", "stdarg.h", "stdbool.h"},
		DefineRenames:           map[string]string{},
		MetadataExcludedDefines: []string{"IMGUI_IMPL_API", "IM_FMTARGS", "IM_FMTLIST", "IM_MSVC_RUNTIME_CHECKS_*"},
	}
}

// Merge fills every field left empty in loaded from defaults. Maps are
// merged key by key with loaded entries winning.
func Merge(loaded, defaults *Config) *Config {
	out := *loaded

	out.APIMacros = mergeList(loaded.APIMacros, defaults.APIMacros)
	out.CAPIMacro = mergeString(loaded.CAPIMacro, defaults.CAPIMacro)
	out.CNamespace = mergeString(loaded.CNamespace, defaults.CNamespace)
	out.NamespacePrefixes = mergeMap(loaded.NamespacePrefixes, defaults.NamespacePrefixes)
	out.LooseFunctionPrefix = mergeString(loaded.LooseFunctionPrefix, defaults.LooseFunctionPrefix)
	out.ByValueStructs = mergeList(loaded.ByValueStructs, defaults.ByValueStructs)
	out.ExcludedFunctions = mergeList(loaded.ExcludedFunctions, defaults.ExcludedFunctions)
	out.ExcludedStructs = mergeList(loaded.ExcludedStructs, defaults.ExcludedStructs)

	d, l := defaults.Disambiguation, loaded.Disambiguation
	out.Disambiguation = DisambiguationConfig{
		NameSuffixRemaps:  mergeMap(l.NameSuffixRemaps, d.NameSuffixRemaps),
		FunctionsToIgnore: mergeList(l.FunctionsToIgnore, d.FunctionsToIgnore),
		TypePriorities:    mergeIntMap(l.TypePriorities, d.TypePriorities),
		MaxSuffixTokens:   l.MaxSuffixTokens,
	}
	if out.Disambiguation.MaxSuffixTokens == 0 {
		out.Disambiguation.MaxSuffixTokens = d.MaxSuffixTokens
	}

	da, la := defaults.DefaultArgs, loaded.DefaultArgs
	out.DefaultArgs = DefaultArgsConfig{
		TrivialArgumentNames: mergeList(la.TrivialArgumentNames, da.TrivialArgumentNames),
		TrivialArgumentTypes: mergeList(la.TrivialArgumentTypes, da.TrivialArgumentTypes),
		TrivialValues:        mergeList(la.TrivialValues, da.TrivialValues),
		Placement:            mergeString(la.Placement, da.Placement),
		ExSuffix:             mergeString(la.ExSuffix, da.ExSuffix),
	}

	out.StringView = StringViewConfig{
		Type:   mergeString(loaded.StringView.Type, defaults.StringView.Type),
		Helper: mergeString(loaded.StringView.Helper, defaults.StringView.Helper),
		Suffix: mergeString(loaded.StringView.Suffix, defaults.StringView.Suffix),
	}

	out.VarargsSuffixes = mergeMap(loaded.VarargsSuffixes, defaults.VarargsSuffixes)
	out.ManualHelpers = mergeList(loaded.ManualHelpers, defaults.ManualHelpers)
	out.KeptIncludes = mergeList(loaded.KeptIncludes, defaults.KeptIncludes)
	out.DefineRenames = mergeMap(loaded.DefineRenames, defaults.DefineRenames)
	out.MetadataExcludedDefines = mergeList(loaded.MetadataExcludedDefines, defaults.MetadataExcludedDefines)
	out.IncludeGuard = mergeString(loaded.IncludeGuard, defaults.IncludeGuard)
	return &out
}

func mergeString(loaded, def string) string {
	if loaded == "" {
		return def
	}
	return loaded
}

// mergeList keeps a loaded list as-is; lists replace rather than extend
func mergeList(loaded, def []string) []string {
	if loaded == nil {
		return append([]string(nil), def...)
	}
	return loaded
}

func mergeMap(loaded, def map[string]string) map[string]string {
	out := make(map[string]string, len(def)+len(loaded))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range loaded {
		out[k] = v
	}
	return out
}

func mergeIntMap(loaded, def map[string]int) map[string]int {
	out := make(map[string]int, len(def)+len(loaded))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range loaded {
		out[k] = v
	}
	return out
}
