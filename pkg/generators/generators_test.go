package generators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
	"cbridge/pkg/modifiers"
)

const sampleHeader = `#pragma once

#define IMGUI_VERSION "1.91.0"
#define IM_ARRAYSIZE(_ARR) ((int)(sizeof(_ARR) / sizeof(*(_ARR))))

struct ImGuiStyle;
struct ImDrawList;

struct ImVec2
{
    float x;
    float y;
};

enum ImGuiDir : int
{
    ImGuiDir_None = -1,
    ImGuiDir_Left = 0,
};

namespace ImGui
{
    // Position of the current window
    IMGUI_API ImVec2 GetWindowPos();
    IMGUI_API ImGuiDir GetDir(ImGuiDir d);
    IMGUI_API ImDrawList* GetWindowDrawList();
    IMGUI_API void SetPos(const ImVec2& pos);
    IMGUI_API void Text(const char* fmt, ...);
    IMGUI_API ImGuiStyle& GetStyle();
    IMGUI_API void Points(const ImVec2 points[4]);
    IMGUI_API bool Button(const char* label, const ImVec2& size = ImVec2(0, 0));
#ifdef IMGUI_HAS_DOCK
    IMGUI_API void DockA();
    IMGUI_API void DockB();
#endif
}

struct ImGuiTextFilter
{
    IMGUI_API ImGuiTextFilter(const char* default_filter);
    IMGUI_API ~ImGuiTextFilter();
    IMGUI_API bool Draw(const char* label, float width);
    IMGUI_API bool IsActive() const;
    static int Count();
};
`

func convert(t *testing.T, src string) *dom.HeaderFileSet {
	t.Helper()
	file, err := dom.ParseString(src, "IMGUI_API")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	set := &dom.HeaderFileSet{}
	dom.AddChild(set, file)
	if err := dom.SaveUnmodifiedClones(set); err != nil {
		t.Fatalf("Failed to snapshot: %v", err)
	}
	if err := modifiers.Run(set, modifiers.Pipeline(config.Default())); err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	return set
}

// squash collapses runs of spaces so alignment padding does not matter
func squash(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func TestConditionalGenerator(t *testing.T) {
	a := dom.Condition{Kind: dom.ConditionIfdef, Expression: "A"}
	notA := dom.Condition{Kind: dom.ConditionIfndef, Expression: "A"}
	b := dom.Condition{Kind: dom.ConditionIf, Expression: "B > 1"}

	tests := []struct {
		name  string
		items [][]dom.Condition
		want  string
	}{
		{
			name:  "open once and close once",
			items: [][]dom.Condition{nil, {a}, {a}, nil},
			want:  "item0\n#ifdef A\nitem1\nitem2\n#endif // #ifdef A\nitem3\n",
		},
		{
			name:  "else branch swaps the condition",
			items: [][]dom.Condition{{a}, {notA}},
			want:  "#ifdef A\nitem0\n#endif // #ifdef A\n#ifndef A\nitem1\n#endif // #ifndef A\n",
		},
		{
			name:  "nested conditions close innermost first",
			items: [][]dom.Condition{{a, b}, {a}},
			want:  "#ifdef A\n#if B > 1\nitem0\n#endif // #if B > 1\nitem1\n#endif // #ifdef A\n",
		},
		{
			name:  "left open at the end",
			items: [][]dom.Condition{{a, b}},
			want:  "#ifdef A\n#if B > 1\nitem0\n#endif // #if B > 1\n#endif // #ifdef A\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := dom.NewCodeWriter()
			var g ConditionalGenerator
			for i, conds := range tt.items {
				g.Update(w, conds)
				w.WriteLine(fmt.Sprintf("item%d", i))
			}
			g.Finish(w)
			if got := w.String(); got != tt.want {
				t.Errorf("Expected:\n%s\ngot:\n%s", tt.want, got)
			}
			if g.Depth() != 0 {
				t.Errorf("Expected nothing open after Finish, depth %d", g.Depth())
			}
		})
	}
}

func TestWriteImplementation(t *testing.T) {
	set := convert(t, sampleHeader)
	var buf bytes.Buffer
	if err := WriteImplementation(&buf, set, config.Default()); err != nil {
		t.Fatalf("WriteImplementation failed: %v", err)
	}
	out := squash(buf.String())

	tests := []struct {
		name string
		want string
	}{
		{"to C++ converter", "static inline ::ImVec2 ConvertToCPP_ImVec2(const cimgui::ImVec2& src)"},
		{"from C++ converter", "static inline cimgui::ImVec2 ConvertFromCPP_ImVec2(const ::ImVec2& src)"},
		{"field copy", "dest.x = src.x;"},
		{"signature", "CIMGUI_API cimgui::ImVec2 cimgui::ImGui_GetWindowPos(void)"},
		{"by-value return", "return ConvertFromCPP_ImVec2(::ImGui::GetWindowPos());"},
		{"enum casts", "return static_cast<cimgui::ImGuiDir>(::ImGui::GetDir(static_cast<::ImGuiDir>(d)));"},
		{"pointer return", "return reinterpret_cast<cimgui::ImDrawList*>(::ImGui::GetWindowDrawList());"},
		{"by-value argument", "::ImGui::SetPos(ConvertToCPP_ImVec2(pos));"},
		{"reference return", "return reinterpret_cast<cimgui::ImGuiStyle*>(&::ImGui::GetStyle());"},
		{"va_list", "va_list args;\nva_start(args, fmt);\n::ImGui::TextV(fmt, args);\nva_end(args);"},
		{"array copy", "::ImVec2 points_converted_array[4];\nfor (int i = 0; i < 4; i++)\npoints_converted_array[i] = ConvertToCPP_ImVec2(points[i]);\n::ImGui::Points(points_converted_array);"},
		{"default helper", "return ::ImGui::Button(label);"},
		{"Ex version", "return ::ImGui::Button(label, ConvertToCPP_ImVec2(size));"},
		{"constructor", "return reinterpret_cast<cimgui::ImGuiTextFilter*>(new ::ImGuiTextFilter(default_filter));"},
		{"destructor", "delete reinterpret_cast<::ImGuiTextFilter*>(self);"},
		{"method", "return reinterpret_cast<::ImGuiTextFilter*>(self)->Draw(label, width);"},
		{"const method", "return reinterpret_cast<const ::ImGuiTextFilter*>(self)->IsActive();"},
		{"static method", "return ::ImGuiTextFilter::Count();"},
	}
	for _, tt := range tests {
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: expected %q in:\n%s", tt.name, tt.want, out)
		}
	}

	opened := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "#ifdef IMGUI_HAS_DOCK") {
			opened++
		}
	}
	if opened != 1 {
		t.Errorf("Expected the dock functions to share one conditional, got %d", opened)
	}
	depth := 0
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "#endif"):
			depth--
		case strings.HasPrefix(line, "#if"):
			depth++
		}
		if depth < 0 {
			t.Fatalf("Conditional closed twice:\n%s", out)
		}
	}
	if depth != 0 {
		t.Errorf("Conditionals left open:\n%s", out)
	}
	if strings.Contains(out, "reinterpret_cast<::ImVec2") {
		t.Errorf("By-value structs must be converted, not cast:\n%s", out)
	}
}

func TestWriteImplementationCallbackArgument(t *testing.T) {
	set := convert(t, "namespace ImGui\n{\n    IMGUI_API bool Combo(const char* label, bool(*getter)(void* user_data, int idx, const char** out_text), void* data);\n}\n")
	var buf bytes.Buffer
	if err := WriteImplementation(&buf, set, config.Default()); err != nil {
		t.Fatalf("WriteImplementation failed: %v", err)
	}
	out := buf.String()
	for _, name := range []string{"::user_data", "::idx", "::out_text"} {
		if strings.Contains(out, name) {
			t.Errorf("Parameter name qualified as %q:\n%s", name, out)
		}
	}
	if !strings.Contains(out, "::ImGui::Combo(") {
		t.Errorf("Expected the Combo thunk:\n%s", out)
	}
}

func TestCPPType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ImVec2*", "::ImVec2*"},
		{"const ImVec2&", "const ::ImVec2&"},
		{"unsigned int", "unsigned int"},
		{"bool (*)(void* user_data, int idx, const char** out_text)", "bool (*)(void* user_data, int idx, const char** out_text)"},
		{"void (*)(ImGuiSizeCallbackData* data, ImVec2 size)", "void (*)(::ImGuiSizeCallbackData* data, ::ImVec2 size)"},
		{"void (*)(ImVec2, const ImDrawList)", "void (*)(::ImVec2, const ::ImDrawList)"},
		{"void (*)(float values[4])", "void (*)(float values[4])"},
		{"ImVector<ImGuiStoragePair>", "::ImVector<::ImGuiStoragePair>"},
	}
	for _, tt := range tests {
		if got := cppType(tt.in); got != tt.want {
			t.Errorf("cppType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteImplementationRejectsUnboundedByValueArrays(t *testing.T) {
	set := convert(t, "struct ImVec2\n{\n    float x;\n};\nIMGUI_API void Poly(const ImVec2 points[]);\n")
	var buf bytes.Buffer
	if err := WriteImplementation(&buf, set, config.Default()); err == nil {
		t.Fatal("Expected an error for an array of by-value structs without a bound")
	}
}

func TestWriteHeader(t *testing.T) {
	set := convert(t, sampleHeader)
	var buf bytes.Buffer
	if err := WriteHeader(&buf, set); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	out := squash(buf.String())

	for _, want := range []string{
		"#pragma once",
		"#ifdef __cplusplus",
		"typedef struct ImVec2_t ImVec2;",
		"struct ImVec2_t\n{\nfloat x;\nfloat y;\n};",
		"typedef struct ImDrawList_t ImDrawList;",
		"typedef struct ImGuiTextFilter_t ImGuiTextFilter;",
		"// Position of the current window\nCIMGUI_API ImVec2 ImGui_GetWindowPos(void);",
		"CIMGUI_API void ImGui_SetPos(ImVec2 pos);",
		"CIMGUI_API ImGuiStyle* ImGui_GetStyle(void);",
		"CIMGUI_API bool ImGui_Button(const char* label);",
		"CIMGUI_API bool ImGui_ButtonEx(const char* label, ImVec2 size /* = ImVec2(0, 0) */);",
		"CIMGUI_API bool ImGuiTextFilter_IsActive(const ImGuiTextFilter* self);",
		"CIMGUI_API void ImGuiTextFilter_destroy(ImGuiTextFilter* self);",
		"#ifdef IMGUI_HAS_DOCK",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"namespace", "&", "~", "struct ImGuiTextFilter_t\n{"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("Did not expect %q in:\n%s", unwanted, out)
		}
	}
}

func TestBuildMetadata(t *testing.T) {
	set := convert(t, sampleHeader)
	m := BuildMetadata(set)

	if len(m.Defines) != 1 || m.Defines[0].Name != "IMGUI_VERSION" {
		t.Errorf("Expected only IMGUI_VERSION in defines, got %+v", m.Defines)
	}
	if len(m.Enums) != 1 || len(m.Enums[0].Elements) != 2 || m.Enums[0].Elements[0].Value != "-1" {
		t.Errorf("Unexpected enums %+v", m.Enums)
	}

	structs := map[string]StructInfo{}
	for _, s := range m.Structs {
		if _, dup := structs[s.Name]; dup {
			t.Errorf("Struct %s listed twice", s.Name)
		}
		structs[s.Name] = s
	}
	if v, ok := structs["ImVec2"]; !ok || !v.IsByValue || v.IsForwardDeclaration || len(v.Fields) != 2 {
		t.Errorf("Unexpected ImVec2 entry %+v", v)
	}
	if d, ok := structs["ImDrawList"]; !ok || !d.IsForwardDeclaration {
		t.Errorf("Expected the opaque ImDrawList as a forward declaration")
	}

	functions := map[string]FunctionInfo{}
	for _, fn := range m.Functions {
		functions[fn.Name] = fn
	}
	pos := functions["ImGui_GetWindowPos"]
	if pos.OriginalName != "ImGui::GetWindowPos" {
		t.Errorf("Unexpected original name %q", pos.OriginalName)
	}
	if len(pos.Comments.Preceding) != 1 || pos.Comments.Preceding[0] != "// Position of the current window" {
		t.Errorf("Unexpected comments %+v", pos.Comments)
	}
	if !functions["ImGui_Button"].IsDefaultArgumentHelper || functions["ImGui_ButtonEx"].IsDefaultArgumentHelper {
		t.Error("Expected only ImGui_Button to be the default argument helper")
	}
	setPos := functions["ImGui_SetPos"].Arguments[0].Type
	if setPos.Declaration != "ImVec2" || setPos.Original != "const ImVec2&" || !setPos.FromConstRef {
		t.Errorf("Unexpected argument type %+v", setPos)
	}
	dock := functions["ImGui_DockA"].Conditionals
	if len(dock) != 1 || dock[0].Condition != dom.ConditionIfdef || dock[0].Expression != "IMGUI_HAS_DOCK" {
		t.Errorf("Unexpected conditionals %+v", dock)
	}
	draw := functions["ImGuiTextFilter_Draw"]
	if draw.OriginalClass != "ImGuiTextFilter" || !draw.Arguments[0].IsInstancePointer {
		t.Errorf("Unexpected method entry %+v", draw)
	}
	if !functions["ImGuiTextFilter_ImGuiTextFilter"].IsConstructor || !functions["ImGuiTextFilter_destroy"].IsDestructor {
		t.Error("Expected constructor and destructor flags")
	}
	if !functions["ImGuiTextFilter_Count"].IsStatic {
		t.Error("Expected the static flag")
	}
}

func TestWriteMetadataKeepsOperatorsReadable(t *testing.T) {
	set := convert(t, "#define IM_CHECK (IMGUI_VERSION_NUM < 19000 && IMGUI_VERSION_NUM > 0)\n")
	var buf bytes.Buffer
	if err := WriteMetadata(&buf, set); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `\u0026`) || strings.Contains(out, `\u003c`) || strings.Contains(out, `\u003e`) {
		t.Errorf("Expected unescaped operators:\n%s", out)
	}
	if !strings.Contains(out, "&&") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("Unexpected metadata:\n%s", out)
	}
}

func TestManualHelpersHaveNoThunk(t *testing.T) {
	cfg := config.Default()
	cfg.ManualHelpers = []string{"void ImVector_Construct(void* vector);"}
	file, err := dom.ParseString("namespace ImGui\n{\n    IMGUI_API void NewFrame();\n}\n", "IMGUI_API")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	set := &dom.HeaderFileSet{}
	dom.AddChild(set, file)
	if err := dom.SaveUnmodifiedClones(set); err != nil {
		t.Fatalf("Failed to snapshot: %v", err)
	}
	if err := modifiers.Run(set, modifiers.Pipeline(cfg)); err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}

	var header, impl bytes.Buffer
	if err := WriteHeader(&header, set); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := WriteImplementation(&impl, set, cfg); err != nil {
		t.Fatalf("WriteImplementation failed: %v", err)
	}
	if !strings.Contains(squash(header.String()), "CIMGUI_API void ImVector_Construct(void* vector);") {
		t.Errorf("Expected the helper declared in the header:\n%s", header.String())
	}
	if strings.Contains(impl.String(), "ImVector_Construct") {
		t.Errorf("Expected no thunk for the helper:\n%s", impl.String())
	}
	if !strings.Contains(impl.String(), "ImGui_NewFrame") {
		t.Errorf("Expected the generated thunk:\n%s", impl.String())
	}

	meta := BuildMetadata(set)
	found := false
	for _, fn := range meta.Functions {
		if fn.Name == "ImVector_Construct" {
			found = fn.IsManualHelper
		}
	}
	if !found {
		t.Error("Expected the helper flagged in the metadata")
	}
}

func TestWriteMetadataSchema(t *testing.T) {
	set := convert(t, sampleHeader)
	var buf bytes.Buffer
	if err := WriteMetadata(&buf, set); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}
	var doc map[string][]map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, key := range []string{"defines", "enums", "typedefs", "structs", "functions"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("Missing %s", key)
		}
	}
	for _, fn := range doc["functions"] {
		for _, key := range []string{"comments", "conditionals", "is_internal", "original_fully_qualified_name",
			"arguments", "is_default_argument_helper", "is_manual_helper", "is_string_view_helper",
			"has_string_view_helper", "is_static", "is_constructor", "is_destructor"} {
			if _, ok := fn[key]; !ok {
				t.Errorf("Function %v lacks %s", fn["name"], key)
			}
		}
	}
	if !strings.HasPrefix(buf.String(), "{\n    \"defines\"") {
		t.Errorf("Expected indented output, got %.40q", buf.String())
	}
}
