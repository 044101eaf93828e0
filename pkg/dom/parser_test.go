package dom

import (
	"bytes"
	"strings"
	"testing"

	"cbridge/pkg/lexer"
)

func mustParse(t *testing.T, src string) *HeaderFile {
	t.Helper()
	file, err := ParseString(src, "IMGUI_API")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	return file
}

func TestParseFunctionDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fnName   string
		ret      string
		argCount int
		check    func(t *testing.T, fn *FunctionDeclaration)
	}{
		{
			name:     "api macro and defaults",
			input:    "IMGUI_API bool Button(const char* label, const ImVec2& size = ImVec2(0, 0));",
			fnName:   "Button",
			ret:      "bool",
			argCount: 2,
			check: func(t *testing.T, fn *FunctionDeclaration) {
				if fn.APIMacro != "IMGUI_API" {
					t.Errorf("Expected API macro, got %q", fn.APIMacro)
				}
				if got := fn.Arguments[1].DefaultValueString(); got != "ImVec2(0, 0)" {
					t.Errorf("Unexpected default %q", got)
				}
				if got := fn.Arguments[1].ArgType.String(); got != "const ImVec2&" {
					t.Errorf("Unexpected argument type %q", got)
				}
			},
		},
		{
			name:     "varargs with trailing macro",
			input:    "IMGUI_API void Text(const char* fmt, ...) IM_FMTARGS(1);",
			fnName:   "Text",
			ret:      "void",
			argCount: 2,
			check: func(t *testing.T, fn *FunctionDeclaration) {
				if !fn.IsVarargs() {
					t.Error("Expected varargs")
				}
				if len(fn.TrailingMacros) != 1 || fn.TrailingMacros[0] != "IM_FMTARGS(1)" {
					t.Errorf("Unexpected trailing macros %v", fn.TrailingMacros)
				}
			},
		},
		{
			name:     "void argument list",
			input:    "int GetCount(void);",
			fnName:   "GetCount",
			ret:      "int",
			argCount: 0,
		},
		{
			name:     "inline body",
			input:    "static inline float Sum(float a, float b) { return a + b; }",
			fnName:   "Sum",
			ret:      "float",
			argCount: 2,
			check: func(t *testing.T, fn *FunctionDeclaration) {
				if fn.Body == nil || !fn.IsStatic || !fn.IsInline {
					t.Errorf("Expected static inline function with body")
				}
			},
		},
		{
			name:     "function pointer argument",
			input:    "void SetCallback(void (*callback)(int value, void* user_data), void* user_data);",
			fnName:   "SetCallback",
			ret:      "void",
			argCount: 2,
			check: func(t *testing.T, fn *FunctionDeclaration) {
				arg := fn.Arguments[0]
				if arg.Name != "callback" || !arg.ArgType.IsFunctionPointer() {
					t.Errorf("Expected function pointer argument named callback, got %q", arg.String())
				}
				if got := arg.String(); got != "void (*callback)(int value, void* user_data)" {
					t.Errorf("Unexpected rendering %q", got)
				}
			},
		},
		{
			name:     "unsigned int",
			input:    "unsigned int Hash(const void* data, size_t size, unsigned int seed = 0);",
			fnName:   "Hash",
			ret:      "unsigned int",
			argCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := mustParse(t, tt.input)
			fns := ListAllChildrenOfType[*FunctionDeclaration](file)
			if len(fns) != 1 {
				t.Fatalf("Expected 1 function, got %d", len(fns))
			}
			fn := fns[0]
			if fn.Name != tt.fnName {
				t.Errorf("Expected name %q, got %q", tt.fnName, fn.Name)
			}
			if fn.ReturnType.String() != tt.ret {
				t.Errorf("Expected return type %q, got %q", tt.ret, fn.ReturnType.String())
			}
			if len(fn.Arguments) != tt.argCount {
				t.Errorf("Expected %d arguments, got %d", tt.argCount, len(fn.Arguments))
			}
			if tt.check != nil {
				tt.check(t, fn)
			}
		})
	}
}

func TestParseStruct(t *testing.T) {
	src := `struct ImVec2
{
    float x, y;    // coordinates
    ImVec2() { x = y = 0.0f; }
    ImVec2(float _x, float _y) : x(_x), y(_y) { }
    float& operator[](size_t idx);
};
`
	file := mustParse(t, src)
	structs := ListAllChildrenOfType[*ClassStructUnion](file)
	if len(structs) != 1 {
		t.Fatalf("Expected 1 struct, got %d", len(structs))
	}
	s := structs[0]
	if s.Name != "ImVec2" || s.IsForwardDeclaration {
		t.Errorf("Unexpected struct %q", s.Name)
	}

	fields := ListAllChildrenOfType[*FieldDeclaration](s)
	if len(fields) != 1 || len(fields[0].Declarators) != 2 {
		t.Fatalf("Expected one field declaration with two names")
	}
	if fields[0].AttachedComment == nil || fields[0].AttachedComment.Text != "// coordinates" {
		t.Errorf("Expected attached comment on field")
	}

	fns := ListAllChildrenOfType[*FunctionDeclaration](s)
	if len(fns) != 3 {
		t.Fatalf("Expected 3 functions, got %d", len(fns))
	}
	if !fns[0].IsConstructor || !fns[1].IsConstructor {
		t.Errorf("Expected constructors")
	}
	if !fns[2].IsOperator || fns[2].Name != "operator[]" {
		t.Errorf("Expected operator[], got %q", fns[2].Name)
	}
}

func TestParseClassAccess(t *testing.T) {
	src := `class Foo : public Bar
{
    int hidden;
public:
    void Visible();
};
`
	file := mustParse(t, src)
	c := ListAllChildrenOfType[*ClassStructUnion](file)[0]
	if len(c.BaseClasses) != 1 || c.BaseClasses[0].Name != "Bar" || c.BaseClasses[0].Accessibility != AccessPublic {
		t.Errorf("Unexpected base classes %v", c.BaseClasses)
	}
	field := ListAllChildrenOfType[*FieldDeclaration](c)[0]
	fn := ListAllChildrenOfType[*FunctionDeclaration](c)[0]
	if field.Accessibility != AccessPrivate {
		t.Errorf("Expected private field, got %q", field.Accessibility)
	}
	if fn.Accessibility != AccessPublic {
		t.Errorf("Expected public function, got %q", fn.Accessibility)
	}
}

func TestParseEnum(t *testing.T) {
	src := `enum ImGuiWindowFlags_
{
    ImGuiWindowFlags_None   = 0,
    ImGuiWindowFlags_NoTitleBar = 1 << 0,   // Disable title-bar

#ifndef IMGUI_DISABLE_OBSOLETE_FUNCTIONS
    ImGuiWindowFlags_Legacy = 1 << 30,
#endif
    ImGuiWindowFlags_Last
};
enum ImGuiKey : int;
`
	file := mustParse(t, src)
	enums := ListAllChildrenOfType[*Enum](file)
	if len(enums) != 2 {
		t.Fatalf("Expected 2 enums, got %d", len(enums))
	}
	elements := enums[0].Elements()
	if len(elements) != 4 {
		t.Fatalf("Expected 4 elements, got %d", len(elements))
	}
	if elements[1].ValueString() != "1 << 0" {
		t.Errorf("Unexpected value %q", elements[1].ValueString())
	}
	if elements[1].AttachedComment == nil {
		t.Errorf("Expected attached comment on element")
	}
	if conds := ParentConditions(elements[2]); len(conds) != 1 || conds[0].Kind != ConditionIfndef {
		t.Errorf("Expected element inside #ifndef, got %v", conds)
	}
	if !enums[1].IsForwardDeclaration || enums[1].StorageType.String() != "int" {
		t.Errorf("Expected forward declaration with storage type")
	}
}

func TestParseElifExpandsToNestedIf(t *testing.T) {
	src := `#if defined(A)
int a;
#elif defined(B)
int b;
#else
int c;
#endif
`
	file := mustParse(t, src)
	conds := ListAllChildrenOfType[*PreprocessorIf](file)
	if len(conds) != 2 {
		t.Fatalf("Expected 2 conditionals, got %d", len(conds))
	}
	outer, nested := conds[0], conds[1]
	if len(outer.ElseChildren) != 1 || outer.ElseChildren[0] != Element(nested) || !nested.IsElif {
		t.Fatalf("Expected #elif as the only else child")
	}
	if nested.Expression != "defined(B)" {
		t.Errorf("Unexpected elif expression %q", nested.Expression)
	}

	c := ListAllChildrenOfType[*FieldDeclaration](file)[2]
	got := ParentConditions(c)
	if len(got) != 2 || got[0].Kind != ConditionIfNot || got[1].Kind != ConditionIfNot {
		t.Errorf("Expected both conditions negated for the final else, got %v", got)
	}

	// the chain is written back with a single #endif
	if out := file.String(); strings.Count(out, "#endif") != 1 || !strings.Contains(out, "#elif defined(B)") {
		t.Errorf("Unexpected rendering:\n%s", out)
	}
}

func TestParseTypedefsAndTemplates(t *testing.T) {
	src := `typedef int ImGuiID;
typedef void* (*ImGuiMemAllocFunc)(size_t sz, void* user_data);
template<typename T>
struct ImVector
{
    int Size;
    T* Data;
};
namespace ImGui
{
    IMGUI_API void NewFrame();
}
extern "C" { void c_function(); }
`
	file := mustParse(t, src)
	typedefs := ListAllChildrenOfType[*Typedef](file)
	if len(typedefs) != 2 {
		t.Fatalf("Expected 2 typedefs, got %d", len(typedefs))
	}
	if typedefs[1].Name != "ImGuiMemAllocFunc" || !typedefs[1].TypedefType.IsFunctionPointer() {
		t.Errorf("Expected function pointer typedef, got %q", typedefs[1].String())
	}
	if got := typedefs[1].String(); got != "typedef void* (*ImGuiMemAllocFunc)(size_t sz, void* user_data);" {
		t.Errorf("Unexpected rendering %q", got)
	}

	templates := ListAllChildrenOfType[*Template](file)
	if len(templates) != 1 || len(templates[0].Params) != 1 || templates[0].Params[0].Name != "T" {
		t.Fatalf("Expected one single-parameter template")
	}
	if _, ok := templates[0].Declaration().(*ClassStructUnion); !ok {
		t.Errorf("Expected templated struct")
	}

	ns := ListAllChildrenOfType[*Namespace](file)
	if len(ns) != 1 || ns[0].Name != "ImGui" {
		t.Fatalf("Expected namespace ImGui")
	}
	fn := ListAllChildrenOfType[*FunctionDeclaration](ns[0])[0]
	if FullyQualifiedName(fn) != "ImGui::NewFrame" {
		t.Errorf("Unexpected qualified name %q", FullyQualifiedName(fn))
	}
	if len(ListAllChildrenOfType[*ExternC](file)) != 1 {
		t.Errorf("Expected extern C block")
	}
}

func TestParseDirectives(t *testing.T) {
	src := `#pragma once
#include <stddef.h>
#define IMGUI_VERSION "1.90"
#define IM_ARRAYSIZE(_ARR) ((int)(sizeof(_ARR) / sizeof(*(_ARR))))
#undef IMGUI_VERSION
`
	file := mustParse(t, src)
	defines := ListAllChildrenOfType[*Define](file)
	if len(defines) != 2 {
		t.Fatalf("Expected 2 defines, got %d", len(defines))
	}
	if defines[0].Name != "IMGUI_VERSION" || defines[0].Content != `"1.90"` || defines[0].IsFunctionLike() {
		t.Errorf("Unexpected define %+v", defines[0])
	}
	if !defines[1].IsFunctionLike() || len(defines[1].Args) != 1 || defines[1].Args[0] != "_ARR" {
		t.Errorf("Expected function-like define, got %+v", defines[1])
	}
	if inc := ListAllChildrenOfType[*Include](file); len(inc) != 1 || inc[0].IncludedFile() != "stddef.h" {
		t.Errorf("Unexpected includes")
	}
	if p := ListAllChildrenOfType[*Pragma](file); len(p) != 1 || !p[0].IsOnce() {
		t.Errorf("Expected #pragma once")
	}
	if u := ListAllChildrenOfType[*Undef](file); len(u) != 1 || u[0].Name != "IMGUI_VERSION" {
		t.Errorf("Expected #undef")
	}
}

func TestParseIncludeGuard(t *testing.T) {
	src := `#ifndef FOO_H
#define FOO_H
int x;
#endif
`
	file := mustParse(t, src)
	cond := ListAllChildrenOfType[*PreprocessorIf](file)[0]
	if !cond.IsIncludeGuard {
		t.Error("Expected include guard")
	}
	field := ListAllChildrenOfType[*FieldDeclaration](file)[0]
	if len(ParentConditions(field)) != 0 {
		t.Error("Include guards must not count as conditions")
	}
}

func TestParseUnparsableThingWarns(t *testing.T) {
	var warnings bytes.Buffer
	ctx := NewParseContext("test.h", nil)
	ctx.Warnings = &warnings

	file, err := ParseHeaderFile(ctx, lexer.NewTokenStream("friend struct Foo;\nint x;\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	things := ListAllChildrenOfType[*UnparsableThing](file)
	if len(things) != 1 || things[0].String() != "friend struct Foo;" {
		t.Fatalf("Expected one unparsable thing, got %d", len(things))
	}
	if !strings.Contains(warnings.String(), "unparsable") {
		t.Errorf("Expected a warning, got %q", warnings.String())
	}
	if len(ListAllChildrenOfType[*FieldDeclaration](file)) != 1 {
		t.Error("Expected parsing to continue after the unparsable declaration")
	}
}

func TestParseStandaloneMacroLine(t *testing.T) {
	src := `IM_MSVC_RUNTIME_CHECKS_OFF
struct ImVec2
{
    float x;
};
namespace ImGui
{
    IMGUI_API void Begin();
}
IM_MSVC_RUNTIME_CHECKS_RESTORE
`
	file := mustParse(t, src)

	things := ListAllChildrenOfType[*UnparsableThing](file)
	if len(things) != 2 {
		t.Fatalf("Expected 2 unparsable things, got %d", len(things))
	}
	for i, want := range []string{"IM_MSVC_RUNTIME_CHECKS_OFF", "IM_MSVC_RUNTIME_CHECKS_RESTORE"} {
		if got := things[i].String(); got != want {
			t.Errorf("Unparsable thing %d = %q, want %q", i, got, want)
		}
	}
	if len(ListAllChildrenOfType[*ClassStructUnion](file)) != 1 {
		t.Error("Expected ImVec2 to parse as a struct")
	}
	if len(ListAllChildrenOfType[*Namespace](file)) != 1 || len(ListAllChildrenOfType[*FunctionDeclaration](file)) != 1 {
		t.Error("Expected the namespace and its function to parse")
	}
}

func TestParseGuardedExternC(t *testing.T) {
	src := "#ifdef __cplusplus\nextern \"C\"\n{\n#endif\n#ifdef HAS_DOCK\nvoid DockA();\n#endif\nvoid F();\n#ifdef __cplusplus\n} // End of extern \"C\"\n#endif\n"
	file := mustParse(t, src)

	if len(file.Children) != 1 {
		t.Fatalf("Expected one top-level element, got %d", len(file.Children))
	}
	extern, ok := file.Children[0].(*ExternC)
	if !ok {
		t.Fatalf("Expected an ExternC, got %s", file.Children[0].Kind())
	}
	if n := len(ListAllChildrenOfType[*FunctionDeclaration](extern)); n != 2 {
		t.Errorf("Expected 2 functions inside the block, got %d", n)
	}
	if n := len(ListAllChildrenOfType[*UnparsableThing](file)); n != 0 {
		t.Errorf("Expected nothing unparsable, got %d", n)
	}
}

func TestParseLexerErrorFails(t *testing.T) {
	if _, err := ParseString("int a = $;"); err == nil {
		t.Error("Expected an error for invalid input")
	}
}

func TestParseBlankLinesAndComments(t *testing.T) {
	src := "// Header comment\n\n\nint a;\n"
	file := mustParse(t, src)
	if len(file.Children) != 3 {
		t.Fatalf("Expected comment, blank lines, field; got %d children", len(file.Children))
	}
	if _, ok := file.Children[0].(*Comment); !ok {
		t.Errorf("Expected comment first")
	}
	blank, ok := file.Children[1].(*BlankLines)
	if !ok || blank.Count != 2 {
		t.Errorf("Expected two blank lines")
	}
	if got := file.String(); got != strings.TrimSuffix(src, "\n") {
		t.Errorf("Expected round trip, got %q", got)
	}
}
