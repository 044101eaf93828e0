package dom

import (
	"strings"
	"testing"
)

const treeSource = `struct ImGuiStyle
{
    float Alpha;      // Global alpha
    float WindowRounding;
    void ScaleAllSizes(float scale_factor);
};

#ifdef IMGUI_HAS_DOCK
void DockSpace(int id);
#else
void NoDock();
#endif
`

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	file := mustParse(t, treeSource)
	before := file.String()

	c, err := Clone(file)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if c.String() != before {
		t.Fatalf("Clone renders differently:\n%s\n---\n%s", c.String(), before)
	}

	// mutate the clone
	clonedStruct := ListAllChildrenOfType[*ClassStructUnion](c)[0]
	clonedStruct.Name = "Renamed"
	clonedFn := ListAllChildrenOfType[*FunctionDeclaration](c)[0]
	clonedFn.Arguments[0].ArgType.ReplaceTypeName("float", "double")

	if file.String() != before {
		t.Errorf("Mutating a clone changed the original")
	}
	if c.Node().Parent != nil {
		t.Errorf("Clone must not have a parent")
	}
	for _, child := range c.Node().Children {
		if child.Node().Parent != c {
			t.Errorf("Cloned child %s has the wrong parent", child.Kind())
		}
	}
}

func TestCloneWithoutChildren(t *testing.T) {
	file := mustParse(t, treeSource)
	cond := ListAllChildrenOfType[*PreprocessorIf](file)[0]

	c, err := CloneWithoutChildren(cond)
	if err != nil {
		t.Fatalf("CloneWithoutChildren failed: %v", err)
	}
	cc := c.(*PreprocessorIf)
	if len(cc.Children) != 0 || len(cc.ElseChildren) != 0 {
		t.Errorf("Expected empty child lists")
	}
	if cc.ElseChildren == nil {
		t.Errorf("Expected the else branch to be kept (empty)")
	}
	if cc.Expression != "IMGUI_HAS_DOCK" || !cc.IsIfdef {
		t.Errorf("Expected condition to be copied")
	}
}

func TestSaveUnmodifiedClones(t *testing.T) {
	file := mustParse(t, treeSource)
	if err := SaveUnmodifiedClones(file); err != nil {
		t.Fatalf("SaveUnmodifiedClones failed: %v", err)
	}

	fn := ListAllChildrenOfType[*FunctionDeclaration](file)[0]
	if fn.Unmodified == nil {
		t.Fatal("Expected shadow link")
	}
	fn.Name = "ImGuiStyle_ScaleAllSizes"
	if NameOf(fn.Unmodified) != "ScaleAllSizes" {
		t.Errorf("Shadow must keep the original name, got %q", NameOf(fn.Unmodified))
	}
	if got := OriginalFullyQualifiedName(fn); got != "ImGuiStyle::ScaleAllSizes" {
		t.Errorf("Unexpected original name %q", got)
	}

	// clones share the shadow links by position
	c, err := Clone(fn)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if c.Node().Unmodified != fn.Unmodified {
		t.Errorf("Expected clone to share the shadow link")
	}
	if c.(*FunctionDeclaration).Arguments[0].Unmodified != fn.Arguments[0].Unmodified {
		t.Errorf("Expected argument shadow links to be relinked")
	}

	// the shadow is not part of the walk
	count := 0
	Walk(file, func(e Element) {
		if e == fn.Unmodified {
			t.Errorf("Walk visited the shadow tree")
		}
		count++
	})
	if count == 0 {
		t.Error("Expected walk to visit elements")
	}
}

func TestTreeOperations(t *testing.T) {
	file := mustParse(t, treeSource)
	s := ListAllChildrenOfType[*ClassStructUnion](file)[0]
	fields := ListAllChildrenOfType[*FieldDeclaration](s)
	alpha, rounding := fields[0], fields[1]

	if NextChild(alpha) != Element(rounding) || PrevChild(rounding) != Element(alpha) {
		t.Errorf("Unexpected sibling navigation")
	}

	extra := mustParse(t, "int Extra;").Children[0]
	if err := InsertBeforeChild(s, rounding, extra); err != nil {
		t.Fatalf("InsertBeforeChild failed: %v", err)
	}
	if NextChild(alpha) != extra || extra.Node().Parent != Element(s) {
		t.Errorf("Expected inserted element between the fields")
	}

	// moving an element detaches it from its previous parent
	AddChild(file, extra)
	if NextChild(alpha) != Element(rounding) {
		t.Errorf("Expected element to be detached from the struct")
	}
	if file.Children[len(file.Children)-1] != extra {
		t.Errorf("Expected element at the end of the file")
	}

	if err := RemoveChild(s, extra); err == nil {
		t.Errorf("Expected error removing a non-child")
	}
	if err := ReplaceChild(file, extra, &BlankLines{Count: 1}); err != nil {
		t.Fatalf("ReplaceChild failed: %v", err)
	}
	if extra.Node().Parent != nil {
		t.Errorf("Replaced element must be detached")
	}
}

func TestMutuallyExclusive(t *testing.T) {
	file := mustParse(t, treeSource)
	fns := ListAllChildrenOfType[*FunctionDeclaration](file)
	dock, noDock := fns[1], fns[2]
	if !MutuallyExclusive(dock, noDock) {
		t.Errorf("Expected functions in opposite branches to be exclusive")
	}
	if MutuallyExclusive(fns[0], dock) {
		t.Errorf("Expected unconditional function not to be exclusive")
	}
	if !IsInElseBranch(noDock) || IsInElseBranch(dock) {
		t.Errorf("Unexpected else-branch detection")
	}
}

func TestListDirectlyContainedChildren(t *testing.T) {
	file := mustParse(t, treeSource)
	fns := ListDirectlyContainedChildrenOfType[*FunctionDeclaration](file)
	// the method lives in a nested scope
	if len(fns) != 2 {
		t.Errorf("Expected 2 directly contained functions, got %d", len(fns))
	}
}

func TestCWriterForms(t *testing.T) {
	src := `struct ImVec2 { float x, y; };
enum ImGuiDir_ { ImGuiDir_Left = 0, ImGuiDir_Right = 1 };
void Foo();
`
	file := mustParse(t, src)
	w := NewCodeWriter()
	WriteElement(file, w, WriteContext{ForC: true, IncludeComments: true})
	out := w.String()

	for _, want := range []string{
		"struct ImVec2_t\n{\n    float x, y;\n};",
		"typedef enum\n{\n    ImGuiDir_Left = 0,\n    ImGuiDir_Right = 1,\n} ImGuiDir_;",
		"void Foo(void);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
