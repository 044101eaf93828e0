// Package modifiers holds the tree-rewrite passes that lower a parsed C++
// header to C. Passes run once each, in the order returned by Pipeline;
// later passes rely on the work of earlier ones.
package modifiers

import (
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// Pass is a single named tree rewrite
type Pass struct {
	Name  string
	Apply func(root dom.Element) error
}

// Pipeline returns the passes for a configuration, in execution order
func Pipeline(cfg *config.Config) []Pass {
	return []Pass{
		{"AttachPrecedingComments", AttachPrecedingComments},
		{"RemovePragmaOnce", RemovePragmaOnce},
		{"RemoveFunctionBodies", RemoveFunctionBodies},
		{"RemoveStandaloneMacros", RemoveStandaloneMacros},
		{"MarkByValueStructs", MarkByValueStructs(cfg.ByValueStructs)},
		{"RemoveOperators", RemoveOperators},
		{"RemoveExcludedDeclarations", RemoveExcludedDeclarations(cfg.ExcludedFunctions, cfg.ExcludedStructs)},
		{"ConvertReferencesToPointers", ConvertReferencesToPointers},
		{"FlattenNamespaces", FlattenNamespaces(cfg.NamespacePrefixes)},
		{"FlattenNestedClasses", FlattenNestedClasses},
		{"FlattenTemplates", FlattenTemplates},
		{"FlattenClassFunctions", FlattenClassFunctions},
		{"RemoveStaticFields", RemoveStaticFields},
		{"GenerateStringViewHelpers", GenerateStringViewHelpers(cfg.StringView)},
		{"RemoveEnumForwardDeclarations", RemoveEnumForwardDeclarations},
		{"DisambiguateFunctions", DisambiguateFunctions(cfg.Disambiguation)},
		{"GenerateDefaultArgumentFunctions", GenerateDefaultArgumentFunctions(cfg.DefaultArgs)},
		{"MarkInternalMembers", MarkInternalMembers},
		{"ExcludeDefinesFromMetadata", ExcludeDefinesFromMetadata(cfg.MetadataExcludedDefines)},
		{"RemoveIncludes", RemoveIncludes(cfg.KeptIncludes)},
		{"AddPrefixToLooseFunctions", AddPrefixToLooseFunctions(cfg.LooseFunctionPrefix)},
		{"AddManualHelpers", AddManualHelpers(cfg.ManualHelpers)},
		{"ApplyAPIMacro", ApplyAPIMacro(cfg.CAPIMacro)},
		{"RenameDefines", RenameDefines(cfg.DefineRenames)},
		{"ForwardDeclareStructs", ForwardDeclareStructs},
		{"WrapWithExternC", WrapWithExternC},
		{"AddIncludeGuard", AddIncludeGuard(cfg.IncludeGuard)},
		{"RemoveEmptyConditionals", RemoveEmptyConditionals},
		{"MergeBlankLines", MergeBlankLines},
		{"AlignEnumValues", AlignEnumValues},
		{"AlignFunctionNames", AlignFunctionNames},
		{"AlignStructureFieldNames", AlignStructureFieldNames},
		{"AlignComments", AlignComments},
	}
}

// Run applies each pass once, in order, stopping at the first error
func Run(root dom.Element, passes []Pass) error {
	for _, pass := range passes {
		if err := pass.Apply(root); err != nil {
			return errors.Wrapf(err, "modifier %s", pass.Name)
		}
	}
	return nil
}

// removeAll detaches every element, stopping at the first failure
func removeAll[T dom.Element](elements []T) error {
	for _, e := range elements {
		if err := dom.Remove(e); err != nil {
			return err
		}
	}
	return nil
}

// renameTypes applies fn to every type under root. A type that changes
// keeps its previous C++ spelling as its original name, so the
// implementation file can still refer to the C++ type.
func renameTypes(root dom.Element, fn func(t *dom.Type) bool) {
	for _, t := range dom.ListAllChildrenOfType[*dom.Type](root) {
		before := t.OriginalString()
		if fn(t) && t.OriginalNameOverride == "" {
			t.OriginalNameOverride = before
		}
	}
}

// headerFiles returns the files below root (root itself if it is one)
func headerFiles(root dom.Element) []*dom.HeaderFile {
	return dom.ListAllChildrenOfType[*dom.HeaderFile](root)
}

// leadingIndex returns the index of the first child of a file that is not
// part of its opening comment block.
func leadingIndex(file *dom.HeaderFile, alsoSkip func(dom.Element) bool) int {
	for i, child := range file.Children {
		switch child.(type) {
		case *dom.Comment, *dom.BlankLines:
			continue
		}
		if alsoSkip != nil && alsoSkip(child) {
			continue
		}
		return i
	}
	return len(file.Children)
}

// isDeclaration reports whether comments may be attached to e
func isDeclaration(e dom.Element) bool {
	switch e.(type) {
	case *dom.FunctionDeclaration, *dom.FieldDeclaration, *dom.ClassStructUnion, *dom.Enum,
		*dom.EnumElement, *dom.Typedef, *dom.Define, *dom.Template, *dom.Namespace:
		return true
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// conditionalsBetween returns the conditionals enclosing e up to (not
// including) container, outermost first.
func conditionalsBetween(e, container dom.Element) []dom.ConditionalContext {
	var out []dom.ConditionalContext
	for cur := e; cur.Node().Parent != nil && cur.Node().Parent != container; cur = cur.Node().Parent {
		if cond, ok := cur.Node().Parent.(*dom.PreprocessorIf); ok {
			out = append([]dom.ConditionalContext{{If: cond, InElse: dom.IsInElseBranch(cur)}}, out...)
		}
	}
	return out
}

// rehomer moves elements out of a scope to sit next to it, wrapping each
// in copies of the conditionals it was nested in inside the scope.
// Consecutive elements from the same conditional share one wrapper.
type rehomer struct {
	parent dom.Element
	anchor dom.Element
	before bool // insert before anchor instead of after it

	lastChain []dom.ConditionalContext
	lastInner *dom.PreprocessorIf
}

func newRehomer(scope dom.Element, before bool) *rehomer {
	return &rehomer{parent: scope.Node().Parent, anchor: scope, before: before}
}

func sameChain(a, b []dom.ConditionalContext) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func addToBranch(cond *dom.PreprocessorIf, inElse bool, e dom.Element) {
	if inElse {
		cond.AddElseChild(e)
		return
	}
	dom.AddChild(cond, e)
}

// place moves e (currently somewhere inside container) next to the anchor
func (r *rehomer) place(e, container dom.Element) error {
	chain := conditionalsBetween(e, container)
	if err := dom.Remove(e); err != nil {
		return err
	}
	if sameChain(chain, r.lastChain) {
		addToBranch(r.lastInner, chain[len(chain)-1].InElse, e)
		return nil
	}

	top := e
	var inner *dom.PreprocessorIf
	for i := len(chain) - 1; i >= 0; i-- {
		c, err := dom.CloneWithoutChildren(chain[i].If)
		if err != nil {
			return err
		}
		wrapper := c.(*dom.PreprocessorIf)
		addToBranch(wrapper, chain[i].InElse, top)
		if inner == nil {
			inner = wrapper
		}
		top = wrapper
	}

	var err error
	if r.before {
		err = dom.InsertBeforeChild(r.parent, r.anchor, top)
		r.before = false
	} else {
		err = dom.InsertAfterChild(r.parent, r.anchor, top)
	}
	if err != nil {
		return err
	}
	r.anchor = top
	r.lastChain = chain
	r.lastInner = inner
	return nil
}
