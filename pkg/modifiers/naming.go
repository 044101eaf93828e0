package modifiers

import (
	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// MarkByValueStructs returns a pass flagging the named structs as passed
// by value in the C API
func MarkByValueStructs(names []string) func(dom.Element) error {
	return func(root dom.Element) error {
		for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
			if !c.IsAnonymous && contains(names, c.Name) {
				c.IsByValue = true
			}
		}
		return nil
	}
}

// ExcludeDefinesFromMetadata returns a pass hiding matching #defines from
// the metadata output
func ExcludeDefinesFromMetadata(patterns []string) func(dom.Element) error {
	return func(root dom.Element) error {
		for _, d := range dom.ListAllChildrenOfType[*dom.Define](root) {
			if config.MatchesDefine(patterns, d.Name) {
				d.ExcludeFromMetadata = true
			}
		}
		return nil
	}
}

// AddPrefixToLooseFunctions returns a pass prefixing functions that were
// neither methods nor namespace members, keeping them apart from the C++
// functions of the same name.
func AddPrefixToLooseFunctions(prefix string) func(dom.Element) error {
	return func(root dom.Element) error {
		if prefix == "" {
			return nil
		}
		for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
			if fn.OriginalClass != nil || dom.ContainingScope(fn) != nil {
				continue
			}
			if dom.ContainingScope(dom.Original(fn)) != nil {
				continue
			}
			fn.Name = prefix + fn.Name
		}
		return nil
	}
}

// ApplyAPIMacro returns a pass putting the C export macro on every file
// scope function and dropping export macros from structs and fields
func ApplyAPIMacro(macro string) func(dom.Element) error {
	return func(root dom.Element) error {
		dom.Walk(root, func(e dom.Element) {
			switch v := e.(type) {
			case *dom.FunctionDeclaration:
				if dom.ContainingClass(v) == nil {
					v.APIMacro = macro
				}
			case *dom.ClassStructUnion:
				v.APIMacro = ""
			case *dom.FieldDeclaration:
				v.APIMacro = ""
			}
		})
		return nil
	}
}

// RenameDefines returns a pass renaming macros in #define, #undef and
// #ifdef/#ifndef directives
func RenameDefines(renames map[string]string) func(dom.Element) error {
	return func(root dom.Element) error {
		if len(renames) == 0 {
			return nil
		}
		dom.Walk(root, func(e dom.Element) {
			switch v := e.(type) {
			case *dom.Define:
				if to, ok := renames[v.Name]; ok {
					v.Name = to
				}
			case *dom.Undef:
				if to, ok := renames[v.Name]; ok {
					v.Name = to
				}
			case *dom.PreprocessorIf:
				if to, ok := renames[v.Expression]; ok && v.IsIfdef {
					v.Expression = to
				}
			}
		})
		return nil
	}
}
