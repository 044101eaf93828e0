package modifiers

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/dom"
)

// FlattenNamespaces returns a pass that dissolves namespaces, prefixing
// the name of every declaration they directly contain. Namespaces without
// a configured prefix use "<Name>_".
func FlattenNamespaces(prefixes map[string]string) func(dom.Element) error {
	return func(root dom.Element) error {
		namespaces := dom.ListAllChildrenOfType[*dom.Namespace](root)
		// innermost first, so inner prefixes end up behind outer ones
		for i := len(namespaces) - 1; i >= 0; i-- {
			ns := namespaces[i]
			prefix, ok := prefixes[ns.Name]
			if !ok && ns.Name != "" {
				prefix = ns.Name + "_"
			}

			for _, child := range dom.ListDirectlyContainedChildren(ns) {
				switch v := child.(type) {
				case *dom.FunctionDeclaration:
					v.Name = prefix + v.Name
				case *dom.FieldDeclaration:
					for j := range v.Declarators {
						v.Declarators[j].Name = prefix + v.Declarators[j].Name
					}
				case *dom.ClassStructUnion, *dom.Enum, *dom.Typedef:
					if ns.Name == "" || dom.NameOf(v) == "" {
						continue
					}
					renameScopedType(root, ns, ns.Name, []string{ns.Name}, v, prefix+dom.NameOf(v))
				}
			}

			if err := dom.ReplaceChild(ns.Parent, ns, ns.Children...); err != nil {
				return errors.Wrapf(err, "flattening namespace %s", ns.Name)
			}
		}
		return nil
	}
}

// renameScopedType renames a type declared inside scope and rewrites every
// reference to it. References inside the scope are qualified first so that
// one qualified-name rewrite catches them all.
func renameScopedType(root, scope dom.Element, scopeName string, scopeQualified []string, decl dom.Element, to string) {
	name := dom.NameOf(decl)
	qualified := append(append([]string(nil), scopeQualified...), name)

	for _, t := range dom.ListAllChildrenOfType[*dom.Type](scope) {
		if t.OriginalNameOverride != "" {
			t.OriginalNameOverride = qualifyWord(t.OriginalNameOverride, name, strings.Join(qualified, "::"))
		}
		t.QualifyTypeName(name, qualified)
	}

	// the scope may already have been renamed itself
	current := []string{scopeName, name}
	setDeclaredName(decl, to)
	renameTypes(root, func(t *dom.Type) bool {
		changed := t.ReplaceQualifiedName(qualified, to)
		if len(qualified) != 2 || qualified[0] != scopeName {
			changed = t.ReplaceQualifiedName(current, to) || changed
		}
		return changed
	})
}

func setDeclaredName(e dom.Element, name string) {
	switch v := e.(type) {
	case *dom.ClassStructUnion:
		v.Name = name
	case *dom.Enum:
		v.Name = name
	case *dom.Typedef:
		v.Name = name
	}
}

// qualifyWord qualifies unqualified occurrences of an identifier in a type
// spelling
func qualifyWord(text, name, qualified string) string {
	re := regexp.MustCompile(`(^|[^\w:])` + regexp.QuoteMeta(name) + `\b`)
	return re.ReplaceAllString(text, "${1}"+qualified)
}

// replaceWord replaces whole-identifier occurrences of from in text
func replaceWord(text, from, to string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `\b`)
	return re.ReplaceAllLiteralString(text, to)
}

// FlattenNestedClasses hoists types declared inside structs to file scope
// as <Outer>_<Inner>, placing them before the outer struct under the same
// conditionals. Anonymous nested structs and unions stay where they are.
func FlattenNestedClasses(root dom.Element) error {
	for {
		changed := false
		for _, outer := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
			if outer.Parent == nil || outer.IsAnonymous || outer.IsForwardDeclaration || dom.ContainingClass(outer) != nil {
				continue
			}
			nested := nestedTypes(outer)
			if len(nested) == 0 {
				continue
			}

			outerQualified := strings.Split(dom.OriginalFullyQualifiedName(outer), "::")
			r := newRehomer(outer, true)
			for _, n := range nested {
				origName := dom.OriginalFullyQualifiedName(n)
				renameScopedType(root, outer, outer.Name, outerQualified, n, outer.Name+"_"+dom.NameOf(n))
				n.Node().OriginalNameOverride = origName
				if err := r.place(n, outer); err != nil {
					return errors.Wrapf(err, "hoisting %s out of %s", origName, outer.Name)
				}
			}
			changed = true
		}
		if !changed {
			return nil
		}
	}
}

// nestedTypes returns the named types declared directly inside a class
func nestedTypes(c *dom.ClassStructUnion) []dom.Element {
	var out []dom.Element
	for _, child := range dom.ListDirectlyContainedChildren(c) {
		switch v := child.(type) {
		case *dom.ClassStructUnion:
			if !v.IsAnonymous {
				out = append(out, v)
			}
		case *dom.Enum:
			if v.Name != "" {
				out = append(out, v)
			}
		case *dom.Typedef:
			out = append(out, v)
		}
	}
	return out
}

// FlattenClassFunctions turns classes into plain structs and moves every
// public method to file scope as <Struct>_<Method>. Instance methods get an
// explicit self pointer; constructors return the new object and
// destructors become <Struct>_destroy.
func FlattenClassFunctions(root dom.Element) error {
	for _, class := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
		if class.Parent == nil || class.IsForwardDeclaration || class.IsAnonymous {
			continue
		}
		if class.StructureType == "class" {
			class.StructureType = "struct"
		}

		r := newRehomer(class, false)
		for _, fn := range dom.ListDirectlyContainedChildrenOfType[*dom.FunctionDeclaration](class) {
			if fn.Accessibility == dom.AccessPrivate || fn.Accessibility == dom.AccessProtected || fn.IsDeleted {
				if err := dom.Remove(fn); err != nil {
					return err
				}
				continue
			}
			if fn.IsDestructor && class.IsByValue {
				return errors.Errorf("by-value struct %s has a destructor", class.Name)
			}
			lowerMethod(class, fn)
			if err := r.place(fn, class); err != nil {
				return errors.Wrapf(err, "moving %s out of %s", fn.Name, class.Name)
			}
		}
	}
	return nil
}

// lowerMethod rewrites a method into its file scope form
func lowerMethod(class *dom.ClassStructUnion, fn *dom.FunctionDeclaration) {
	cppName := dom.OriginalFullyQualifiedName(class)
	fn.OriginalClass = class

	switch {
	case fn.IsConstructor:
		fn.Name = class.Name + "_" + leafName(cppName)
		if class.IsByValue {
			fn.SetReturnType(typeWithOriginal(class.Name, cppName))
		} else {
			fn.SetReturnType(typeWithOriginal(class.Name+"*", cppName+"*"))
		}
	case fn.IsDestructor:
		fn.Name = class.Name + "_destroy"
		fn.SetReturnType(dom.MustType("void"))
	default:
		fn.Name = class.Name + "_" + fn.Name
	}

	if !fn.IsStatic && !fn.IsConstructor {
		selfType := typeWithOriginal(class.Name+"*", cppName+"*")
		if fn.IsConst {
			selfType = typeWithOriginal("const "+class.Name+"*", "const "+cppName+"*")
		}
		self := &dom.FunctionArgument{Name: "self", IsInstancePointer: true}
		self.SetType(selfType)
		fn.InsertArgument(0, self)
	}

	fn.IsVirtual = false
	fn.IsOverride = false
	fn.IsPureVirtual = false
	fn.IsInline = false
	fn.IsExplicit = false
	fn.IsConstexpr = false
	fn.IsDefaulted = false
	fn.TrailingMacros = nil
	fn.Body = nil
	fn.Accessibility = ""
}

// leafName strips scopes and template arguments from a C++ class name, so
// "ImGuiStorage::ImGuiStoragePair" and "ImVector<int>" give the name the
// class's constructors carry
func leafName(cppName string) string {
	if i := strings.Index(cppName, "<"); i >= 0 {
		cppName = cppName[:i]
	}
	if i := strings.LastIndex(cppName, "::"); i >= 0 {
		cppName = cppName[i+2:]
	}
	return cppName
}

// typeWithOriginal builds a type that remembers a different C++ spelling
func typeWithOriginal(text, original string) *dom.Type {
	t := dom.MustType(text)
	if original != text {
		t.OriginalNameOverride = original
	}
	return t
}
