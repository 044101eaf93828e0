package modifiers

import (
	"cbridge/pkg/dom"
	"cbridge/pkg/lexer"
)

// ForwardDeclareStructs puts a forward declaration of every struct a file
// defines ahead of the first declaration that names one, so the C typedef
// names are usable in any order. Forward declarations of structs without a
// definition stay. Structs already carrying their C tag and typedef are
// recognised and not declared twice.
func ForwardDeclareStructs(root dom.Element) error {
	for _, file := range headerFiles(root) {
		var container dom.Element = file
		if guard := includeGuardOf(file); guard != nil {
			container = guard
		}
		if externs := dom.ListDirectlyContainedChildrenOfType[*dom.ExternC](container); len(externs) == 1 {
			container = externs[0]
		}

		tagged := map[string]*dom.Typedef{}
		for _, td := range dom.ListAllChildrenOfType[*dom.Typedef](file) {
			if td.TypedefType == nil || td.TypedefType.FuncPtr != nil {
				continue
			}
			switch td.TypedefType.String() {
			case "struct " + td.Name + "_t", "union " + td.Name + "_t":
				tagged[td.Name+"_t"] = td
			}
		}

		var stale []dom.Element
		var defined []*dom.ClassStructUnion
		names := map[string]bool{}
		for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](file) {
			if c.IsForwardDeclaration || c.IsAnonymous {
				continue
			}
			if td, ok := tagged[c.Name]; ok {
				c.Name = td.Name
				stale = append(stale, td)
				delete(tagged, td.Name+"_t")
			}
			if names[c.Name] {
				continue
			}
			names[c.Name] = true
			defined = append(defined, c)
		}
		if len(defined) == 0 {
			continue
		}

		for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](file) {
			if c.IsForwardDeclaration && names[c.Name] {
				stale = append(stale, c)
			}
		}
		// a struct left without data members is opaque in C
		opaque := map[*dom.ClassStructUnion]bool{}
		for _, c := range defined {
			if !c.IsByValue && dom.ContainingClass(c) == nil && !hasData(c) {
				opaque[c] = true
				stale = append(stale, c)
			}
		}

		list := dom.ChildLists(container)[0]
		anchor := firstMention(*list, names)
		if anchor < 0 {
			continue
		}
		if err := removeAll(stale); err != nil {
			return err
		}

		decls := make([]dom.Element, 0, len(defined)+1)
		for _, c := range defined {
			decl := &dom.ClassStructUnion{
				StructureType:        c.StructureType,
				Name:                 c.Name,
				IsForwardDeclaration: true,
				IsByValue:            c.IsByValue,
			}
			if opaque[c] {
				for _, comment := range c.PreComments {
					comment.Parent = decl
				}
				decl.PreComments = c.PreComments
				c.PreComments = nil
			}
			decls = append(decls, decl)
		}
		decls = append(decls, &dom.BlankLines{Count: 1})
		if anchor >= len(*list) {
			for _, d := range decls {
				dom.AddChild(container, d)
			}
			continue
		}
		if err := dom.InsertBeforeChild(container, (*list)[anchor], decls...); err != nil {
			return err
		}
	}
	return nil
}

func hasData(c *dom.ClassStructUnion) bool {
	return len(c.BaseClasses) > 0 || len(dom.ListAllChildrenOfType[*dom.FieldDeclaration](c)) > 0
}

// firstMention returns the index of the first element that declares,
// defines or refers to one of names, or -1
func firstMention(list []dom.Element, names map[string]bool) int {
	for i, child := range list {
		for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](child) {
			if names[c.Name] {
				return i
			}
		}
		for _, td := range dom.ListAllChildrenOfType[*dom.Typedef](child) {
			if names[td.Name] {
				return i
			}
		}
		for _, t := range dom.ListAllChildrenOfType[*dom.Type](child) {
			for _, tok := range t.Tokens {
				if tok.Type == lexer.TokenIdentifier && names[tok.Value] {
					return i
				}
			}
		}
	}
	return -1
}

// WrapWithExternC wraps everything after a file's opening comments,
// includes and pragmas in an extern "C" block. An include guard is looked
// through so the block ends up inside it.
func WrapWithExternC(root dom.Element) error {
	for _, file := range headerFiles(root) {
		var container dom.Element = file
		if guard := includeGuardOf(file); guard != nil {
			container = guard
		}

		list := dom.ChildLists(container)[0]
		start := len(*list)
		for i, child := range *list {
			if !isPreamble(child, container) {
				start = i
				break
			}
		}
		if start == len(*list) || len(dom.ListDirectlyContainedChildrenOfType[*dom.ExternC](container)) > 0 {
			continue
		}

		body := append([]dom.Element(nil), (*list)[start:]...)
		extern := &dom.ExternC{}
		for _, child := range body {
			dom.AddChild(extern, child)
		}
		dom.AddChild(container, extern)
	}
	return nil
}

func isPreamble(e, container dom.Element) bool {
	switch v := e.(type) {
	case *dom.Comment, *dom.BlankLines, *dom.Include, *dom.Pragma:
		return true
	case *dom.Define:
		guard, ok := container.(*dom.PreprocessorIf)
		return ok && v.Name == guard.Expression
	}
	return false
}

// includeGuardOf returns the top-level include guard of a file, if any
func includeGuardOf(file *dom.HeaderFile) *dom.PreprocessorIf {
	for _, child := range file.Children {
		if cond, ok := child.(*dom.PreprocessorIf); ok && cond.IsIncludeGuard {
			return cond
		}
	}
	return nil
}

// AddIncludeGuard returns a pass replacing the source's include guard with
// the configured one, or with "#pragma once" when guard is empty
func AddIncludeGuard(guard string) func(dom.Element) error {
	return func(root dom.Element) error {
		for _, file := range headerFiles(root) {
			for _, old := range dom.ListAllChildrenOfType[*dom.PreprocessorIf](file) {
				if !old.IsIncludeGuard {
					continue
				}
				for _, d := range dom.ListDirectlyContainedChildrenOfType[*dom.Define](old) {
					if d.Name == old.Expression {
						if err := dom.Remove(d); err != nil {
							return err
						}
						break
					}
				}
				if err := dom.ReplaceChild(old.Parent, old, old.Children...); err != nil {
					return err
				}
			}

			start := leadingIndex(file, nil)
			if guard == "" {
				once := &dom.Pragma{Text: "#pragma once"}
				if start == len(file.Children) {
					dom.AddChild(file, once)
					continue
				}
				if err := dom.InsertBeforeChild(file, file.Children[start], once, &dom.BlankLines{Count: 1}); err != nil {
					return err
				}
				continue
			}

			wrapper := &dom.PreprocessorIf{Expression: guard, IsIfdef: true, IsNegated: true, IsIncludeGuard: true}
			dom.AddChild(wrapper, &dom.Define{Name: guard})
			dom.AddChild(wrapper, &dom.BlankLines{Count: 1})
			for _, child := range append([]dom.Element(nil), file.Children[start:]...) {
				dom.AddChild(wrapper, child)
			}
			dom.AddChild(file, wrapper)
		}
		return nil
	}
}
