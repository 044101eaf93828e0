package modifiers

import (
	"cbridge/pkg/dom"
	"cbridge/pkg/lexer"
)

// RemovePragmaOnce drops "#pragma once"
func RemovePragmaOnce(root dom.Element) error {
	var found []*dom.Pragma
	for _, p := range dom.ListAllChildrenOfType[*dom.Pragma](root) {
		if p.IsOnce() {
			found = append(found, p)
		}
	}
	return removeAll(found)
}

// RemoveFunctionBodies strips inline bodies, keeping the declarations
func RemoveFunctionBodies(root dom.Element) error {
	for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
		fn.Body = nil
	}
	return nil
}

// RemoveStandaloneMacros drops macro invocations written alone on a line,
// such as IM_MSVC_RUNTIME_CHECKS_OFF. They expand to nothing usable in C.
func RemoveStandaloneMacros(root dom.Element) error {
	var found []*dom.UnparsableThing
	for _, u := range dom.ListAllChildrenOfType[*dom.UnparsableThing](root) {
		if len(u.Tokens) == 1 && u.Tokens[0].Type == lexer.TokenIdentifier {
			found = append(found, u)
		}
	}
	return removeAll(found)
}

// RemoveOperators drops every operator function, conversion operators
// included
func RemoveOperators(root dom.Element) error {
	var found []*dom.FunctionDeclaration
	for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
		if fn.IsOperator {
			found = append(found, fn)
		}
	}
	return removeAll(found)
}

// RemoveExcludedDeclarations returns a pass dropping functions and structs
// by name. Names may be plain or qualified ("ImGui::ShowDemoWindow").
func RemoveExcludedDeclarations(functions, structs []string) func(dom.Element) error {
	return func(root dom.Element) error {
		var found []dom.Element
		for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
			if contains(functions, fn.Name) || contains(functions, dom.FullyQualifiedName(fn)) {
				found = append(found, fn)
			}
		}
		for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
			if c.IsAnonymous {
				continue
			}
			if contains(structs, c.Name) || contains(structs, dom.FullyQualifiedName(c)) {
				found = append(found, c)
			}
		}
		for _, e := range found {
			// a struct may already have gone with an excluded parent
			if e.Node().Parent == nil {
				continue
			}
			if err := dom.Remove(e); err != nil {
				return err
			}
		}
		return nil
	}
}

// RemoveStaticFields drops static data members, which have no C
// equivalent inside a struct
func RemoveStaticFields(root dom.Element) error {
	var found []*dom.FieldDeclaration
	for _, f := range dom.ListAllChildrenOfType[*dom.FieldDeclaration](root) {
		if f.IsStatic && dom.ContainingClass(f) != nil {
			found = append(found, f)
		}
	}
	return removeAll(found)
}

// RemoveEnumForwardDeclarations drops enum forward declarations whose enum
// is defined in the same tree
func RemoveEnumForwardDeclarations(root dom.Element) error {
	defined := map[string]bool{}
	enums := dom.ListAllChildrenOfType[*dom.Enum](root)
	for _, e := range enums {
		if !e.IsForwardDeclaration && e.Name != "" {
			defined[e.Name] = true
		}
	}
	var found []*dom.Enum
	for _, e := range enums {
		if e.IsForwardDeclaration && defined[e.Name] {
			found = append(found, e)
		}
	}
	return removeAll(found)
}

// RemoveIncludes returns a pass dropping every #include not in kept
func RemoveIncludes(kept []string) func(dom.Element) error {
	return func(root dom.Element) error {
		var found []*dom.Include
		for _, inc := range dom.ListAllChildrenOfType[*dom.Include](root) {
			if !contains(kept, inc.IncludedFile()) {
				found = append(found, inc)
			}
		}
		return removeAll(found)
	}
}

func isEmptyList(list []dom.Element) bool {
	for _, e := range list {
		switch e.(type) {
		case *dom.Comment, *dom.BlankLines:
			continue
		}
		return false
	}
	return true
}

// RemoveEmptyConditionals drops conditionals left with nothing but comments
// and blank lines, removes empty else branches, and inverts conditionals
// whose only content is in the else branch.
func RemoveEmptyConditionals(root dom.Element) error {
	for changed := true; changed; {
		changed = false
		conds := dom.ListAllChildrenOfType[*dom.PreprocessorIf](root)
		// innermost first
		for i := len(conds) - 1; i >= 0; i-- {
			c := conds[i]
			if c.Parent == nil || c.IsIncludeGuard {
				continue
			}
			bodyEmpty := isEmptyList(c.Children)
			elseEmpty := isEmptyList(c.ElseChildren)
			switch {
			case bodyEmpty && elseEmpty:
				if err := dom.Remove(c); err != nil {
					return err
				}
				changed = true
			case c.ElseChildren != nil && elseEmpty:
				c.ElseChildren = nil
				changed = true
			case bodyEmpty:
				invertConditional(c)
				changed = true
			}
		}
	}
	return nil
}

// invertConditional turns "#if X / #else / body" into "#if !X / body"
func invertConditional(c *dom.PreprocessorIf) {
	elseChildren := c.ElseChildren
	c.Children = nil
	c.ElseChildren = nil
	c.IsNegated = !c.IsNegated
	for _, child := range elseChildren {
		child.Node().Parent = nil
		if nested, ok := child.(*dom.PreprocessorIf); ok {
			nested.IsElif = false
		}
		dom.AddChild(c, child)
	}
}

// MergeBlankLines collapses runs of blank lines and trims them from the
// start and end of every scope
func MergeBlankLines(root dom.Element) error {
	var lists []*[]dom.Element
	dom.Walk(root, func(e dom.Element) {
		lists = append(lists, dom.ChildLists(e)...)
	})
	for _, list := range lists {
		var out []dom.Element
		for _, child := range *list {
			blank, ok := child.(*dom.BlankLines)
			if !ok {
				out = append(out, child)
				continue
			}
			if len(out) == 0 {
				blank.Parent = nil
				continue
			}
			if prev, ok := out[len(out)-1].(*dom.BlankLines); ok {
				if blank.Count > prev.Count {
					prev.Count = blank.Count
				}
				blank.Parent = nil
				continue
			}
			out = append(out, child)
		}
		for len(out) > 0 {
			last, ok := out[len(out)-1].(*dom.BlankLines)
			if !ok {
				break
			}
			last.Parent = nil
			out = out[:len(out)-1]
		}
		if *list != nil {
			if out == nil {
				out = []dom.Element{}
			}
			*list = out
		}
	}
	return nil
}
