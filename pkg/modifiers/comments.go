package modifiers

import (
	"strings"

	"cbridge/pkg/dom"
)

// internalMarker starts the internal section of a struct or file
const internalMarker = "[Internal]"

// AttachPrecedingComments moves runs of standalone comments that sit directly
// above a declaration (no blank line between) into its PreComments.
func AttachPrecedingComments(root dom.Element) error {
	var lists []*[]dom.Element
	dom.Walk(root, func(e dom.Element) {
		lists = append(lists, dom.ChildLists(e)...)
	})

	for _, list := range lists {
		var run []*dom.Comment
		for _, child := range append([]dom.Element(nil), *list...) {
			if c, ok := child.(*dom.Comment); ok && !c.IsAttached {
				run = append(run, c)
				continue
			}
			if len(run) > 0 && isDeclaration(child) {
				for _, c := range run {
					if err := dom.Remove(c); err != nil {
						return err
					}
					c.Parent = child
					c.IsPreceding = true
					c.NoDefaultAdd = true
					child.Node().PreComments = append(child.Node().PreComments, c)
				}
			}
			run = nil
		}
	}
	return nil
}

func isInternalMarker(c *dom.Comment) bool {
	return strings.HasPrefix(c.Content(), internalMarker)
}

func hasInternalMarker(e dom.Element) bool {
	if c, ok := e.(*dom.Comment); ok && isInternalMarker(c) {
		return true
	}
	for _, c := range e.Node().PreComments {
		if isInternalMarker(c) {
			return true
		}
	}
	return false
}

// followsInternalMarker reports whether e comes after an "[Internal]"
// comment in its parent (looking through conditionals).
func followsInternalMarker(e dom.Element) bool {
	parent := e.Node().Parent
	for parent != nil {
		if _, ok := parent.(*dom.PreprocessorIf); !ok {
			break
		}
		e, parent = parent, parent.Node().Parent
	}
	if parent == nil {
		return false
	}
	for _, sibling := range dom.ListDirectlyContainedChildren(parent) {
		if hasInternalMarker(sibling) {
			return true
		}
		if sibling == e || isAncestor(e, sibling) {
			return false
		}
	}
	return false
}

func isAncestor(ancestor, e dom.Element) bool {
	for p := e.Node().Parent; p != nil; p = p.Node().Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// MarkInternalMembers flags everything that follows a "// [Internal]"
// comment in the same scope. Flattened functions are judged by their
// position before flattening.
func MarkInternalMembers(root dom.Element) error {
	dom.Walk(root, func(e dom.Element) {
		switch e.(type) {
		case *dom.FunctionDeclaration, *dom.FieldDeclaration, *dom.ClassStructUnion,
			*dom.Enum, *dom.EnumElement, *dom.Typedef:
		default:
			return
		}
		if e.Node().IsInternal {
			return
		}
		if hasInternalMarker(e) || followsInternalMarker(e) {
			e.Node().IsInternal = true
			return
		}
		if orig := e.Node().Unmodified; orig != nil && (hasInternalMarker(orig) || followsInternalMarker(orig)) {
			e.Node().IsInternal = true
		}
	})
	return nil
}
