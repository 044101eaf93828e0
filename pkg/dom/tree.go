package dom

import (
	"github.com/pkg/errors"
)

// AddChild appends child to the default child list of parent, detaching it
// from any previous parent first.
func AddChild(parent, child Element) {
	detach(child)
	child.Node().Parent = parent
	b := parent.Node()
	b.Children = append(b.Children, child)
}

// AddChildren appends several children in order
func AddChildren(parent Element, children ...Element) {
	for _, child := range children {
		AddChild(parent, child)
	}
}

// detach removes an element from its parent without reporting errors
func detach(e Element) {
	parent := e.Node().Parent
	if parent == nil {
		return
	}
	_ = RemoveChild(parent, e)
}

// RemoveChild removes child from whichever list of parent holds it. It is
// an error if parent does not own child.
func RemoveChild(parent, child Element) error {
	for _, list := range parent.childLists() {
		for i, c := range *list {
			if c == child {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				child.Node().Parent = nil
				return nil
			}
		}
	}
	b := parent.Node()
	for i, c := range b.PreComments {
		if Element(c) == child {
			b.PreComments = append(b.PreComments[:i:i], b.PreComments[i+1:]...)
			child.Node().Parent = nil
			return nil
		}
	}
	if b.AttachedComment != nil && Element(b.AttachedComment) == child {
		b.AttachedComment = nil
		child.Node().Parent = nil
		return nil
	}
	return errors.Errorf("%s %q is not a child of %s %q", child.Kind(), NameOf(child), parent.Kind(), NameOf(parent))
}

// Remove detaches e from its parent
func Remove(e Element) error {
	parent := e.Node().Parent
	if parent == nil {
		return errors.Errorf("%s %q has no parent", e.Kind(), NameOf(e))
	}
	return RemoveChild(parent, e)
}

// locate finds the list of parent holding child
func locate(parent, child Element) (*[]Element, int, error) {
	for _, list := range parent.childLists() {
		for i, c := range *list {
			if c == child {
				return list, i, nil
			}
		}
	}
	return nil, -1, errors.Errorf("%s %q is not a child of %s %q", child.Kind(), NameOf(child), parent.Kind(), NameOf(parent))
}

// splice replaces n elements at index with the given ones
func splice(list *[]Element, index, n int, parent Element, elements []Element) {
	for _, e := range elements {
		e.Node().Parent = parent
	}
	out := make([]Element, 0, len(*list)-n+len(elements))
	out = append(out, (*list)[:index]...)
	out = append(out, elements...)
	out = append(out, (*list)[index+n:]...)
	*list = out
}

func detachAll(elements []Element) {
	for _, e := range elements {
		detach(e)
	}
}

// ReplaceChild replaces old with the given elements, in order
func ReplaceChild(parent, old Element, replacements ...Element) error {
	detachAll(replacements)
	list, index, err := locate(parent, old)
	if err != nil {
		return err
	}
	splice(list, index, 1, parent, replacements)
	old.Node().Parent = nil
	return nil
}

// InsertBeforeChild inserts elements immediately before ref
func InsertBeforeChild(parent, ref Element, elements ...Element) error {
	detachAll(elements)
	list, index, err := locate(parent, ref)
	if err != nil {
		return err
	}
	splice(list, index, 0, parent, elements)
	return nil
}

// InsertAfterChild inserts elements immediately after ref
func InsertAfterChild(parent, ref Element, elements ...Element) error {
	detachAll(elements)
	list, index, err := locate(parent, ref)
	if err != nil {
		return err
	}
	splice(list, index+1, 0, parent, elements)
	return nil
}

// Walk visits e and everything it owns in pre-order: pre-comments, typed
// children, every child list (else branches included), then the attached
// comment. The shadow link is never followed.
func Walk(e Element, fn func(Element)) {
	fn(e)
	b := e.Node()
	for _, c := range b.PreComments {
		Walk(c, fn)
	}
	for _, owned := range e.ownedElements() {
		Walk(owned, fn)
	}
	for _, list := range e.childLists() {
		// copy so fn may restructure the tree
		for _, child := range append([]Element(nil), *list...) {
			Walk(child, fn)
		}
	}
	if b.AttachedComment != nil {
		Walk(b.AttachedComment, fn)
	}
}

// ListAllChildrenOfType returns every element of type T below (and
// including) e, in walk order.
func ListAllChildrenOfType[T Element](e Element) []T {
	var out []T
	Walk(e, func(x Element) {
		if t, ok := x.(T); ok {
			out = append(out, t)
		}
	})
	return out
}

// AllChildren returns the concatenation of all child lists of e
func AllChildren(e Element) []Element {
	var out []Element
	for _, list := range e.childLists() {
		out = append(out, *list...)
	}
	return out
}

// PrevChild returns the element before e across all child lists of its
// parent, or nil.
func PrevChild(e Element) Element {
	parent := e.Node().Parent
	if parent == nil {
		return nil
	}
	siblings := AllChildren(parent)
	for i, s := range siblings {
		if s == e && i > 0 {
			return siblings[i-1]
		}
	}
	return nil
}

// NextChild returns the element after e across all child lists of its
// parent, or nil.
func NextChild(e Element) Element {
	parent := e.Node().Parent
	if parent == nil {
		return nil
	}
	siblings := AllChildren(parent)
	for i, s := range siblings {
		if s == e && i+1 < len(siblings) {
			return siblings[i+1]
		}
	}
	return nil
}

// ListDirectlyContainedChildren returns the children of e, looking through
// preprocessor conditionals (both branches) but not into nested scopes.
func ListDirectlyContainedChildren(e Element) []Element {
	var out []Element
	for _, list := range e.childLists() {
		for _, child := range *list {
			if cond, ok := child.(*PreprocessorIf); ok {
				out = append(out, ListDirectlyContainedChildren(cond)...)
				continue
			}
			out = append(out, child)
		}
	}
	return out
}

// ListDirectlyContainedChildrenOfType filters ListDirectlyContainedChildren
func ListDirectlyContainedChildrenOfType[T Element](e Element) []T {
	var out []T
	for _, child := range ListDirectlyContainedChildren(e) {
		if t, ok := child.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// ChildLists exposes the mutable child lists of e (the default list first,
// then the else branch of conditionals).
func ChildLists(e Element) []*[]Element {
	return e.childLists()
}

// Root returns the top-most ancestor of e
func Root(e Element) Element {
	for e.Node().Parent != nil {
		e = e.Node().Parent
	}
	return e
}
