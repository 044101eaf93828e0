package dom

import (
	"strings"
)

// Condition kinds as reported in metadata
const (
	ConditionIfdef  = "ifdef"
	ConditionIfndef = "ifndef"
	ConditionIf     = "if"
	ConditionIfNot  = "ifnot"
)

// Condition is one level of preprocessor nesting
type Condition struct {
	Kind       string
	Expression string
}

// Directive returns the line that opens a block with this condition
func (c Condition) Directive() string {
	switch c.Kind {
	case ConditionIfdef:
		return "#ifdef " + c.Expression
	case ConditionIfndef:
		return "#ifndef " + c.Expression
	case ConditionIfNot:
		return "#if !(" + c.Expression + ")"
	}
	return "#if " + c.Expression
}

// ConditionalContext is a conditional enclosing an element and the branch
// the element is in.
type ConditionalContext struct {
	If     *PreprocessorIf
	InElse bool
}

// Condition returns the effective condition of the branch
func (c ConditionalContext) Condition() Condition {
	return c.If.Condition(c.InElse)
}

// IsInElseBranch reports whether e sits in the else branch of its parent
func IsInElseBranch(e Element) bool {
	cond, ok := e.Node().Parent.(*PreprocessorIf)
	if !ok {
		return false
	}
	for _, c := range cond.ElseChildren {
		if c == e {
			return true
		}
	}
	return false
}

// ParentConditionals returns the conditionals enclosing e, outermost first.
// An #elif contributes the negation of every earlier branch in its chain.
func ParentConditionals(e Element) []ConditionalContext {
	var out []ConditionalContext
	for cur := e; cur.Node().Parent != nil; cur = cur.Node().Parent {
		cond, ok := cur.Node().Parent.(*PreprocessorIf)
		if !ok {
			continue
		}
		out = append(out, ConditionalContext{If: cond, InElse: IsInElseBranch(cur)})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ParentConditions returns the effective conditions enclosing e, outermost
// first, leaving out include guards.
func ParentConditions(e Element) []Condition {
	var out []Condition
	for _, c := range ParentConditionals(e) {
		if c.If.IsIncludeGuard {
			continue
		}
		out = append(out, c.Condition())
	}
	return out
}

// MutuallyExclusive reports whether a and b sit in opposite branches of the
// same conditional, so they can never both be compiled.
func MutuallyExclusive(a, b Element) bool {
	ac := ParentConditionals(a)
	bc := ParentConditionals(b)
	for i := 0; i < len(ac) && i < len(bc); i++ {
		if ac[i].If != bc[i].If {
			return false
		}
		if ac[i].InElse != bc[i].InElse {
			return true
		}
	}
	return false
}

// scopeName returns the name an element contributes to qualified names
func scopeName(e Element) (string, bool) {
	switch v := e.(type) {
	case *Namespace:
		return v.Name, v.Name != ""
	case *ClassStructUnion:
		return v.Name, !v.IsAnonymous
	}
	return "", false
}

// FullyQualifiedName returns the C++ qualified name of e in the tree it
// currently lives in.
func FullyQualifiedName(e Element) string {
	parts := []string{NameOf(e)}
	for p := e.Node().Parent; p != nil; p = p.Node().Parent {
		if name, ok := scopeName(p); ok {
			parts = append([]string{name}, parts...)
		}
	}
	return strings.Join(parts, "::")
}

// OriginalFullyQualifiedName returns the qualified name e had before any
// modification: an explicit override wins, then the snapshot.
func OriginalFullyQualifiedName(e Element) string {
	if o := e.Node().OriginalNameOverride; o != "" {
		return o
	}
	if u := e.Node().Unmodified; u != nil {
		if o := u.Node().OriginalNameOverride; o != "" {
			return o
		}
		return FullyQualifiedName(u)
	}
	return FullyQualifiedName(e)
}

// ContainingScope returns the nearest enclosing class or namespace, or nil
func ContainingScope(e Element) Element {
	for p := e.Node().Parent; p != nil; p = p.Node().Parent {
		switch p.(type) {
		case *ClassStructUnion, *Namespace:
			return p
		}
	}
	return nil
}

// ContainingClass returns the nearest enclosing class, or nil
func ContainingClass(e Element) *ClassStructUnion {
	for p := e.Node().Parent; p != nil; p = p.Node().Parent {
		if c, ok := p.(*ClassStructUnion); ok {
			return c
		}
	}
	return nil
}
