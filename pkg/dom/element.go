// Package dom defines the element tree a C++ header is parsed into, the
// generic operations every element supports, and the per-kind trial parsers.
package dom

import (
	"cbridge/pkg/lexer"
)

// Kind identifies the concrete element type
type Kind int

const (
	KindHeaderFileSet Kind = iota
	KindHeaderFile
	KindNamespace
	KindClassStructUnion
	KindFieldDeclaration
	KindFunctionDeclaration
	KindFunctionArgument
	KindFunctionPointerType
	KindType
	KindTypedef
	KindEnum
	KindEnumElement
	KindTemplate
	KindPreprocessorIf
	KindComment
	KindBlankLines
	KindInclude
	KindDefine
	KindUndef
	KindPragma
	KindError
	KindExternC
	KindCodeBlock
	KindUnparsableThing
)

var kindNames = [...]string{
	KindHeaderFileSet:       "HeaderFileSet",
	KindHeaderFile:          "HeaderFile",
	KindNamespace:           "Namespace",
	KindClassStructUnion:    "ClassStructUnion",
	KindFieldDeclaration:    "FieldDeclaration",
	KindFunctionDeclaration: "FunctionDeclaration",
	KindFunctionArgument:    "FunctionArgument",
	KindFunctionPointerType: "FunctionPointerType",
	KindType:                "Type",
	KindTypedef:             "Typedef",
	KindEnum:                "Enum",
	KindEnumElement:         "EnumElement",
	KindTemplate:            "Template",
	KindPreprocessorIf:      "PreprocessorIf",
	KindComment:             "Comment",
	KindBlankLines:          "BlankLines",
	KindInclude:             "Include",
	KindDefine:              "Define",
	KindUndef:               "Undef",
	KindPragma:              "Pragma",
	KindError:               "Error",
	KindExternC:             "ExternC",
	KindCodeBlock:           "CodeBlock",
	KindUnparsableThing:     "UnparsableThing",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Access levels for class members
const (
	AccessPublic    = "public"
	AccessProtected = "protected"
	AccessPrivate   = "private"
)

// Element is implemented by every node kind in this package and nowhere
// else; the unexported methods keep the set closed.
type Element interface {
	// Node returns the data shared by all kinds
	Node() *Base
	Kind() Kind
	// String renders the element as C++ source
	String() string

	write(w *CodeWriter, ctx WriteContext)
	clone(deep bool) Element
	childLists() []*[]Element
	ownedElements() []Element
}

// Base holds the state common to every element
type Base struct {
	Tokens   []lexer.Token
	Parent   Element
	Children []Element

	PreComments     []*Comment
	AttachedComment *Comment

	// NoDefaultAdd tells the parser not to put the element in the default
	// child list (used for comments that were attached to a declaration).
	NoDefaultAdd bool

	// Unmodified points at the matching element of the pre-modification
	// snapshot. It is informational only: it is never walked and never
	// cloned.
	Unmodified Element

	// OriginalNameOverride is the original C++ spelling to use instead of
	// consulting Unmodified.
	OriginalNameOverride string

	IsInternal          bool
	ExcludeFromMetadata bool
	Accessibility       string
}

// Node returns the common element state
func (b *Base) Node() *Base { return b }

func (b *Base) childLists() []*[]Element { return []*[]Element{&b.Children} }

func (b *Base) ownedElements() []Element { return nil }

// cloneBase copies the common state for a clone owned by owner. The parent
// and the unmodified link are left empty; children are only copied for deep
// clones.
func (b *Base) cloneBase(owner Element, deep bool) Base {
	c := Base{
		Tokens:               append([]lexer.Token(nil), b.Tokens...),
		NoDefaultAdd:         b.NoDefaultAdd,
		OriginalNameOverride: b.OriginalNameOverride,
		IsInternal:           b.IsInternal,
		ExcludeFromMetadata:  b.ExcludeFromMetadata,
		Accessibility:        b.Accessibility,
	}
	for _, comment := range b.PreComments {
		cc := comment.clone(true).(*Comment)
		cc.Parent = owner
		c.PreComments = append(c.PreComments, cc)
	}
	if b.AttachedComment != nil {
		c.AttachedComment = b.AttachedComment.clone(true).(*Comment)
		c.AttachedComment.Parent = owner
	}
	if deep {
		c.Children = cloneList(b.Children, owner)
	}
	return c
}

// cloneList deep-copies a child list, re-parenting the copies onto owner
func cloneList(list []Element, owner Element) []Element {
	if list == nil {
		return nil
	}
	out := make([]Element, 0, len(list))
	for _, child := range list {
		cc := child.clone(true)
		cc.Node().Parent = owner
		out = append(out, cc)
	}
	return out
}

// adopt sets the parent of a typed child and returns it
func adopt[T Element](owner Element, child T) T {
	if any(child) != nil && !isNil(child) {
		child.Node().Parent = owner
	}
	return child
}

func isNil(e Element) bool {
	switch v := e.(type) {
	case *Type:
		return v == nil
	case *FunctionArgument:
		return v == nil
	case *FunctionPointerType:
		return v == nil
	case *CodeBlock:
		return v == nil
	case *Comment:
		return v == nil
	}
	return e == nil
}

// cloneOwned clones a typed child for a new owner, preserving nil
func cloneOwned[T Element](owner Element, child T) T {
	if isNil(child) {
		return child
	}
	c := child.clone(true).(T)
	c.Node().Parent = owner
	return c
}

// NameOf returns the declared name of an element, or "" for unnamed kinds
func NameOf(e Element) string {
	switch v := e.(type) {
	case *Namespace:
		return v.Name
	case *ClassStructUnion:
		return v.Name
	case *FunctionDeclaration:
		return v.Name
	case *FunctionArgument:
		return v.Name
	case *FunctionPointerType:
		return v.Name
	case *Typedef:
		return v.Name
	case *Enum:
		return v.Name
	case *EnumElement:
		return v.Name
	case *Define:
		return v.Name
	case *Undef:
		return v.Name
	case *FieldDeclaration:
		if len(v.Declarators) > 0 {
			return v.Declarators[0].Name
		}
	case *Template:
		if len(v.Children) > 0 {
			return NameOf(v.Children[0])
		}
	}
	return ""
}
