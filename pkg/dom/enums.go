package dom

import (
	"strings"

	"cbridge/pkg/lexer"
)

// Enum is an enum definition or forward declaration. Its children are
// EnumElements interleaved with comments, blank lines and conditionals.
type Enum struct {
	Base
	Name        string
	IsClass     bool
	StorageType *Type

	IsForwardDeclaration bool
}

func (e *Enum) Kind() Kind { return KindEnum }

func (e *Enum) String() string { return Render(e, CPlusPlus) }

// Elements returns the enum's elements, looking through conditionals
func (e *Enum) Elements() []*EnumElement {
	return ListDirectlyContainedChildrenOfType[*EnumElement](e)
}

func (e *Enum) write(w *CodeWriter, ctx WriteContext) {
	if ctx.ForC {
		if e.IsForwardDeclaration {
			storage := "int"
			if e.StorageType != nil {
				storage = e.StorageType.CString()
			}
			w.Write("typedef " + storage + " " + e.Name + ";")
			return
		}
		if e.Name == "" {
			w.WriteLine("enum")
		} else {
			w.WriteLine("typedef enum")
		}
		w.WriteLine("{")
		w.Indent()
		writeChildren(e.Children, w, ctx)
		w.Unindent()
		if e.Name == "" {
			w.Write("};")
		} else {
			w.Write("} " + e.Name + ";")
		}
		return
	}

	head := "enum"
	if e.IsClass {
		head += " class"
	}
	if e.Name != "" {
		head += " " + e.Name
	}
	if e.StorageType != nil {
		head += " : " + e.StorageType.String()
	}
	if e.IsForwardDeclaration {
		w.Write(head + ";")
		return
	}
	w.WriteLine(head)
	w.WriteLine("{")
	w.Indent()
	writeChildren(e.Children, w, ctx)
	w.Unindent()
	w.Write("};")
}

func (e *Enum) clone(deep bool) Element {
	c := *e
	c.Base = e.cloneBase(&c, deep)
	c.StorageType = cloneOwned(&c, e.StorageType)
	return &c
}

func (e *Enum) ownedElements() []Element {
	if e.StorageType != nil {
		return []Element{e.StorageType}
	}
	return nil
}

// parseEnum is the trial parser for enums
func parseEnum(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}

	if _, ok := s.GetTokenOfType(lexer.TokenEnum); !ok {
		return fail()
	}
	e := &Enum{}
	if _, ok := s.GetTokenOfType(lexer.TokenClass, lexer.TokenStruct); ok {
		e.IsClass = true
	}
	if tok, ok := s.GetTokenOfType(lexer.TokenIdentifier); ok {
		e.Name = tok.Value
	}
	if _, ok := s.GetTokenOfType(lexer.TokenColon); ok {
		t, ok := parseType(ctx, s)
		if !ok {
			return fail()
		}
		e.StorageType = adopt[*Type](e, t)
	}

	if _, ok := s.GetTokenOfType(lexer.TokenSemicolon); ok {
		if e.Name == "" {
			return fail()
		}
		e.IsForwardDeclaration = true
		return e, true
	}
	if _, ok := s.GetTokenOfType(lexer.TokenLeftBrace); !ok {
		return fail()
	}

	ctx.pushScope(scope{enum: e})
	err := parseDeclarations(ctx, s, e, &e.Children, lexer.TokenRightBrace)
	ctx.popScope()
	if err != nil {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenRightBrace); !ok {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenSemicolon); !ok {
		return fail()
	}
	return e, true
}

// EnumElement is a single enumerator
type EnumElement struct {
	Base
	Name  string
	Value []lexer.Token

	// ValueAlignment is the column the "=" is padded to
	ValueAlignment int
}

func (e *EnumElement) Kind() Kind { return KindEnumElement }

func (e *EnumElement) String() string { return Render(e, CPlusPlus) }

// ValueString returns the value expression text
func (e *EnumElement) ValueString() string {
	return JoinTokens(e.Value, false)
}

func (e *EnumElement) write(w *CodeWriter, ctx WriteContext) {
	if len(e.Value) == 0 {
		w.Write(e.Name + ",")
		return
	}
	text := e.Name + " "
	if pad := e.ValueAlignment - len(e.Name); pad > 1 {
		text = e.Name + strings.Repeat(" ", pad)
	}
	w.Write(text + "= " + e.ValueString() + ",")
}

func (e *EnumElement) clone(deep bool) Element {
	c := *e
	c.Base = e.cloneBase(&c, deep)
	c.Value = append([]lexer.Token(nil), e.Value...)
	return &c
}

// parseEnumElement is the trial parser for enumerators
func parseEnumElement(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	name, ok := s.GetTokenOfType(lexer.TokenIdentifier)
	if !ok {
		return nil, false
	}
	e := &EnumElement{Name: name.Value}
	if _, ok := s.GetTokenOfType(lexer.TokenEquals); ok {
		value, ok := readUntilDepthZero(s, lexer.TokenComma, lexer.TokenRightBrace)
		if !ok || len(value) == 0 {
			s.Rewind(cp)
			return nil, false
		}
		e.Value = value
	}
	s.GetTokenOfType(lexer.TokenComma)
	return e, true
}
