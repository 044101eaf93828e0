package dom

import (
	"strings"

	"cbridge/pkg/lexer"
)

// BaseClass is one entry of a class's base list
type BaseClass struct {
	Accessibility string
	Name          string
}

// ClassStructUnion is a struct, class or union definition or forward
// declaration.
type ClassStructUnion struct {
	Base
	StructureType string // "struct", "class" or "union"
	Name          string
	APIMacro      string
	BaseClasses   []BaseClass

	IsForwardDeclaration bool
	IsAnonymous          bool
	IsByValue            bool
	IsFinal              bool
}

func (c *ClassStructUnion) Kind() Kind { return KindClassStructUnion }

func (c *ClassStructUnion) String() string { return Render(c, CPlusPlus) }

// DefaultAccessibility returns the member access in effect at the start of
// the body
func (c *ClassStructUnion) DefaultAccessibility() string {
	if c.StructureType == "class" {
		return AccessPrivate
	}
	return AccessPublic
}

// CTag returns the struct tag used in the C header
func (c *ClassStructUnion) CTag() string {
	return c.Name + "_t"
}

func (c *ClassStructUnion) cKeyword() string {
	if c.StructureType == "union" {
		return "union"
	}
	return "struct"
}

func (c *ClassStructUnion) write(w *CodeWriter, ctx WriteContext) {
	if ctx.ForC {
		c.writeC(w, ctx)
		return
	}

	head := c.StructureType
	if c.APIMacro != "" {
		head += " " + c.APIMacro
	}
	if !c.IsAnonymous {
		head += " " + c.Name
	}
	if c.IsFinal {
		head += " final"
	}
	if len(c.BaseClasses) > 0 {
		var bases []string
		for _, b := range c.BaseClasses {
			if b.Accessibility != "" {
				bases = append(bases, b.Accessibility+" "+b.Name)
			} else {
				bases = append(bases, b.Name)
			}
		}
		head += " : " + strings.Join(bases, ", ")
	}
	if c.IsForwardDeclaration {
		w.Write(head + ";")
		return
	}

	w.WriteLine(head)
	w.WriteLine("{")
	w.Indent()
	access := c.DefaultAccessibility()
	for _, child := range c.Children {
		if a := child.Node().Accessibility; a != "" && a != access {
			w.Unindent()
			w.WriteLine(a + ":")
			w.Indent()
			access = a
		}
		WriteElement(child, w, ctx)
	}
	w.Unindent()
	w.Write("};")
}

func (c *ClassStructUnion) writeC(w *CodeWriter, ctx WriteContext) {
	keyword := c.cKeyword()
	if c.IsForwardDeclaration {
		w.Write("typedef " + keyword + " " + c.CTag() + " " + c.Name + ";")
		return
	}
	if c.IsAnonymous {
		w.WriteLine(keyword)
	} else {
		w.WriteLine(keyword + " " + c.CTag())
	}
	w.WriteLine("{")
	w.Indent()
	for _, b := range c.BaseClasses {
		w.WriteLine(b.Name + " " + b.Name + ";")
	}
	writeChildren(c.Children, w, ctx)
	w.Unindent()
	w.Write("};")
}

func (c *ClassStructUnion) clone(deep bool) Element {
	cc := *c
	cc.Base = c.cloneBase(&cc, deep)
	cc.BaseClasses = append([]BaseClass(nil), c.BaseClasses...)
	return &cc
}

// parseClassStructUnion is the trial parser for struct/class/union
func parseClassStructUnion(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}

	kw, ok := s.GetTokenOfType(lexer.TokenStruct, lexer.TokenClass, lexer.TokenUnion)
	if !ok {
		return fail()
	}
	c := &ClassStructUnion{StructureType: kw.Value}

	if tok, ok := s.PeekTokenOfType(lexer.TokenIdentifier); ok && ctx.isAPIMacro(tok.Value) {
		c.APIMacro = s.GetToken().Value
	}
	if tok, ok := s.GetTokenOfType(lexer.TokenIdentifier); ok {
		c.Name = tok.Value
	} else {
		c.IsAnonymous = true
	}
	if tok, ok := s.PeekTokenOfType(lexer.TokenIdentifier); ok && tok.Value == "final" {
		s.GetToken()
		c.IsFinal = true
	}

	if _, ok := s.GetTokenOfType(lexer.TokenSemicolon); ok {
		if c.IsAnonymous {
			return fail()
		}
		c.IsForwardDeclaration = true
		return c, true
	}

	if _, ok := s.GetTokenOfType(lexer.TokenColon); ok {
		for {
			base := BaseClass{}
			if tok, ok := s.GetTokenOfType(lexer.TokenPublic, lexer.TokenPrivate, lexer.TokenProtected); ok {
				base.Accessibility = tok.Value
			}
			t, ok := parseType(ctx, s)
			if !ok {
				return fail()
			}
			base.Name = t.String()
			c.BaseClasses = append(c.BaseClasses, base)
			if _, ok := s.GetTokenOfType(lexer.TokenComma); !ok {
				break
			}
		}
	}

	if _, ok := s.GetTokenOfType(lexer.TokenLeftBrace); !ok {
		return fail()
	}

	ctx.pushScope(scope{class: c, access: c.DefaultAccessibility()})
	err := parseDeclarations(ctx, s, c, &c.Children, lexer.TokenRightBrace)
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
	return c, true
}

// FieldDeclarator is one name declared by a field declaration
type FieldDeclarator struct {
	Name        string
	ArrayBounds []string
	BitWidth    string
	Initializer []lexer.Token
}

// FieldDeclaration declares one or more fields (or variables) of one type
type FieldDeclaration struct {
	Base
	FieldType   *Type
	Declarators []FieldDeclarator
	APIMacro    string

	IsStatic    bool
	IsConstexpr bool
	IsMutable   bool
	IsExtern    bool

	// NameAlignment is the column the first name is padded to
	NameAlignment int
}

func (f *FieldDeclaration) Kind() Kind { return KindFieldDeclaration }

func (f *FieldDeclaration) String() string { return Render(f, CPlusPlus) }

// SetType replaces the field type
func (f *FieldDeclaration) SetType(t *Type) {
	f.FieldType = adopt[*Type](f, t)
}

// HasArray reports whether any declarator has array bounds
func (f *FieldDeclaration) HasArray() bool {
	for _, d := range f.Declarators {
		if len(d.ArrayBounds) > 0 {
			return true
		}
	}
	return false
}

func (f *FieldDeclaration) write(w *CodeWriter, ctx WriteContext) {
	var prefix []string
	if !ctx.ForC {
		if f.IsExtern {
			prefix = append(prefix, "extern")
		}
		if f.APIMacro != "" {
			prefix = append(prefix, f.APIMacro)
		}
		if f.IsStatic {
			prefix = append(prefix, "static")
		}
		if f.IsConstexpr {
			prefix = append(prefix, "constexpr")
		}
		if f.IsMutable {
			prefix = append(prefix, "mutable")
		}
	}

	if f.FieldType.FuncPtr != nil {
		name := ""
		if len(f.Declarators) > 0 {
			name = f.Declarators[0].Name
		}
		prefix = append(prefix, f.FieldType.FuncPtr.DeclaratorString(name, ctx.ForC, false))
		w.Write(strings.Join(prefix, " ") + ";")
		return
	}

	if ctx.ForC {
		prefix = append(prefix, f.FieldType.CString())
	} else {
		prefix = append(prefix, f.FieldType.String())
	}
	head := strings.Join(prefix, " ") + " "
	for len(head) < f.NameAlignment {
		head += " "
	}

	var names []string
	for _, d := range f.Declarators {
		text := d.Name
		for _, bound := range d.ArrayBounds {
			text += "[" + bound + "]"
		}
		if d.BitWidth != "" {
			text += " : " + d.BitWidth
		}
		if len(d.Initializer) > 0 && !ctx.ForC {
			text += " = " + JoinTokens(d.Initializer, false)
		}
		names = append(names, text)
	}
	w.Write(head + strings.Join(names, ", ") + ";")
}

func (f *FieldDeclaration) clone(deep bool) Element {
	c := *f
	c.Base = f.cloneBase(&c, deep)
	c.FieldType = cloneOwned(&c, f.FieldType)
	c.Declarators = make([]FieldDeclarator, len(f.Declarators))
	for i, d := range f.Declarators {
		d.ArrayBounds = append([]string(nil), d.ArrayBounds...)
		d.Initializer = append([]lexer.Token(nil), d.Initializer...)
		c.Declarators[i] = d
	}
	return &c
}

func (f *FieldDeclaration) ownedElements() []Element {
	if f.FieldType != nil {
		return []Element{f.FieldType}
	}
	return nil
}

// parseFieldDeclaration is the trial parser for fields and variables
func parseFieldDeclaration(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}

	f := &FieldDeclaration{}
prefixes:
	for {
		tok := s.PeekToken()
		switch {
		case tok.Type == lexer.TokenIdentifier && ctx.isAPIMacro(tok.Value):
			f.APIMacro = s.GetToken().Value
		case tok.Type == lexer.TokenStatic:
			s.GetToken()
			f.IsStatic = true
		case tok.Type == lexer.TokenConstexpr:
			s.GetToken()
			f.IsConstexpr = true
		case tok.Type == lexer.TokenMutable:
			s.GetToken()
			f.IsMutable = true
		case tok.Type == lexer.TokenExtern:
			s.GetToken()
			f.IsExtern = true
		case tok.Type == lexer.TokenInline:
			s.GetToken()
		default:
			break prefixes
		}
	}

	t, ok := parseType(ctx, s)
	if !ok {
		return fail()
	}

	if fp, ok := parseFunctionPointerDeclarator(ctx, s, t); ok {
		f.SetType(fp)
		f.Declarators = []FieldDeclarator{{Name: fp.FuncPtr.Name}}
		fp.FuncPtr.Name = ""
		if _, ok := s.GetTokenOfType(lexer.TokenSemicolon); !ok {
			return fail()
		}
		return f, true
	}
	f.SetType(t)

	for {
		name, ok := s.GetTokenOfType(lexer.TokenIdentifier)
		if !ok {
			return fail()
		}
		d := FieldDeclarator{Name: name.Value}
		for {
			bound, ok := readBalanced(s, lexer.TokenLeftBracket, lexer.TokenRightBracket)
			if !ok {
				break
			}
			d.ArrayBounds = append(d.ArrayBounds, JoinTokens(bound[1:len(bound)-1], false))
		}
		if _, ok := s.GetTokenOfType(lexer.TokenColon); ok {
			width, ok := readUntilDepthZero(s, lexer.TokenComma, lexer.TokenSemicolon, lexer.TokenEquals)
			if !ok || len(width) == 0 {
				return fail()
			}
			d.BitWidth = JoinTokens(width, false)
		}
		if _, ok := s.GetTokenOfType(lexer.TokenEquals); ok {
			value, ok := readUntilDepthZero(s, lexer.TokenComma, lexer.TokenSemicolon)
			if !ok || len(value) == 0 {
				return fail()
			}
			d.Initializer = value
		} else if _, ok := s.PeekTokenOfType(lexer.TokenLeftBrace); ok {
			value, ok := readBalanced(s, lexer.TokenLeftBrace, lexer.TokenRightBrace)
			if !ok {
				return fail()
			}
			d.Initializer = value
		}
		f.Declarators = append(f.Declarators, d)

		skipComments(s)
		tok := s.GetToken()
		switch tok.Type {
		case lexer.TokenComma:
			continue
		case lexer.TokenSemicolon:
			return f, true
		default:
			return fail()
		}
	}
}
