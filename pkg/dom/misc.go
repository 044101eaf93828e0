package dom

import (
	"strings"

	"cbridge/pkg/lexer"
)

// HeaderFileSet is the root of a multi-file conversion
type HeaderFileSet struct {
	Base
}

func (h *HeaderFileSet) Kind() Kind { return KindHeaderFileSet }

func (h *HeaderFileSet) String() string { return Render(h, CPlusPlus) }

func (h *HeaderFileSet) write(w *CodeWriter, ctx WriteContext) {
	writeChildren(h.Children, w, ctx)
}

func (h *HeaderFileSet) clone(deep bool) Element {
	c := *h
	c.Base = h.cloneBase(&c, deep)
	return &c
}

// HeaderFile is the root element for one parsed header
type HeaderFile struct {
	Base
	SourceFilename string
}

func (h *HeaderFile) Kind() Kind { return KindHeaderFile }

func (h *HeaderFile) String() string { return Render(h, CPlusPlus) }

func (h *HeaderFile) write(w *CodeWriter, ctx WriteContext) {
	writeChildren(h.Children, w, ctx)
}

func (h *HeaderFile) clone(deep bool) Element {
	c := *h
	c.Base = h.cloneBase(&c, deep)
	return &c
}

// Namespace is a "namespace X { ... }" block
type Namespace struct {
	Base
	Name string
}

func (n *Namespace) Kind() Kind { return KindNamespace }

func (n *Namespace) String() string { return Render(n, CPlusPlus) }

func (n *Namespace) write(w *CodeWriter, ctx WriteContext) {
	if ctx.ForC {
		writeChildren(n.Children, w, ctx)
		return
	}
	head := "namespace"
	if n.Name != "" {
		head += " " + n.Name
	}
	w.WriteLine(head)
	w.WriteLine("{")
	writeChildren(n.Children, w, ctx)
	w.Write("}")
}

func (n *Namespace) clone(deep bool) Element {
	c := *n
	c.Base = n.cloneBase(&c, deep)
	return &c
}

func parseNamespace(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}
	if _, ok := s.GetTokenOfType(lexer.TokenNamespace); !ok {
		return fail()
	}
	n := &Namespace{}
	if tok, ok := s.GetTokenOfType(lexer.TokenIdentifier); ok {
		n.Name = tok.Value
	}
	if _, ok := s.GetTokenOfType(lexer.TokenLeftBrace); !ok {
		return fail()
	}
	ctx.pushScope(scope{namespace: n})
	err := parseDeclarations(ctx, s, n, &n.Children, lexer.TokenRightBrace)
	ctx.popScope()
	if err != nil {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenRightBrace); !ok {
		return fail()
	}
	s.GetTokenOfType(lexer.TokenSemicolon)
	return n, true
}

// TemplateParam is one template parameter, e.g. {"typename", "T"}
type TemplateParam struct {
	Kind string
	Name string
}

// Template wraps a templated declaration, which is its only child
type Template struct {
	Base
	Params []TemplateParam
}

func (t *Template) Kind() Kind { return KindTemplate }

func (t *Template) String() string { return Render(t, CPlusPlus) }

// Declaration returns the templated declaration
func (t *Template) Declaration() Element {
	for _, child := range t.Children {
		switch child.(type) {
		case *Comment, *BlankLines:
			continue
		}
		return child
	}
	return nil
}

func (t *Template) write(w *CodeWriter, ctx WriteContext) {
	var params []string
	for _, p := range t.Params {
		params = append(params, p.Kind+" "+p.Name)
	}
	w.WriteLine("template<" + strings.Join(params, ", ") + ">")
	for i, child := range t.Children {
		if i == len(t.Children)-1 {
			// the wrapper ends the last line
			child.write(w, ctx)
			continue
		}
		WriteElement(child, w, ctx)
	}
}

func (t *Template) clone(deep bool) Element {
	c := *t
	c.Base = t.cloneBase(&c, deep)
	c.Params = append([]TemplateParam(nil), t.Params...)
	return &c
}

func parseTemplate(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}
	if _, ok := s.GetTokenOfType(lexer.TokenTemplate); !ok {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenLess); !ok {
		return fail()
	}
	t := &Template{}
	for {
		if _, ok := s.GetTokenOfType(lexer.TokenGreater); ok {
			break
		}
		var words []string
		for {
			tok := s.PeekToken()
			if tok.Type == lexer.TokenComma || tok.Type == lexer.TokenGreater {
				break
			}
			if tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenSemicolon {
				return fail()
			}
			words = append(words, s.GetToken().Value)
		}
		if len(words) < 2 {
			return fail()
		}
		t.Params = append(t.Params, TemplateParam{
			Kind: strings.Join(words[:len(words)-1], " "),
			Name: words[len(words)-1],
		})
		s.GetTokenOfType(lexer.TokenComma)
	}

	var decl Element
	var ok bool
	if decl, ok = parseClassStructUnion(ctx, s); !ok {
		if decl, ok = parseFunctionDeclaration(ctx, s); !ok {
			return fail()
		}
	}
	decl.Node().Parent = t
	t.Children = []Element{decl}
	return t, true
}

// Typedef is "typedef <type> <name>;"
type Typedef struct {
	Base
	Name        string
	TypedefType *Type
}

func (t *Typedef) Kind() Kind { return KindTypedef }

func (t *Typedef) String() string { return Render(t, CPlusPlus) }

// SetType replaces the aliased type
func (t *Typedef) SetType(tt *Type) {
	t.TypedefType = adopt[*Type](t, tt)
}

func (t *Typedef) write(w *CodeWriter, ctx WriteContext) {
	w.Write("typedef " + declaratorString(t.TypedefType, t.Name, ctx.ForC, false) + ";")
}

func (t *Typedef) clone(deep bool) Element {
	c := *t
	c.Base = t.cloneBase(&c, deep)
	c.TypedefType = cloneOwned(&c, t.TypedefType)
	return &c
}

func (t *Typedef) ownedElements() []Element {
	if t.TypedefType != nil {
		return []Element{t.TypedefType}
	}
	return nil
}

func parseTypedef(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}
	if _, ok := s.GetTokenOfType(lexer.TokenTypedef); !ok {
		return fail()
	}
	t, ok := parseType(ctx, s)
	if !ok {
		return fail()
	}
	td := &Typedef{}
	if fp, ok := parseFunctionPointerDeclarator(ctx, s, t); ok {
		td.Name = fp.FuncPtr.Name
		fp.FuncPtr.Name = ""
		td.SetType(fp)
	} else {
		name, ok := s.GetTokenOfType(lexer.TokenIdentifier)
		if !ok {
			return fail()
		}
		td.Name = name.Value
		td.SetType(t)
	}
	if _, ok := s.GetTokenOfType(lexer.TokenSemicolon); !ok {
		return fail()
	}
	return td, true
}

// ExternC is an 'extern "C" { ... }' block
type ExternC struct {
	Base
}

func (e *ExternC) Kind() Kind { return KindExternC }

func (e *ExternC) String() string { return Render(e, CPlusPlus) }

func (e *ExternC) write(w *CodeWriter, ctx WriteContext) {
	if !ctx.ForC {
		w.WriteLine(`extern "C"`)
		w.WriteLine("{")
		writeChildren(e.Children, w, ctx)
		w.Write("}")
		return
	}
	w.WriteUnindented("#ifdef __cplusplus")
	w.EndLine()
	w.WriteLine(`extern "C"`)
	w.WriteLine("{")
	w.WriteUnindented("#endif")
	w.EndLine()
	writeChildren(e.Children, w, ctx)
	w.WriteUnindented("#ifdef __cplusplus")
	w.EndLine()
	w.WriteLine(`} // End of extern "C"`)
	w.WriteUnindented("#endif")
}

func (e *ExternC) clone(deep bool) Element {
	c := *e
	c.Base = e.cloneBase(&c, deep)
	return &c
}

func parseExternC(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}
	if _, ok := s.GetTokenOfType(lexer.TokenExtern); !ok {
		return fail()
	}
	if tok, ok := s.GetTokenOfType(lexer.TokenString); !ok || tok.Value != `"C"` {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenLeftBrace); !ok {
		return fail()
	}
	e := &ExternC{}
	if err := parseDeclarations(ctx, s, e, &e.Children, lexer.TokenRightBrace); err != nil {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenRightBrace); !ok {
		return fail()
	}
	return e, true
}

// parseGuardedExternC reads the extern "C" block a generated C header
// wraps in "#ifdef __cplusplus" directives
func parseGuardedExternC(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	if !matchCPlusPlusGuard(s, true, true) {
		return nil, false
	}
	e := &ExternC{}
	ctx.guardedExternC++
	err := parseDeclarations(ctx, s, e, &e.Children)
	ctx.guardedExternC--
	if err != nil || !matchCPlusPlusGuard(s, false, true) {
		s.Rewind(cp)
		return nil, false
	}
	return e, true
}

// matchCPlusPlusGuard matches the "#ifdef __cplusplus" block opening
// (extern "C" {) or closing (}) a guarded extern "C" block. The tokens are
// consumed only on a match with consume set.
func matchCPlusPlusGuard(s *lexer.TokenStream, opening, consume bool) bool {
	cp := s.GetCheckpoint()
	matched := func() bool {
		if _, ok := s.GetTokenOfType(lexer.TokenPPIfdef); !ok {
			return false
		}
		if readDirectiveExpression(s) != "__cplusplus" {
			return false
		}
		want := []lexer.TokenType{lexer.TokenRightBrace}
		if opening {
			want = []lexer.TokenType{lexer.TokenExtern, lexer.TokenString, lexer.TokenLeftBrace}
		}
		for _, tt := range want {
			tok := nextSignificant(s)
			if tok.Type != tt || tt == lexer.TokenString && tok.Value != `"C"` {
				return false
			}
		}
		if nextSignificant(s).Type != lexer.TokenPPEndif {
			return false
		}
		readDirectiveExpression(s)
		return true
	}()
	if !matched || !consume {
		s.Rewind(cp)
	}
	return matched
}

// nextSignificant returns the next token that is not a newline or comment
func nextSignificant(s *lexer.TokenStream) lexer.Token {
	for {
		tok := s.GetToken()
		switch tok.Type {
		case lexer.TokenNewline, lexer.TokenLineComment, lexer.TokenBlockComment:
			continue
		}
		return tok
	}
}

// CodeBlock is an opaque "{ ... }" body
type CodeBlock struct {
	Base
}

func (c *CodeBlock) Kind() Kind { return KindCodeBlock }

func (c *CodeBlock) String() string { return Render(c, CPlusPlus) }

func (c *CodeBlock) write(w *CodeWriter, ctx WriteContext) {
	w.Write(JoinTokens(c.Tokens, false))
}

func (c *CodeBlock) clone(deep bool) Element {
	cc := *c
	cc.Base = c.cloneBase(&cc, deep)
	return &cc
}

func parseCodeBlock(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	tokens, ok := readBalanced(s, lexer.TokenLeftBrace, lexer.TokenRightBrace)
	if !ok {
		return nil, false
	}
	return &CodeBlock{Base: Base{Tokens: tokens}}, true
}

// UnparsableThing preserves a construct the parsers do not understand
type UnparsableThing struct {
	Base
}

func (u *UnparsableThing) Kind() Kind { return KindUnparsableThing }

func (u *UnparsableThing) String() string { return Render(u, CPlusPlus) }

func (u *UnparsableThing) write(w *CodeWriter, ctx WriteContext) {
	text := JoinTokens(u.Tokens, false)
	if len(u.Tokens) > 0 && u.Tokens[0].IsPreprocessor() {
		w.WriteUnindented(text)
		return
	}
	w.Write(text)
}

func (u *UnparsableThing) clone(deep bool) Element {
	c := *u
	c.Base = u.cloneBase(&c, deep)
	return &c
}

// parseUnparsableThing consumes a directive line, a macro name standing
// alone on its line, or tokens up to and including the next ';' (or a
// braced block) at depth zero. It always consumes at least one token unless
// at EOF.
func parseUnparsableThing(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	first := s.PeekToken()
	if first.Type == lexer.TokenEOF || first.Type == lexer.TokenError {
		return nil, false
	}
	u := &UnparsableThing{}

	if first.IsPreprocessor() {
		u.Tokens = append(u.Tokens, s.GetToken())
		saved := s.SkipNewlines
		s.SkipNewlines = false
		for {
			tok := s.PeekToken()
			if tok.Type == lexer.TokenNewline || tok.Type == lexer.TokenEOF ||
				tok.Type == lexer.TokenLineComment || tok.Type == lexer.TokenBlockComment {
				break
			}
			u.Tokens = append(u.Tokens, s.GetToken())
		}
		s.SkipNewlines = saved
		return u, true
	}

	if first.Type == lexer.TokenIdentifier && standaloneMacro(s) {
		u.Tokens = append(u.Tokens, s.GetToken())
		return u, true
	}

	depth := 0
	for {
		tok := s.PeekToken()
		switch {
		case tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenError:
			return u, len(u.Tokens) > 0
		case tok.IsPreprocessor() && len(u.Tokens) > 0:
			return u, true
		case tok.Type == lexer.TokenRightBrace && depth == 0 && len(u.Tokens) > 0:
			return u, true
		}
		u.Tokens = append(u.Tokens, s.GetToken())
		switch tok.Type {
		case lexer.TokenLeftBrace, lexer.TokenLeftParen, lexer.TokenLeftBracket:
			depth++
		case lexer.TokenRightBrace:
			depth--
			if depth <= 0 {
				s.GetTokenOfType(lexer.TokenSemicolon)
				return u, true
			}
		case lexer.TokenRightParen, lexer.TokenRightBracket:
			depth--
		case lexer.TokenSemicolon:
			if depth <= 0 {
				return u, true
			}
		}
	}
}

// standaloneMacro reports whether the identifier at the cursor is the only
// token on its line, like IM_MSVC_RUNTIME_CHECKS_OFF
func standaloneMacro(s *lexer.TokenStream) bool {
	cp := s.GetCheckpoint()
	defer s.Rewind(cp)
	saved := s.SkipNewlines
	s.SkipNewlines = false
	defer func() { s.SkipNewlines = saved }()

	s.GetToken()
	switch s.GetToken().Type {
	case lexer.TokenNewline, lexer.TokenEOF, lexer.TokenLineComment, lexer.TokenBlockComment:
		return true
	}
	return false
}

// Comment is a line or block comment
type Comment struct {
	Base
	Text string // including the comment markers

	IsAttached  bool
	IsPreceding bool
	// Alignment is the column an attached comment is padded to, counted
	// from the current indentation
	Alignment int
}

func (c *Comment) Kind() Kind { return KindComment }

func (c *Comment) String() string { return c.Text }

// Content returns the comment text without markers
func (c *Comment) Content() string {
	text := c.Text
	if strings.HasPrefix(text, "//") {
		return strings.TrimSpace(strings.TrimPrefix(text, "//"))
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	return strings.TrimSpace(text)
}

func (c *Comment) write(w *CodeWriter, ctx WriteContext) {
	w.Write(c.Text)
}

func (c *Comment) clone(deep bool) Element {
	cc := *c
	cc.Base = c.cloneBase(&cc, deep)
	return &cc
}

// NewComment creates a standalone line comment
func NewComment(text string) *Comment {
	return &Comment{Text: "// " + text}
}

// BlankLines is a run of empty lines
type BlankLines struct {
	Base
	Count int
}

func (b *BlankLines) Kind() Kind { return KindBlankLines }

func (b *BlankLines) String() string { return strings.Repeat("\n", b.Count-1) }

func (b *BlankLines) write(w *CodeWriter, ctx WriteContext) {
	for i := 1; i < b.Count; i++ {
		w.EndLine()
	}
}

func (b *BlankLines) clone(deep bool) Element {
	c := *b
	c.Base = b.cloneBase(&c, deep)
	return &c
}
