package dom

import (
	"strings"

	"cbridge/pkg/lexer"
)

// PreprocessorIf is an #if/#ifdef/#ifndef block. An #elif is represented as
// a nested PreprocessorIf (IsElif) that is the only else child.
type PreprocessorIf struct {
	Base
	// ElseChildren is nil when there is no #else/#elif branch
	ElseChildren []Element

	Expression     string
	IsIfdef        bool
	IsNegated      bool
	IsElif         bool
	IsIncludeGuard bool
}

func (p *PreprocessorIf) Kind() Kind { return KindPreprocessorIf }

func (p *PreprocessorIf) String() string { return Render(p, CPlusPlus) }

func (p *PreprocessorIf) childLists() []*[]Element {
	return []*[]Element{&p.Children, &p.ElseChildren}
}

// AddElseChild appends to the else branch, detaching the child first
func (p *PreprocessorIf) AddElseChild(child Element) {
	detach(child)
	child.Node().Parent = p
	if p.ElseChildren == nil {
		p.ElseChildren = []Element{}
	}
	p.ElseChildren = append(p.ElseChildren, child)
}

// OpeningDirective returns the directive line opening the block
func (p *PreprocessorIf) OpeningDirective() string {
	switch {
	case p.IsIfdef && p.IsNegated:
		return "#ifndef " + p.Expression
	case p.IsIfdef:
		return "#ifdef " + p.Expression
	case p.IsNegated:
		return "#if !(" + p.Expression + ")"
	}
	return "#if " + p.Expression
}

// ConditionExpression returns the condition as an #if/#elif expression
func (p *PreprocessorIf) ConditionExpression() string {
	switch {
	case p.IsIfdef && p.IsNegated:
		return "!defined(" + p.Expression + ")"
	case p.IsIfdef:
		return "defined(" + p.Expression + ")"
	case p.IsNegated:
		return "!(" + p.Expression + ")"
	}
	return p.Expression
}

// Condition describes the condition under which the children (or, with
// inElse, the else children) are compiled.
func (p *PreprocessorIf) Condition(inElse bool) Condition {
	negated := p.IsNegated != inElse
	c := Condition{Expression: p.Expression}
	switch {
	case p.IsIfdef && negated:
		c.Kind = ConditionIfndef
	case p.IsIfdef:
		c.Kind = ConditionIfdef
	case negated:
		c.Kind = ConditionIfNot
	default:
		c.Kind = ConditionIf
	}
	return c
}

// elifContinuation returns the nested #elif block if the else branch is one
func (p *PreprocessorIf) elifContinuation() *PreprocessorIf {
	if len(p.ElseChildren) != 1 {
		return nil
	}
	nested, ok := p.ElseChildren[0].(*PreprocessorIf)
	if !ok || !nested.IsElif {
		return nil
	}
	return nested
}

func (p *PreprocessorIf) write(w *CodeWriter, ctx WriteContext) {
	p.writeBranches(w, ctx, p.OpeningDirective())
	w.WriteUnindented("#endif")
}

func (p *PreprocessorIf) writeBranches(w *CodeWriter, ctx WriteContext, opening string) {
	w.WriteUnindented(opening)
	w.EndLine()
	writeChildren(p.Children, w, ctx)
	if p.ElseChildren == nil {
		return
	}
	if nested := p.elifContinuation(); nested != nil {
		nested.writeBranches(w, ctx, "#elif "+nested.ConditionExpression())
		return
	}
	w.WriteUnindented("#else")
	w.EndLine()
	writeChildren(p.ElseChildren, w, ctx)
}

func (p *PreprocessorIf) clone(deep bool) Element {
	c := *p
	c.Base = p.cloneBase(&c, deep)
	c.ElseChildren = nil
	if deep {
		c.ElseChildren = cloneList(p.ElseChildren, &c)
	} else if p.ElseChildren != nil {
		c.ElseChildren = []Element{}
	}
	return &c
}

// parsePreprocessorIf is the trial parser for #if, #ifdef and #ifndef
func parsePreprocessorIf(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	tok, ok := s.GetTokenOfType(lexer.TokenPPIf, lexer.TokenPPIfdef, lexer.TokenPPIfndef)
	if !ok {
		return nil, false
	}
	p := &PreprocessorIf{Base: Base{Tokens: []lexer.Token{tok}}}
	switch tok.Type {
	case lexer.TokenPPIfdef:
		p.IsIfdef = true
	case lexer.TokenPPIfndef:
		p.IsIfdef = true
		p.IsNegated = true
	}
	if !parseConditionalBody(ctx, s, p) {
		s.Rewind(cp)
		return nil, false
	}
	return p, true
}

// parseConditionalBody reads the condition, the branches and the closing
// #endif of a conditional whose opening directive has been consumed.
func parseConditionalBody(ctx *ParseContext, s *lexer.TokenStream, p *PreprocessorIf) bool {
	p.Expression = readDirectiveExpression(s)
	if p.Expression == "" {
		return false
	}
	if err := parseDeclarations(ctx, s, p, &p.Children, lexer.TokenPPElse, lexer.TokenPPElif, lexer.TokenPPEndif); err != nil {
		return false
	}

	tok := s.GetToken()
	switch tok.Type {
	case lexer.TokenPPEndif:
		readDirectiveExpression(s)
		return true
	case lexer.TokenPPElse:
		readDirectiveExpression(s)
		p.ElseChildren = []Element{}
		if err := parseDeclarations(ctx, s, p, &p.ElseChildren, lexer.TokenPPEndif); err != nil {
			return false
		}
		if _, ok := s.GetTokenOfType(lexer.TokenPPEndif); !ok {
			return false
		}
		readDirectiveExpression(s)
		return true
	case lexer.TokenPPElif:
		// the nested block consumes the shared #endif
		nested := &PreprocessorIf{Base: Base{Tokens: []lexer.Token{tok}}, IsElif: true}
		if !parseConditionalBody(ctx, s, nested) {
			return false
		}
		nested.Parent = p
		p.ElseChildren = []Element{nested}
		return true
	}
	return false
}

// readDirectiveExpression collects the rest of a directive line, stopping
// before a trailing comment or the newline.
func readDirectiveExpression(s *lexer.TokenStream) string {
	saved := s.SkipNewlines
	s.SkipNewlines = false
	defer func() { s.SkipNewlines = saved }()

	var tokens []lexer.Token
	for {
		tok := s.PeekToken()
		switch tok.Type {
		case lexer.TokenNewline, lexer.TokenEOF, lexer.TokenLineComment, lexer.TokenBlockComment:
			return JoinTokens(tokens, false)
		}
		tokens = append(tokens, s.GetToken())
	}
}

// Include is an #include directive
type Include struct {
	Base
	Path string // including the quotes or angle brackets
}

func (i *Include) Kind() Kind { return KindInclude }

func (i *Include) String() string { return Render(i, CPlusPlus) }

func (i *Include) write(w *CodeWriter, ctx WriteContext) {
	w.WriteUnindented("#include " + i.Path)
}

func (i *Include) clone(deep bool) Element {
	c := *i
	c.Base = i.cloneBase(&c, deep)
	return &c
}

// IncludedFile returns the path without delimiters
func (i *Include) IncludedFile() string {
	return strings.Trim(i.Path, "<>\"")
}

func parseInclude(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	tok, ok := s.GetTokenOfType(lexer.TokenPPInclude)
	if !ok {
		return nil, false
	}
	path, ok := s.GetTokenOfType(lexer.TokenPPString, lexer.TokenPPIdentifier)
	if !ok {
		s.Rewind(cp)
		return nil, false
	}
	return &Include{Base: Base{Tokens: []lexer.Token{tok, path}}, Path: path.Value}, true
}

// Define is a #define directive
type Define struct {
	Base
	Name    string
	Args    []string // nil for object-like macros
	Content string
}

func (d *Define) Kind() Kind { return KindDefine }

func (d *Define) String() string { return Render(d, CPlusPlus) }

// IsFunctionLike reports whether the macro takes arguments
func (d *Define) IsFunctionLike() bool { return d.Args != nil }

func (d *Define) write(w *CodeWriter, ctx WriteContext) {
	text := "#define " + d.Name
	if d.Args != nil {
		text += "(" + strings.Join(d.Args, ", ") + ")"
	}
	if d.Content != "" {
		text += " " + d.Content
	}
	w.WriteUnindented(text)
}

func (d *Define) clone(deep bool) Element {
	c := *d
	c.Base = d.cloneBase(&c, deep)
	if d.Args != nil {
		c.Args = append([]string{}, d.Args...)
	}
	return &c
}

func parseDefine(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	tok, ok := s.GetTokenOfType(lexer.TokenPPDefine)
	if !ok {
		return nil, false
	}
	d := &Define{Base: Base{Tokens: []lexer.Token{tok}}}
	rest := strings.TrimLeft(strings.TrimPrefix(tok.Value, "#define"), " \t")

	end := 0
	for end < len(rest) && (isIdentChar(rest[end])) {
		end++
	}
	if end == 0 {
		s.RewindOneToken()
		return nil, false
	}
	d.Name = rest[:end]
	rest = rest[end:]

	if strings.HasPrefix(rest, "(") {
		closing := strings.IndexByte(rest, ')')
		if closing < 0 {
			s.RewindOneToken()
			return nil, false
		}
		d.Args = []string{}
		for _, arg := range strings.Split(rest[1:closing], ",") {
			if arg = strings.TrimSpace(arg); arg != "" {
				d.Args = append(d.Args, arg)
			}
		}
		rest = rest[closing+1:]
	}
	d.Content = strings.TrimSpace(rest)
	return d, true
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Undef is an #undef directive
type Undef struct {
	Base
	Name string
}

func (u *Undef) Kind() Kind { return KindUndef }

func (u *Undef) String() string { return Render(u, CPlusPlus) }

func (u *Undef) write(w *CodeWriter, ctx WriteContext) {
	w.WriteUnindented("#undef " + u.Name)
}

func (u *Undef) clone(deep bool) Element {
	c := *u
	c.Base = u.cloneBase(&c, deep)
	return &c
}

func parseUndef(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	tok, ok := s.GetTokenOfType(lexer.TokenPPUndef)
	if !ok {
		return nil, false
	}
	name, ok := s.GetTokenOfType(lexer.TokenPPIdentifier)
	if !ok {
		s.Rewind(cp)
		return nil, false
	}
	return &Undef{Base: Base{Tokens: []lexer.Token{tok, name}}, Name: name.Value}, true
}

// Pragma is a #pragma directive
type Pragma struct {
	Base
	Text string // the whole directive line
}

func (p *Pragma) Kind() Kind { return KindPragma }

func (p *Pragma) String() string { return Render(p, CPlusPlus) }

// IsOnce reports whether this is "#pragma once"
func (p *Pragma) IsOnce() bool {
	return strings.Join(strings.Fields(p.Text), " ") == "#pragma once"
}

func (p *Pragma) write(w *CodeWriter, ctx WriteContext) {
	w.WriteUnindented(p.Text)
}

func (p *Pragma) clone(deep bool) Element {
	c := *p
	c.Base = p.cloneBase(&c, deep)
	return &c
}

func parsePragma(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	tok, ok := s.GetTokenOfType(lexer.TokenPPPragma)
	if !ok {
		return nil, false
	}
	return &Pragma{Base: Base{Tokens: []lexer.Token{tok}}, Text: tok.Value}, true
}

// Error is an #error directive
type Error struct {
	Base
	Text string // the whole directive line
}

func (e *Error) Kind() Kind { return KindError }

func (e *Error) String() string { return Render(e, CPlusPlus) }

func (e *Error) write(w *CodeWriter, ctx WriteContext) {
	w.WriteUnindented(e.Text)
}

func (e *Error) clone(deep bool) Element {
	c := *e
	c.Base = e.cloneBase(&c, deep)
	return &c
}

func parseError(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	tok, ok := s.GetTokenOfType(lexer.TokenPPError)
	if !ok {
		return nil, false
	}
	return &Error{Base: Base{Tokens: []lexer.Token{tok}}, Text: tok.Value}, true
}
