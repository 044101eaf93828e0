package dom

import (
	"strings"

	"cbridge/pkg/lexer"
)

// FunctionArgument is one parameter of a function or function pointer
type FunctionArgument struct {
	Base
	ArgType      *Type // nil for varargs
	Name         string
	DefaultValue []lexer.Token
	ArrayBounds  []string

	IsVarargs bool
	// IsImplicitDefault marks an argument a default-argument helper fills in
	// itself; it does not appear in the C signature.
	IsImplicitDefault bool
	// IsInstancePointer marks the injected self argument
	IsInstancePointer bool
}

func (a *FunctionArgument) Kind() Kind { return KindFunctionArgument }

func (a *FunctionArgument) String() string {
	return a.Render(false, false)
}

// OriginalString renders the argument with its original type spelling
func (a *FunctionArgument) OriginalString() string {
	return a.Render(false, true)
}

// HasDefault reports whether the argument carries a default value
func (a *FunctionArgument) HasDefault() bool {
	return len(a.DefaultValue) > 0
}

// DefaultValueString returns the default value expression text
func (a *FunctionArgument) DefaultValueString() string {
	return JoinTokens(a.DefaultValue, false)
}

// IsArray reports whether the argument is declared with array bounds
func (a *FunctionArgument) IsArray() bool {
	return len(a.ArrayBounds) > 0
}

func (a *FunctionArgument) Render(forC, original bool) string {
	if a.IsVarargs {
		return "..."
	}
	text := declaratorString(a.ArgType, a.Name, forC, original)
	for _, bound := range a.ArrayBounds {
		text += "[" + bound + "]"
	}
	if a.HasDefault() {
		if forC {
			text += " /* = " + a.DefaultValueString() + " */"
		} else {
			text += " = " + a.DefaultValueString()
		}
	}
	return text
}

func (a *FunctionArgument) write(w *CodeWriter, ctx WriteContext) {
	w.Write(a.Render(ctx.ForC, false))
}

func (a *FunctionArgument) clone(deep bool) Element {
	c := *a
	c.Base = a.cloneBase(&c, deep)
	c.ArgType = cloneOwned(&c, a.ArgType)
	c.DefaultValue = append([]lexer.Token(nil), a.DefaultValue...)
	c.ArrayBounds = append([]string(nil), a.ArrayBounds...)
	return &c
}

func (a *FunctionArgument) ownedElements() []Element {
	if a.ArgType != nil {
		return []Element{a.ArgType}
	}
	return nil
}

// SetType replaces the argument type
func (a *FunctionArgument) SetType(t *Type) {
	a.ArgType = adopt[*Type](a, t)
}

func argumentListString(args []*FunctionArgument, forC, original bool) string {
	var parts []string
	for _, arg := range args {
		if forC && arg.IsImplicitDefault {
			continue
		}
		parts = append(parts, arg.Render(forC, original))
	}
	if forC && len(parts) == 0 {
		return "void"
	}
	return strings.Join(parts, ", ")
}

// parseArgumentList reads "(arg, arg, ...)"
func parseArgumentList(ctx *ParseContext, s *lexer.TokenStream) ([]*FunctionArgument, bool) {
	cp := s.GetCheckpoint()
	fail := func() ([]*FunctionArgument, bool) {
		s.Rewind(cp)
		return nil, false
	}

	if _, ok := s.GetTokenOfType(lexer.TokenLeftParen); !ok {
		return fail()
	}
	args := []*FunctionArgument{}
	skipComments(s)
	if _, ok := s.GetTokenOfType(lexer.TokenRightParen); ok {
		return args, true
	}
	for {
		skipComments(s)
		arg, ok := parseFunctionArgument(ctx, s)
		if !ok {
			return fail()
		}
		args = append(args, arg)
		skipComments(s)
		tok := s.GetToken()
		switch tok.Type {
		case lexer.TokenComma:
			continue
		case lexer.TokenRightParen:
			// "(void)" means no arguments
			if len(args) == 1 && args[0].Name == "" && args[0].ArgType != nil && args[0].ArgType.IsVoid() {
				return []*FunctionArgument{}, true
			}
			return args, true
		default:
			return fail()
		}
	}
}

// parseFunctionArgument reads a single argument
func parseFunctionArgument(ctx *ParseContext, s *lexer.TokenStream) (*FunctionArgument, bool) {
	cp := s.GetCheckpoint()
	fail := func() (*FunctionArgument, bool) {
		s.Rewind(cp)
		return nil, false
	}

	arg := &FunctionArgument{}
	if tok, ok := s.GetTokenOfType(lexer.TokenEllipsis); ok {
		arg.Tokens = []lexer.Token{tok}
		arg.IsVarargs = true
		return arg, true
	}

	t, ok := parseType(ctx, s)
	if !ok {
		return fail()
	}
	if fp, ok := parseFunctionPointerDeclarator(ctx, s, t); ok {
		t = fp
		arg.Name = fp.FuncPtr.Name
		fp.FuncPtr.Name = ""
	} else if tok, ok := s.GetTokenOfType(lexer.TokenIdentifier); ok {
		arg.Name = tok.Value
	}
	arg.SetType(t)

	for {
		bound, ok := readBalanced(s, lexer.TokenLeftBracket, lexer.TokenRightBracket)
		if !ok {
			break
		}
		arg.ArrayBounds = append(arg.ArrayBounds, JoinTokens(bound[1:len(bound)-1], false))
	}

	if _, ok := s.GetTokenOfType(lexer.TokenEquals); ok {
		value, ok := readUntilDepthZero(s, lexer.TokenComma, lexer.TokenRightParen)
		if !ok || len(value) == 0 {
			return fail()
		}
		arg.DefaultValue = value
	}
	return arg, true
}

// FunctionDeclaration is a free function, method, constructor or destructor
type FunctionDeclaration struct {
	Base
	Name       string
	ReturnType *Type // nil for constructors and destructors until flattened
	Arguments  []*FunctionArgument
	Body       *CodeBlock

	APIMacro       string
	TrailingMacros []string

	IsConst       bool
	IsStatic      bool
	IsInline      bool
	IsVirtual     bool
	IsExplicit    bool
	IsConstexpr   bool
	IsExtern      bool
	IsPureVirtual bool
	IsDeleted     bool
	IsDefaulted   bool
	IsOverride    bool
	IsConstructor bool
	IsDestructor  bool
	IsOperator    bool

	// OriginalClass is the class a flattened method came from (non-owning)
	OriginalClass *ClassStructUnion

	IsManualHelper          bool
	IsDefaultArgumentHelper bool
	IsStringViewHelper      bool
	HasStringViewHelper     bool

	// NameAlignment is the column the function name is padded to
	NameAlignment int
}

func (f *FunctionDeclaration) Kind() Kind { return KindFunctionDeclaration }

func (f *FunctionDeclaration) String() string { return Render(f, CPlusPlus) }

// SetReturnType replaces the return type
func (f *FunctionDeclaration) SetReturnType(t *Type) {
	f.ReturnType = adopt[*Type](f, t)
}

// SetArguments replaces the argument list
func (f *FunctionDeclaration) SetArguments(args []*FunctionArgument) {
	f.Arguments = nil
	for _, arg := range args {
		f.Arguments = append(f.Arguments, adopt(Element(f), arg))
	}
}

// InsertArgument inserts an argument at index
func (f *FunctionDeclaration) InsertArgument(index int, arg *FunctionArgument) {
	arg.Parent = f
	f.Arguments = append(f.Arguments[:index], append([]*FunctionArgument{arg}, f.Arguments[index:]...)...)
}

// IsVarargs reports whether the last argument is "..."
func (f *FunctionDeclaration) IsVarargs() bool {
	return len(f.Arguments) > 0 && f.Arguments[len(f.Arguments)-1].IsVarargs
}

// ExplicitArguments returns the arguments visible in the C signature
func (f *FunctionDeclaration) ExplicitArguments() []*FunctionArgument {
	var out []*FunctionArgument
	for _, arg := range f.Arguments {
		if !arg.IsImplicitDefault {
			out = append(out, arg)
		}
	}
	return out
}

func (f *FunctionDeclaration) write(w *CodeWriter, ctx WriteContext) {
	var prefix []string
	if f.APIMacro != "" {
		prefix = append(prefix, f.APIMacro)
	}
	if !ctx.ForC {
		for _, flag := range []struct {
			set  bool
			text string
		}{
			{f.IsExtern, "extern"}, {f.IsStatic, "static"}, {f.IsInline, "inline"},
			{f.IsVirtual, "virtual"}, {f.IsExplicit, "explicit"}, {f.IsConstexpr, "constexpr"},
		} {
			if flag.set {
				prefix = append(prefix, flag.text)
			}
		}
	}
	if f.ReturnType != nil {
		if ctx.ForC {
			prefix = append(prefix, f.ReturnType.CString())
		} else {
			prefix = append(prefix, f.ReturnType.String())
		}
	} else if ctx.ForC {
		prefix = append(prefix, "void")
	}

	head := strings.Join(prefix, " ")
	if head != "" {
		head += " "
	}
	for len(head) < f.NameAlignment {
		head += " "
	}
	w.Write(head + f.Name + "(" + argumentListString(f.Arguments, ctx.ForC, false) + ")")

	if ctx.ForC {
		w.Write(";")
		return
	}
	if f.IsConst {
		w.Write(" const")
	}
	if f.IsOverride {
		w.Write(" override")
	}
	for _, macro := range f.TrailingMacros {
		w.Write(" " + macro)
	}
	switch {
	case f.IsPureVirtual:
		w.Write(" = 0")
	case f.IsDeleted:
		w.Write(" = delete")
	case f.IsDefaulted:
		w.Write(" = default")
	}
	if f.Body != nil {
		w.Write(" ")
		f.Body.write(w, ctx)
		return
	}
	w.Write(";")
}

func (f *FunctionDeclaration) clone(deep bool) Element {
	c := *f
	c.Base = f.cloneBase(&c, deep)
	c.ReturnType = cloneOwned(&c, f.ReturnType)
	c.Arguments = cloneArguments(f.Arguments, &c)
	c.Body = cloneOwned(&c, f.Body)
	c.TrailingMacros = append([]string(nil), f.TrailingMacros...)
	return &c
}

func (f *FunctionDeclaration) ownedElements() []Element {
	var out []Element
	if f.ReturnType != nil {
		out = append(out, f.ReturnType)
	}
	for _, arg := range f.Arguments {
		out = append(out, arg)
	}
	if f.Body != nil {
		out = append(out, f.Body)
	}
	return out
}

// parseFunctionDeclaration is the trial parser for functions, methods,
// constructors, destructors and operators.
func parseFunctionDeclaration(ctx *ParseContext, s *lexer.TokenStream) (Element, bool) {
	cp := s.GetCheckpoint()
	fail := func() (Element, bool) {
		s.Rewind(cp)
		return nil, false
	}

	fn := &FunctionDeclaration{}

	// prefixes
prefixes:
	for {
		tok := s.PeekToken()
		switch {
		case tok.Type == lexer.TokenIdentifier && ctx.isAPIMacro(tok.Value):
			fn.APIMacro = s.GetToken().Value
		case tok.Type == lexer.TokenStatic:
			s.GetToken()
			fn.IsStatic = true
		case tok.Type == lexer.TokenInline:
			s.GetToken()
			fn.IsInline = true
		case tok.Type == lexer.TokenVirtual:
			s.GetToken()
			fn.IsVirtual = true
		case tok.Type == lexer.TokenExplicit:
			s.GetToken()
			fn.IsExplicit = true
		case tok.Type == lexer.TokenConstexpr:
			s.GetToken()
			fn.IsConstexpr = true
		case tok.Type == lexer.TokenExtern:
			s.GetToken()
			fn.IsExtern = true
		default:
			break prefixes
		}
	}

	className := ctx.currentClassName()
	switch tok := s.PeekToken(); {
	case tok.Type == lexer.TokenTilde:
		s.GetToken()
		name, ok := s.GetTokenOfType(lexer.TokenIdentifier)
		if !ok || (className != "" && name.Value != className) {
			return fail()
		}
		fn.Name = "~" + name.Value
		fn.IsDestructor = true
	case tok.Type == lexer.TokenIdentifier && tok.Value == className && className != "" && peekSecond(s).Type == lexer.TokenLeftParen:
		s.GetToken()
		fn.Name = tok.Value
		fn.IsConstructor = true
	case tok.Type == lexer.TokenOperator:
		// conversion operator, e.g. "operator bool()"
		s.GetToken()
		t, ok := parseType(ctx, s)
		if !ok {
			return fail()
		}
		fn.Name = "operator " + t.String()
		fn.IsOperator = true
	default:
		ret, ok := parseType(ctx, s)
		if !ok {
			return fail()
		}
		fn.SetReturnType(ret)
		if _, ok := s.GetTokenOfType(lexer.TokenOperator); ok {
			name, ok := parseOperatorName(s)
			if !ok {
				return fail()
			}
			fn.Name = name
			fn.IsOperator = true
		} else {
			name, ok := s.GetTokenOfType(lexer.TokenIdentifier)
			if !ok {
				return fail()
			}
			fn.Name = name.Value
		}
	}

	args, ok := parseArgumentList(ctx, s)
	if !ok {
		return fail()
	}
	fn.SetArguments(args)

	// suffixes
	for {
		tok := s.PeekToken()
		switch tok.Type {
		case lexer.TokenConst:
			s.GetToken()
			fn.IsConst = true
		case lexer.TokenIdentifier:
			s.GetToken()
			switch tok.Value {
			case "override":
				fn.IsOverride = true
			case "final":
			default:
				macro := tok.Value
				if s.PeekToken().Type == lexer.TokenLeftParen {
					margs, ok := readBalanced(s, lexer.TokenLeftParen, lexer.TokenRightParen)
					if !ok {
						return fail()
					}
					macro += JoinTokens(margs, false)
				}
				fn.TrailingMacros = append(fn.TrailingMacros, macro)
			}
		case lexer.TokenEquals:
			s.GetToken()
			value := s.GetToken()
			switch value.Value {
			case "0":
				fn.IsPureVirtual = true
			case "delete":
				fn.IsDeleted = true
			case "default":
				fn.IsDefaulted = true
			default:
				return fail()
			}
		case lexer.TokenColon:
			// constructor initializer list
			if !fn.IsConstructor {
				return fail()
			}
			for s.PeekToken().Type != lexer.TokenLeftBrace {
				if t := s.GetToken(); t.Type == lexer.TokenEOF || t.Type == lexer.TokenSemicolon {
					return fail()
				}
			}
		case lexer.TokenSemicolon:
			s.GetToken()
			return fn, true
		case lexer.TokenLeftBrace:
			body, ok := parseCodeBlock(ctx, s)
			if !ok {
				return fail()
			}
			fn.Body = adopt(Element(fn), body.(*CodeBlock))
			s.GetTokenOfType(lexer.TokenSemicolon)
			return fn, true
		default:
			return fail()
		}
	}
}

// parseOperatorName reads the symbol after "operator"
func parseOperatorName(s *lexer.TokenStream) (string, bool) {
	name := "operator"
	if _, ok := s.PeekTokenOfType(lexer.TokenLeftParen); ok {
		// operator()
		cp := s.GetCheckpoint()
		s.GetToken()
		if _, ok := s.GetTokenOfType(lexer.TokenRightParen); !ok {
			s.Rewind(cp)
			return "", false
		}
		return name + "()", true
	}
	count := 0
	for s.PeekToken().Type != lexer.TokenLeftParen {
		tok := s.GetToken()
		if tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenSemicolon {
			return "", false
		}
		if tok.Type == lexer.TokenIdentifier {
			name += " "
		}
		name += tok.Value
		count++
	}
	return name, count > 0
}

// peekSecond returns the token after the next one
func peekSecond(s *lexer.TokenStream) lexer.Token {
	cp := s.GetCheckpoint()
	s.GetToken()
	tok := s.GetToken()
	s.Rewind(cp)
	return tok
}

// skipComments drops comment tokens inside declarations
func skipComments(s *lexer.TokenStream) {
	for {
		if _, ok := s.GetTokenOfType(lexer.TokenLineComment, lexer.TokenBlockComment); !ok {
			return
		}
	}
}

// readUntilDepthZero reads tokens until one of the stop types (or a
// comment) appears outside any brackets. The stop token is not consumed.
func readUntilDepthZero(s *lexer.TokenStream, stops ...lexer.TokenType) ([]lexer.Token, bool) {
	var tokens []lexer.Token
	depth := 0
	for {
		tok := s.PeekToken()
		if tok.Type == lexer.TokenEOF || tok.Type == lexer.TokenError {
			return nil, false
		}
		if tok.IsPreprocessor() {
			return tokens, depth == 0
		}
		if depth == 0 {
			for _, stop := range stops {
				if tok.Type == stop {
					return tokens, true
				}
			}
		}
		switch tok.Type {
		case lexer.TokenLeftParen, lexer.TokenLeftBrace, lexer.TokenLeftBracket:
			depth++
		case lexer.TokenRightParen, lexer.TokenRightBrace, lexer.TokenRightBracket:
			depth--
			if depth < 0 {
				return nil, false
			}
		case lexer.TokenLineComment, lexer.TokenBlockComment:
			if depth == 0 {
				return tokens, true
			}
			s.GetToken()
			continue
		}
		tokens = append(tokens, s.GetToken())
	}
}
