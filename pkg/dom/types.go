package dom

import (
	"github.com/pkg/errors"

	"cbridge/pkg/lexer"
)

// Type is a type expression such as "const ImVec2*". Function pointer types
// keep their signature in FuncPtr.
type Type struct {
	Base
	FuncPtr *FunctionPointerType

	// ValueFromConstRef marks a "const T&" argument that was collapsed to T
	ValueFromConstRef bool
}

func (t *Type) Kind() Kind { return KindType }

// String renders the current (possibly modified) C++ form
func (t *Type) String() string {
	if t.FuncPtr != nil {
		return t.FuncPtr.abstractString(false, false)
	}
	return JoinTokens(t.Tokens, false)
}

// OriginalString renders the type as written in the source: converted
// references are restored, and an explicit original name wins.
func (t *Type) OriginalString() string {
	if t.OriginalNameOverride != "" {
		return t.OriginalNameOverride
	}
	if t.FuncPtr != nil {
		return t.FuncPtr.abstractString(false, true)
	}
	return JoinTokens(t.Tokens, true)
}

// CString renders the type for the C header
func (t *Type) CString() string {
	if t.FuncPtr != nil {
		return t.FuncPtr.abstractString(true, false)
	}
	var kept []lexer.Token
	for _, tok := range t.Tokens {
		if tok.Type == lexer.TokenClass || tok.Type == lexer.TokenTypename {
			continue
		}
		kept = append(kept, tok)
	}
	return JoinTokens(kept, false)
}

func (t *Type) write(w *CodeWriter, ctx WriteContext) {
	if ctx.ForC {
		w.Write(t.CString())
		return
	}
	w.Write(t.String())
}

func (t *Type) clone(deep bool) Element {
	c := *t
	c.Base = t.cloneBase(&c, deep)
	c.FuncPtr = cloneOwned(&c, t.FuncPtr)
	return &c
}

func (t *Type) ownedElements() []Element {
	if t.FuncPtr != nil {
		return []Element{t.FuncPtr}
	}
	return nil
}

// IsPointer reports whether the outermost type is a pointer
func (t *Type) IsPointer() bool {
	if t.FuncPtr != nil {
		return true
	}
	for i := len(t.Tokens) - 1; i >= 0; i-- {
		switch t.Tokens[i].Type {
		case lexer.TokenConst, lexer.TokenVolatile:
			continue
		case lexer.TokenStar:
			return true
		}
		return false
	}
	return false
}

// IsReference reports whether the outermost type is a C++ reference
func (t *Type) IsReference() bool {
	return len(t.Tokens) > 0 && t.Tokens[len(t.Tokens)-1].Type == lexer.TokenAmpersand
}

// IsConst reports whether the type starts with const
func (t *Type) IsConst() bool {
	return len(t.Tokens) > 0 && t.Tokens[0].Type == lexer.TokenConst
}

// IsVoid reports whether the type is exactly void
func (t *Type) IsVoid() bool {
	return t.FuncPtr == nil && len(t.Tokens) == 1 && t.Tokens[0].Value == "void"
}

// IsFunctionPointer reports whether the type holds a function signature
func (t *Type) IsFunctionPointer() bool {
	return t.FuncPtr != nil
}

// PrimaryTypeName returns the last named component of the type, e.g.
// "ImVec2" for "const ImVec2*" and "Foo" for "ns::Foo&".
func (t *Type) PrimaryTypeName() string {
	if t.FuncPtr != nil {
		return t.FuncPtr.Name
	}
	for i := len(t.Tokens) - 1; i >= 0; i-- {
		if t.Tokens[i].Type == lexer.TokenIdentifier {
			return t.Tokens[i].Value
		}
	}
	return ""
}

// BaseTypeString returns the type with const qualifiers, pointers and
// references removed.
func (t *Type) BaseTypeString() string {
	var kept []lexer.Token
	for _, tok := range t.Tokens {
		switch tok.Type {
		case lexer.TokenConst, lexer.TokenVolatile, lexer.TokenStar, lexer.TokenAmpersand,
			lexer.TokenStruct, lexer.TokenClass, lexer.TokenUnion, lexer.TokenEnum:
			continue
		}
		kept = append(kept, tok)
	}
	return JoinTokens(kept, false)
}

// ReplaceTypeName renames every occurrence of an identifier in the type
// (including inside a function pointer signature). It reports whether
// anything changed.
func (t *Type) ReplaceTypeName(from, to string) bool {
	changed := false
	for i := range t.Tokens {
		if t.Tokens[i].Type == lexer.TokenIdentifier && t.Tokens[i].Value == from {
			t.Tokens[i].Value = to
			changed = true
		}
	}
	if t.FuncPtr != nil {
		if t.FuncPtr.ReturnType != nil && t.FuncPtr.ReturnType.ReplaceTypeName(from, to) {
			changed = true
		}
		for _, arg := range t.FuncPtr.Arguments {
			if arg.ArgType != nil && arg.ArgType.ReplaceTypeName(from, to) {
				changed = true
			}
		}
	}
	return changed
}

// ReplaceQualifiedName collapses a qualified name ("A::B") into a single
// identifier. It reports whether anything changed.
func (t *Type) ReplaceQualifiedName(qualified []string, to string) bool {
	changed := false
	n := 2*len(qualified) - 1
	for i := 0; i+n <= len(t.Tokens); i++ {
		match := true
		for j, part := range qualified {
			name := t.Tokens[i+2*j]
			if name.Type != lexer.TokenIdentifier || name.Value != part {
				match = false
				break
			}
			if j > 0 && t.Tokens[i+2*j-1].Type != lexer.TokenDoubleColon {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		replacement := t.Tokens[i]
		replacement.Value = to
		t.Tokens = append(append(append([]lexer.Token(nil), t.Tokens[:i]...), replacement), t.Tokens[i+n:]...)
		changed = true
	}
	return changed
}

// QualifyTypeName rewrites every unqualified occurrence of name into the
// qualified form, e.g. "Pair" into "ImGuiStorage::Pair". It reports whether
// anything changed.
func (t *Type) QualifyTypeName(name string, qualified []string) bool {
	changed := false
	var out []lexer.Token
	for i, tok := range t.Tokens {
		if tok.Type != lexer.TokenIdentifier || tok.Value != name ||
			(i > 0 && t.Tokens[i-1].Type == lexer.TokenDoubleColon) {
			out = append(out, tok)
			continue
		}
		for j, part := range qualified {
			if j > 0 {
				out = append(out, lexer.Token{Type: lexer.TokenDoubleColon, Value: "::", Line: tok.Line})
			}
			q := tok
			q.Value = part
			out = append(out, q)
		}
		changed = true
	}
	if changed {
		t.Tokens = out
	}
	return changed
}

// ReplaceTypeNameWithTokens substitutes a token sequence for every
// occurrence of an identifier, e.g. a template argument for its parameter.
func (t *Type) ReplaceTypeNameWithTokens(from string, replacement []lexer.Token) bool {
	changed := false
	var out []lexer.Token
	for _, tok := range t.Tokens {
		if tok.Type == lexer.TokenIdentifier && tok.Value == from {
			out = append(out, replacement...)
			changed = true
			continue
		}
		out = append(out, tok)
	}
	if changed {
		t.Tokens = out
	}
	if t.FuncPtr != nil {
		if t.FuncPtr.ReturnType != nil && t.FuncPtr.ReturnType.ReplaceTypeNameWithTokens(from, replacement) {
			changed = true
		}
		for _, arg := range t.FuncPtr.Arguments {
			if arg.ArgType != nil && arg.ArgType.ReplaceTypeNameWithTokens(from, replacement) {
				changed = true
			}
		}
	}
	return changed
}

// NewType parses a type from text
func NewType(text string) (*Type, error) {
	s := lexer.NewTokenStream(text)
	t, ok := parseType(nil, s)
	if !ok || !s.AtEOF() {
		return nil, errors.Errorf("cannot parse type %q", text)
	}
	return t, nil
}

// MustType is NewType for literal type strings known to be valid
func MustType(text string) *Type {
	t, err := NewType(text)
	if err != nil {
		panic(err)
	}
	return t
}

// FunctionPointerType is the signature part of a function pointer type
type FunctionPointerType struct {
	Base
	ReturnType *Type
	Arguments  []*FunctionArgument
	Name       string
}

func (f *FunctionPointerType) Kind() Kind { return KindFunctionPointerType }

func (f *FunctionPointerType) String() string {
	return f.DeclaratorString(f.Name, false, false)
}

// DeclaratorString renders "ret (*name)(args)"
func (f *FunctionPointerType) DeclaratorString(name string, forC, original bool) string {
	ret := ""
	if f.ReturnType != nil {
		switch {
		case forC:
			ret = f.ReturnType.CString()
		case original:
			ret = f.ReturnType.OriginalString()
		default:
			ret = f.ReturnType.String()
		}
	}
	return ret + " (*" + name + ")(" + argumentListString(f.Arguments, forC, original) + ")"
}

func (f *FunctionPointerType) abstractString(forC, original bool) string {
	return f.DeclaratorString("", forC, original)
}

func (f *FunctionPointerType) write(w *CodeWriter, ctx WriteContext) {
	w.Write(f.DeclaratorString(f.Name, ctx.ForC, false))
}

func (f *FunctionPointerType) clone(deep bool) Element {
	c := *f
	c.Base = f.cloneBase(&c, deep)
	c.ReturnType = cloneOwned(&c, f.ReturnType)
	c.Arguments = cloneArguments(f.Arguments, &c)
	return &c
}

func (f *FunctionPointerType) ownedElements() []Element {
	var out []Element
	if f.ReturnType != nil {
		out = append(out, f.ReturnType)
	}
	for _, arg := range f.Arguments {
		out = append(out, arg)
	}
	return out
}

func cloneArguments(args []*FunctionArgument, owner Element) []*FunctionArgument {
	if args == nil {
		return nil
	}
	out := make([]*FunctionArgument, 0, len(args))
	for _, arg := range args {
		out = append(out, cloneOwned(owner, arg))
	}
	return out
}

// declaratorString renders "type name", folding the name into function
// pointer types.
func declaratorString(t *Type, name string, forC, original bool) string {
	if t == nil {
		return name
	}
	if t.FuncPtr != nil {
		return t.FuncPtr.DeclaratorString(name, forC, original)
	}
	var text string
	switch {
	case forC:
		text = t.CString()
	case original:
		text = t.OriginalString()
	default:
		text = t.String()
	}
	if name == "" {
		return text
	}
	return text + " " + name
}

var builtinTypeWords = map[string]bool{
	"void": true, "bool": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true, "wchar_t": true,
}

var builtinModifierWords = map[string]bool{
	"signed": true, "unsigned": true, "long": true, "short": true,
}

// IsBuiltinType reports whether a type name is a C builtin
func IsBuiltinType(name string) bool {
	return builtinTypeWords[name]
}

// parseType reads a type expression up to (not including) the declarator
// name. ctx may be nil.
func parseType(ctx *ParseContext, s *lexer.TokenStream) (*Type, bool) {
	cp := s.GetCheckpoint()
	var tokens []lexer.Token
	hasBase := false
	lastWord := ""

loop:
	for {
		tok := s.PeekToken()
		switch tok.Type {
		case lexer.TokenConst, lexer.TokenVolatile:
			tokens = append(tokens, s.GetToken())
		case lexer.TokenStruct, lexer.TokenClass, lexer.TokenUnion, lexer.TokenEnum, lexer.TokenTypename:
			if hasBase {
				break loop
			}
			tokens = append(tokens, s.GetToken())
		case lexer.TokenIdentifier:
			if hasBase {
				if !(builtinModifierWords[lastWord] && builtinTypeWords[tok.Value]) {
					break loop
				}
			} else if ctx != nil && ctx.isAPIMacro(tok.Value) {
				break loop
			}
			tokens = append(tokens, s.GetToken())
			hasBase = true
			lastWord = tok.Value
		case lexer.TokenDoubleColon:
			tokens = append(tokens, s.GetToken())
			hasBase = false
			lastWord = ""
		case lexer.TokenLess:
			if !hasBase {
				break loop
			}
			args, ok := readBalanced(s, lexer.TokenLess, lexer.TokenGreater)
			if !ok {
				s.Rewind(cp)
				return nil, false
			}
			tokens = append(tokens, args...)
			lastWord = ""
		case lexer.TokenStar, lexer.TokenAmpersand:
			if !hasBase {
				break loop
			}
			tokens = append(tokens, s.GetToken())
			lastWord = ""
		default:
			break loop
		}
	}

	if !hasBase || tokens[len(tokens)-1].Type == lexer.TokenDoubleColon {
		s.Rewind(cp)
		return nil, false
	}
	return &Type{Base: Base{Tokens: tokens}}, true
}

// parseFunctionPointerDeclarator reads "(*name)(args)" after a return type
func parseFunctionPointerDeclarator(ctx *ParseContext, s *lexer.TokenStream, ret *Type) (*Type, bool) {
	cp := s.GetCheckpoint()
	fail := func() (*Type, bool) {
		s.Rewind(cp)
		return nil, false
	}

	if _, ok := s.GetTokenOfType(lexer.TokenLeftParen); !ok {
		return fail()
	}
	if _, ok := s.GetTokenOfType(lexer.TokenStar); !ok {
		return fail()
	}
	name := ""
	if tok, ok := s.GetTokenOfType(lexer.TokenIdentifier); ok {
		name = tok.Value
	}
	if _, ok := s.GetTokenOfType(lexer.TokenRightParen); !ok {
		return fail()
	}
	args, ok := parseArgumentList(ctx, s)
	if !ok {
		return fail()
	}

	fp := &FunctionPointerType{Name: name}
	fp.ReturnType = adopt[*Type](fp, ret)
	for _, arg := range args {
		fp.Arguments = append(fp.Arguments, adopt(Element(fp), arg))
	}
	t := &Type{Base: Base{Tokens: append(append([]lexer.Token(nil), ret.Tokens...), lexer.Token{Type: lexer.TokenStar, Value: "*"})}}
	t.FuncPtr = adopt(Element(t), fp)
	return t, true
}

// readBalanced consumes an open token through its matching close token and
// returns everything read, delimiters included.
func readBalanced(s *lexer.TokenStream, open, close lexer.TokenType) ([]lexer.Token, bool) {
	cp := s.GetCheckpoint()
	first, ok := s.GetTokenOfType(open)
	if !ok {
		return nil, false
	}
	tokens := []lexer.Token{first}
	depth := 1
	for depth > 0 {
		tok := s.GetToken()
		switch tok.Type {
		case lexer.TokenEOF, lexer.TokenError:
			s.Rewind(cp)
			return nil, false
		case open:
			depth++
		case close:
			depth--
		}
		tokens = append(tokens, tok)
	}
	return tokens, true
}
