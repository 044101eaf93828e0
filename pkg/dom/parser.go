package dom

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"cbridge/pkg/lexer"
)

type parseFunc func(ctx *ParseContext, s *lexer.TokenStream) (Element, bool)

// dispatch maps the lookahead token to the trial parsers to attempt, in
// order. UnparsableThing is always the last resort.
var dispatch map[lexer.TokenType][]parseFunc

// enumDispatch replaces dispatch inside enum bodies
var enumDispatch map[lexer.TokenType][]parseFunc

func init() {
	declaration := []parseFunc{parseFunctionDeclaration, parseFieldDeclaration}
	dispatch = map[lexer.TokenType][]parseFunc{
		lexer.TokenIdentifier:  declaration,
		lexer.TokenConst:       declaration,
		lexer.TokenVolatile:    declaration,
		lexer.TokenStatic:      declaration,
		lexer.TokenInline:      declaration,
		lexer.TokenVirtual:     declaration,
		lexer.TokenExplicit:    declaration,
		lexer.TokenConstexpr:   declaration,
		lexer.TokenMutable:     declaration,
		lexer.TokenTilde:       declaration,
		lexer.TokenOperator:    declaration,
		lexer.TokenTypename:    declaration,
		lexer.TokenDoubleColon: declaration,
		lexer.TokenExtern:      {parseExternC, parseFunctionDeclaration, parseFieldDeclaration},
		lexer.TokenStruct:      {parseClassStructUnion, parseFunctionDeclaration, parseFieldDeclaration},
		lexer.TokenClass:       {parseClassStructUnion, parseFunctionDeclaration, parseFieldDeclaration},
		lexer.TokenUnion:       {parseClassStructUnion, parseFunctionDeclaration, parseFieldDeclaration},
		lexer.TokenEnum:        {parseEnum, parseFunctionDeclaration, parseFieldDeclaration},
		lexer.TokenNamespace:   {parseNamespace},
		lexer.TokenTypedef:     {parseTypedef},
		lexer.TokenTemplate:    {parseTemplate},
		lexer.TokenPPIf:        {parsePreprocessorIf},
		lexer.TokenPPIfdef:     {parseGuardedExternC, parsePreprocessorIf},
		lexer.TokenPPIfndef:    {parsePreprocessorIf},
		lexer.TokenPPInclude:   {parseInclude},
		lexer.TokenPPDefine:    {parseDefine},
		lexer.TokenPPUndef:     {parseUndef},
		lexer.TokenPPPragma:    {parsePragma},
		lexer.TokenPPError:     {parseError},
	}

	enumDispatch = map[lexer.TokenType][]parseFunc{
		lexer.TokenIdentifier: {parseEnumElement},
	}
	for _, tt := range []lexer.TokenType{
		lexer.TokenPPIf, lexer.TokenPPIfdef, lexer.TokenPPIfndef, lexer.TokenPPInclude,
		lexer.TokenPPDefine, lexer.TokenPPUndef, lexer.TokenPPPragma, lexer.TokenPPError,
	} {
		enumDispatch[tt] = dispatch[tt]
	}
}

type scope struct {
	class     *ClassStructUnion
	enum      *Enum
	namespace *Namespace
	access    string
}

// ParseContext carries parser settings and the current nesting
type ParseContext struct {
	Filename  string
	APIMacros []string
	// Warnings receives messages about unparsable constructs
	Warnings io.Writer

	scopes         []scope
	guardedExternC int // open "#ifdef __cplusplus" extern "C" blocks
}

// NewParseContext creates a context that reports warnings to stderr
func NewParseContext(filename string, apiMacros []string) *ParseContext {
	return &ParseContext{
		Filename:  filename,
		APIMacros: apiMacros,
		Warnings:  os.Stderr,
	}
}

func (ctx *ParseContext) isAPIMacro(name string) bool {
	if ctx == nil {
		return false
	}
	for _, macro := range ctx.APIMacros {
		if macro == name {
			return true
		}
	}
	return false
}

func (ctx *ParseContext) pushScope(sc scope) {
	ctx.scopes = append(ctx.scopes, sc)
}

func (ctx *ParseContext) popScope() {
	ctx.scopes = ctx.scopes[:len(ctx.scopes)-1]
}

func (ctx *ParseContext) currentScope() *scope {
	if ctx == nil || len(ctx.scopes) == 0 {
		return nil
	}
	return &ctx.scopes[len(ctx.scopes)-1]
}

func (ctx *ParseContext) currentClassName() string {
	if sc := ctx.currentScope(); sc != nil && sc.class != nil {
		return sc.class.Name
	}
	return ""
}

func (ctx *ParseContext) warnf(format string, args ...interface{}) {
	if ctx.Warnings == nil {
		return
	}
	fmt.Fprintf(ctx.Warnings, "Warning: "+format+"\n", args...)
}

// ParseHeaderFile parses a complete header. Rewinding past the stream's
// history and lexer errors are reported as errors.
func ParseHeaderFile(ctx *ParseContext, s *lexer.TokenStream) (file *HeaderFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			rewindErr, ok := r.(*lexer.RewindError)
			if !ok {
				panic(r)
			}
			file = nil
			err = errors.Wrapf(rewindErr, "parsing %s", ctx.Filename)
		}
	}()

	file = &HeaderFile{SourceFilename: ctx.Filename}
	if err := parseDeclarations(ctx, s, file, &file.Children); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", ctx.Filename)
	}
	if tok := s.PeekToken(); tok.Type != lexer.TokenEOF {
		return nil, errors.Errorf("%s:%d:%d: unexpected %q", ctx.Filename, tok.Line, tok.Column, tok.Value)
	}
	markIncludeGuard(file)
	return file, nil
}

// ParseString parses header text with default settings (for testing and
// small inputs)
func ParseString(content string, apiMacros ...string) (*HeaderFile, error) {
	ctx := NewParseContext("<string>", apiMacros)
	ctx.Warnings = io.Discard
	return ParseHeaderFile(ctx, lexer.NewTokenStream(content))
}

// parseDeclarations fills list with elements until a terminator token (left
// unconsumed) or EOF. It tracks line structure itself: same-line comments
// attach to the preceding element and runs of empty lines become BlankLines.
func parseDeclarations(ctx *ParseContext, s *lexer.TokenStream, parent Element, list *[]Element, terminators ...lexer.TokenType) error {
	saved := s.SkipNewlines
	s.SkipNewlines = false
	defer func() { s.SkipNewlines = saved }()

	add := func(e Element) {
		e.Node().Parent = parent
		*list = append(*list, e)
	}

	var last Element // the element the current line belongs to
	newlines := 0

	for {
		tok := s.PeekToken()
		if tok.Type == lexer.TokenEOF {
			return nil
		}
		for _, tt := range terminators {
			if tok.Type == tt {
				return nil
			}
		}
		if ctx != nil && ctx.guardedExternC > 0 && tok.Type == lexer.TokenPPIfdef && matchCPlusPlusGuard(s, false, false) {
			return nil
		}

		switch tok.Type {
		case lexer.TokenNewline:
			s.GetToken()
			newlines++
			last = nil
			continue
		case lexer.TokenError:
			return errors.Errorf("%s:%d:%d: %s", ctx.Filename, tok.Line, tok.Column, tok.Value)
		}

		if newlines >= 2 && len(*list) > 0 {
			add(&BlankLines{Count: newlines - 1})
		}
		newlines = 0

		if tok.Type == lexer.TokenLineComment || tok.Type == lexer.TokenBlockComment {
			s.GetToken()
			comment := &Comment{Base: Base{Tokens: []lexer.Token{tok}}, Text: tok.Value}
			if last != nil && last.Node().AttachedComment == nil {
				comment.IsAttached = true
				comment.NoDefaultAdd = true
				comment.Parent = last
				last.Node().AttachedComment = comment
				continue
			}
			add(comment)
			last = comment
			continue
		}

		sc := ctx.currentScope()
		if sc != nil && sc.class != nil {
			if access, ok := s.GetTokenOfType(lexer.TokenPublic, lexer.TokenPrivate, lexer.TokenProtected); ok {
				if _, ok := s.GetTokenOfType(lexer.TokenColon); !ok {
					return errors.Errorf("%s:%d: expected ':' after %s", ctx.Filename, access.Line, access.Value)
				}
				sc.access = access.Value
				continue
			}
		}

		s.SkipNewlines = true
		e, ok := ctx.parseOne(s)
		if !ok {
			e, ok = parseUnparsableThing(ctx, s)
			if ok {
				ctx.warnf("%s:%d: unparsable declaration %q", ctx.Filename, tok.Line, e.String())
			}
		}
		s.SkipNewlines = false
		if !ok {
			return errors.Errorf("%s:%d:%d: cannot parse %q", ctx.Filename, tok.Line, tok.Column, tok.Value)
		}

		if sc != nil && sc.class != nil {
			e.Node().Accessibility = sc.access
		}
		add(e)
		last = e
	}
}

// parseOne tries each trial parser registered for the lookahead token
func (ctx *ParseContext) parseOne(s *lexer.TokenStream) (Element, bool) {
	table := dispatch
	if sc := ctx.currentScope(); sc != nil && sc.enum != nil {
		table = enumDispatch
	}
	for _, parse := range table[s.PeekToken().Type] {
		if e, ok := parse(ctx, s); ok {
			return e, true
		}
	}
	return nil, false
}

// markIncludeGuard flags a file-spanning "#ifndef X / #define X" block
func markIncludeGuard(file *HeaderFile) {
	var guard *PreprocessorIf
	for _, child := range file.Children {
		switch c := child.(type) {
		case *Comment, *BlankLines, *Pragma:
			continue
		case *PreprocessorIf:
			if guard != nil {
				return
			}
			guard = c
		default:
			return
		}
	}
	if guard == nil || !guard.IsIfdef || !guard.IsNegated || guard.ElseChildren != nil {
		return
	}
	for _, child := range guard.Children {
		switch c := child.(type) {
		case *Comment, *BlankLines:
			continue
		case *Define:
			if c.Name == guard.Expression && c.Content == "" {
				guard.IsIncludeGuard = true
			}
		}
		return
	}
}
