// Package lexer turns C++ header text into a flat token sequence and provides
// a backtracking cursor over it.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenWhitespace
	TokenNewline
	TokenLineComment  // //
	TokenBlockComment // /* */

	// Literals
	TokenIdentifier
	TokenNumber
	TokenString
	TokenCharLiteral
	TokenBoolean  // true, false
	TokenEllipsis // ...

	// Operators and punctuation
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenSemicolon    // ;
	TokenColon        // :
	TokenDoubleColon  // ::
	TokenComma        // ,
	TokenDot          // .
	TokenStar         // *
	TokenAmpersand    // &
	TokenEquals       // =
	TokenPlus         // +
	TokenMinus        // -
	TokenSlash        // /
	TokenLess         // <
	TokenGreater      // >
	TokenTilde        // ~
	TokenExclamation  // !
	TokenQuestion     // ?
	TokenPipe         // |
	TokenCaret        // ^
	TokenPercent      // %
	TokenLeftShift    // <<
	TokenCompound     // ==, !=, <=, >=, &&, ||, ->, ++, --, op=
	TokenBackslash    // \

	// Keywords
	TokenKeywordStart // Marker for start of keywords
	TokenConst
	TokenConstexpr
	TokenVolatile
	TokenStatic
	TokenExtern
	TokenInline
	TokenStruct
	TokenClass
	TokenUnion
	TokenEnum
	TokenNamespace
	TokenTypedef
	TokenTemplate
	TokenTypename
	TokenOperator
	TokenPublic
	TokenPrivate
	TokenProtected
	TokenFriend
	TokenVirtual
	TokenExplicit
	TokenMutable
	TokenKeywordEnd // Marker for end of keywords

	// Preprocessor directives
	TokenPPIf
	TokenPPIfdef
	TokenPPIfndef
	TokenPPElif
	TokenPPElse
	TokenPPEndif
	TokenPPInclude
	TokenPPUndef
	TokenPPDefine  // whole line
	TokenPPPragma  // whole line
	TokenPPError   // whole line
	TokenPPCommand // any other #command

	// Preprocessor sub-mode
	TokenPPDefined
	TokenPPAnd
	TokenPPOr
	TokenPPNot
	TokenPPCompare
	TokenPPIdentifier
	TokenPPNumber
	TokenPPString
	TokenPPLeftParen
	TokenPPRightParen
	TokenPPOther
)

// Token represents a single token
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int

	// WasReference is set when a '&' has been rewritten to '*'.
	WasReference bool
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR:%s", t.Value)
	case TokenWhitespace:
		return "WHITESPACE"
	case TokenNewline:
		return "NEWLINE"
	default:
		if t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd {
			return fmt.Sprintf("KEYWORD:%s", t.Value)
		}
		return fmt.Sprintf("%s:%s", t.Type, t.Value)
	}
}

// IsKeyword reports whether the token is a C++ keyword
func (t Token) IsKeyword() bool {
	return t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd
}

// IsPreprocessor reports whether the token is a directive token
func (t Token) IsPreprocessor() bool {
	return t.Type >= TokenPPIf && t.Type <= TokenPPCommand
}

// String returns the debug name of the token type
func (tt TokenType) String() string {
	if name, ok := tokenTypeNames[tt]; ok {
		return name
	}
	for word, kw := range keywords {
		if kw == tt {
			return strings.ToUpper(word)
		}
	}
	return fmt.Sprintf("TOKEN(%d)", int(tt))
}

// tokenTypeNames maps token types to their names for debugging
var tokenTypeNames = map[TokenType]string{
	TokenEOF:           "EOF",
	TokenError:         "ERROR",
	TokenWhitespace:    "WHITESPACE",
	TokenNewline:       "NEWLINE",
	TokenLineComment:   "LINE_COMMENT",
	TokenBlockComment:  "BLOCK_COMMENT",
	TokenIdentifier:    "THING",
	TokenNumber:        "NUMBER",
	TokenString:        "STRING_LITERAL",
	TokenCharLiteral:   "CHAR_LITERAL",
	TokenBoolean:       "BOOLEAN",
	TokenEllipsis:      "ELLIPSES",
	TokenLeftParen:     "LPAREN",
	TokenRightParen:    "RPAREN",
	TokenLeftBrace:     "LBRACE",
	TokenRightBrace:    "RBRACE",
	TokenLeftBracket:   "LSQUARE",
	TokenRightBracket:  "RSQUARE",
	TokenSemicolon:     "SEMICOLON",
	TokenColon:         "COLON",
	TokenDoubleColon:   "DOUBLECOLON",
	TokenComma:         "COMMA",
	TokenDot:           "PERIOD",
	TokenStar:          "ASTERISK",
	TokenAmpersand:     "AMPERSAND",
	TokenEquals:        "EQUAL",
	TokenPlus:          "PLUS",
	TokenMinus:         "MINUS",
	TokenSlash:         "DIVIDE",
	TokenLess:          "LTHAN",
	TokenGreater:       "GTHAN",
	TokenTilde:         "TILDE",
	TokenExclamation:   "EXCLAMATION",
	TokenQuestion:      "QUESTION",
	TokenPipe:          "PIPE",
	TokenCaret:         "CARET",
	TokenPercent:       "PERCENT",
	TokenLeftShift:     "LSHIFT",
	TokenCompound:      "COMPOUND",
	TokenBackslash:     "BACKSLASH",
	TokenPPIf:          "PP_IF",
	TokenPPIfdef:       "PP_IFDEF",
	TokenPPIfndef:      "PP_IFNDEF",
	TokenPPElif:        "PP_ELIF",
	TokenPPElse:        "PP_ELSE",
	TokenPPEndif:       "PP_ENDIF",
	TokenPPInclude:     "PP_INCLUDE",
	TokenPPUndef:       "PP_UNDEF",
	TokenPPDefine:      "PP_DEFINE",
	TokenPPPragma:      "PP_PRAGMA",
	TokenPPError:       "PP_ERROR",
	TokenPPCommand:     "PP_COMMAND",
	TokenPPDefined:     "PPDEFINED",
	TokenPPAnd:         "PPAND",
	TokenPPOr:          "PPOR",
	TokenPPNot:         "PPNOT",
	TokenPPCompare:     "PPCOMPARE",
	TokenPPIdentifier:  "PPTHING",
	TokenPPNumber:      "PPNUMBER",
	TokenPPString:      "PPSTRING",
	TokenPPLeftParen:   "PPLPAREN",
	TokenPPRightParen:  "PPRPAREN",
	TokenPPOther:       "PPOTHER",
	TokenKeywordStart:  "KEYWORD_START",
	TokenKeywordEnd:    "KEYWORD_END",
}

// Keywords map for quick lookup
var keywords = map[string]TokenType{
	"const":     TokenConst,
	"constexpr": TokenConstexpr,
	"volatile":  TokenVolatile,
	"static":    TokenStatic,
	"extern":    TokenExtern,
	"inline":    TokenInline,
	"struct":    TokenStruct,
	"class":     TokenClass,
	"union":     TokenUnion,
	"enum":      TokenEnum,
	"namespace": TokenNamespace,
	"typedef":   TokenTypedef,
	"template":  TokenTemplate,
	"typename":  TokenTypename,
	"operator":  TokenOperator,
	"public":    TokenPublic,
	"private":   TokenPrivate,
	"protected": TokenProtected,
	"friend":    TokenFriend,
	"virtual":   TokenVirtual,
	"explicit":  TokenExplicit,
	"mutable":   TokenMutable,
}

// directives maps '#command' names to their token type. Anything not listed
// becomes TokenPPCommand.
var directives = map[string]TokenType{
	"if":      TokenPPIf,
	"ifdef":   TokenPPIfdef,
	"ifndef":  TokenPPIfndef,
	"elif":    TokenPPElif,
	"else":    TokenPPElse,
	"endif":   TokenPPEndif,
	"include": TokenPPInclude,
	"undef":   TokenPPUndef,
}

// lexMode selects the active token set
type lexMode int

const (
	modeDefault lexMode = iota
	modePreprocessor
)

// Tokenizer represents the tokenizer state
type Tokenizer struct {
	input     string
	pos       int // current position in input
	line      int // current line number
	column    int // current column number
	width     int // width of last rune read
	start     int // start position of current token
	startLine int
	startCol  int
	mode      lexMode
	directive string  // directive that opened the preprocessor sub-mode
	pending   []Token // tokens scanned but not yet handed out
	done      bool
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{
		input:  input,
		line:   1,
		column: 1,
	}
}

// next reads the next rune and advances position
func (t *Tokenizer) next() rune {
	if t.pos >= len(t.input) {
		t.width = 0
		return 0
	}

	r, w := utf8.DecodeRuneInString(t.input[t.pos:])
	t.width = w
	t.pos += w

	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}

	return r
}

// backup steps back one rune
func (t *Tokenizer) backup() {
	if t.width == 0 {
		return
	}
	t.pos -= t.width
	t.width = 0
	if t.pos < len(t.input) && t.input[t.pos] == '\n' {
		t.line--
		col := 1
		for i := t.pos - 1; i >= 0 && t.input[i] != '\n'; i-- {
			col++
		}
		t.column = col
	} else {
		t.column--
	}
}

// peek returns the next rune without advancing position
func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.pos:])
	return r
}

// peekAt returns the byte n positions ahead without advancing
func (t *Tokenizer) peekAt(n int) byte {
	if t.pos+n >= len(t.input) {
		return 0
	}
	return t.input[t.pos+n]
}

// hasPrefix reports whether the unread input starts with s
func (t *Tokenizer) hasPrefix(s string) bool {
	return strings.HasPrefix(t.input[t.pos:], s)
}

// advanceBytes consumes n bytes of ASCII input
func (t *Tokenizer) advanceBytes(n int) {
	for i := 0; i < n; i++ {
		t.next()
	}
}

// emit creates a token from the current span
func (t *Tokenizer) emit(tokenType TokenType) {
	t.pending = append(t.pending, Token{
		Type:   tokenType,
		Value:  t.input[t.start:t.pos],
		Line:   t.startLine,
		Column: t.startCol,
	})
	t.start = t.pos
}

// emitError creates an error token
func (t *Tokenizer) emitError(message string) {
	t.pending = append(t.pending, Token{
		Type:   TokenError,
		Value:  message,
		Line:   t.startLine,
		Column: t.startCol,
	})
	t.start = t.pos
}

// Next returns the next token, producing TokenEOF forever once the input is
// exhausted.
func (t *Tokenizer) Next() Token {
	for len(t.pending) == 0 {
		if t.pos >= len(t.input) {
			return Token{Type: TokenEOF, Line: t.line, Column: t.column}
		}
		t.scan()
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok
}

// Tokenize processes the whole input and returns all tokens, ending with EOF
func (t *Tokenizer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := t.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// scan produces at least one token from the current position
func (t *Tokenizer) scan() {
	t.start = t.pos
	t.startLine = t.line
	t.startCol = t.column

	if t.mode == modePreprocessor {
		t.scanPreprocessor()
		return
	}

	// Explicit rules outrank the generic patterns below.
	switch {
	case t.hasPrefix("..."):
		t.advanceBytes(3)
		t.emit(TokenEllipsis)
		return
	case t.scanBoolean():
		return
	case t.peek() == '#':
		t.scanDirective()
		return
	}

	r := t.next()
	switch {
	case r == '\n':
		t.emit(TokenNewline)
	case r == '\r':
		if t.peek() == '\n' {
			t.next()
		}
		t.emit(TokenNewline)
	case unicode.IsSpace(r):
		t.scanWhitespace()
	case r == '/' && (t.peek() == '/' || t.peek() == '*'):
		t.scanComment()
	case r == '"':
		t.scanString('"', TokenString)
	case r == '\'':
		t.scanString('\'', TokenCharLiteral)
	case unicode.IsLetter(r) || r == '_':
		t.scanIdentifier()
	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(t.peek())):
		t.scanNumber()
	default:
		t.scanOperator(r)
	}
}

// scanBoolean matches the true/false literals as whole words
func (t *Tokenizer) scanBoolean() bool {
	for _, word := range []string{"true", "false"} {
		if !t.hasPrefix(word) {
			continue
		}
		after := t.peekAt(len(word))
		if isIdentByte(after) {
			return false
		}
		t.advanceBytes(len(word))
		t.emit(TokenBoolean)
		return true
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// scanDirective handles '#' at the current position. #define, #pragma and
// #error swallow the rest of their line; any other directive switches to the
// preprocessor sub-mode.
func (t *Tokenizer) scanDirective() {
	t.next() // '#'
	for t.peek() == ' ' || t.peek() == '\t' {
		t.next()
	}
	nameStart := t.pos
	for isIdentByte(t.peekAt(0)) {
		t.next()
	}
	name := t.input[nameStart:t.pos]

	switch name {
	case "define":
		t.scanRestOfLine(true)
		t.emit(TokenPPDefine)
		return
	case "pragma":
		t.scanRestOfLine(false)
		t.emit(TokenPPPragma)
		return
	case "error":
		t.scanRestOfLine(false)
		t.emit(TokenPPError)
		return
	}

	tokenType, ok := directives[name]
	if !ok {
		tokenType = TokenPPCommand
	}
	t.emit(tokenType)
	t.mode = modePreprocessor
	t.directive = name
}

// scanRestOfLine consumes up to (not including) the end of the logical line.
// Backslash-newline continues the line. When stopAtComment is set a trailing
// '//' comment is left for the regular scanner.
func (t *Tokenizer) scanRestOfLine(stopAtComment bool) {
	inString := byte(0)
	for t.pos < len(t.input) {
		c := t.input[t.pos]
		if c == '\\' && (t.peekAt(1) == '\n' || (t.peekAt(1) == '\r' && t.peekAt(2) == '\n')) {
			t.next()
			if t.peek() == '\r' {
				t.next()
			}
			t.next()
			continue
		}
		if c == '\n' || c == '\r' {
			break
		}
		if inString != 0 {
			if c == '\\' {
				t.next()
			} else if c == inString {
				inString = 0
			}
			t.next()
			continue
		}
		if c == '"' || c == '\'' {
			inString = c
		} else if stopAtComment && c == '/' && t.peekAt(1) == '/' {
			break
		}
		t.next()
	}
	// Trailing whitespace before a stripped comment is not part of the line
	for t.pos > t.start && (t.input[t.pos-1] == ' ' || t.input[t.pos-1] == '\t') {
		t.pos--
		t.column--
	}
}

// scanPreprocessor scans a single token of a directive body
func (t *Tokenizer) scanPreprocessor() {
	if t.hasPrefix("\\\n") {
		t.advanceBytes(2)
		t.emit(TokenWhitespace)
		return
	}

	r := t.next()
	switch {
	case r == '\n' || r == '\r':
		if r == '\r' && t.peek() == '\n' {
			t.next()
		}
		t.emit(TokenNewline)
		t.mode = modeDefault
		t.directive = ""
	case unicode.IsSpace(r):
		t.scanWhitespace()
	case r == '/' && (t.peek() == '/' || t.peek() == '*'):
		t.scanComment()
	case r == '"':
		t.scanString('"', TokenPPString)
	case r == '<' && t.directive == "include":
		for t.pos < len(t.input) && t.peek() != '>' && t.peek() != '\n' {
			t.next()
		}
		if t.peek() != '>' {
			t.emitError("unterminated include path")
			return
		}
		t.next()
		t.emit(TokenPPString)
	case unicode.IsLetter(r) || r == '_':
		for isIdentByte(t.peekAt(0)) {
			t.next()
		}
		if t.input[t.start:t.pos] == "defined" {
			t.emit(TokenPPDefined)
		} else {
			t.emit(TokenPPIdentifier)
		}
	case unicode.IsDigit(r):
		for isIdentByte(t.peekAt(0)) || t.peek() == '.' {
			t.next()
		}
		t.emit(TokenPPNumber)
	case r == '(':
		t.emit(TokenPPLeftParen)
	case r == ')':
		t.emit(TokenPPRightParen)
	case r == '&' && t.peek() == '&':
		t.next()
		t.emit(TokenPPAnd)
	case r == '|' && t.peek() == '|':
		t.next()
		t.emit(TokenPPOr)
	case (r == '=' || r == '!') && t.peek() == '=':
		t.next()
		t.emit(TokenPPCompare)
	case r == '!':
		t.emit(TokenPPNot)
	case r == '<' || r == '>':
		if t.peek() == '=' {
			t.next()
		}
		t.emit(TokenPPCompare)
	default:
		t.emit(TokenPPOther)
	}
}

// scanWhitespace scans whitespace characters, stopping before a newline
func (t *Tokenizer) scanWhitespace() {
	for {
		r := t.peek()
		if r == 0 || !unicode.IsSpace(r) || r == '\n' || r == '\r' {
			break
		}
		t.next()
	}
	t.emit(TokenWhitespace)
}

// scanComment scans a line or block comment; the first '/' is consumed
func (t *Tokenizer) scanComment() {
	if t.next() == '/' {
		for t.pos < len(t.input) && t.peek() != '\n' && t.peek() != '\r' {
			t.next()
		}
		t.emit(TokenLineComment)
		return
	}

	for {
		r := t.next()
		if r == 0 {
			t.emitError("unterminated block comment")
			return
		}
		if r == '*' && t.peek() == '/' {
			t.next()
			break
		}
	}
	t.emit(TokenBlockComment)
}

// scanString scans a string or character literal; the opening quote is consumed
func (t *Tokenizer) scanString(quote rune, tokenType TokenType) {
	for {
		r := t.next()
		if r == 0 || r == '\n' {
			t.emitError("unterminated literal")
			return
		}
		if r == quote {
			break
		}
		if r == '\\' {
			if t.next() == 0 {
				t.emitError("unterminated literal - EOF after escape")
				return
			}
		}
	}
	t.emit(tokenType)
}

// scanIdentifier scans an identifier or keyword
func (t *Tokenizer) scanIdentifier() {
	for {
		r := t.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		t.next()
	}

	value := t.input[t.start:t.pos]
	if tokenType, isKeyword := keywords[value]; isKeyword {
		t.emit(tokenType)
	} else {
		t.emit(TokenIdentifier)
	}
}

// scanNumber scans decimal, hex and floating point literals with suffixes
func (t *Tokenizer) scanNumber() {
	for {
		r := t.peek()
		switch {
		case unicode.IsDigit(r) || unicode.IsLetter(r) || r == '.' || r == '_' || r == '\'':
			t.next()
		case r == '+' || r == '-':
			prev := t.input[t.pos-1]
			hex := strings.HasPrefix(strings.ToLower(t.input[t.start:t.pos]), "0x")
			exponent := (!hex && (prev == 'e' || prev == 'E')) || (hex && (prev == 'p' || prev == 'P'))
			if !exponent {
				t.emit(TokenNumber)
				return
			}
			t.next()
		default:
			t.emit(TokenNumber)
			return
		}
	}
}

// compoundOperators lists the multi-character operators recognised in code
var compoundOperators = []string{
	"==", "!=", "<=", ">=", "&&", "||", "->", "++", "--",
	"+=", "-=", "*=", "/=", "|=", "&=", "^=", "%=",
}

// scanOperator scans operators and punctuation; r is already consumed
func (t *Tokenizer) scanOperator(r rune) {
	for _, op := range compoundOperators {
		if rune(op[0]) == r && t.peek() == rune(op[1]) {
			t.next()
			t.emit(TokenCompound)
			return
		}
	}

	switch r {
	case '(':
		t.emit(TokenLeftParen)
	case ')':
		t.emit(TokenRightParen)
	case '{':
		t.emit(TokenLeftBrace)
	case '}':
		t.emit(TokenRightBrace)
	case '[':
		t.emit(TokenLeftBracket)
	case ']':
		t.emit(TokenRightBracket)
	case ';':
		t.emit(TokenSemicolon)
	case ',':
		t.emit(TokenComma)
	case '.':
		t.emit(TokenDot)
	case '*':
		t.emit(TokenStar)
	case '&':
		t.emit(TokenAmpersand)
	case '=':
		t.emit(TokenEquals)
	case '+':
		t.emit(TokenPlus)
	case '-':
		t.emit(TokenMinus)
	case '/':
		t.emit(TokenSlash)
	case '>':
		t.emit(TokenGreater)
	case '~':
		t.emit(TokenTilde)
	case '!':
		t.emit(TokenExclamation)
	case '?':
		t.emit(TokenQuestion)
	case '|':
		t.emit(TokenPipe)
	case '^':
		t.emit(TokenCaret)
	case '%':
		t.emit(TokenPercent)
	case '\\':
		t.emit(TokenBackslash)
	case ':':
		if t.peek() == ':' {
			t.next()
			t.emit(TokenDoubleColon)
		} else {
			t.emit(TokenColon)
		}
	case '<':
		if t.peek() == '<' {
			t.next()
			t.emit(TokenLeftShift)
		} else {
			t.emit(TokenLess)
		}
	default:
		t.emitError(fmt.Sprintf("unexpected character: %c", r))
	}
}
