package dom

import (
	"strings"

	"cbridge/pkg/lexer"
)

// WriteContext selects between the C++ rendering of an element (String) and
// the C rendering used by the header generator.
type WriteContext struct {
	ForC bool
	// IncludeComments controls whether comments are emitted at all
	IncludeComments bool
}

// CPlusPlus is the context used by String()
var CPlusPlus = WriteContext{IncludeComments: true}

// CodeWriter accumulates indented source lines
type CodeWriter struct {
	sb          strings.Builder
	indent      int
	atLineStart bool
	IndentText  string
}

// NewCodeWriter returns an empty writer indenting with four spaces
func NewCodeWriter() *CodeWriter {
	return &CodeWriter{atLineStart: true, IndentText: "    "}
}

// Indent increases the indentation of subsequent lines
func (w *CodeWriter) Indent() { w.indent++ }

// Unindent decreases the indentation of subsequent lines
func (w *CodeWriter) Unindent() {
	if w.indent > 0 {
		w.indent--
	}
}

// Write appends text to the current line, indenting it if it starts one.
// Embedded newlines are written as-is.
func (w *CodeWriter) Write(text string) {
	if text == "" {
		return
	}
	if w.atLineStart {
		w.sb.WriteString(strings.Repeat(w.IndentText, w.indent))
		w.atLineStart = false
	}
	w.sb.WriteString(text)
}

// WriteUnindented appends text without indentation (preprocessor lines)
func (w *CodeWriter) WriteUnindented(text string) {
	w.atLineStart = false
	w.sb.WriteString(text)
}

// EndLine terminates the current line
func (w *CodeWriter) EndLine() {
	w.sb.WriteByte('\n')
	w.atLineStart = true
}

// WriteLine writes a full line
func (w *CodeWriter) WriteLine(text string) {
	if text != "" {
		w.Write(text)
	}
	w.EndLine()
}

// CurrentColumn returns the length of the line being written
func (w *CodeWriter) CurrentColumn() int {
	s := w.sb.String()
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return len(s) - i - 1
	}
	return len(s)
}

func (w *CodeWriter) String() string {
	return w.sb.String()
}

// WriteElement writes an element followed by its attached comment and a
// newline, preceded by its pre-comments.
func WriteElement(e Element, w *CodeWriter, ctx WriteContext) {
	base := e.Node()
	if ctx.IncludeComments {
		for _, comment := range base.PreComments {
			WriteElement(comment, w, ctx)
		}
	}
	e.write(w, ctx)
	if ctx.IncludeComments && base.AttachedComment != nil {
		pad := base.AttachedComment.Alignment - (w.CurrentColumn() - w.indent*len(w.IndentText))
		if pad < 1 {
			pad = 1
		}
		w.Write(strings.Repeat(" ", pad))
		w.Write(base.AttachedComment.Text)
	}
	w.EndLine()
}

// writeChildren writes a child list one element after another
func writeChildren(list []Element, w *CodeWriter, ctx WriteContext) {
	for _, child := range list {
		WriteElement(child, w, ctx)
	}
}

// Render produces the text of an element in the given context without
// trailing newlines.
func Render(e Element, ctx WriteContext) string {
	w := NewCodeWriter()
	WriteElement(e, w, ctx)
	return strings.TrimRight(w.String(), "\n")
}

func isWordToken(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenIdentifier, lexer.TokenNumber, lexer.TokenString, lexer.TokenCharLiteral,
		lexer.TokenBoolean, lexer.TokenPPIdentifier, lexer.TokenPPNumber, lexer.TokenPPString,
		lexer.TokenPPDefined:
		return true
	}
	return tok.IsKeyword()
}

func isBinaryOperator(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenLeftShift, lexer.TokenPipe, lexer.TokenCaret, lexer.TokenEquals,
		lexer.TokenQuestion, lexer.TokenCompound, lexer.TokenPercent, lexer.TokenSlash,
		lexer.TokenPPAnd, lexer.TokenPPOr, lexer.TokenPPCompare:
		return true
	}
	return false
}

// tokenText returns the text of a token, restoring '&' for tokens that were
// converted from references when original is set.
func tokenText(tok lexer.Token, original bool) string {
	if original && tok.WasReference {
		return "&"
	}
	return tok.Value
}

// JoinTokens renders a token sequence with C-like spacing
func JoinTokens(tokens []lexer.Token, original bool) string {
	var sb strings.Builder
	var prev *lexer.Token
	lastBinary := false
	for i := range tokens {
		tok := tokens[i]
		switch tok.Type {
		case lexer.TokenWhitespace, lexer.TokenNewline:
			continue
		}
		binary := isBinaryOperator(tok)
		if tok.Type == lexer.TokenMinus || tok.Type == lexer.TokenPlus {
			// binary only when following an operand
			binary = prev != nil && (isWordToken(*prev) || prev.Type == lexer.TokenRightParen)
		}
		if prev != nil && (binary || lastBinary || needsSpace(*prev, tok)) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tokenText(tok, original))
		prev = &tokens[i]
		lastBinary = binary
	}
	return sb.String()
}

func needsSpace(prev, tok lexer.Token) bool {
	switch {
	case isWordToken(prev) && isWordToken(tok):
		return true
	case prev.Type == lexer.TokenComma:
		return true
	case (prev.Type == lexer.TokenStar || prev.Type == lexer.TokenAmpersand) && isWordToken(tok):
		return true
	case prev.Type == lexer.TokenGreater && isWordToken(tok):
		return true
	case prev.Type == lexer.TokenRightParen && isWordToken(tok):
		return true
	}
	return false
}
