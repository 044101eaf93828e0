package lexer

import "fmt"

// DefaultHistoryLimit is the number of already-read tokens a TokenStream
// keeps around for rewinding.
const DefaultHistoryLimit = 32768

// Checkpoint is an absolute token index that can be rewound to
type Checkpoint int

// RewindError is raised (via panic) when a rewind reaches further back than
// the retained history.
type RewindError struct {
	Target Checkpoint
	Oldest Checkpoint
}

func (e *RewindError) Error() string {
	return fmt.Sprintf("cannot rewind to token %d: history only reaches back to %d", e.Target, e.Oldest)
}

// TokenStream is a cursor over a Tokenizer with bounded history.
// Whitespace and newlines are skipped by default; the toggles change that
// for callers that care about line structure.
type TokenStream struct {
	tokenizer *Tokenizer
	history   []Token // history[0] has absolute index base
	base      int
	current   int // absolute index of the next token to hand out
	limit     int

	SkipNewlines   bool
	SkipWhitespace bool
}

// NewTokenStream creates a stream over the given source text
func NewTokenStream(content string) *TokenStream {
	return &TokenStream{
		tokenizer:      NewTokenizer(content),
		limit:          DefaultHistoryLimit,
		SkipNewlines:   true,
		SkipWhitespace: true,
	}
}

// SetHistoryLimit changes the number of retained tokens (for testing purposes)
func (s *TokenStream) SetHistoryLimit(limit int) {
	s.limit = limit
}

// raw returns the token at the cursor and advances, pulling from the
// tokenizer when the cursor is at the end of history.
func (s *TokenStream) raw() Token {
	for s.current >= s.base+len(s.history) {
		s.history = append(s.history, s.tokenizer.Next())
		s.trim()
	}
	tok := s.history[s.current-s.base]
	if tok.Type != TokenEOF {
		s.current++
	}
	return tok
}

// trim drops the oldest tokens once the history exceeds its limit
func (s *TokenStream) trim() {
	excess := len(s.history) - s.limit
	if excess <= 0 {
		return
	}
	// Never drop the token under the cursor.
	if max := s.current - s.base; excess > max {
		excess = max
	}
	if excess <= 0 {
		return
	}
	s.history = append(s.history[:0:0], s.history[excess:]...)
	s.base += excess
}

func (s *TokenStream) skippable(tok Token) bool {
	switch tok.Type {
	case TokenWhitespace:
		return s.SkipWhitespace
	case TokenNewline:
		return s.SkipNewlines
	}
	return false
}

// GetToken returns the next token and advances past it
func (s *TokenStream) GetToken() Token {
	for {
		tok := s.raw()
		if !s.skippable(tok) {
			return tok
		}
	}
}

// PeekToken returns the next token without consuming it
func (s *TokenStream) PeekToken() Token {
	cp := s.GetCheckpoint()
	tok := s.GetToken()
	s.Rewind(cp)
	return tok
}

// GetTokenOfType consumes the next token if it has one of the given types.
// On mismatch the stream is left untouched and ok is false.
func (s *TokenStream) GetTokenOfType(types ...TokenType) (Token, bool) {
	cp := s.GetCheckpoint()
	tok := s.GetToken()
	for _, tt := range types {
		if tok.Type == tt {
			return tok, true
		}
	}
	s.Rewind(cp)
	return Token{}, false
}

// PeekTokenOfType returns the next token if it has one of the given types
func (s *TokenStream) PeekTokenOfType(types ...TokenType) (Token, bool) {
	tok := s.PeekToken()
	for _, tt := range types {
		if tok.Type == tt {
			return tok, true
		}
	}
	return Token{}, false
}

// GetCheckpoint returns the current position for a later Rewind
func (s *TokenStream) GetCheckpoint() Checkpoint {
	return Checkpoint(s.current)
}

// Rewind moves the cursor back to a checkpoint. Rewinding past the retained
// history is a fatal programming error and panics with *RewindError.
func (s *TokenStream) Rewind(cp Checkpoint) {
	if int(cp) < s.base {
		panic(&RewindError{Target: cp, Oldest: Checkpoint(s.base)})
	}
	s.current = int(cp)
}

// RewindOneToken steps back over the last token returned by GetToken,
// including anything that was skipped to reach it.
func (s *TokenStream) RewindOneToken() {
	for s.current > s.base {
		s.current--
		if !s.skippable(s.history[s.current-s.base]) {
			return
		}
	}
	panic(&RewindError{Target: Checkpoint(s.current - 1), Oldest: Checkpoint(s.base)})
}

// AtEOF reports whether only skippable tokens remain
func (s *TokenStream) AtEOF() bool {
	return s.PeekToken().Type == TokenEOF
}
