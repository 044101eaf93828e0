package lexer

import (
	"errors"
	"testing"
)

func TestStreamSkipsWhitespaceByDefault(t *testing.T) {
	s := NewTokenStream("int   a ;\n")

	var values []string
	for {
		tok := s.GetToken()
		if tok.Type == TokenEOF {
			break
		}
		values = append(values, tok.Value)
	}

	expected := []string{"int", "a", ";"}
	if len(values) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, values)
	}
	for i := range expected {
		if values[i] != expected[i] {
			t.Errorf("Token %d: expected %q, got %q", i, expected[i], values[i])
		}
	}
}

func TestStreamNewlineToggle(t *testing.T) {
	s := NewTokenStream("a\nb")
	s.SkipNewlines = false

	if tok := s.GetToken(); tok.Value != "a" {
		t.Fatalf("Expected a, got %v", tok)
	}
	if tok := s.GetToken(); tok.Type != TokenNewline {
		t.Fatalf("Expected newline, got %v", tok)
	}
	if tok := s.GetToken(); tok.Value != "b" {
		t.Fatalf("Expected b, got %v", tok)
	}
}

func TestStreamTypedConsumption(t *testing.T) {
	s := NewTokenStream("struct Foo;")

	if _, ok := s.GetTokenOfType(TokenClass, TokenUnion); ok {
		t.Fatal("Expected mismatch for class/union")
	}
	// mismatch must not consume anything
	if tok, ok := s.PeekTokenOfType(TokenStruct); !ok || tok.Value != "struct" {
		t.Fatalf("Expected struct to still be next, got %v", tok)
	}
	if _, ok := s.GetTokenOfType(TokenStruct); !ok {
		t.Fatal("Expected struct")
	}
	if tok, ok := s.GetTokenOfType(TokenIdentifier); !ok || tok.Value != "Foo" {
		t.Fatalf("Expected Foo, got %v", tok)
	}
}

func TestStreamCheckpointRewind(t *testing.T) {
	s := NewTokenStream("a b c d")

	s.GetToken()
	cp := s.GetCheckpoint()
	s.GetToken()
	s.GetToken()
	s.Rewind(cp)

	if tok := s.GetToken(); tok.Value != "b" {
		t.Errorf("Expected b after rewind, got %v", tok)
	}

	s.RewindOneToken()
	if tok := s.PeekToken(); tok.Value != "b" {
		t.Errorf("Expected b after RewindOneToken, got %v", tok)
	}
}

func TestStreamRewindPastHistoryPanics(t *testing.T) {
	s := NewTokenStream("a b c d e f g h")
	s.SetHistoryLimit(4)

	cp := s.GetCheckpoint()
	for i := 0; i < 6; i++ {
		s.GetToken()
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		var rewindErr *RewindError
		if !ok || !errors.As(err, &rewindErr) {
			t.Fatalf("Expected RewindError panic, got %v", r)
		}
	}()
	s.Rewind(cp)
}
