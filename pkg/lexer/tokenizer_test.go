package lexer

import (
	"testing"
)

// significant drops whitespace, newline and EOF tokens
func significant(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		switch tok.Type {
		case TokenWhitespace, TokenNewline, TokenEOF:
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestTokenizerBasics(t *testing.T) {
	input := `struct ImVec2 { float x, y; };`

	tokens := significant(NewTokenizer(input).Tokenize())

	expected := []TokenType{
		TokenStruct, TokenIdentifier, TokenLeftBrace,
		TokenIdentifier, TokenIdentifier, TokenComma, TokenIdentifier, TokenSemicolon,
		TokenRightBrace, TokenSemicolon,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("Token %d: expected %s, got %s (%q)", i, expected[i], tok.Type, tok.Value)
		}
	}
}

func TestTokenizerExplicitRules(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{"ellipsis", "void f(const char* fmt, ...);", []TokenType{
			TokenIdentifier, TokenIdentifier, TokenLeftParen, TokenConst, TokenIdentifier, TokenStar,
			TokenIdentifier, TokenComma, TokenEllipsis, TokenRightParen, TokenSemicolon,
		}},
		{"booleans", "bool b = true; bool truely;", []TokenType{
			TokenIdentifier, TokenIdentifier, TokenEquals, TokenBoolean, TokenSemicolon,
			TokenIdentifier, TokenIdentifier, TokenSemicolon,
		}},
		{"nested template close", "ImVector<ImVector<int>> v;", []TokenType{
			TokenIdentifier, TokenLess, TokenIdentifier, TokenLess, TokenIdentifier,
			TokenGreater, TokenGreater, TokenIdentifier, TokenSemicolon,
		}},
		{"numbers", "1 0x1F 1.5f 1e-3 10u", []TokenType{
			TokenNumber, TokenNumber, TokenNumber, TokenNumber, TokenNumber,
		}},
		{"shift in enum value", "A = 1 << 3,", []TokenType{
			TokenIdentifier, TokenEquals, TokenNumber, TokenLeftShift, TokenNumber, TokenComma,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := significant(NewTokenizer(tt.input).Tokenize())
			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d: %v", len(tt.expected), len(tokens), tokens)
			}
			for i, tok := range tokens {
				if tok.Type != tt.expected[i] {
					t.Errorf("Token %d: expected %s, got %s (%q)", i, tt.expected[i], tok.Type, tok.Value)
				}
			}
		})
	}
}

func TestTokenizerWholeLineDirectives(t *testing.T) {
	input := "#pragma once\n#define IM_COL32(R,G,B) \\\n    ((R) | (G) | (B)) // colour\n#error nope\n"

	tokens := significant(NewTokenizer(input).Tokenize())
	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens, got %d: %v", len(tokens), tokens)
	}

	if tokens[0].Type != TokenPPPragma || tokens[0].Value != "#pragma once" {
		t.Errorf("Unexpected pragma token %v", tokens[0])
	}
	if tokens[1].Type != TokenPPDefine {
		t.Fatalf("Expected define, got %v", tokens[1])
	}
	if tokens[1].Value != "#define IM_COL32(R,G,B) \\\n    ((R) | (G) | (B))" {
		t.Errorf("Unexpected define text %q", tokens[1].Value)
	}
	if tokens[2].Type != TokenLineComment || tokens[2].Value != "// colour" {
		t.Errorf("Expected trailing comment to be split off, got %v", tokens[2])
	}
	if tokens[3].Type != TokenPPError {
		t.Errorf("Expected error directive, got %v", tokens[3])
	}
}

func TestTokenizerPreprocessorSubMode(t *testing.T) {
	input := "#if defined(IMGUI_A) && !IMGUI_B\nint x;\n"

	tokens := significant(NewTokenizer(input).Tokenize())
	expected := []TokenType{
		TokenPPIf, TokenPPDefined, TokenPPLeftParen, TokenPPIdentifier, TokenPPRightParen,
		TokenPPAnd, TokenPPNot, TokenPPIdentifier,
		// back to the default mode after the newline
		TokenIdentifier, TokenIdentifier, TokenSemicolon,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("Token %d: expected %s, got %s (%q)", i, expected[i], tok.Type, tok.Value)
		}
	}
}

func TestTokenizerIncludePaths(t *testing.T) {
	tokens := significant(NewTokenizer("#include <stdio.h>\n#include \"imgui.h\"\n").Tokenize())
	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[1].Type != TokenPPString || tokens[1].Value != "<stdio.h>" {
		t.Errorf("Unexpected include path %v", tokens[1])
	}
	if tokens[3].Type != TokenPPString || tokens[3].Value != `"imgui.h"` {
		t.Errorf("Unexpected include path %v", tokens[3])
	}
}

func TestTokenizerComments(t *testing.T) {
	tokens := significant(NewTokenizer("int a; // trailing\n/* block\n comment */").Tokenize())
	if len(tokens) != 5 {
		t.Fatalf("Expected 5 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[3].Type != TokenLineComment {
		t.Errorf("Expected line comment, got %v", tokens[3])
	}
	if tokens[4].Type != TokenBlockComment || tokens[4].Value != "/* block\n comment */" {
		t.Errorf("Expected block comment, got %v", tokens[4])
	}
}

func TestTokenizerErrors(t *testing.T) {
	tests := []string{
		`const char* s = "unterminated`,
		`/* never closed`,
		"int a = $;",
	}
	for _, input := range tests {
		found := false
		for _, tok := range NewTokenizer(input).Tokenize() {
			if tok.Type == TokenError {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected an error token for %q", input)
		}
	}
}

func TestTokenizerLineNumbers(t *testing.T) {
	tokens := significant(NewTokenizer("int a;\n\nfloat b;").Tokenize())
	if tokens[3].Value != "float" || tokens[3].Line != 3 || tokens[3].Column != 1 {
		t.Errorf("Expected float at 3:1, got %q at %d:%d", tokens[3].Value, tokens[3].Line, tokens[3].Column)
	}
}
