package sql

import "testing"

func tokenizeAll(input string) []Token {
	lx := NewLexer(input)
	var toks []Token
	for {
		tok := lx.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return toks
}

func TestLexerTokenTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "simple select star",
			input:    "SELECT * FROM orders",
			expected: []TokenType{TokenKeyword, TokenStar, TokenKeyword, TokenIdentifier, TokenEOF},
		},
		{
			name:     "string literal",
			input:    "WHERE region = 'west'",
			expected: []TokenType{TokenKeyword, TokenIdentifier, TokenEqual, TokenString, TokenEOF},
		},
		{
			name:     "numbers",
			input:    "LIMIT 10 OFFSET 5",
			expected: []TokenType{TokenKeyword, TokenInteger, TokenKeyword, TokenInteger, TokenEOF},
		},
		{
			name:     "float literal",
			input:    "amount > 12.34",
			expected: []TokenType{TokenIdentifier, TokenGreater, TokenFloat, TokenEOF},
		},
		{
			name:     "comparison operators",
			input:    "a = b AND c <> d OR e >= f",
			expected: []TokenType{TokenIdentifier, TokenEqual, TokenIdentifier, TokenKeyword, TokenIdentifier, TokenNotEqual, TokenIdentifier, TokenKeyword, TokenIdentifier, TokenGreaterEqual, TokenIdentifier, TokenEOF},
		},
		{
			name:     "boolean and null literals",
			input:    "active = TRUE AND region IS NOT NULL",
			expected: []TokenType{TokenIdentifier, TokenEqual, TokenBoolean, TokenKeyword, TokenIdentifier, TokenKeyword, TokenKeyword, TokenNull, TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokenizeAll(tt.input)
			if len(toks) != len(tt.expected) {
				t.Fatalf("len(tokens) = %d, want %d (%+v)", len(toks), len(tt.expected), toks)
			}
			for i, want := range tt.expected {
				if toks[i].Type != want {
					t.Errorf("token %d: type = %v, want %v", i, toks[i].Type, want)
				}
			}
		})
	}
}

func TestLexerStringEscape(t *testing.T) {
	toks := tokenizeAll("'it''s'")
	if len(toks) < 1 || toks[0].Type != TokenString {
		t.Fatalf("expected a string token, got %+v", toks)
	}
	if toks[0].Value != "it's" {
		t.Fatalf("Value = %q, want %q", toks[0].Value, "it's")
	}
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	toks := tokenizeAll("'abc")
	if toks[len(toks)-1].Type != TokenError {
		t.Fatalf("expected a trailing error token, got %+v", toks)
	}
}

func TestLexerQuotedIdentifier(t *testing.T) {
	toks := tokenizeAll(`"my col"`)
	if len(toks) < 1 || toks[0].Type != TokenIdentifier || toks[0].Value != "my col" {
		t.Fatalf("unexpected tokens: %+v", toks)
	}
}
