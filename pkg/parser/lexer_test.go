package parser

import (
	"reflect"
	"testing"
)

func TestTokenizeStatement(t *testing.T) {
	tokens, err := NewLexer(`var x: numb = 2 + 3 * 4;`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	want := []Token{
		{VAR, "var"},
		{IDENTIFIER, "x"},
		{COLON, ":"},
		{IDENTIFIER, "numb"},
		{EQUAL, "="},
		{NUMB, "2"},
		{PLUS, "+"},
		{NUMB, "3"},
		{TIMES, "*"},
		{NUMB, "4"},
		{SEMICOLON, ";"},
		{Kind: EOF},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens mismatch:\n got %v\nwant %v", tokens, want)
	}
}

func TestTokenizeMacroCall(t *testing.T) {
	tokens, err := NewLexer(`writeLn!("hello");`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	want := []Token{
		{IDENTIFIER, "writeLn"},
		{BANG, "!"},
		{LEFTPAREN, "("},
		{STRING, "hello"},
		{RIGHTPAREN, ")"},
		{SEMICOLON, ";"},
		{Kind: EOF},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens mismatch:\n got %v\nwant %v", tokens, want)
	}
}

func TestTokenizeKeywordsAndOperators(t *testing.T) {
	tokens, err := NewLexer(`fn const if else while true false == = > < % { } ,`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	kinds := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	want := []TokenKind{
		FN, CONST, IF, ELSE, WHILE, TRUE, FALSE,
		EQUALEQUAL, EQUAL, GREATER, LESS, MODULO,
		OPENINGBRACE, CLOSINGBRACE, COMMA, EOF,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds mismatch:\n got %v\nwant %v", kinds, want)
	}
}

func TestTokenizeFloat(t *testing.T) {
	tokens, err := NewLexer(`3.14`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	if tokens[0].Kind != FLOAT || tokens[0].Value != "3.14" {
		t.Errorf("token = %v, want FLOAT 3.14", tokens[0])
	}
}

func TestTokenizeTwoDotsInNumber(t *testing.T) {
	_, err := NewLexer(`1.2.3`).Tokenize()
	if err == nil {
		t.Fatal("Tokenize() expected error for two dots")
	}
	if _, ok := err.(*LexError); !ok {
		t.Errorf("error = %T, want *LexError", err)
	}
}

func TestTokenizeUnknownToken(t *testing.T) {
	_, err := NewLexer(`var x = §;`).Tokenize()
	if err == nil {
		t.Fatal("Tokenize() expected error for unknown token")
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	tokens, err := NewLexer(`"a\nb\t\"c\""`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	if tokens[0].Value != "a\nb\t\"c\"" {
		t.Errorf("string value = %q", tokens[0].Value)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := NewLexer(`"open`).Tokenize()
	if err == nil {
		t.Fatal("Tokenize() expected error for unterminated string")
	}
}

func TestTokenizeComments(t *testing.T) {
	tokens, err := NewLexer("// comment\nvar x = 1; // trailing\n").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error: %v", err)
	}
	if tokens[0].Kind != VAR {
		t.Errorf("first token = %v, want var", tokens[0])
	}
}
