package lexer

import (
	"errors"
	"testing"

	"github.com/HershyOrg/dtrader/token"
	"github.com/HershyOrg/dtrader/value"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(tokens))
	for _, tk := range tokens {
		out = append(out, tk.Kind)
	}
	return out
}

func TestLexStatement(t *testing.T) {
	src := `title = "BTC " + sma (close, 20) * 1.5 - 3 / x;`
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	want := []token.Kind{
		token.Symbol, token.Assign, token.String, token.Plus,
		token.Func, token.LParen, token.Symbol, token.Comma, token.Int, token.RParen,
		token.Mult, token.Real, token.Minus, token.Int, token.Div, token.Symbol, token.Semi,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if !value.Equal(tokens[2].Value, value.Text("BTC ")) {
		t.Errorf("string literal value = %s", value.Describe(tokens[2].Value))
	}
	if tokens[4].Lexeme != "sma" {
		t.Errorf("function name = %q", tokens[4].Lexeme)
	}
	if !value.Equal(tokens[11].Value, value.Real(1.5)) {
		t.Errorf("real literal value = %s", value.Describe(tokens[11].Value))
	}
}

func TestLexPositionsAndComments(t *testing.T) {
	src := "// header\na = 1; # trailing\n/* block\n comment */ b = a;"
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	if len(tokens) != 8 {
		t.Fatalf("expected 8 tokens, got %d", len(tokens))
	}
	if p := tokens[0].Pos; p.Line != 2 || p.Column != 1 {
		t.Errorf("a at %s, want 2:1", p)
	}
	if p := tokens[4].Pos; p.Line != 4 || p.Column != 13 {
		t.Errorf("b at %s, want 4:13", p)
	}
}

func TestLexStringEscapes(t *testing.T) {
	tokens, err := Lex(`"a\"b\n";`)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	if got := value.Inspect(tokens[0].Value); got != "a\"b\n" {
		t.Fatalf("unescaped string = %q", got)
	}
}

func TestLexErrors(t *testing.T) {
	for _, src := range []string{
		`"open`,
		`a = 1 % 2;`,
		`99999999999999999999;`,
	} {
		_, err := Lex(src)
		var lerr *Error
		if !errors.As(err, &lerr) {
			t.Errorf("Lex(%q): expected *Error, got %v", src, err)
		}
	}
}

func TestComplete(t *testing.T) {
	cases := map[string]bool{
		"a = 1;":         true,
		"a = 1":          false,
		"f(1,\n2);  ":    true,
		"":               false,
		"\"unterminated": false,
	}
	for src, want := range cases {
		if got := Complete(src); got != want {
			t.Errorf("Complete(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestLexUnterminatedComment(t *testing.T) {
	_, err := Lex("a = 1;\n  /* open\nb = 2;")
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lerr.Pos.Line != 2 || lerr.Pos.Column != 3 || lerr.Message != "unterminated comment" {
		t.Errorf("unexpected error %v", lerr)
	}
}

func TestLexNonASCIIDigit(t *testing.T) {
	_, err := Lex("a = ٣;")
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lerr.Pos.Column != 5 || lerr.Message != `unexpected character '٣'` {
		t.Errorf("unexpected error %v", lerr)
	}
}

func TestStatementSourceRoundTrip(t *testing.T) {
	src := `print("a ( b , c", f (1 , "x ,y"));`
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex error: %v", err)
	}
	stmt := token.Statement(tokens[:len(tokens)-1])
	want := `print("a ( b , c", f(1, "x ,y"));`
	if got := stmt.String(); got != want {
		t.Errorf("Statement.String() = %q, want %q", got, want)
	}
}
