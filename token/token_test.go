package token

import (
	"testing"

	"github.com/HershyOrg/dtrader/value"
)

func TestStatementString(t *testing.T) {
	stmt := Statement{
		{Kind: Symbol, Lexeme: "a"},
		{Kind: Assign},
		{Kind: Func, Lexeme: "f"},
		{Kind: LParen},
		{Kind: Int, Lexeme: "1", Value: value.Int(1)},
		{Kind: Comma},
		{Kind: String, Lexeme: "x", Value: value.Text("x")},
		{Kind: RParen},
		{Kind: Plus},
		{Kind: Real, Lexeme: "2.5", Value: value.Real(2.5)},
	}
	want := `a = f(1, "x") + 2.5;`
	if got := stmt.String(); got != want {
		t.Fatalf("Statement.String() = %q, want %q", got, want)
	}
	if got := (Statement{}).String(); got != ";" {
		t.Fatalf("empty statement renders as %q", got)
	}
}

func TestStatementStringKeepsLiterals(t *testing.T) {
	stmt := Statement{
		{Kind: Func, Lexeme: "print"},
		{Kind: LParen},
		{Kind: String, Lexeme: `"a ( b , c )"`, Value: value.Text("a ( b , c )")},
		{Kind: Comma},
		{Kind: Func, Lexeme: "now"},
		{Kind: LParen},
		{Kind: RParen},
		{Kind: RParen},
	}
	want := `print("a ( b , c )", now());`
	if got := stmt.String(); got != want {
		t.Fatalf("Statement.String() = %q, want %q", got, want)
	}
}

func TestSliceIterator(t *testing.T) {
	it := NewIterator([]Token{{Kind: Int}, {Kind: Semi}})
	if _, ok := it.Last(); ok {
		t.Fatal("Last before Next should report false")
	}
	if it.Peek().Kind != Int {
		t.Fatalf("Peek = %s", it.Peek().Kind)
	}
	it.Next()
	if last, ok := it.Last(); !ok || last.Kind != Int {
		t.Fatalf("Last = %v, %v", last, ok)
	}
	if it.Remaining() != 1 {
		t.Fatalf("Remaining = %d", it.Remaining())
	}
	it.Next()
	if it.HasNext() {
		t.Fatal("iterator should be exhausted")
	}
}
