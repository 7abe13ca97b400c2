package scope

import (
	"strings"
	"testing"

	"github.com/HershyOrg/dtrader/token"
	"github.com/HershyOrg/dtrader/value"
)

func TestSymbolMissingAtRoot(t *testing.T) {
	root := NewRoot()
	child := New(root)
	if _, ok := root.Symbol("a"); ok {
		t.Fatal("empty root should not find a")
	}
	if _, ok := child.Symbol("a"); ok {
		t.Fatal("child of empty root should not find a")
	}
	if _, ok := child.Property("a"); ok {
		t.Fatal("property lookup should report not found")
	}
}

func TestPutSymbolUpdatesOwner(t *testing.T) {
	root := NewRoot()
	root.PutSymbol("a", value.Int(1))
	left := New(root)
	right := New(root)

	left.PutSymbol("a", value.Int(5))

	if names := left.SymbolNames(); len(names) != 0 {
		t.Fatalf("child should not shadow an existing name, has %v", names)
	}
	v, ok := right.Lookup("a")
	if !ok || !value.Equal(v, value.Int(5)) {
		t.Fatalf("sibling sees %s, want Integer 5", value.Describe(v))
	}
}

func TestPutSymbolNewNameIsLocal(t *testing.T) {
	root := NewRoot()
	child := New(root)
	sym := child.PutSymbol("b", value.Text("x"))
	if _, ok := root.Symbol("b"); ok {
		t.Fatal("new name leaked into the root")
	}
	if got, _ := child.Symbol("b"); got != sym {
		t.Fatal("child lookup returned a different cell")
	}

	// Mutated in place on reassignment.
	child.PutSymbol("b", value.Int(2))
	if !value.Equal(sym.Value, value.Int(2)) {
		t.Fatalf("symbol not updated in place: %s", value.Describe(sym.Value))
	}
}

func TestNearestBindingWins(t *testing.T) {
	root := NewRoot()
	mid := New(root)
	leaf := New(mid)
	root.PutSymbol("a", value.Int(1))
	// mid gets its own "c"; "a" stays owned by root.
	mid.PutSymbol("c", value.Int(3))

	if v, _ := leaf.Lookup("a"); !value.Equal(v, value.Int(1)) {
		t.Fatalf("leaf sees a=%s", value.Describe(v))
	}
	if v, _ := leaf.Lookup("c"); !value.Equal(v, value.Int(3)) {
		t.Fatalf("leaf sees c=%s", value.Describe(v))
	}
	if leaf.Root() != root || mid.Parent() != root {
		t.Fatal("parent chain is broken")
	}
}

func TestProperties(t *testing.T) {
	root := NewRoot()
	child := New(root)
	root.PutProperty("feed", value.Text(""))

	v, ok := child.Property("feed")
	if !ok {
		t.Fatal("empty property should still be found")
	}
	if v.Inspect() != "" {
		t.Fatalf("unexpected property %q", v.Inspect())
	}

	child.PutProperty("feed", value.Text("binance"))
	if v, _ := root.Property("feed"); v.Inspect() != "binance" {
		t.Fatalf("root property = %q, want binance", v.Inspect())
	}
	child.PutProperty("local", value.Int(1))
	if _, ok := root.Property("local"); ok {
		t.Fatal("new property leaked into the root")
	}
}

func TestStatementsAndChartsAreLocal(t *testing.T) {
	root := NewRoot()
	child := New(root)
	root.AddStatement(token.Statement{{Kind: token.Symbol, Lexeme: "a"}})
	root.AddChart(NewChart("btc", nil))
	root.AddChart(NewChart("eth", []value.Value{value.Int(5)}))

	if len(child.Statements()) != 0 || len(child.Charts()) != 0 {
		t.Fatal("statements and charts must not be inherited")
	}
	first, ok := root.Chart("")
	if !ok || first.Name != "btc" {
		t.Fatalf("default chart = %v", first)
	}
	eth, ok := root.Chart("eth")
	if !ok || eth.ID == first.ID {
		t.Fatalf("eth chart = %v", eth)
	}
	if _, ok := root.Chart("sol"); ok {
		t.Fatal("unknown chart should not be found")
	}
	if _, ok := child.Chart(""); ok {
		t.Fatal("child has no charts")
	}
}

func TestDump(t *testing.T) {
	s := NewRoot()
	s.PutSymbol("b", value.Int(2))
	s.PutSymbol("a", value.Text("x"))
	s.PutProperty("p", value.Real(1))
	s.AddStatement(token.Statement{{Kind: token.Symbol, Lexeme: "a"}})

	dump := s.Dump()
	for _, want := range []string{
		"a=>Text \"x\"\nb=>Integer 2\n",
		"p=>Real 1.0\n",
		"a;\n",
		"SCOPE.charts=[\n]\n",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
}
