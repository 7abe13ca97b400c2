package builtin

import (
	"io"
	"os"
	"sort"

	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/value"
)

// Func implements one built-in. env is the scope of the call site.
type Func func(args []value.Value, env *scope.Scope) (value.Value, error)

// Table maps function names to implementations and satisfies
// eval.Dispatcher. Register everything before evaluation starts.
type Table struct {
	funcs map[string]Func
	out   io.Writer
}

// NewTable returns an empty table whose print writes to out.
func NewTable(out io.Writer) *Table {
	if out == nil {
		out = os.Stdout
	}
	return &Table{
		funcs: make(map[string]Func),
		out:   out,
	}
}

// Default returns a table holding the standard built-ins.
func Default(out io.Writer) *Table {
	t := NewTable(out)
	for name, fn := range t.registry() {
		t.Register(name, fn)
	}
	return t
}

// Register adds or replaces name.
func (t *Table) Register(name string, fn Func) {
	t.funcs[name] = fn
}

func (t *Table) Lookup(name string) (Func, bool) {
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names lists registered functions, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Table) Invoke(name string, args []value.Value, env *scope.Scope) (value.Value, error) {
	fn, ok := t.funcs[name]
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}
	return fn(args, env)
}
