package scope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HershyOrg/dtrader/token"
	"github.com/HershyOrg/dtrader/value"
)

// Symbol is a named, mutable value cell owned by exactly one Scope.
type Symbol struct {
	Name  string
	Value value.Value
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s=>%s", s.Name, value.Describe(s.Value))
}

// Scope is a node of the environment tree. A child only references its
// parent; whoever builds the tree keeps parents alive.
//
// Reads walk toward the root and return the nearest binding. Writes update
// the nearest existing binding, so a child never shadows an ancestor's
// name; a brand new name is created in the scope written to.
//
// Scope does no locking.
type Scope struct {
	parent     *Scope
	symbols    map[string]*Symbol
	properties map[string]value.Value
	statements []token.Statement
	charts     []*Chart
}

// NewRoot creates a scope with no parent.
func NewRoot() *Scope {
	return New(nil)
}

// New creates a child of parent; a nil parent makes a root.
func New(parent *Scope) *Scope {
	return &Scope{
		parent:     parent,
		symbols:    make(map[string]*Symbol),
		properties: make(map[string]value.Value),
	}
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Root() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Symbol returns the nearest binding of name, or false if no scope up to
// the root has one.
func (s *Scope) Symbol(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// PutSymbol stores v under name and returns the cell that now holds it.
func (s *Scope) PutSymbol(name string, v value.Value) *Symbol {
	if sym, ok := s.Symbol(name); ok {
		sym.Value = v
		return sym
	}
	sym := &Symbol{Name: name, Value: v}
	s.symbols[name] = sym
	return sym
}

// Lookup is Symbol returning just the value.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	sym, ok := s.Symbol(name)
	if !ok {
		return nil, false
	}
	return sym.Value, true
}

// Property follows the same chain rule as Symbol. A property stored as an
// empty Text is found; an absent one is not.
func (s *Scope) Property(name string) (value.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.properties[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) PutProperty(name string, v value.Value) {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.properties[name]; ok {
			cur.properties[name] = v
			return
		}
	}
	s.properties[name] = v
}

// SymbolNames lists the names bound in this scope only, sorted.
func (s *Scope) SymbolNames() []string {
	return sortedKeys(s.symbols)
}

// PropertyNames lists the properties set on this scope only, sorted.
func (s *Scope) PropertyNames() []string {
	return sortedKeys(s.properties)
}

// Statements returns the statements recorded on this scope, oldest first.
func (s *Scope) Statements() []token.Statement {
	return s.statements
}

func (s *Scope) AddStatement(stmt token.Statement) {
	s.statements = append(s.statements, stmt)
}

// Charts returns the charts recorded on this scope, oldest first.
func (s *Scope) Charts() []*Chart {
	return s.charts
}

func (s *Scope) AddChart(c *Chart) {
	s.charts = append(s.charts, c)
}

// Chart finds a chart of this scope by name. An empty name selects the
// first chart.
func (s *Scope) Chart(name string) (*Chart, bool) {
	if name == "" {
		if len(s.charts) == 0 {
			return nil, false
		}
		return s.charts[0], true
	}
	for _, c := range s.charts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Dump lists this scope's contents, one entry per line.
func (s *Scope) Dump() string {
	var sb strings.Builder
	sb.WriteString("SCOPE.symbolTable=[\n")
	for _, name := range s.SymbolNames() {
		sb.WriteString(s.symbols[name].String())
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	sb.WriteString("SCOPE.properties=[\n")
	for _, name := range s.PropertyNames() {
		fmt.Fprintf(&sb, "%s=>%s\n", name, value.Describe(s.properties[name]))
	}
	sb.WriteString("]\n")
	sb.WriteString("SCOPE.statements=[\n")
	for _, stmt := range s.statements {
		sb.WriteString(stmt.String())
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	sb.WriteString("SCOPE.charts=[\n")
	for _, c := range s.charts {
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
