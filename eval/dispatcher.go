package eval

import (
	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/value"
)

// Dispatcher runs a named function on already evaluated arguments. env is
// the scope the call appears in. Errors are returned to the caller of the
// evaluator untouched.
type Dispatcher interface {
	Invoke(name string, args []value.Value, env *scope.Scope) (value.Value, error)
}

// DispatcherFunc adapts a plain function to Dispatcher.
type DispatcherFunc func(name string, args []value.Value, env *scope.Scope) (value.Value, error)

func (f DispatcherFunc) Invoke(name string, args []value.Value, env *scope.Scope) (value.Value, error) {
	return f(name, args, env)
}
