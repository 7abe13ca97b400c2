package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/value"
)

func (t *Table) registry() map[string]Func {
	return map[string]Func{
		"print": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			parts := make([]string, 0, len(args))
			for _, a := range args {
				parts = append(parts, value.Inspect(a))
			}
			line := strings.Join(parts, " ")
			fmt.Fprintln(t.out, line)
			return value.Text(line), nil
		},
		"chart": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) == 0 {
				return nil, argErr("chart", "expects a name")
			}
			name, ok := args[0].(*value.TextVal)
			if !ok {
				return nil, argErr("chart", "name must be Text, got %s", value.Describe(args[0]))
			}
			if env == nil {
				return nil, argErr("chart", "no scope to record the chart in")
			}
			env.AddChart(scope.NewChart(name.Value, append([]value.Value(nil), args[1:]...)))
			return name, nil
		},
		"property": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) != 1 && len(args) != 2 {
				return nil, argErr("property", "expects name and optional default, got %d arguments", len(args))
			}
			name, err := textArg("property", args[0])
			if err != nil {
				return nil, err
			}
			if env != nil {
				if v, ok := env.Property(name); ok {
					return v, nil
				}
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, argErr("property", "no property %q", name)
		},
		"setProperty": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) != 2 {
				return nil, argErr("setProperty", "expects name and value, got %d arguments", len(args))
			}
			name, err := textArg("setProperty", args[0])
			if err != nil {
				return nil, err
			}
			if env == nil {
				return nil, argErr("setProperty", "no scope to store %q in", name)
			}
			env.PutProperty(name, args[1])
			return args[1], nil
		},
		"min": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			return extremum("min", args, func(a, b float64) bool { return a < b })
		},
		"max": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			return extremum("max", args, func(a, b float64) bool { return a > b })
		},
		"abs": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) != 1 {
				return nil, argErr("abs", "expects 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case *value.IntVal:
				if v.Value < 0 {
					return value.Int(-v.Value), nil
				}
				return v, nil
			case *value.RealVal:
				return value.Real(math.Abs(v.Value)), nil
			default:
				return nil, argErr("abs", "expects a number, got %s", value.Describe(args[0]))
			}
		},
		"str": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) != 1 {
				return nil, argErr("str", "expects 1 argument, got %d", len(args))
			}
			return value.Text(value.Inspect(args[0])), nil
		},
		"int": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) != 1 {
				return nil, argErr("int", "expects 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case *value.IntVal:
				return v, nil
			case *value.RealVal:
				return value.Int(int64(v.Value)), nil
			case *value.TextVal:
				n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
				if err != nil {
					return nil, argErr("int", "cannot convert %q", v.Value)
				}
				return value.Int(n), nil
			default:
				return nil, argErr("int", "cannot convert %s", value.Describe(args[0]))
			}
		},
		"real": func(args []value.Value, env *scope.Scope) (value.Value, error) {
			if len(args) != 1 {
				return nil, argErr("real", "expects 1 argument, got %d", len(args))
			}
			switch v := args[0].(type) {
			case *value.IntVal:
				return value.Real(float64(v.Value)), nil
			case *value.RealVal:
				return v, nil
			case *value.TextVal:
				f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
				if err != nil {
					return nil, argErr("real", "cannot convert %q", v.Value)
				}
				return value.Real(f), nil
			default:
				return nil, argErr("real", "cannot convert %s", value.Describe(args[0]))
			}
		},
	}
}

func textArg(fn string, v value.Value) (string, error) {
	t, ok := v.(*value.TextVal)
	if !ok {
		return "", argErr(fn, "expects Text, got %s", value.Describe(v))
	}
	return t.Value, nil
}

// extremum keeps the winning argument as is, so min(1, 2.5) is Integer 1.
func extremum(fn string, args []value.Value, better func(a, b float64) bool) (value.Value, error) {
	if len(args) == 0 {
		return nil, argErr(fn, "expects at least 1 argument")
	}
	var best value.Value
	var bestF float64
	for _, a := range args {
		var f float64
		switch v := a.(type) {
		case *value.IntVal:
			f = float64(v.Value)
		case *value.RealVal:
			f = v.Value
		default:
			return nil, argErr(fn, "expects numbers, got %s", value.Describe(a))
		}
		if best == nil || better(f, bestF) {
			best, bestF = a, f
		}
	}
	return best, nil
}
