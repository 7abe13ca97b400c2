package plugin

import (
	"fmt"
	"go/ast"
	"go/parser"
	gotoken "go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/HershyOrg/dtrader/builtin"
	"github.com/HershyOrg/dtrader/logger"
	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/value"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Func is the signature a plugin function must have. Arguments arrive as
// int64, float64 or string.
type Func = func([]interface{}) (interface{}, error)

// Plugin is one interpreted Go source file.
type Plugin struct {
	Path  string
	Funcs map[string]Func
}

// CallError wraps an error returned (or a panic raised) by plugin code.
type CallError struct {
	Func string
	Path string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("plugin %s (%s): %v", e.Func, e.Path, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Load interprets src and collects every exported top-level function
// shaped like Func. A function Foo is exposed to scripts as foo.
func Load(path, src string) (*Plugin, error) {
	fset := gotoken.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse plugin: %w", err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("eval plugin %s: %w", path, err)
	}

	p := &Plugin{Path: path, Funcs: make(map[string]Func)}
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil || !fd.Name.IsExported() || !isPluginFunc(fd.Type) {
			continue
		}
		v, err := i.Eval(file.Name.Name + "." + fd.Name.Name)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", fd.Name.Name, err)
		}
		fn, ok := v.Interface().(Func)
		if !ok {
			return nil, fmt.Errorf("plugin function %s has unexpected signature", fd.Name.Name)
		}
		p.Funcs[scriptName(fd.Name.Name)] = fn
	}
	return p, nil
}

// LoadDir loads every .go file of dir, skipping _test.go files, in name order.
func LoadDir(dir string) ([]*Plugin, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var plugins []*Plugin
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read plugin: %w", err)
		}
		p, err := Load(path, string(src))
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// Install loads dir into t and returns the names it registered. Plugin
// functions replace built-ins of the same name.
func Install(dir string, t *builtin.Table, log *logger.Logger) ([]string, error) {
	plugins, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range plugins {
		registered := p.Register(t)
		log.Info("plugin loaded", map[string]interface{}{
			"path":  p.Path,
			"funcs": registered,
		})
		names = append(names, registered...)
	}
	sort.Strings(names)
	return names, nil
}

// Register adds p's functions to t and returns their names, sorted.
func (p *Plugin) Register(t *builtin.Table) []string {
	names := make([]string, 0, len(p.Funcs))
	for name, fn := range p.Funcs {
		t.Register(name, adapt(name, p.Path, fn))
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func adapt(name, path string, fn Func) builtin.Func {
	return func(args []value.Value, env *scope.Scope) (result value.Value, err error) {
		in := make([]interface{}, len(args))
		for i, a := range args {
			in[i] = value.ToGo(a)
		}
		defer func() {
			if r := recover(); r != nil {
				result, err = nil, &CallError{Func: name, Path: path, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out, callErr := fn(in)
		if callErr != nil {
			return nil, &CallError{Func: name, Path: path, Err: callErr}
		}
		return value.FromGo(out), nil
	}
}

// isPluginFunc matches func([]interface{}) (interface{}, error), with any
// spelled either way.
func isPluginFunc(ft *ast.FuncType) bool {
	if ft.Params == nil || len(ft.Params.List) != 1 || len(ft.Params.List[0].Names) > 1 {
		return false
	}
	arr, ok := ft.Params.List[0].Type.(*ast.ArrayType)
	if !ok || arr.Len != nil || !isEmptyInterface(arr.Elt) {
		return false
	}
	if ft.Results == nil || len(ft.Results.List) != 2 {
		return false
	}
	if !isEmptyInterface(ft.Results.List[0].Type) {
		return false
	}
	errIdent, ok := ft.Results.List[1].Type.(*ast.Ident)
	return ok && errIdent.Name == "error"
}

func isEmptyInterface(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name == "any"
	case *ast.InterfaceType:
		return t.Methods == nil || len(t.Methods.List) == 0
	default:
		return false
	}
}

func scriptName(goName string) string {
	r, size := utf8.DecodeRuneInString(goName)
	return string(unicode.ToLower(r)) + goName[size:]
}
