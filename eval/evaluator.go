package eval

import (
	"github.com/HershyOrg/dtrader/lexer"
	"github.com/HershyOrg/dtrader/logger"
	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/token"
	"github.com/HershyOrg/dtrader/value"
)

// Evaluator reads statements off a token stream and evaluates each one
// against its scope. It never creates scopes itself.
//
//	expression := term (('+'|'-') term)*
//	term       := primary (('*'|'/') primary)*
//	primary    := literal | symbol ['=' expression] | func '(' [expression (',' expression)*] ')'
type Evaluator struct {
	env        *scope.Scope
	dispatcher Dispatcher
	log        *logger.Logger
}

// Result pairs an evaluated statement with its value.
type Result struct {
	Statement token.Statement
	Value     value.Value
}

func New(env *scope.Scope, dispatcher Dispatcher) *Evaluator {
	return &Evaluator{env: env, dispatcher: dispatcher}
}

func (e *Evaluator) SetLogger(l *logger.Logger) {
	e.log = l
}

func (e *Evaluator) Scope() *scope.Scope {
	return e.env
}

// WithScope returns an evaluator sharing e's dispatcher and logger but
// reading and writing env.
func (e *Evaluator) WithScope(env *scope.Scope) *Evaluator {
	return &Evaluator{env: env, dispatcher: e.dispatcher, log: e.log}
}

// ParseAll evaluates statements until the stream is exhausted, stopping at
// the first error.
func (e *Evaluator) ParseAll(it token.Iterator) error {
	for it.HasNext() {
		if _, err := e.ParseStatement(it); err != nil {
			return err
		}
	}
	return nil
}

// ParseStatement evaluates exactly one statement. An empty statement
// yields a nil Value and no error.
func (e *Evaluator) ParseStatement(it token.Iterator) (value.Value, error) {
	stmt, err := e.Segment(it)
	if err != nil {
		return nil, err
	}
	return e.EvalStatement(stmt)
}

// EvalSource lexes src and evaluates every statement, returning the
// results of those that completed.
func (e *Evaluator) EvalSource(src string) ([]Result, error) {
	tokens, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	it := token.NewIterator(tokens)
	var results []Result
	for it.HasNext() {
		stmt, err := e.Segment(it)
		if err != nil {
			return results, err
		}
		v, err := e.EvalStatement(stmt)
		if err != nil {
			return results, err
		}
		if len(stmt) > 0 {
			results = append(results, Result{Statement: stmt, Value: v})
		}
	}
	return results, nil
}

// Segment consumes tokens up to and including the next terminator.
func (e *Evaluator) Segment(it token.Iterator) (token.Statement, error) {
	stmt := token.Statement{}
	var last token.Token
	for {
		if !it.HasNext() {
			pos := last.Pos
			if len(stmt) > 0 {
				pos = stmt[0].Pos
			}
			return nil, e.syntaxErr(pos, "", true, "unexpected end of input")
		}
		tk := it.Next()
		if tk.Kind == token.Semi {
			return stmt, nil
		}
		stmt = append(stmt, tk)
		last = tk
	}
}

// EvalStatement evaluates one already segmented statement and records it
// on the scope.
func (e *Evaluator) EvalStatement(stmt token.Statement) (value.Value, error) {
	if len(stmt) == 0 {
		return nil, nil
	}
	it := token.NewIterator(stmt)
	v, err := e.expression(it)
	if err != nil {
		return nil, err
	}
	if it.HasNext() {
		return nil, e.syntaxErr(it.Peek().Pos, "", false, "unexpected symbol at end of statement")
	}
	e.env.AddStatement(stmt)
	if e.log.Enabled(logger.LevelDebug) {
		e.log.Debug("statement evaluated", map[string]interface{}{
			"statement": stmt.String(),
			"value":     value.Describe(v),
		})
	}
	return v, nil
}

func (e *Evaluator) expression(it *token.SliceIterator) (value.Value, error) {
	left, err := e.term(it)
	if err != nil {
		return nil, err
	}
	for it.HasNext() {
		var op value.Op
		switch it.Peek().Kind {
		case token.Plus:
			op = value.OpAdd
		case token.Minus:
			op = value.OpSub
		default:
			return left, nil
		}
		it.Next()
		right, err := e.term(it)
		if err != nil {
			return nil, err
		}
		if left, err = value.Apply(op, left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (e *Evaluator) term(it *token.SliceIterator) (value.Value, error) {
	left, err := e.primary(it)
	if err != nil {
		return nil, err
	}
	for it.HasNext() {
		var op value.Op
		switch it.Peek().Kind {
		case token.Mult:
			op = value.OpMul
		case token.Div:
			op = value.OpDiv
		default:
			return left, nil
		}
		it.Next()
		right, err := e.primary(it)
		if err != nil {
			return nil, err
		}
		if left, err = value.Apply(op, left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (e *Evaluator) primary(it *token.SliceIterator) (value.Value, error) {
	if !it.HasNext() {
		return nil, e.endOfInput(it, "")
	}
	tk := it.Next()
	switch tk.Kind {
	case token.Int, token.Real, token.String:
		return tk.Value, nil
	case token.Symbol:
		if it.HasNext() && it.Peek().Kind == token.Assign {
			it.Next()
			v, err := e.expression(it)
			if err != nil {
				return nil, err
			}
			e.env.PutSymbol(tk.Lexeme, v)
			return v, nil
		}
		v, ok := e.env.Lookup(tk.Lexeme)
		if !ok {
			return nil, NewUninitializedSymbolErr(tk)
		}
		return v, nil
	case token.Func:
		return e.call(tk, it)
	default:
		return nil, NewUnsupportedPrimaryErr(tk)
	}
}

func (e *Evaluator) call(fn token.Token, it *token.SliceIterator) (value.Value, error) {
	name := fn.Lexeme
	if !it.HasNext() {
		return nil, e.endOfInput(it, name)
	}
	if lp := it.Next(); lp.Kind != token.LParen {
		return nil, e.syntaxErr(lp.Pos, name, false, "expecting left parenthesis")
	}
	args := []value.Value{}
	if !it.HasNext() {
		return nil, e.endOfInput(it, name)
	}
	if it.Peek().Kind == token.RParen {
		it.Next()
		return e.dispatch(fn, args)
	}
	for {
		if it.HasNext() && it.Peek().Kind == token.Comma {
			return nil, e.syntaxErr(it.Peek().Pos, name, false, "unexpected comma")
		}
		v, err := e.expression(it)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		if !it.HasNext() {
			return nil, e.endOfInput(it, name)
		}
		sep := it.Next()
		switch sep.Kind {
		case token.RParen:
			return e.dispatch(fn, args)
		case token.Comma:
			if !it.HasNext() {
				return nil, e.endOfInput(it, name)
			}
			if it.Peek().Kind == token.RParen {
				return nil, e.syntaxErr(sep.Pos, name, false, "unexpected comma")
			}
		default:
			return nil, e.syntaxErr(sep.Pos, name, false, "expecting ',' or ')'")
		}
	}
}

func (e *Evaluator) dispatch(fn token.Token, args []value.Value) (value.Value, error) {
	if e.dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	if e.log.Enabled(logger.LevelDebug) {
		e.log.Debug("invoke function", map[string]interface{}{
			"func": fn.Lexeme,
			"argc": len(args),
			"pos":  fn.Pos.String(),
		})
	}
	return e.dispatcher.Invoke(fn.Lexeme, args, e.env)
}

func (e *Evaluator) endOfInput(it *token.SliceIterator, fn string) *SyntaxError {
	var pos token.Pos
	if last, ok := it.Last(); ok {
		pos = last.Pos
	}
	return e.syntaxErr(pos, fn, true, "unexpected end of input")
}

func (e *Evaluator) syntaxErr(pos token.Pos, fn string, eof bool, msg string) *SyntaxError {
	err := &SyntaxError{Pos: pos, Message: msg, Func: fn, UnexpectedEOF: eof}
	e.log.Error(msg, map[string]interface{}{
		"func": fn,
		"pos":  pos.String(),
	})
	return err
}
