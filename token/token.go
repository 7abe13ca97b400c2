package token

import (
	"fmt"
	"strings"

	"github.com/HershyOrg/dtrader/value"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Kind int

const (
	Int Kind = iota
	Real
	String
	Symbol
	Func

	Plus
	Minus
	Mult
	Div
	Assign
	LParen
	RParen
	Comma
	Semi
)

// Token is one lexed unit. Literal kinds carry Value; Symbol and Func carry
// their name in Lexeme.
type Token struct {
	Kind   Kind
	Lexeme string
	Value  value.Value
	Pos    Pos
}

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Real:
		return "Real"
	case String:
		return "String"
	case Symbol:
		return "Symbol"
	case Func:
		return "Func"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Mult:
		return "*"
	case Div:
		return "/"
	case Assign:
		return "="
	case LParen:
		return "("
	case RParen:
		return ")"
	case Comma:
		return ","
	case Semi:
		return ";"
	default:
		return "Unknown"
	}
}

// IsLiteral reports whether k carries a literal Value.
func (k Kind) IsLiteral() bool {
	return k == Int || k == Real || k == String
}

func (t Token) String() string {
	switch t.Kind {
	case Int, Real, Symbol, Func:
		return fmt.Sprintf("%s %s at %s", t.Kind, t.Lexeme, t.Pos)
	case String:
		return fmt.Sprintf("%s %q at %s", t.Kind, value.Inspect(t.Value), t.Pos)
	default:
		return fmt.Sprintf("'%s' at %s", t.Kind, t.Pos)
	}
}

// Source renders the token back as script text.
func (t Token) Source() string {
	switch t.Kind {
	case String:
		return fmt.Sprintf("%q", value.Inspect(t.Value))
	case Int, Real, Symbol, Func:
		return t.Lexeme
	default:
		return t.Kind.String()
	}
}

// Statement is the token run between two terminators, terminator excluded.
type Statement []Token

func (s Statement) String() string {
	var sb strings.Builder
	for i, tk := range s {
		if i > 0 && spaced(s[i-1].Kind, tk.Kind) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tk.Source())
	}
	sb.WriteByte(';')
	return sb.String()
}

// spaced reports whether a blank separates adjacent tokens of kinds prev
// and next: none after a function name or '(', none before ')' or ','.
func spaced(prev, next Kind) bool {
	switch {
	case prev == Func || prev == LParen:
		return false
	case next == RParen || next == Comma:
		return false
	}
	return true
}
