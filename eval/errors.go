package eval

import (
	"errors"
	"fmt"

	"github.com/HershyOrg/dtrader/token"
)

// ErrNoDispatcher is returned for a function call when the evaluator was
// built without a Dispatcher.
var ErrNoDispatcher = errors.New("no function dispatcher configured")

// SyntaxError reports malformed statement, expression or argument-list
// structure. UnexpectedEOF is set when more input could have completed it.
type SyntaxError struct {
	Pos           token.Pos
	Message       string
	Func          string
	UnexpectedEOF bool
}

func (e *SyntaxError) Error() string {
	msg := "syntax error: " + e.Message
	if e.Func != "" {
		msg = fmt.Sprintf("syntax error: %s: %s", e.Func, e.Message)
	}
	if e.Pos.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, msg)
}

func NewSyntaxErr(pos token.Pos, message string) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: message}
}

// UninitializedSymbolError is a read of a name bound nowhere in the scope chain.
type UninitializedSymbolError struct {
	Name string
	Pos  token.Pos
}

func (e *UninitializedSymbolError) Error() string {
	return fmt.Sprintf("%s: uninitialized symbol: %s", e.Pos, e.Name)
}

func NewUninitializedSymbolErr(tk token.Token) *UninitializedSymbolError {
	return &UninitializedSymbolError{Name: tk.Lexeme, Pos: tk.Pos}
}

// UnsupportedPrimaryError is a token that cannot start a primary expression.
type UnsupportedPrimaryError struct {
	Token token.Token
}

func (e *UnsupportedPrimaryError) Error() string {
	return fmt.Sprintf("unsupported primary expression: %s", e.Token)
}

func NewUnsupportedPrimaryErr(tk token.Token) *UnsupportedPrimaryError {
	return &UnsupportedPrimaryError{Token: tk}
}
