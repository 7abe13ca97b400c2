package lexer

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/HershyOrg/dtrader/token"
	"github.com/HershyOrg/dtrader/value"
)

// Error is a lexical error at a source position.
type Error struct {
	Pos     token.Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

type Lexer struct {
	input  []rune
	offset int
	line   int
	column int
}

func New(input string) *Lexer {
	return &Lexer{
		input:  []rune(input),
		offset: 0,
		line:   1,
		column: 1,
	}
}

// Lex tokenizes a whole .dt source.
func Lex(src string) ([]token.Token, error) {
	return New(src).Lex()
}

func (l *Lexer) Lex() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, ok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Complete reports whether src lexes cleanly and its last token is a
// statement terminator.
func Complete(src string) bool {
	tokens, err := Lex(src)
	if err != nil || len(tokens) == 0 {
		return false
	}
	return tokens[len(tokens)-1].Kind == token.Semi
}

func (l *Lexer) nextToken() (token.Token, bool, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, false, err
	}
	start := l.pos()
	if l.eof() {
		return token.Token{}, false, nil
	}

	ch := l.peek()
	switch ch {
	case '"':
		tok, err := l.scanString()
		return tok, err == nil, err
	case '+':
		return l.single(token.Plus, start), true, nil
	case '-':
		return l.single(token.Minus, start), true, nil
	case '*':
		return l.single(token.Mult, start), true, nil
	case '/':
		return l.single(token.Div, start), true, nil
	case '=':
		return l.single(token.Assign, start), true, nil
	case '(':
		return l.single(token.LParen, start), true, nil
	case ')':
		return l.single(token.RParen, start), true, nil
	case ',':
		return l.single(token.Comma, start), true, nil
	case ';':
		return l.single(token.Semi, start), true, nil
	}

	if isDigit(ch) {
		tok, err := l.scanNumber()
		return tok, err == nil, err
	}
	if isIdentStart(ch) {
		return l.scanIdent(), true, nil
	}
	return token.Token{}, false, &Error{Pos: start, Message: fmt.Sprintf("unexpected character %q", ch)}
}

func (l *Lexer) single(kind token.Kind, start token.Pos) token.Token {
	ch := l.peek()
	l.advance()
	return token.Token{Kind: kind, Lexeme: string(ch), Pos: start}
}

// scanIdent yields a Func token when the identifier is followed by '(',
// blanks allowed in between, and a Symbol token otherwise.
func (l *Lexer) scanIdent() token.Token {
	start := l.pos()
	begin := l.offset
	l.advance()
	for !l.eof() && isIdentPart(l.peek()) {
		l.advance()
	}
	lex := string(l.input[begin:l.offset])
	look := l.offset
	for look < len(l.input) && (l.input[look] == ' ' || l.input[look] == '\t') {
		look++
	}
	if look < len(l.input) && l.input[look] == '(' {
		return token.Token{Kind: token.Func, Lexeme: lex, Pos: start}
	}
	return token.Token{Kind: token.Symbol, Lexeme: lex, Pos: start}
}

func (l *Lexer) scanNumber() (token.Token, error) {
	start := l.pos()
	begin := l.offset
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
	kind := token.Int
	if !l.eof() && l.peek() == '.' && isDigit(l.peekNext()) {
		kind = token.Real
		l.advance()
		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}
	lex := string(l.input[begin:l.offset])
	if kind == token.Int {
		n, err := strconv.ParseInt(lex, 10, 64)
		if err != nil {
			return token.Token{}, &Error{Pos: start, Message: fmt.Sprintf("integer literal out of range: %s", lex)}
		}
		return token.Token{Kind: kind, Lexeme: lex, Value: value.Int(n), Pos: start}, nil
	}
	f, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return token.Token{}, &Error{Pos: start, Message: fmt.Sprintf("bad real literal: %s", lex)}
	}
	return token.Token{Kind: kind, Lexeme: lex, Value: value.Real(f), Pos: start}, nil
}

func (l *Lexer) scanString() (token.Token, error) {
	start := l.pos()
	begin := l.offset
	l.advance()
	for !l.eof() {
		ch := l.peek()
		if ch == '\\' {
			l.advance()
			if !l.eof() {
				l.advance()
			}
			continue
		}
		if ch == '\n' {
			break
		}
		if ch == '"' {
			l.advance()
			lex := string(l.input[begin:l.offset])
			s, err := strconv.Unquote(lex)
			if err != nil {
				return token.Token{}, &Error{Pos: start, Message: fmt.Sprintf("bad string literal %s", lex)}
			}
			return token.Token{Kind: token.String, Lexeme: lex, Value: value.Text(s), Pos: start}, nil
		}
		l.advance()
	}
	return token.Token{}, &Error{Pos: start, Message: "unterminated string"}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		l.skipWhitespace()
		if l.eof() {
			return nil
		}
		if l.peek() == '#' || (l.peek() == '/' && l.peekNext() == '/') {
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		if l.peek() == '/' && l.peekNext() == '*' {
			start := l.pos()
			l.advance()
			l.advance()
			closed := false
			for !l.eof() {
				if l.peek() == '*' && l.peekNext() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &Error{Pos: start, Message: "unterminated comment"}
			}
			continue
		}
		return nil
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.eof() {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.advance()
			continue
		}
		return
	}
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{Line: l.line, Column: l.column, Offset: l.offset}
}

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}
	return l.input[l.offset]
}

func (l *Lexer) peekNext() rune {
	if l.offset+1 >= len(l.input) {
		return 0
	}
	return l.input[l.offset+1]
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}
	ch := l.input[l.offset]
	l.offset++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

func (l *Lexer) eof() bool {
	return l.offset >= len(l.input)
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || ch == '.' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
