package token

// Iterator yields tokens in order. The statement segmenter needs nothing more.
type Iterator interface {
	HasNext() bool
	Next() Token
}

// SliceIterator walks an in-memory token slice and can peek one ahead.
type SliceIterator struct {
	tokens []Token
	pos    int
}

var _ Iterator = (*SliceIterator)(nil)

func NewIterator(tokens []Token) *SliceIterator {
	return &SliceIterator{tokens: tokens}
}

func (it *SliceIterator) HasNext() bool {
	return it.pos < len(it.tokens)
}

// Next panics past the end; callers check HasNext first.
func (it *SliceIterator) Next() Token {
	tk := it.tokens[it.pos]
	it.pos++
	return tk
}

func (it *SliceIterator) Peek() Token {
	return it.tokens[it.pos]
}

// Last returns the most recently consumed token, or false before the first Next.
func (it *SliceIterator) Last() (Token, bool) {
	if it.pos == 0 {
		return Token{}, false
	}
	return it.tokens[it.pos-1], true
}

// Remaining reports how many tokens are left.
func (it *SliceIterator) Remaining() int {
	return len(it.tokens) - it.pos
}
