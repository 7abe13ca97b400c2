package value

import "math"

// Op is one of the four arithmetic operators of the expression grammar.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Apply dispatches to Add, Sub, Mul or Div.
func Apply(op Op, left, right Value) (Value, error) {
	switch op {
	case OpAdd:
		return Add(left, right)
	case OpSub:
		return Sub(left, right)
	case OpMul:
		return Mul(left, right)
	case OpDiv:
		return Div(left, right)
	default:
		return nil, NewOperandTypeErr(op, left, right)
	}
}

// Add concatenates when the left operand is Text, whatever the right one is.
// Otherwise Integer+Integer stays Integer and any Real promotes to Real.
func Add(left, right Value) (Value, error) {
	if lt, ok := left.(*TextVal); ok {
		return Text(lt.Value + Inspect(right)), nil
	}
	return numeric(OpAdd, left, right)
}

func Sub(left, right Value) (Value, error) {
	if _, ok := left.(*TextVal); ok {
		return nil, NewUnsupportedOperationErr(OpSub, left, right)
	}
	return numeric(OpSub, left, right)
}

func Mul(left, right Value) (Value, error) {
	return numeric(OpMul, left, right)
}

// Div yields an Integer only when an Integer dividend is evenly divisible
// by an Integer divisor. A zero divisor fails before anything is computed.
func Div(left, right Value) (Value, error) {
	return numeric(OpDiv, left, right)
}

func numeric(op Op, left, right Value) (Value, error) {
	switch l := left.(type) {
	case *IntVal:
		switch r := right.(type) {
		case *IntVal:
			return intOp(op, l.Value, r.Value)
		case *RealVal:
			return realOp(op, float64(l.Value), r.Value, left, right)
		}
	case *RealVal:
		switch r := right.(type) {
		case *IntVal:
			return realOp(op, l.Value, float64(r.Value), left, right)
		case *RealVal:
			return realOp(op, l.Value, r.Value, left, right)
		}
	}
	return nil, NewOperandTypeErr(op, left, right)
}

// intOp stays in Integer unless the result does not fit in int64, in which
// case it promotes to Real like an inexact division does.
func intOp(op Op, l, r int64) (Value, error) {
	fl, fr := float64(l), float64(r)
	switch op {
	case OpAdd:
		sum := l + r
		if (l >= 0) == (r >= 0) && (sum >= 0) != (l >= 0) {
			return Real(fl + fr), nil
		}
		return Int(sum), nil
	case OpSub:
		diff := l - r
		if (l >= 0) != (r >= 0) && (diff >= 0) != (l >= 0) {
			return Real(fl - fr), nil
		}
		return Int(diff), nil
	case OpMul:
		prod := l * r
		if l != 0 && (prod/l != r || (l == -1 && r == math.MinInt64)) {
			return Real(fl * fr), nil
		}
		return Int(prod), nil
	default:
		if r == 0 {
			return nil, NewDivideByZeroErr(Int(l), Int(r))
		}
		if l == math.MinInt64 && r == -1 {
			return Real(-fl), nil
		}
		if l%r == 0 {
			return Int(l / r), nil
		}
		return Real(fl / fr), nil
	}
}

func realOp(op Op, l, r float64, left, right Value) (Value, error) {
	switch op {
	case OpAdd:
		return Real(l + r), nil
	case OpSub:
		return Real(l - r), nil
	case OpMul:
		return Real(l * r), nil
	default:
		if r == 0 {
			return nil, NewDivideByZeroErr(left, right)
		}
		return Real(l / r), nil
	}
}
