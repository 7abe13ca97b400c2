package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the runtime shape of everything a dtrader script computes.
// The set of implementations is closed: only this package can add one.
type Value interface {
	Inspect() string
	Type() Type
	sealed()
}

type Type int

const (
	IntType Type = iota
	RealType
	TextType
	// OpaqueType carries function results that are none of the above.
	OpaqueType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "Integer"
	case RealType:
		return "Real"
	case TextType:
		return "Text"
	case OpaqueType:
		return "Opaque"
	default:
		return "Unknown"
	}
}

type IntVal struct {
	Value int64
}

var _ Value = (*IntVal)(nil)

func (i *IntVal) Inspect() string {
	return strconv.FormatInt(i.Value, 10)
}
func (i *IntVal) Type() Type {
	return IntType
}
func (i *IntVal) sealed() {}

type RealVal struct {
	Value float64
}

var _ Value = (*RealVal)(nil)

// Inspect renders whole numbers with a trailing ".0" so that "x" + 2.0
// reads back as "x2.0".
func (r *RealVal) Inspect() string {
	return formatReal(r.Value)
}
func (r *RealVal) Type() Type {
	return RealType
}
func (r *RealVal) sealed() {}

type TextVal struct {
	Value string
}

var _ Value = (*TextVal)(nil)

func (t *TextVal) Inspect() string {
	return t.Value
}
func (t *TextVal) Type() Type {
	return TextType
}
func (t *TextVal) sealed() {}

type OpaqueVal struct {
	Value any
}

var _ Value = (*OpaqueVal)(nil)

func (o *OpaqueVal) Inspect() string {
	if o.Value == nil {
		return "nil"
	}
	if s, ok := o.Value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", o.Value)
}
func (o *OpaqueVal) Type() Type {
	return OpaqueType
}
func (o *OpaqueVal) sealed() {}

func Int(n int64) *IntVal {
	return &IntVal{Value: n}
}

func Real(f float64) *RealVal {
	return &RealVal{Value: f}
}

func Text(s string) *TextVal {
	return &TextVal{Value: s}
}

// Inspect is Value.Inspect that tolerates a nil Value.
func Inspect(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Inspect()
}

// Describe renders v with its type, e.g. `Text "abc"` or `Integer 5`.
func Describe(v Value) string {
	if v == nil {
		return "nil"
	}
	if v.Type() == TextType {
		return fmt.Sprintf("%s %q", v.Type(), v.Inspect())
	}
	return fmt.Sprintf("%s %s", v.Type(), v.Inspect())
}

// Equal reports whether a and b hold the same variant and payload.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *IntVal:
		bv, ok := b.(*IntVal)
		return ok && av.Value == bv.Value
	case *RealVal:
		bv, ok := b.(*RealVal)
		return ok && av.Value == bv.Value
	case *TextVal:
		bv, ok := b.(*TextVal)
		return ok && av.Value == bv.Value
	case *OpaqueVal:
		bv, ok := b.(*OpaqueVal)
		return ok && av.Inspect() == bv.Inspect()
	default:
		return a == nil && b == nil
	}
}

// FromGo converts a plain Go value into a Value.
func FromGo(x any) Value {
	switch v := x.(type) {
	case Value:
		return v
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case float32:
		return Real(float64(v))
	case float64:
		return Real(v)
	case string:
		return Text(v)
	default:
		return &OpaqueVal{Value: x}
	}
}

// ToGo unwraps v into int64, float64, string, or the opaque payload.
func ToGo(v Value) any {
	switch t := v.(type) {
	case *IntVal:
		return t.Value
	case *RealVal:
		return t.Value
	case *TextVal:
		return t.Value
	case *OpaqueVal:
		return t.Value
	default:
		return nil
	}
}

func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	}
	// 1.0E7, 1.5E-5
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'E', -1, 64), "E")
	if !strings.ContainsRune(mant, '.') {
		mant += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimLeft(exp, "+-"), "0")
	if neg {
		exp = "-" + exp
	}
	return mant + "E" + exp
}
