package value

import "fmt"

// UnsupportedOperationError is raised for subtraction with a Text left operand.
type UnsupportedOperationError struct {
	Op    Op
	Left  Value
	Right Value
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported string operation: %s %s %s", Describe(e.Left), e.Op, Describe(e.Right))
}

func NewUnsupportedOperationErr(op Op, left, right Value) *UnsupportedOperationError {
	return &UnsupportedOperationError{Op: op, Left: left, Right: right}
}

// OperandTypeError reports operands an operator cannot combine, such as
// Text on either side of '*' or '/'.
type OperandTypeError struct {
	Op    Op
	Left  Value
	Right Value
}

func (e *OperandTypeError) Error() string {
	return fmt.Sprintf("operand type error: cannot apply '%s' to %s and %s", e.Op, Describe(e.Left), Describe(e.Right))
}

func NewOperandTypeErr(op Op, left, right Value) *OperandTypeError {
	return &OperandTypeError{Op: op, Left: left, Right: right}
}

// DivideByZeroError is returned before any quotient is computed.
type DivideByZeroError struct {
	Left  Value
	Right Value
}

func (e *DivideByZeroError) Error() string {
	return fmt.Sprintf("divide by 0 error: %s / %s", Inspect(e.Left), Inspect(e.Right))
}

func NewDivideByZeroErr(left, right Value) *DivideByZeroError {
	return &DivideByZeroError{Left: left, Right: right}
}
