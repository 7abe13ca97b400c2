package builtin

import "fmt"

// UnknownFunctionError is returned for a call to a name nothing registered.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function: %s", e.Name)
}

// ArgumentError reports a bad argument count or type for a built-in.
type ArgumentError struct {
	Func    string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Func, e.Message)
}

func argErr(fn, format string, args ...any) *ArgumentError {
	return &ArgumentError{Func: fn, Message: fmt.Sprintf(format, args...)}
}
