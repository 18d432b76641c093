package assert

import "fmt"

// Assert panics when cond is false. Reserved for programming errors that must
// not survive into normal control flow, like illegal task state transitions.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Nil panics when value is non-nil.
func Nil(value any, format string, args ...any) {
	Assert(value == nil, format, args...)
}

// NotNil panics when value is nil.
func NotNil(value any, format string, args ...any) {
	Assert(value != nil, format, args...)
}
