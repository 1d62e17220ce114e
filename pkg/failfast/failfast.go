// Package failfast provides panic-on-programmer-error helpers.
//
// It must never be used for expected runtime failures (unknown handle,
// payload too large, registry exhaustion) — those are reported through
// ordinary error returns. It exists for invariants that indicate a bug
// in the calling code, such as a nil module vtable reaching the
// dispatcher.
package failfast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Err panics if err != nil, attaching a stack trace.
func Err(err error) {
	if err != nil {
		panic(fmt.Errorf("fail-fast: %w\n%s", err, debug.Stack()))
	}
}

// If panics if condition is false.
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf("fail-fast: "+message, args...))
	}
}

// NotNil panics if ptr is nil, including typed-nil pointers and funcs.
func NotNil(ptr interface{}, name string) {
	if ptr == nil {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
	v := reflect.ValueOf(ptr)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Errorf("fail-fast: %s is nil", name))
		}
	}
}
