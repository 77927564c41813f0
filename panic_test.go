package framesleep

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// multiError implements unwrapping to multiple errors
type multiError struct {
	errs []error
}

func (m *multiError) Error() string {
	return "multiple errors"
}

func (m *multiError) Unwrap() []error {
	return m.errs
}

// selfReferentialError creates a circular reference to test the seen error detection
type selfReferentialError struct {
	err error
	msg string
}

func (s *selfReferentialError) Error() string {
	return s.msg
}

func (s *selfReferentialError) Unwrap() error {
	return s.err
}

func TestDebugStringWithMultipleErrors(t *testing.T) {
	r := require.New(t)

	innerErr1 := errors.New("inner error 1")
	innerErr2 := errors.New("inner error 2")
	multiErr := &multiError{errs: []error{innerErr1, innerErr2}}

	pErr := &panicError{
		value: multiErr,
		stack: []byte("mock stack"),
	}

	debugStr := pErr.DebugString()
	r.Contains(debugStr, "multiple errors")
	r.Contains(debugStr, "inner error 1")
	r.Contains(debugStr, "inner error 2")
	r.Contains(debugStr, "mock stack")
}

func TestDebugStringWithCircularReference(t *testing.T) {
	r := require.New(t)

	selfErr := &selfReferentialError{msg: "self error"}
	selfErr.err = selfErr

	pErr := &panicError{
		value: selfErr,
		stack: []byte("mock stack"),
	}

	// Must terminate despite the cycle, via the seen tracking.
	debugStr := pErr.DebugString()
	r.Contains(debugStr, "self error")
	r.Contains(debugStr, "mock stack")
}

func TestPanicErrorUnwrapNonError(t *testing.T) {
	r := require.New(t)

	pErr := &panicError{
		value: "not an error",
		stack: []byte("mock stack"),
	}

	r.Nil(pErr.Unwrap())
}

func TestPanicErrorMethods(t *testing.T) {
	r := require.New(t)

	errValue := fmt.Errorf("test error")
	pErr := &panicError{
		value: errValue,
		stack: []byte("mock stack"),
	}

	r.Equal("test error", pErr.Error())
	r.Contains(pErr.ErrorWithStack(), "test error")
	r.Contains(pErr.ErrorWithStack(), "mock stack")
	r.Equal(errValue, pErr.Unwrap())
}

func TestPanicErrorCapturesTaskStack(t *testing.T) {
	r := require.New(t)
	clock := NewClock()

	defer func() {
		p := recover()
		r.NotNil(p)

		err, ok := p.(interface{ DebugString() string })
		r.True(ok, "expected a panic value with DebugString, got %T", p)

		msg := err.DebugString()
		r.Contains(msg, "task failure")
		r.True(strings.Contains(msg, "panic_test.go"),
			"stack should point into the task code:\n%s", msg)
	}()
	Start(clock, func(task *Task) {
		panic("task failure")
	})
}
