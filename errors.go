package coro

import (
	"errors"
	"fmt"
	"syscall"
)

// Error represents a structured runtime error with context and errno mapping.
type Error struct {
	Op       string    // Operation that failed (e.g., "SubmitTask", "PollSubmit")
	EngineID uint32    // Engine id (0 if not applicable)
	CtxID    int       // Context id (-1 if not applicable)
	Code     ErrorCode // High-level error category
	Errno    syscall.Errno
	Msg      string
	Inner    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.EngineID != 0 {
		parts = append(parts, fmt.Sprintf("engine=%d", e.EngineID))
	}
	if e.CtxID >= 0 {
		parts = append(parts, fmt.Sprintf("ctx=%d", e.CtxID))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("coro: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("coro: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is compares by error code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode represents high-level runtime error categories.
type ErrorCode string

const (
	ErrCodeQueueFull          ErrorCode = "ready queue full"
	ErrCodeRecursionExceeded  ErrorCode = "max recursive depth exceeded"
	ErrCodeRingSetupFailed    ErrorCode = "ring setup failed"
	ErrCodeFixedFDExhausted   ErrorCode = "fixed fd pool exhausted"
	ErrCodeNullHandle         ErrorCode = "nil coroutine handle"
	ErrCodeNotOwningThread    ErrorCode = "not called from owning worker thread"
	ErrCodeKernelNotSupported ErrorCode = "kernel does not support io_uring"
	ErrCodeTimeout            ErrorCode = "timeout"
	ErrCodeIOError            ErrorCode = "I/O error"
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg, CtxID: -1}
}

// NewErrorWithErrno creates a new structured error carrying a kernel errno.
func NewErrorWithErrno(op string, code ErrorCode, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error(), CtxID: -1}
}

// NewEngineError creates an engine-scoped error.
func NewEngineError(op string, engineID uint32, code ErrorCode, msg string) *Error {
	return &Error{Op: op, EngineID: engineID, Code: code, Msg: msg, CtxID: -1}
}

// NewContextError creates a context-scoped error.
func NewContextError(op string, ctxID int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, CtxID: ctxID, Code: code, Msg: msg}
}

// WrapError wraps an existing error with runtime context, mapping a raw
// syscall.Errno onto one of this package's ErrorCode categories.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if re, ok := inner.(*Error); ok {
		return &Error{
			Op:       op,
			EngineID: re.EngineID,
			CtxID:    re.CtxID,
			Code:     re.Code,
			Errno:    re.Errno,
			Msg:      re.Msg,
			Inner:    re.Inner,
		}
	}

	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{
			Op:    op,
			Code:  mapErrnoToCode(errno),
			Errno: errno,
			Msg:   errno.Error(),
			Inner: inner,
			CtxID: -1,
		}
	}

	return &Error{Op: op, Code: ErrCodeIOError, Msg: inner.Error(), Inner: inner, CtxID: -1}
}

// mapErrnoToCode maps syscall errno to runtime error codes.
func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return ErrCodeKernelNotSupported
	case syscall.ETIMEDOUT:
		return ErrCodeTimeout
	case syscall.EMFILE, syscall.ENFILE:
		return ErrCodeFixedFDExhausted
	default:
		return ErrCodeIOError
	}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Errno == errno
	}
	return false
}
