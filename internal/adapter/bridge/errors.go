package bridge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies bridge invocation failures.
type ErrorKind int

const (
	// KindUnexpected covers failures that fit no other bucket.
	KindUnexpected ErrorKind = iota
	// KindBridgeNotFound means the adb binary is not on the invocation path.
	KindBridgeNotFound
	// KindNonZeroExit means the command ran and exited non-zero.
	KindNonZeroExit
	// KindTimeout means the invocation exceeded its deadline.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindBridgeNotFound:
		return "bridge_not_found"
	case KindNonZeroExit:
		return "non_zero_exit"
	case KindTimeout:
		return "timeout"
	default:
		return "unexpected"
	}
}

// Error is a typed bridge failure. Stderr is populated for
// KindNonZeroExit so callers can surface the bridge's own message.
type Error struct {
	Kind   ErrorKind
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBridgeNotFound:
		return "bridge binary not found on PATH; install adb or set bridge.binary"
	case KindTimeout:
		return fmt.Sprintf("bridge command timed out: %v", e.Err)
	case KindNonZeroExit:
		if e.Stderr != "" {
			return fmt.Sprintf("bridge command failed: %s", e.Stderr)
		}
		return fmt.Sprintf("bridge command failed: %v", e.Err)
	default:
		return fmt.Sprintf("unexpected bridge error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or KindUnexpected when err
// is not a bridge error.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnexpected
}
