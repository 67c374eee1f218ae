// Package errs classifies the error taxonomy the playback engine needs to
// distinguish: invalid input, open failures, recoverable decode errors,
// configuration changes, sync violations, and fatal conditions. Transient
// and end-of-stream conditions are plain sentinels, since a caller is
// expected to retry or drain rather than branch on a type.
package errs

import (
	"fmt"
)

// Sentinels for conditions that are routine, not exceptional.
var (
	// ErrAgain means a decoder needs more input before it can produce a frame.
	ErrAgain = sentinel("resource temporarily unavailable")
	// ErrEmpty means a non-blocking queue read found nothing to return.
	ErrEmpty = sentinel("queue empty")
	// ErrAborted means a queue (or its feeding queue) has been aborted.
	ErrAborted = sentinel("aborted")
	// ErrEOF means the container has no more packets to read.
	ErrEOF = sentinel("end of stream")
	// ErrStale means a packet or frame carries a serial older than the
	// queue's current serial and must be silently discarded.
	ErrStale = sentinel("stale serial")
)

type sentinel string

func (s sentinel) Error() string { return string(s) }

// kindMarker lets classifiers recognize any error of a given kind through
// errors.As, independent of the Op/cause payload.
type kindMarker interface {
	error
	kind() string
}

// InvalidInputError reports malformed URLs, missing required arguments, or
// unrecognized options. Surfaced to the user; exit code 1.
type InvalidInputError struct {
	Op  string
	Err error
}

func (e *InvalidInputError) Error() string { return wrap("invalid input", e.Op, e.Err) }
func (e *InvalidInputError) Unwrap() error { return e.Err }
func (e *InvalidInputError) kind() string  { return "invalid_input" }

// OpenFailureError reports a container that can't be opened, a codec that
// can't be found, or a codec that fails to open. No recovery is attempted;
// exit code 1.
type OpenFailureError struct {
	Op  string
	Err error
}

func (e *OpenFailureError) Error() string { return wrap("open failure", e.Op, e.Err) }
func (e *OpenFailureError) Unwrap() error { return e.Err }
func (e *OpenFailureError) kind() string  { return "open_failure" }

// DecodeError reports a decoder returning a non-EAGAIN, non-EOF negative
// result. The offending packet/frame is dropped and the pipeline continues.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return wrap("decode error", e.Op, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) kind() string  { return "decode" }

// ConfigurationChangeError reports that audio parameters or video
// size/format changed and the filter graph / resampler must be rebuilt.
// If the caller can't recover from this, it should be treated as Fatal.
type ConfigurationChangeError struct {
	Op  string
	Err error
}

func (e *ConfigurationChangeError) Error() string { return wrap("configuration change", e.Op, e.Err) }
func (e *ConfigurationChangeError) Unwrap() error { return e.Err }
func (e *ConfigurationChangeError) kind() string  { return "configuration_change" }

// SyncViolationError reports that the observed |avg_diff| between clocks
// exceeded AV_NOSYNC_THRESHOLD. The averaging accumulators must be reset and,
// for video, frame_timer re-anchored.
type SyncViolationError struct {
	Op   string
	Diff float64
}

func (e *SyncViolationError) Error() string {
	return fmt.Sprintf("sync violation: %s: diff=%.3fs", e.Op, e.Diff)
}
func (e *SyncViolationError) kind() string { return "sync_violation" }

// FatalError reports out-of-memory, mutex/cond creation failure, or
// window/device creation failure. The session must emit Quit, unwind, and
// exit nonzero.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string { return wrap("fatal", e.Op, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }
func (e *FatalError) kind() string  { return "fatal" }

func wrap(label, op string, err error) string {
	if err == nil {
		return fmt.Sprintf("%s: %s", label, op)
	}
	return fmt.Sprintf("%s: %s: %v", label, op, err)
}

// isKind reports whether err, or any error reached through its Unwrap chain,
// is a structured error (via kindMarker) of the given kind. Sentinels carry
// no kind and never match.
func isKind(err error, kind string) bool {
	for err != nil {
		if km, ok := err.(kindMarker); ok && km.kind() == kind {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

func IsInvalidInput(err error) bool        { return isKind(err, "invalid_input") }
func IsOpenFailure(err error) bool         { return isKind(err, "open_failure") }
func IsDecodeError(err error) bool         { return isKind(err, "decode") }
func IsConfigurationChange(err error) bool { return isKind(err, "configuration_change") }
func IsSyncViolation(err error) bool       { return isKind(err, "sync_violation") }
func IsFatal(err error) bool               { return isKind(err, "fatal") }

func NewInvalidInput(op string, cause error) error        { return &InvalidInputError{Op: op, Err: cause} }
func NewOpenFailure(op string, cause error) error          { return &OpenFailureError{Op: op, Err: cause} }
func NewDecodeError(op string, cause error) error          { return &DecodeError{Op: op, Err: cause} }
func NewConfigurationChange(op string, cause error) error  { return &ConfigurationChangeError{Op: op, Err: cause} }
func NewSyncViolation(op string, diff float64) error        { return &SyncViolationError{Op: op, Diff: diff} }
func NewFatal(op string, cause error) error                { return &FatalError{Op: op, Err: cause} }
