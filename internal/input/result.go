package input

import (
	goerrors "github.com/goliatone/go-errors"
)

// Outcome classifies how a wait ended.
type Outcome int

const (
	OK Outcome = iota
	Timeout
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Timeout:
		return "timeout"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

const (
	TextCodeTimeout = "INPUT_TIMEOUT"
	TextCodeInvalid = "INPUT_INVALID"
)

// Result is the outcome of one input request. Value is only set when Outcome
// is OK; Reason is only set otherwise.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Reason  string
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OK}
}

func timedOut[T any](reason string) Result[T] {
	return Result[T]{Outcome: Timeout, Reason: reason}
}

func invalid[T any](reason string) Result[T] {
	return Result[T]{Outcome: Invalid, Reason: reason}
}

func (r Result[T]) OK() bool { return r.Outcome == OK }

// Err returns nil for OK and a classified *goerrors.Error otherwise.
func (r Result[T]) Err() error {
	switch r.Outcome {
	case OK:
		return nil
	case Timeout:
		return goerrors.New(r.Reason, goerrors.CategoryOperation).
			WithTextCode(TextCodeTimeout)
	default:
		return goerrors.New(r.Reason, goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalid)
	}
}

func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err()
}

func IsTimeout(err error) bool { return hasTextCode(err, TextCodeTimeout) }

func IsInvalid(err error) bool { return hasTextCode(err, TextCodeInvalid) }

// Reason extracts the user-facing message of an input error.
func Reason(err error) string {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	return goerrors.As(err, &e) && e.TextCode == code
}
