package trademark

import (
	"encoding/json"

	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

// Outcome is the result of one screening check: either a success payload or
// a structured error, never both. The zero Outcome reads as a computation
// error, so a check that never ran cannot pass for a successful one.
type Outcome[T any] struct {
	value T
	err   *apperrors.AppError
	ok    bool
}

// Succeeded wraps a success payload.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Failed wraps err. Errors that are not AppErrors are classified as
// computation failures.
func Failed[T any](err error) Outcome[T] {
	if err == nil {
		err = apperrors.New(apperrors.ErrCodeCheckComputation, "check failed without an error")
	}
	return Outcome[T]{err: apperrors.As(err, apperrors.ErrCodeCheckComputation)}
}

// OK reports whether the check succeeded.
func (o Outcome[T]) OK() bool { return o.ok }

// Value returns the payload and whether it is valid.
func (o Outcome[T]) Value() (T, bool) { return o.value, o.ok }

// Err returns the structured failure, or nil on success.
func (o Outcome[T]) Err() *apperrors.AppError {
	if o.ok {
		return nil
	}
	if o.err == nil {
		return apperrors.New(apperrors.ErrCodeCheckComputation, "check did not run")
	}
	return o.err
}

// checkError is the wire form of a failed check.
type checkError struct {
	Error string         `json:"error"`
	Code  string         `json:"code"`
	Kind  apperrors.Kind `json:"kind"`
}

// MarshalJSON renders the payload on success and a checkError otherwise.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	if o.ok {
		return json.Marshal(o.value)
	}
	ae := o.Err()
	return json.Marshal(checkError{
		Error: ae.Error(),
		Code:  ae.Code.String(),
		Kind:  ae.Kind(),
	})
}
