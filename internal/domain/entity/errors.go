package entity

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. The HTTP layer maps them to status codes.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("Task not found")
	ErrStore        = errors.New("store error")
)

// KindError carries a client-facing message and matches its kind with errors.Is.
type KindError struct {
	Kind error
	Msg  string
}

func (e *KindError) Error() string { return e.Msg }

func (e *KindError) Is(target error) bool { return target == e.Kind }

// Validationf builds a validation error with a client-facing message.
func Validationf(format string, args ...any) error {
	return &KindError{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorizedf builds an authentication error with a client-facing message.
func Unauthorizedf(format string, args ...any) error {
	return &KindError{Kind: ErrUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a backend failure while keeping its message verbatim.
type StoreError struct {
	Err error
}

func NewStoreError(err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Err: err}
}

func (e *StoreError) Error() string { return e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }
