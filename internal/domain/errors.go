package domain

import (
	"errors"
	"strings"
)

// Sentinel errors used across layers.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("capability not supported on this platform")
	ErrEmptyQuery  = errors.New("ingredient list is required")
	ErrBusy        = errors.New("control is disabled in the current state")
	ErrClosed      = errors.New("assistant is not running")
)

// DefaultErrorMessage is shown when a failure carries no user-facing text.
const DefaultErrorMessage = "Something went wrong"

// GenerationError is a recipe generation failure that carries a message
// meant for the user, e.g. the "error" field of a backend reply.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrorMessage returns the user-facing text for err: the Message of the
// first GenerationError in the chain, or DefaultErrorMessage.
func ErrorMessage(err error) string {
	var ge *GenerationError
	if errors.As(err, &ge) && strings.TrimSpace(ge.Message) != "" {
		return ge.Message
	}
	return DefaultErrorMessage
}
