package formpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for common rendering failure conditions.
var (
	ErrNoPage         = errors.New("formpdf: no page has been added")
	ErrInvalidParam   = errors.New("formpdf: invalid parameter")
	ErrInvalidSpec    = errors.New("formpdf: invalid form spec")
	ErrUnknownForm    = errors.New("formpdf: unknown form")
	ErrSignatureImage = errors.New("formpdf: unreadable signature image")
	ErrUnsupported    = errors.New("formpdf: unsupported image format")
)

// RenderError represents an error that occurred while drawing a specific block.
// It wraps an underlying error and includes the operation name for context.
type RenderError struct {
	Op  string // block or operation name, e.g. "header", "signature"
	Err error  // underlying error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("formpdf.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("formpdf.%s: unknown error", e.Op)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a RenderError wrapping err with operation context.
func NewRenderError(op string, err error) *RenderError {
	return &RenderError{Op: op, Err: err}
}
