package lang

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrUnexpectedToken        = NewError("unexpected token")
	ErrExpectedToken          = NewError("expected token")
	ErrEmptyTagName           = NewError("empty tag name")
	ErrInvalidNamespace       = NewError("malformed namespace")
	ErrInvalidTypeTag         = NewError("invalid type tag")
	ErrMisplacedDeclaration   = NewError("declaration not allowed here")
	ErrDuplicateSymbol        = NewError("duplicate symbol")
	ErrUnresolvedSymbol       = NewError("unresolved symbol")
	ErrInheritanceCycle       = NewError("inheritance cycle")
	ErrTemplateSpecialization = NewError("template reference cannot be specialized")
	ErrTargetNotFound         = NewError("specialization target not found")
	ErrConstraint             = NewError("constraint violated")
	ErrImport                 = NewError("import failed")
	ErrImportCycle            = NewError("import cycle")
	ErrBatchImportName        = NewError("batch import cannot select a name")
	ErrModuleNotFound         = NewError("module not found")
	ErrConfigValue            = NewError("invalid configuration value")
	ErrExprCompile            = NewError("expression compilation failed")
	ErrExprEvaluate           = NewError("expression evaluation failed")
	ErrForeignCompile         = NewError("embedded compiler failed")
	ErrUnhandledNode          = NewError("unhandled node kind")
	ErrUnbalancedTag          = NewError("unbalanced tag")
	ErrReadInput              = NewError("failed to read input")
	ErrCompile                = NewError("compilation reported errors")
)

// Error represents an error with optional structured logging attributes and
// source position.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   *token.Position
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.pos != nil {
		part = append(part, e.pos.String())
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Message returns the error text without the source position.
func (e *Error) Message() string {
	if e.pos == nil {
		return e.Error()
	}

	c := *e
	c.pos = nil

	return c.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from. Errors derived
// through [Error.With], [Error.Wrap], or [Error.WithPosition] share the
// message of their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.msg == "" {
		return false
	}

	return e.msg == t.msg
}

// Position returns the source position attached to e, if any.
func (e *Error) Position() (token.Position, bool) {
	if e.pos == nil {
		return token.Position{}, false
	}

	return *e.pos, true
}

// Attrs returns the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.pos != nil {
		attrs = append(attrs, slog.String("pos", e.pos.String()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		pos:   e.pos,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		pos:   e.pos,
	}
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos token.Position) *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs,
		pos:   &pos,
	}
}
