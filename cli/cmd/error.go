package cmd

import (
	"log/slog"
	"strings"
)

// Error is a command failure carrying attributes for structured logging.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns an error with message msg.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same message, so that
// wrapped and annotated copies of a sentinel match it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// Attrs returns the attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e that wraps err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	joined := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	joined = append(joined, e.attrs...)
	joined = append(joined, attrs...)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: joined,
	}
}

var (
	ErrReadSource   = NewError("read source")
	ErrWriteOutput  = NewError("write output")
	ErrCompile      = NewError("compilation failed")
	ErrParse        = NewError("source has errors")
	ErrJSONMarshal  = NewError("marshal JSON")
	ErrYAMLMarshal  = NewError("marshal YAML")
	ErrProtoMarshal = NewError("marshal protobuf")
	ErrWriteConfig  = NewError("write configuration file")
	ErrFileExists   = NewError("file exists (use --force to overwrite)")
)
