package lang

import (
	"errors"
	"iter"
	"log/slog"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// Severity ranks a [Diagnostic].
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Category classifies what stage of compilation produced a [Diagnostic].
type Category int

const (
	// ParseError is an unexpected or missing token. The builder skips the
	// offending token and continues.
	ParseError Category = iota
	// ResolutionError is a reference to a symbol that could not be resolved.
	// The reference expands to nothing.
	ResolutionError
	// ValidationWarning is a structural issue in an otherwise valid tree.
	ValidationWarning
	// GenerationWarning is an issue detected while producing output.
	GenerationWarning
)

func (c Category) String() string {
	switch c {
	case ParseError:
		return "ParseError"
	case ResolutionError:
		return "ResolutionError"
	case ValidationWarning:
		return "ValidationWarning"
	case GenerationWarning:
		return "GenerationWarning"
	default:
		return "Unknown"
	}
}

// Severity returns the default severity of diagnostics in c.
func (c Category) Severity() Severity {
	switch c {
	case ParseError, ResolutionError:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Diagnostic is a single report produced by the builder, resolver, or
// generator.
type Diagnostic struct {
	Severity    Severity
	Category    Category
	Pos         token.Position
	Err         *Error
	Suggestions []string
}

// Message returns the human-readable text of d, without its position.
func (d Diagnostic) Message() string {
	if d.Err == nil {
		return d.Category.String()
	}

	msg := d.Err.Message()

	for _, attr := range d.Err.Attrs() {
		msg += " " + attr.Key + "=" + attr.Value.String()
	}

	return msg
}

// String formats d as "pos: severity: message".
func (d Diagnostic) String() string {
	var sb strings.Builder

	sb.WriteString(d.Pos.String())
	sb.WriteString(": ")
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message())

	if len(d.Suggestions) > 0 {
		sb.WriteString(" (did you mean ")
		sb.WriteString(strings.Join(d.Suggestions, ", "))
		sb.WriteString("?)")
	}

	return sb.String()
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("severity", d.Severity.String()),
		slog.String("category", d.Category.String()),
		slog.String("pos", d.Pos.String()),
	}

	if d.Err != nil {
		attrs = append(attrs, slog.Any("error", d.Err))
	}

	if len(d.Suggestions) > 0 {
		attrs = append(attrs, slog.Any("suggestions", d.Suggestions))
	}

	return slog.GroupValue(attrs...)
}

// Sink receives diagnostics as they are detected.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the [Sink] interface.
type SinkFunc func(Diagnostic)

// Report implements [Sink].
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Diagnostics collects every reported [Diagnostic] in order.
type Diagnostics struct {
	list []Diagnostic
}

// Report implements [Sink].
func (d *Diagnostics) Report(diag Diagnostic) {
	d.list = append(d.list, diag)
}

// All returns an iterator over the collected diagnostics.
func (d *Diagnostics) All() iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for _, diag := range d.list {
			if !yield(diag) {
				return
			}
		}
	}
}

// Len returns the number of collected diagnostics.
func (d *Diagnostics) Len() int { return len(d.list) }

// Count returns the number of diagnostics in category c.
func (d *Diagnostics) Count(c Category) int {
	n := 0

	for _, diag := range d.list {
		if diag.Category == c {
			n++
		}
	}

	return n
}

// HasErrors reports whether any diagnostic has [SeverityError].
func (d *Diagnostics) HasErrors() bool {
	for _, diag := range d.list {
		if diag.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Err returns nil if no diagnostic has [SeverityError]. Otherwise it returns
// [ErrCompile] wrapping each error-severity diagnostic.
func (d *Diagnostics) Err() error {
	var errs []error

	for _, diag := range d.list {
		if diag.Severity == SeverityError && diag.Err != nil {
			errs = append(errs, diag.Err)
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return ErrCompile.Wrap(errors.Join(errs...)).
		With(slog.Int("count", len(errs)))
}

// LogValue implements slog.LogValuer.
func (d *Diagnostics) LogValue() slog.Value {
	errs, warns := 0, 0

	for _, diag := range d.list {
		switch diag.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}

	return slog.GroupValue(
		slog.Int("total", len(d.list)),
		slog.Int("errors", errs),
		slog.Int("warnings", warns),
	)
}

// multiSink fans out every report to each of its sinks.
type multiSink []Sink

func (m multiSink) Report(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Report(d)
		}
	}
}

// report builds a diagnostic in category c and delivers it to sink.
func report(
	sink Sink,
	c Category,
	pos token.Position,
	err *Error,
	suggestions ...string,
) {
	if sink == nil {
		return
	}

	sink.Report(Diagnostic{
		Severity:    c.Severity(),
		Category:    c,
		Pos:         pos,
		Err:         err.WithPosition(pos),
		Suggestions: suggestions,
	})
}
