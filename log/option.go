package log

import "io"

// Option applies a configuration option to config.
type Option func(config) config

// apply returns cfg with each of opts applied in order. Nil options are
// skipped, so callers may build option lists conditionally.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	return cfg
}

// WithDefaults resets every setting to its default and directs output to w.
func WithDefaults(w io.Writer) Option {
	return func(c config) config {
		return c.set(func(c *config) {
			c.output = orDiscard(w)
			c.formatTime = makeFormatTimeFunc(DefaultTimeLayout)
			c.level = DefaultLevel
			c.format = DefaultFormat
			c.caller = DefaultCaller
			c.pretty = DefaultPretty
		})
	}
}

// WithOutput directs output to w, or discards it when w is nil.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		return c.set(func(c *config) { c.output = orDiscard(w) })
	}
}

// WithLevel sets the minimum level written.
func WithLevel(level Level) Option {
	return func(c config) config {
		return c.set(func(c *config) { c.level = level })
	}
}

// WithFormat sets the record format.
func WithFormat(format Format) Option {
	return func(c config) config {
		return c.set(func(c *config) { c.format = format })
	}
}

// WithTimeLayout sets the layout of record timestamps.
//
// Named layouts of the [time] package are matched ignoring case and
// punctuation, so "rfc3339-nano" selects [time.RFC3339Nano]. Any other
// layout is passed to [time.Time.Format] verbatim. An empty layout, or
// "none", omits timestamps.
func WithTimeLayout(layout string) Option {
	format := makeFormatTimeFunc(layout)

	return func(c config) config {
		return c.set(func(c *config) { c.formatTime = format })
	}
}

// WithCaller includes the source location of the logging call in records.
func WithCaller(enable bool) Option {
	return func(c config) config {
		return c.set(func(c *config) { c.caller = enable })
	}
}

// WithPretty selects the colorized handlers. Text records stay on one line
// with unquoted values; JSON records are indented over several lines.
// Colors are only written to terminals.
func WithPretty(enable bool) Option {
	return func(c config) config {
		return c.set(func(c *config) { c.pretty = enable })
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}

	return w
}
