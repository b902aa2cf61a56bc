// Package log provides leveled, structured logging built on [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options
// applied at creation time. Loggers are values: [Logger.Wrap],
// [Logger.With] and [Logger.WithGroup] return copies and never modify the
// receiver, so they are safe to share between goroutines.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithCaller(true))
//
//	logger.With(slog.String("file", path)).Debug("parsed")
//
// The zero Logger discards all records, which lets components hold one
// without a nil check.
//
// # Levels
//
// In addition to the [log/slog] levels the package defines [LevelTrace] for
// per-token and per-node detail. Levels are written by name in every format.
//
// # Formats
//
// [FormatJSON] and [FormatText] select the [log/slog] handlers of the same
// name. With [WithPretty] they are replaced by colorized handlers intended
// for people reading a terminal. Colors are dropped automatically when the
// output is not a terminal.
//
// # Package Functions
//
// The package-level functions write to a default logger on standard error,
// which [Config] reconfigures. Functions without a context argument use
// [DefaultContextProvider].
package log
