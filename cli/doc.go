// Package cli contains the command line interface for chtl.
//
// # Usage
//
//	chtl [flags] [compile] [source ...]
//	chtl check site.chtl
//	chtl fmt json site.chtl
//	chtl symbols --kind template site.chtl
//	chtl repl theme.chtl
//	chtl init
//
// Compile is the default command, so "chtl site.chtl" writes the HTML of
// site.chtl to standard output. Diagnostics are written to standard error.
//
// # Configuration
//
// Flag defaults are read from a CHTL file in the user configuration
// directory, written by "chtl init". Its [Configuration] @Config cli block
// holds one property per flag, named with underscores or hyphens:
//
//	[Configuration] @Config cli {
//	    log_level = "debug";
//	    log_pretty = false;
//	    module_path = "./lib";
//	}
//
// Property values are evaluated as configuration expressions. A JSON file
// of the same name with a ".json" suffix is also read. Flags given on the
// command line take precedence over both.
//
// # Modules
//
// Imports of modules by name search the directories given with
// --module-path, then the module directory below the configuration
// directory, and finally the directories listed in CHTL_MODULE_PATH.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
