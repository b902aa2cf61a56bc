// Package cmd implements the subcommands of the chtl command.
//
// Every command reads CHTL source from files or standard input, compiles it
// with package lang and writes the result to standard output. Diagnostics
// are written to standard error.
package cmd

var (
	// CacheIdentifier is the kong variable holding the path of the runtime
	// cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the
	// configuration file.
	ConfigIdentifier = "config"

	// ModuleIdentifier is the kong variable holding the per-user module
	// directory.
	ModuleIdentifier = "module"
)

// ConfigName is the name of the [Configuration] @Config block holding
// command-line settings in the configuration file.
const ConfigName = "cli"
