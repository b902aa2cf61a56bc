package cli

import (
	"context"
	"slices"

	"github.com/alecthomas/kong"

	"github.com/ardnew/chtl/cli/cmd"
	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/pkg"
)

// CLI is the top-level command-line interface for chtl.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	ModulePath []string         `help:"Directories searched for imported modules, before ${module}." name:"module-path" placeholder:"DIR" sep:"," short:"M" type:"path"`
	Version    kong.VersionFlag `help:"Print version information and exit."                          short:"V"`

	Compile cmd.Compile `cmd:"" default:"withargs" help:"Compile CHTL sources to HTML"`
	Check   cmd.Check   `cmd:""                    help:"Report diagnostics without writing output"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Format the syntax tree of a source"`
	Symbols cmd.Symbols `cmd:""                    help:"List the declarations of a source"`
	Repl    cmd.Repl    `cmd:""                    help:"Compile input interactively"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the chtl CLI with the given context and arguments.
// The exit function is called with the appropriate exit code when kong
// exits early, as for --help and --version.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAll(requiredDirs()...); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		"version":            pkg.Name + " " + pkg.Version,
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		cmd.ModuleIdentifier: pkg.ModuleDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Apply logger flags before parsing so that parse errors are reported
	// with the requested format regardless of flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx, cmd.ConfigName), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithOptions(ctx, cli.compileOptions()...)

	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// compileOptions returns the compiler options selected by global flags.
func (c *CLI) compileOptions() []lang.Option {
	return []lang.Option{
		lang.WithModulePath(slices.Concat(c.ModulePath, []string{pkg.ModuleDir()})...),
	}
}
