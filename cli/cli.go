package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/formula/cli/cmd"
	"github.com/ardnew/formula/pkg"
)

// baseConfig is the name of the configuration file in the configuration
// directory. A JSON file of the same base name is also read.
const baseConfig = "config"

// CLI is the top-level command-line interface for formula.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Scope cmd.Scope   `embed:"" group:"scope"`

	Source  []string         `help:"Expression source file(s) or '-' for stdin." name:"source" short:"s" type:"existingfile"`
	Version kong.VersionFlag `help:"Print version and exit."                     short:"V"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate an expression (default)."`
	Fmt  cmd.Fmt  `cmd:""                    help:"Format an expression or its syntax tree."`
	Repl cmd.Repl `cmd:""                    help:"Start an interactive session."`
	Init cmd.Init `cmd:""                    help:"Initialize configuration file."`
}

// Run executes the formula CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Name + " " + pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Scope.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that messages logged while parsing the
	// command line, including configuration file errors, use them.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Scope.Group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, pkg.ConfigPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)
	ctx = cmd.WithScope(ctx, &cli.Scope)

	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
