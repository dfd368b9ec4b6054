// Package cmd implements the formula subcommands: eval, fmt, init and repl.
//
// Commands receive their shared state through [context.Context]: the parsed
// [kong.Context] ([WithContext]), expression source files
// ([WithSourceFiles]), evaluation options built from the global scope flags
// ([WithScope]) and the standard streams ([WithStreams]).
package cmd

//nolint:gochecknoglobals
var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
