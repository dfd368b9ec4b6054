// Package cli contains the command line interface for formula.
//
// # Usage
//
// The default command evaluates an expression given as arguments, read from
// source files, or read from stdin:
//
//	formula "1 + 2 * 3"
//	formula -c name=world "'hello, ' + name"
//	echo "os.platform" | formula eval -o json
//
// # Commands
//
//   - eval: evaluate an expression and print its value (default)
//   - fmt: print the canonical source, or the syntax tree as JSON, YAML or an
//     indented outline
//   - repl: interactive session with completion and history
//   - init: write the current flag values to the configuration file
//
// # Evaluation Options
//
//   - --basedir: base directory for relative paths of included documents
//   - --const NAME=VALUE: define a constant; dotted names nest
//   - --constants FILE: load constants from a YAML or JSON mapping
//   - --max-depth: maximum nesting of included documents
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the user
// configuration directory. Keys are flag names without dashes; nested
// mappings are joined with dashes. The init command writes config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp layout (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output (default when stderr is a terminal)
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o formula .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     directory of the user cache directory)
package cli
