package cmd

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/formula/cli/cmd/repl"
	"github.com/ardnew/formula/log"
)

// Repl starts an interactive evaluation session.
type Repl struct {
	NoHistory bool `help:"Do not read or write the history file."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	streams := streamsFrom(ctx)
	if !isTerminal(streams.In) {
		return ErrNotTerminal.With(slog.String("command", "repl"))
	}

	opts, err := evalOptions(ctx)
	if err != nil {
		return err
	}

	constants, err := evalConstants(ctx)
	if err != nil {
		return err
	}

	var cacheDir string

	if ktx := kongContextFrom(ctx); ktx != nil && !r.NoHistory {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, repl.Config{
		Options:   opts,
		Constants: constants,
		CacheDir:  cacheDir,
		Logger:    log.Default(),
	},
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
	)
}
