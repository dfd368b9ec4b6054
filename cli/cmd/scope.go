package cmd

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
	"github.com/ardnew/formula/pkg"
)

// Scope holds the global flags that configure expression evaluation.
type Scope struct {
	Basedir   string   `default:"${basedir}"  help:"Base directory for relative paths." placeholder:"DIR"        short:"b" type:"path"`
	Const     []string `                      help:"Define a constant; dotted names nest and values are YAML scalars." placeholder:"NAME=VALUE" sep:"none" short:"c"`
	ConstFile []string `                      help:"Load constants from a YAML or JSON mapping." name:"constants" placeholder:"FILE" short:"C" type:"existingfile"`
	MaxDepth  int      `default:"${maxDepth}" help:"Maximum nesting of included documents."`
}

// Vars returns the kong variables referenced by the scope flags.
func (*Scope) Vars() kong.Vars {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return kong.Vars{
		"basedir":  wd,
		"maxDepth": strconv.Itoa(lang.DefaultMaxDepth),
	}
}

// Group returns the help group of the scope flags.
func (*Scope) Group() kong.Group {
	var group kong.Group

	group.Key = "scope"
	group.Title = "Evaluation options"

	return group
}

// Constants returns the constants selected by the flags. Constants files are
// merged in order, then the individual constants on top.
func (s *Scope) Constants(ctx context.Context) (map[string]any, error) {
	constants := make(map[string]any)

	for _, path := range s.ConstFile {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}

		var m map[string]any
		if err := yaml.UnmarshalContext(ctx, data, &m); err != nil {
			return nil, pkg.ErrParse.Wrapf("%s: %w", path, err)
		}

		mergeMaps(constants, m)
	}

	for _, def := range s.Const {
		name, raw, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, pkg.ErrInvalidConstant.Wrapf("%q: expected NAME=VALUE", def)
		}

		mergeMaps(constants, nest(strings.Split(name, "."), parseScalar(ctx, raw)))
	}

	return constants, nil
}

// Options returns the evaluation options selected by the flags.
func (s *Scope) Options(ctx context.Context) ([]lang.Option, error) {
	constants, err := s.Constants(ctx)
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "evaluation scope",
		slog.String("basedir", s.Basedir),
		slog.Int("constants", len(constants)),
		slog.Int("max_depth", s.MaxDepth),
	)

	opts := []lang.Option{
		lang.WithConstants(constants),
		lang.WithLogger(log.Default()),
	}

	if s.Basedir != "" {
		opts = append(opts, lang.WithBasedir(s.Basedir))
	}

	if s.MaxDepth > 0 {
		opts = append(opts, lang.WithMaxDepth(s.MaxDepth))
	}

	return opts, nil
}

// parseScalar decodes raw as a YAML scalar, so numbers and booleans keep
// their kinds. Anything else is the raw text.
func parseScalar(ctx context.Context, raw string) any {
	var v any
	if err := yaml.UnmarshalContext(ctx, []byte(raw), &v); err != nil {
		return raw
	}

	switch v.(type) {
	case bool, int, int64, uint64, float64, nil:
		if v == nil && strings.TrimSpace(raw) != "null" {
			return raw
		}

		return v

	default:
		return raw
	}
}

// nest returns value nested under the path of names.
func nest(path []string, value any) map[string]any {
	m := map[string]any{path[len(path)-1]: value}

	for i := len(path) - 2; i >= 0; i-- {
		m = map[string]any{path[i]: m}
	}

	return m
}

// mergeMaps merges src into dst, recursing where both hold a mapping.
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		sm, sok := v.(map[string]any)
		dm, dok := dst[k].(map[string]any)

		if sok && dok {
			mergeMaps(dm, sm)

			continue
		}

		dst[k] = v
	}
}
