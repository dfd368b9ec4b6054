package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/formula/pkg"
)

// resolve returns a [kong.ConfigurationLoader] that reads YAML configuration
// files, as written by the init command.
//
// Keys name flags without their leading dashes. Nested mappings are joined
// with dashes and underscores are accepted in place of dashes, so each of the
// following sets --log-level:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Command-line flags override configuration values. A missing or empty file
// yields no values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}

		var doc map[string]any
		if err := yaml.UnmarshalContext(ctx, data, &doc); err != nil {
			return nil, pkg.ErrParse.Wrapf("configuration: %w", err)
		}

		conf := make(config)
		conf.flatten("", doc)

		return conf, nil
	}
}

// config implements [kong.Resolver] over flattened flag names.
type config map[string]any

// flatten adds the values of m under their dash-joined key paths.
func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := prefix + strings.ReplaceAll(k, "_", "-")

		if sub, ok := v.(map[string]any); ok {
			c.flatten(key+"-", sub)

			continue
		}

		c[key] = flagValue(v)
	}
}

// flagValue converts a decoded YAML value to the form kong parses. Scalars
// become text; sequences become lists of text.
func flagValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil

	case string:
		return v

	case bool:
		return v

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out

	default:
		return fmt.Sprint(v)
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}
