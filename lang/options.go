package lang

import (
	"maps"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ardnew/formula/log"
)

// DefaultMaxDepth is the default maximum nesting depth of include.
// Users may modify this before evaluating to change the default.
var DefaultMaxDepth = 100

// config holds parse and evaluation options.
type config struct {
	constants      map[string]any
	functions      Registry
	environ        []string
	fs             FileSystem
	decoder        Decoder
	cipher         Cipher
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	logger         log.Logger
	basedir        string
	maxDepth       int
}

// Option configures parsing or evaluation behavior.
type Option func(*config)

// WithConstants merges constants into the evaluation context. Keys may be
// dotted paths ("os.platform") or nested mappings.
func WithConstants(constants map[string]any) Option {
	return func(c *config) {
		if c.constants == nil {
			c.constants = make(map[string]any, len(constants))
		}

		maps.Copy(c.constants, constants)
	}
}

// WithConstant sets a single constant.
func WithConstant(name string, raw any) Option {
	return WithConstants(map[string]any{name: raw})
}

// WithBasedir sets the directory against which relative paths given to
// document, include and exists are resolved. It is also exposed as the
// constant basedir.
func WithBasedir(dir string) Option {
	return func(c *config) {
		c.basedir = dir
	}
}

// WithFunctions overlays functions on the built-in registry. Host entries
// replace built-ins of the same name.
func WithFunctions(functions map[string]Function) Option {
	return func(c *config) {
		if c.functions == nil {
			c.functions = make(Registry, len(functions))
		}

		maps.Copy(c.functions, functions)
	}
}

// WithFunction overlays a single function on the built-in registry.
func WithFunction(name string, fn Function) Option {
	return WithFunctions(map[string]Function{name: fn})
}

// WithFileSystem sets the file reader used by document, include and exists.
func WithFileSystem(fs FileSystem) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// WithDecoder sets the structured data decoder used by include.
func WithDecoder(decoder Decoder) Option {
	return func(c *config) {
		c.decoder = decoder
	}
}

// WithCipher sets the symmetric cipher used by encrypt and decrypt.
func WithCipher(cipher Cipher) Option {
	return func(c *config) {
		c.cipher = cipher
	}
}

// WithEnviron sets the process environment visible to env.
// The format is []string{"KEY=VALUE", ...}. If nil, os.Environ() is used.
func WithEnviron(environ []string) Option {
	return func(c *config) {
		c.environ = environ
	}
}

// WithMaxDepth sets the maximum nesting depth of include.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. If not
// provided, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider used to count
// evaluations and function calls. If not provided, the global provider is
// used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

// makeConfig returns the default configuration with opts applied.
func makeConfig(opts ...Option) config {
	c := config{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
