package profile

// Config holds the parameters of a profiler.
type Config struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option modifies a Config.
type Option func(Config) Config

// With returns a copy of c with the options applied in order.
func (c Config) With(opts ...Option) Config {
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// Start initializes the profiler and returns an interface for stopping it.
//
// If the pprof build tag is unset, or Mode is empty or unknown, Start returns
// a no-op implementation. Both Start and Stop are always safely callable.
func (c Config) Start() interface{ Stop() } {
	if c.Mode == "" {
		return ignore{}
	}

	return start(c)
}

// WithMode returns an option setting the profiler mode.
func WithMode(mode string) Option {
	return func(c Config) Config {
		c.Mode = mode

		return c
	}
}

// WithPath returns an option setting the profile output directory.
func WithPath(path string) Option {
	return func(c Config) Config {
		c.Path = path

		return c
	}
}

// WithQuiet returns an option controlling the profiler's own log output.
func WithQuiet(quiet bool) Option {
	return func(c Config) Config {
		c.Quiet = quiet

		return c
	}
}

type ignore struct{}

func (ignore) Stop() {}
