package lang

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ardnew/formula/log"
)

// Scope is the read-only context of one evaluation: constants, functions and
// the injected capabilities used by built-ins. Nested includes share their
// parent's scope at increased depth.
type Scope struct {
	constants map[string]Value
	functions Registry
	environ   map[string]string
	fs        FileSystem
	decoder   Decoder
	cipher    Cipher
	tracer    trace.Tracer
	metrics   instruments
	logger    log.Logger
	id        string
	basedir   string
	depth     int
	maxDepth  int
}

// newScope builds the scope of a new evaluation from cfg.
func newScope(cfg config) *Scope {
	s := &Scope{
		functions: builtins().Overlay(cfg.functions),
		environ:   buildProcessEnvMap(cfg.environ),
		fs:        cfg.fs,
		decoder:   cfg.decoder,
		cipher:    cfg.cipher,
		logger:    cfg.logger,
		id:        uuid.NewString(),
		basedir:   cfg.basedir,
		maxDepth:  cfg.maxDepth,
	}

	if s.fs == nil {
		s.fs = OSFileSystem{}
	}

	if s.decoder == nil {
		s.decoder = DecodeYAML
	}

	if s.cipher == nil {
		s.cipher = AESGCM{}
	}

	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	s.tracer = tp.Tracer(tracerName)
	s.metrics = newInstruments(cfg.meterProvider)

	constants := make(map[string]Value)
	mergeConstants(constants, makeHostConstants())
	mergeConstants(constants, cfg.constants)

	if s.basedir != "" {
		constants["basedir"] = String(s.basedir)
	} else if b := constants["basedir"]; b.kind == KindString {
		s.basedir = b.AsString()
	}

	s.constants = constants

	return s
}

// mergeConstants wraps each raw constant and stores it in dst. Objects are
// merged field by field so a host may override a single nested constant.
func mergeConstants(dst map[string]Value, src map[string]any) {
	for k, raw := range src {
		v := ValueOf(raw)

		if prev, ok := dst[k]; ok && prev.kind == KindObject && v.kind == KindObject {
			v = mergeObjects(prev, v)
		}

		dst[k] = v
	}
}

func mergeObjects(a, b Value) Value {
	fields := make(map[string]Value, len(a.AsObject())+len(b.AsObject()))

	for k, v := range a.AsObject() {
		fields[k] = v
	}

	for k, v := range b.AsObject() {
		if prev, ok := fields[k]; ok && prev.kind == KindObject && v.kind == KindObject {
			v = mergeObjects(prev, v)
		}

		fields[k] = v
	}

	return Object(fields)
}

// ID returns the unique identifier of the evaluation.
func (s *Scope) ID() string { return s.id }

// Basedir returns the directory relative paths are resolved against.
func (s *Scope) Basedir() string { return s.basedir }

// Depth returns the include nesting depth.
func (s *Scope) Depth() int { return s.depth }

// Logger returns the evaluation logger.
func (s *Scope) Logger() log.Logger { return s.logger }

// Cipher returns the symmetric cipher used by encrypt and decrypt.
func (s *Scope) Cipher() Cipher { return s.cipher }

// Functions returns the function registry.
func (s *Scope) Functions() Registry { return s.functions }

// Constant returns the constant stored under the exact key name.
func (s *Scope) Constant(name string) (Value, bool) {
	v, ok := s.constants[name]

	return v, ok
}

// lookup finds the longest dotted prefix of path stored as a constant. It
// returns the constant and the path segments that remain to be soft-looked-up.
func (s *Scope) lookup(path []string) (Value, []string, bool) {
	for i := len(path); i > 0; i-- {
		if v, ok := s.constants[strings.Join(path[:i], ".")]; ok {
			return v, path[i:], true
		}
	}

	return Value{}, nil, false
}

// Getenv returns the value of the environment variable key.
func (s *Scope) Getenv(key string) (string, bool) {
	v, ok := s.environ[key]

	return v, ok
}

// Path resolves p against the scope's base directory.
func (s *Scope) Path(p string) string {
	return ResolvePath(s.basedir, p)
}

// ReadFile reads the file at p resolved against the base directory.
func (s *Scope) ReadFile(ctx context.Context, p string) ([]byte, error) {
	name := s.Path(p)

	s.logger.TraceContext(ctx, "read file",
		slog.String("eval_id", s.id),
		slog.String("path", name))

	data, err := s.fs.ReadFile(name)
	if err != nil {
		if !strings.Contains(err.Error(), name) {
			err = fmt.Errorf("%s: %w", name, err)
		}

		return nil, ErrIO.Wrap(err).With(slog.String("path", name))
	}

	return data, nil
}

// Exists reports whether the file at p resolved against the base directory
// exists. File systems with a Stat method are queried with Stat; others are
// probed with ReadFile.
func (s *Scope) Exists(p string) bool {
	name := s.Path(p)

	if st, ok := s.fs.(statter); ok {
		_, err := st.Stat(name)

		return err == nil
	}

	_, err := s.fs.ReadFile(name)

	return err == nil
}

// Decode decodes structured data read from the named file.
func (s *Scope) Decode(name string, data []byte) (Value, error) {
	raw, err := s.decoder(name, data)
	if err != nil {
		return Value{}, ErrDecode.Wrap(err).With(slog.String("path", name))
	}

	return ValueOf(raw), nil
}

type statter interface {
	Stat(name string) (fs.FileInfo, error)
}

// nested returns a copy of s one include level deeper.
func (s *Scope) nested() (*Scope, error) {
	if s.depth+1 > s.maxDepth {
		return nil, ErrMaxDepthExceeded.With(slog.Int("max_depth", s.maxDepth))
	}

	child := *s
	child.depth++

	return &child, nil
}
