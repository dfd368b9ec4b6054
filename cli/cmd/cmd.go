package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
	"github.com/ardnew/formula/pkg"
)

type (
	kongContextKey struct{}
	sourceFilesKey struct{}
	scopeKey       struct{}
	streamsKey     struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongContextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(kongContextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithScope returns a new context.Context carrying the evaluation flags
// shared by every command that parses or evaluates expressions.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// evalOptions returns the evaluation options of the scope carried by ctx.
// Without a scope, only the default logger is configured.
func evalOptions(ctx context.Context) ([]lang.Option, error) {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	if s == nil {
		return []lang.Option{lang.WithLogger(log.Default())}, nil
	}

	return s.Options(ctx)
}

// evalConstants returns the constants defined by the scope carried by ctx.
func evalConstants(ctx context.Context) (map[string]any, error) {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	if s == nil {
		return map[string]any{}, nil
	}

	return s.Constants(ctx)
}

// Streams holds the standard streams used by commands.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// WithStreams returns a new context.Context whose commands read and write the
// given streams instead of the process's standard streams. Nil members keep
// their defaults.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SourceFiles reads the concatenated content of expression source files.
type SourceFiles interface {
	IsZero() bool
	io.Reader
	io.WriterTo
}

type sourceFiles struct {
	read []io.Reader
}

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.read) == 0 }

// Read implements io.Reader by reading from all source files in order.
func (s *sourceFiles) Read(p []byte) (n int, err error) {
	return io.MultiReader(s.read...).Read(p)
}

// WriteTo implements io.WriterTo by writing all source files to w in order.
func (s *sourceFiles) WriteTo(w io.Writer) (n int64, err error) {
	return io.Copy(w, io.MultiReader(s.read...))
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSourceFiles returns a new context.Context containing a [SourceFiles]
// that reads from the given files.
//
// Files are deduplicated by resolving symlinks and comparing device/inode
// pairs. Each occurrence of "-" reads the command's input stream once, in
// order with the other files.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, buildSourceFiles(ctx, sources))
}

func buildSourceFiles(ctx context.Context, sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var (
		srcs  sourceFiles
		stdin bool
	)

	srcs.read = make([]io.Reader, 0, len(sources))
	seen := make(map[fileKey]struct{})

	for _, src := range sources {
		if src == stdinSource {
			if !stdin {
				srcs.read = append(srcs.read, streamsFrom(ctx).In)
				stdin = true
			}

			continue
		}

		reader, ok := openUniqueFile(src, seen)
		if !ok {
			continue
		}

		srcs.read = append(srcs.read, reader)
	}

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// Returns the opened file and true if successful, or nil and false if the file
// is a duplicate or cannot be opened.
func openUniqueFile(path string, seen map[fileKey]struct{}) (io.Reader, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return nil, false
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false
	}

	return file, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

func sourceFilesFrom(ctx context.Context) SourceFiles {
	r, _ := ctx.Value(sourceFilesKey{}).(SourceFiles)

	return r
}

// readExpression returns the expression source for a command: the joined
// positional arguments, else the source files, else the input stream when it
// is not a terminal.
func readExpression(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if src := sourceFilesFrom(ctx); src != nil {
		var buf strings.Builder
		if _, err := src.WriteTo(&buf); err != nil {
			return "", pkg.ErrReadInput.Wrap(err)
		}

		return buf.String(), nil
	}

	in := streamsFrom(ctx).In
	if isTerminal(in) {
		return "", pkg.ErrNoInput
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", pkg.ErrReadStdin.Wrap(err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return "", pkg.ErrNoInput
	}

	return string(data), nil
}
