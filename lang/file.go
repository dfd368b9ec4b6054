package lang

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// FileSystem reads whole files.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
}

// OSFileSystem reads files from the host operating system.
type OSFileSystem struct{}

// ReadFile implements [FileSystem].
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Stat returns the file info of name.
func (OSFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ResolvePath returns p unchanged when it is absolute or basedir is empty,
// and p joined to basedir otherwise.
func ResolvePath(basedir, p string) string {
	if filepath.IsAbs(p) || basedir == "" {
		return p
	}

	return filepath.Join(basedir, p)
}

// Decoder decodes structured data read from the named file.
type Decoder func(name string, data []byte) (any, error)

// DecodeYAML decodes YAML 1.2, which accepts every JSON document.
func DecodeYAML(_ string, data []byte) (any, error) {
	var out any

	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}
