package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// initCLI is a command line with a representative mix of flag kinds.
type initCLI struct {
	Scope Scope `embed:""`

	LogLevel string   `default:"info"`
	Pretty   bool     `default:"true" negatable:""`
	Source   []string `type:"path"`
	Empty    string
	Version  kong.VersionFlag
}

// initContext parses args with the configuration path set to confPath.
func initContext(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli initCLI

	vars := kong.Vars{ConfigIdentifier: confPath}.CloneWith(cli.Scope.Vars())

	parser, err := kong.New(&cli, vars)
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), kctx)
}

// TestInitRun tests the Init.Run command.
func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		setup   func(t *testing.T, path string) // setup function to prepare test
		wantErr error
	}{
		{
			name:  "create_new_config",
			force: false,
			setup: nil, // no pre-existing file
		},
		{
			name:  "overwrite_existing_with_force",
			force: true,
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name:  "fail_without_force",
			force: false,
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing content"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: ErrFileExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.setup != nil {
				tt.setup(t, confPath)
			}

			ctx := initContext(t, confPath)

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var doc map[string]any
			if err := yaml.Unmarshal(content, &doc); err != nil {
				t.Errorf("generated config is not valid YAML: %v\n%s", err, content)
			}
		})
	}
}

// TestInitFormatOutput tests the values written to the configuration file.
func TestInitFormatOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	confPath := filepath.Join(dir, "nested", "config.yaml")

	ctx := initContext(t, confPath,
		"--log-level=debug",
		"--no-pretty",
		"--const", "a=1,2",
		"--max-depth=5",
		"--basedir", dir,
	)

	if err := (&Init{}).Run(ctx); err != nil {
		t.Fatalf("Init.Run() error = %v", err)
	}

	content, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		t.Fatalf("generated config is not valid YAML: %v\n%s", err, content)
	}

	// Integer kinds vary by decoder, so values are compared as text.
	checks := map[string]string{
		"log-level": "debug",
		"pretty":    "false",
		"max-depth": "5",
		"basedir":   dir,
	}

	for key, want := range checks {
		if got := fmt.Sprint(doc[key]); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	consts, ok := doc["const"].([]any)
	if !ok || len(consts) != 1 || consts[0] != "a=1,2" {
		t.Errorf("const = %#v, want [a=1,2]", doc["const"])
	}

	for _, key := range []string{"help", "version", "empty", "source", "constants"} {
		if _, ok := doc[key]; ok {
			t.Errorf("unexpected key %q in config", key)
		}
	}
}

// TestInitWithInvalidPath tests init with a path that cannot be created.
func TestInitWithInvalidPath(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	// A regular file cannot be a parent directory.
	ctx := initContext(t, filepath.Join(file, "config.yaml"))

	err := (&Init{}).Run(ctx)
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want ErrWriteConfig", err)
	}
}

func TestConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"empty_string", "", nil},
		{"string", "x", "x"},
		{"empty_slice", []string{}, nil},
		{"bool", false, false},
		{"int", 3, 3},
		{"stringer", time.Second, "1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := configValue(tt.in); got != tt.want {
				t.Errorf("configValue(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
