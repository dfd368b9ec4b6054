package lang

// This file defines the host constants available to every evaluation. They
// are gathered once per process and cloned into each scope, so hosts may
// override any of them with WithConstants.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// Private singleton cache.
//
//nolint:gochecknoglobals
var (
	hostOnce      sync.Once
	hostConstants map[string]any
)

// makeHostConstants returns a clone of the lazily-initialized,
// process-scoped host constants.
func makeHostConstants() map[string]any {
	hostOnce.Do(func() {
		t := getTarget()

		hostConstants = map[string]any{
			"os": map[string]any{
				"platform": t.OS,
				"arch":     t.Arch,
				"hostname": getHostname(),
				"shell":    getShell(),
				"user":     getUsername(),
			},
		}
	})

	out := maps.Clone(hostConstants)
	out["os"] = maps.Clone(hostConstants["os"].(map[string]any))

	return out
}

// HostConstants returns a copy of the host constants injected into every
// evaluation.
func HostConstants() map[string]any {
	return makeHostConstants()
}

// HostConstantNames returns the dotted paths of the host constants in
// sorted order. This is useful for code completion.
func HostConstantNames() []string {
	var names []string

	for k, v := range makeHostConstants() {
		if m, ok := v.(map[string]any); ok {
			for sub := range m {
				names = append(names, k+"."+sub)
			}

			continue
		}

		names = append(names, k)
	}

	slices.Sort(names)

	return names
}

// ---------------------------------------------------------------------------
// System information helpers
// ---------------------------------------------------------------------------

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using Node.js conventions, which name
// windows "win32", amd64 "x64" and 386 "ia32".
func getTarget() target {
	t := getPlatform()

	switch t.OS {
	case "windows":
		t.OS = "win32"
	case "illumos", "solaris":
		t.OS = "sunos"
	}

	switch t.Arch {
	case "386":
		t.Arch = "ia32"
	case "amd64":
		t.Arch = "x64"
	case "mipsle":
		t.Arch = "mipsel"
	case "ppc64le":
		t.Arch = "ppc64"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
//
// [Go conventions]:
// https://cs.opensource.google/go/go/+/master:src/cmd/dist/build.go
func getPlatform() target {
	var (
		o, a string
		ok   bool
	)

	if o, ok = os.LookupEnv("GOHOSTOS"); !ok {
		if o, ok = os.LookupEnv("GOOS"); !ok {
			o = runtime.GOOS
		}
	}

	if a, ok = os.LookupEnv("GOHOSTARCH"); !ok {
		if a, ok = os.LookupEnv("GOARCH"); !ok {
			a = runtime.GOARCH
		}
	}

	return target{
		OS:   o,
		Arch: a,
	}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

func getShell() string {
	shell, ok := os.LookupEnv("SHELL")
	if ok {
		return shell
	}

	name := getUsername()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

// ---------------------------------------------------------------------------
// Environment variables
// ---------------------------------------------------------------------------

// buildProcessEnvMap converts a "KEY=VALUE" string slice to a map.
// If envList is nil, os.Environ() is used.
func buildProcessEnvMap(envList []string) map[string]string {
	if envList == nil {
		envList = os.Environ()
	}

	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			result[key] = value
		}
	}

	return result
}

// ---------------------------------------------------------------------------
// PATH-like string manipulation (mung)
// ---------------------------------------------------------------------------

// mungPrefix prepends prefix items to the PATH-like list subject, removing
// duplicates.
func mungPrefix(subject string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}
