// Package profile provides optional runtime profiling for the formula
// command.
//
// Profiling integrates [github.com/pkg/profile] and must be enabled at build
// time with the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag every operation is a no-op and [Modes] is empty.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap memory profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace profiling
//
// A profiler is configured by applying options to a [Config] and started with
// [Config.Start]:
//
//	var c profile.Config
//	p := c.With(profile.WithMode("cpu"), profile.WithPath("/tmp/profiles")).Start()
//	defer p.Stop()
//
// Profile files are written to the configured directory with names matching
// the mode (cpu.pprof, mem.pprof, and so on) and analyzed with
// "go tool pprof".
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
