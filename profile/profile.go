// Package profile provides optional runtime profiling for the pyolin
// command, integrating [github.com/pkg/profile]. Profiling is off
// unless a mode is selected on the command line; every operation is
// safely callable either way.
package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Modes returns the list of supported profiling modes. The special mode
// "quiet" is omitted from the list.
var Modes = sync.OnceValue(
	func() []string {
		m := maps.Clone(mode)
		delete(m, "quiet")

		return slices.Sorted(maps.Keys(m))
	},
)

//nolint:gochecknoglobals
var mode = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
	"quiet":     profile.Quiet,
}

// Config functions return all supported pprof configuration parameters.
type Config func() (mode, path string, quiet bool)

// Start initializes the profiler and returns an interface for stopping
// it. An empty or unrecognized mode returns a no-op implementation;
// both Start and Stop are always safely callable.
func (c Config) Start() interface{ Stop() } {
	name, path, quiet := c()

	fn, ok := mode[name]
	if name == "" || !ok {
		return ignore{}
	}

	opts := []func(*profile.Profile){fn}

	if path != "" {
		opts = append(opts, profile.ProfilePath(path))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}

// WithMode returns a functional option for setting a profiler's mode.
func WithMode(mode string) func(Config) Config {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// WithPath returns a functional option for setting a profiler's output
// path.
func WithPath(path string) func(Config) Config {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// WithQuiet returns a functional option for setting a profiler's quiet
// flag.
func WithQuiet(quiet bool) func(Config) Config {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

type ignore struct{}

func (ignore) Stop() {}
