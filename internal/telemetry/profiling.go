package telemetry

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/grafana/pyroscope-go"
)

// Sampling rates applied when mutex or block profiles are requested. Both
// are disabled in the runtime until a rate is set.
const (
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

// profileTypes maps the names accepted in telemetry.profiling.profile_types
// to Pyroscope profile types.
var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// ProfilingConfig describes the service process to Pyroscope.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string

	// ProfileTypes are names from profileTypes. Empty leaves the choice to
	// Pyroscope.
	ProfileTypes []string
}

var profiling atomic.Bool

// InitProfiling starts continuous profiling of the service process. The
// returned function stops it and is safe to call when profiling is off.
func InitProfiling(cfg ProfilingConfig) (stop func() error, err error) {
	profiling.Store(false)
	if !cfg.Enabled {
		return func() error { return nil }, nil
	}

	types, err := resolveProfileTypes(cfg.ProfileTypes)
	if err != nil {
		return nil, err
	}

	mutex, block := runtimeRates(types)
	if mutex > 0 {
		runtime.SetMutexProfileFraction(mutex)
	}
	if block > 0 {
		runtime.SetBlockProfileRate(block)
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags:            profilingTags(cfg),
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler for %s: %w", cfg.ServiceName, err)
	}
	profiling.Store(true)

	return func() error {
		profiling.Store(false)
		return p.Stop()
	}, nil
}

// IsProfilingEnabled reports whether the profiler is running.
func IsProfilingEnabled() bool {
	return profiling.Load()
}

// resolveProfileTypes maps names to profile types, dropping duplicates and
// keeping the configured order.
func resolveProfileTypes(names []string) ([]pyroscope.ProfileType, error) {
	seen := make(map[pyroscope.ProfileType]bool, len(names))
	types := make([]pyroscope.ProfileType, 0, len(names))
	for _, name := range names {
		pt, ok := profileTypes[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile type %q (known: %s)", name, strings.Join(ProfileTypeNames(), ", "))
		}
		if seen[pt] {
			continue
		}
		seen[pt] = true
		types = append(types, pt)
	}
	return types, nil
}

// ProfileTypeNames lists the accepted profile type names in sorted order.
func ProfileTypeNames() []string {
	names := make([]string, 0, len(profileTypes))
	for name := range profileTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runtimeRates returns the mutex fraction and block rate the requested types
// need, zero when the type family is not requested.
func runtimeRates(types []pyroscope.ProfileType) (mutex, block int) {
	for _, pt := range types {
		switch pt {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			mutex = mutexProfileFraction
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			block = blockProfileRate
		}
	}
	return mutex, block
}

// profilingTags labels every profile with the service build and the
// configuration overlay in use. Empty values are left out.
func profilingTags(cfg ProfilingConfig) map[string]string {
	tags := make(map[string]string, 2)
	if cfg.ServiceVersion != "" {
		tags["version"] = cfg.ServiceVersion
	}
	if cfg.Environment != "" {
		tags["environment"] = strings.ToLower(cfg.Environment)
	}
	return tags
}
