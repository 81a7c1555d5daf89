package workload

import (
	"fmt"
	"sort"
	"sync"

	"github.com/comfyops/comfydock/internal/api"
)

// registry holds the catalog of workload specifications.
//
// Specs are registered from init() functions in the per-workload files, so
// the catalog is complete before main runs. Access is mutex-protected; the
// server-side commands may query it from multiple goroutines.
type registry struct {
	mu    sync.RWMutex
	specs map[api.Workload]*Spec
}

var defaultRegistry = &registry{specs: make(map[api.Workload]*Spec)}

// Register adds a workload spec to the catalog.
//
// This function is called from init() functions in the per-workload files.
// An invalid or duplicate spec is a programming error and panics: the
// catalog is static and must be correct at startup.
func Register(spec *Spec) {
	if err := spec.Validate(); err != nil {
		panic(fmt.Sprintf("invalid workload spec: %v", err))
	}

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	if _, exists := defaultRegistry.specs[spec.Workload]; exists {
		panic(fmt.Sprintf("workload %s registered twice", spec.Workload))
	}
	defaultRegistry.specs[spec.Workload] = spec
}

// Get retrieves the spec for a workload.
//
// Parameters:
//   - w: The workload identifier (already validated by api.ParseWorkload)
//
// Returns:
//   - The workload spec
//   - Error if no spec is registered for the workload
func Get(w api.Workload) (*Spec, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	spec, ok := defaultRegistry.specs[w]
	if !ok {
		return nil, fmt.Errorf("no spec registered for workload %s", w)
	}
	return spec, nil
}

// All returns every registered spec, ordered by workload name.
func All() []*Spec {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	specs := make([]*Spec, 0, len(defaultRegistry.specs))
	for _, spec := range defaultRegistry.specs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Workload < specs[j].Workload
	})
	return specs
}
