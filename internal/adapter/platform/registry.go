package platform

import (
	"fmt"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// Registry selects an adapter by its platform key. There is no shared
// state between adapters; the registry is a plain lookup table.
type Registry struct {
	platforms map[string]port.Platform
}

// NewRegistry builds a registry from the given adapters, keyed by Name().
func NewRegistry(platforms ...port.Platform) *Registry {
	r := &Registry{platforms: make(map[string]port.Platform, len(platforms))}
	for _, p := range platforms {
		r.platforms[p.Name()] = p
	}
	return r
}

// Get resolves a platform key. Unknown keys return a terminal business
// error so callers surface it without retrying.
func (r *Registry) Get(name string) (port.Platform, error) {
	p, ok := r.platforms[name]
	if !ok {
		return nil, domain.NewBusinessError(domain.CodeUnsupportedPlatform,
			fmt.Sprintf("platform %q is not supported", name))
	}
	return p, nil
}
