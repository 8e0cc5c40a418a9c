package vehicle

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

// Registry is the set of known vehicles for one synchronization session.
// Exclusion is checked at ingestion time: an excluded vehicle is never
// inserted.
type Registry struct {
	mu       sync.RWMutex
	vehicles map[string]*Vehicle
	excluded map[string]struct{}
}

// NewRegistry creates an empty registry with the given exclusion list.
func NewRegistry(excluded []string) *Registry {
	ex := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		ex[id] = struct{}{}
	}

	return &Registry{
		vehicles: make(map[string]*Vehicle),
		excluded: ex,
	}
}

// Add inserts a vehicle unless its identifier is excluded or already
// present. It reports whether the vehicle was added.
func (r *Registry) Add(v *Vehicle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.excluded[v.ID()]; ok {
		log.Debugf("registry: vehicle %s is excluded, skipping", model.MaskVIN(v.ID()))

		return false
	}

	if _, ok := r.vehicles[v.ID()]; ok {
		log.Warnf("registry: vehicle %s is already registered", model.MaskVIN(v.ID()))

		return false
	}

	r.vehicles[v.ID()] = v

	return true
}

// Excluded reports whether an identifier is on the exclusion list.
func (r *Registry) Excluded(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.excluded[id]

	return ok
}

// Get returns the vehicle for the given identifier.
func (r *Registry) Get(id string) (*Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vehicles[id]

	return v, ok
}

// All returns the registered vehicles ordered by identifier.
func (r *Registry) All() []*Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })

	return out
}

// Len returns the number of registered vehicles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.vehicles)
}
