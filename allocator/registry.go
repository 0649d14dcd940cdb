package allocator

import (
	"iter"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Registry owns the resource pool for a pass. Iteration is in ascending id
// order so the fallback scan is reproducible.
//
// A Registry is not safe for concurrent use; a single pass owns it.
type Registry struct {
	resources map[string]*Resource
	order     []string // ascending ids
}

// NewRegistry validates the specs and builds a registry. Capacity must be
// positive and 0 <= occupancy <= capacity.
func NewRegistry(specs ...ResourceSpec) (*Registry, error) {
	reg := &Registry{
		resources: make(map[string]*Resource, len(specs)),
		order:     make([]string, 0, len(specs)),
	}
	for _, s := range specs {
		if s.ID == "" {
			return nil, errors.Wrap(ErrInvalidResource, "resource id is required")
		}
		if _, exists := reg.resources[s.ID]; exists {
			return nil, errors.Wrapf(ErrDuplicateResource, "%q", s.ID)
		}
		if s.Capacity <= 0 {
			return nil, errors.Wrapf(ErrInvalidResource, "%q: capacity must be positive, got %d", s.ID, s.Capacity)
		}
		if s.Occupancy < 0 || s.Occupancy > s.Capacity {
			return nil, errors.Wrapf(ErrInvalidResource, "%q: occupancy %d outside [0, %d]", s.ID, s.Occupancy, s.Capacity)
		}
		reg.resources[s.ID] = &Resource{
			ID:        s.ID,
			Type:      s.Type,
			Building:  s.Building,
			Floor:     s.Floor,
			Features:  sets.New(s.Features...),
			capacity:  s.Capacity,
			occupancy: s.Occupancy,
		}
		reg.order = append(reg.order, s.ID)
	}
	slices.Sort(reg.order)
	return reg, nil
}

// Get returns the resource with the given id.
func (r *Registry) Get(id string) (*Resource, bool) {
	res, ok := r.resources[id]
	return res, ok
}

func (r *Registry) Len() int { return len(r.order) }

// HasSpace is false for unknown ids and for resources at capacity.
func (r *Registry) HasSpace(id string) bool {
	res, ok := r.resources[id]
	return ok && res.HasSpace()
}

// AllocateOne takes one place in the resource. It leaves the registry
// unchanged and returns ErrNoSpaceOrUnknownResource when the resource is
// unknown or full.
func (r *Registry) AllocateOne(id string) error {
	res, ok := r.resources[id]
	if !ok || !res.HasSpace() {
		return errors.Wrapf(ErrNoSpaceOrUnknownResource, "%q", id)
	}
	res.occupancy++
	return nil
}

// All yields every resource in ascending id order.
func (r *Registry) All() iter.Seq[*Resource] {
	return func(yield func(*Resource) bool) {
		for _, id := range r.order {
			if !yield(r.resources[id]) {
				return
			}
		}
	}
}

// Available lists resources that still have space, in registry order.
func (r *Registry) Available() []*Resource {
	var out []*Resource
	for res := range r.All() {
		if res.HasSpace() {
			out = append(out, res)
		}
	}
	return out
}

// Utilization sums capacity and occupancy across the pool.
func (r *Registry) Utilization() (totalCapacity, totalOccupied int) {
	for _, res := range r.resources {
		totalCapacity += res.capacity
		totalOccupied += res.occupancy
	}
	return totalCapacity, totalOccupied
}

// Clone returns an independent copy; allocations on one do not affect the other.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		resources: make(map[string]*Resource, len(r.resources)),
		order:     slices.Clone(r.order),
	}
	for id, res := range r.resources {
		c.resources[id] = res.clone()
	}
	return c
}
