package allocator

import (
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Status is the outcome state of a requester within a pass.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusAllocated  Status = "Allocated"
	StatusWaitlisted Status = "Waitlisted"
)

// Phase names the step of the pass that decided an outcome.
type Phase string

const (
	PhasePreferred Phase = "preferred"
	PhaseFallback  Phase = "fallback"
	PhaseWaitlist  Phase = "waitlist"
)

// OccupancyStatus is a display grouping of a resource's fill level.
type OccupancyStatus string

const (
	OccupancyAvailable OccupancyStatus = "available"
	OccupancyPartial   OccupancyStatus = "partial"
	OccupancyFull      OccupancyStatus = "full"
)

// ResourceSpec describes a resource as supplied by the caller.
type ResourceSpec struct {
	ID        string
	Type      string
	Building  string
	Floor     int
	Features  []string
	Capacity  int
	Occupancy int
}

// Resource is a capacity-bounded unit in the pool. Occupancy only changes
// through Registry.AllocateOne.
type Resource struct {
	ID       string
	Type     string
	Building string
	Floor    int
	Features sets.Set[string]

	capacity  int
	occupancy int
}

func (r *Resource) Capacity() int  { return r.capacity }
func (r *Resource) Occupancy() int { return r.occupancy }

// HasSpace is derived from occupancy on every call.
func (r *Resource) HasSpace() bool { return r.occupancy < r.capacity }

// Remaining returns the number of free places.
func (r *Resource) Remaining() int { return r.capacity - r.occupancy }

func (r *Resource) HasFeature(name string) bool { return r.Features.Has(name) }

func (r *Resource) Status() OccupancyStatus {
	switch {
	case r.occupancy >= r.capacity:
		return OccupancyFull
	case r.occupancy > 0:
		return OccupancyPartial
	default:
		return OccupancyAvailable
	}
}

func (r *Resource) clone() *Resource {
	c := *r
	c.Features = r.Features.Clone()
	return &c
}

// Requester is a ranked applicant. The priority score is computed once at
// construction; outcome fields are written by the engine.
type Requester struct {
	ID          string
	Name        string
	Merit       float64
	Class       PriorityClass
	SubmittedAt int64

	preferences []string
	score       float64

	assigned string
	status   Status
}

// NewRequester builds a Pending requester and fixes its priority score.
func NewRequester(id, name string, merit float64, class PriorityClass, submittedAt int64, preferences []string) *Requester {
	return &Requester{
		ID:          id,
		Name:        name,
		Merit:       merit,
		Class:       class,
		SubmittedAt: submittedAt,
		preferences: slices.Clone(preferences),
		score:       Score(merit, class, submittedAt),
		status:      StatusPending,
	}
}

func (r *Requester) PriorityScore() float64 { return r.score }
func (r *Requester) Status() Status         { return r.status }

// AssignedResourceID returns the assigned resource and whether one exists.
func (r *Requester) AssignedResourceID() (string, bool) {
	return r.assigned, r.status == StatusAllocated
}

// Preferences returns a copy of the ordered preference list.
func (r *Requester) Preferences() []string { return slices.Clone(r.preferences) }

// PreferenceRank returns the 1-based position of resourceID in the preference
// list, or 0 if it is not listed.
func (r *Requester) PreferenceRank(resourceID string) int {
	if i := slices.Index(r.preferences, resourceID); i >= 0 {
		return i + 1
	}
	return 0
}

func (r *Requester) markAllocated(resourceID string) {
	r.assigned = resourceID
	r.status = StatusAllocated
}

func (r *Requester) markWaitlisted() {
	r.assigned = ""
	r.status = StatusWaitlisted
}

func (r *Requester) resetOutcome() {
	r.assigned = ""
	r.status = StatusPending
}
