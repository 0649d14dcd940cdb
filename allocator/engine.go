package allocator

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// newRunID stamps each pass. Tests may override it.
var newRunID = uuid.NewString

// Engine runs allocation passes against a registry. It mutates resource
// occupancy and requester outcomes but never creates or removes either.
type Engine struct {
	registry *Registry
}

// NewEngine returns an engine bound to the registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Run drains the queue in rank order. Each requester gets the first listed
// preference with space, otherwise the first resource with space in registry
// order, otherwise the waitlist. Outcomes are final for the run.
func (e *Engine) Run(queue *RankedQueue) *Report {
	report := &Report{RunID: newRunID()}
	log.Info().Str("runId", report.RunID).Int("queued", queue.Len()).Int("resources", e.registry.Len()).Msg("engine: starting allocation pass")

	for !queue.IsEmpty() {
		r, err := queue.ExtractMin()
		if err != nil {
			log.Error().Err(err).Str("runId", report.RunID).Msg("engine: extract from non-empty queue failed")
			break
		}
		o := e.place(r)
		o.Sequence = len(report.Outcomes) + 1
		report.Outcomes = append(report.Outcomes, o)
	}

	report.totalCapacity, report.totalOccupied = e.registry.Utilization()
	stats := report.Stats()
	log.Info().Str("runId", report.RunID).Int("allocated", stats.Allocated).Int("waitlisted", stats.Waitlisted).
		Int("occupied", stats.TotalOccupied).Int("capacity", stats.TotalCapacity).Msg("engine: allocation pass complete")
	return report
}

func (e *Engine) place(r *Requester) Outcome {
	o := Outcome{RequesterID: r.ID, Score: r.score}

	for i, id := range r.preferences {
		if !e.tryAllocate(r, id) {
			continue
		}
		o.ResourceID, o.Phase, o.PreferenceRank = id, PhasePreferred, i+1
		log.Debug().Str("requesterId", r.ID).Str("resourceId", id).Int("choice", i+1).Float64("score", r.score).Msg("engine: allocated preferred resource")
		return o
	}

	for res := range e.registry.All() {
		if !e.tryAllocate(r, res.ID) {
			continue
		}
		o.ResourceID, o.Phase = res.ID, PhaseFallback
		log.Debug().Str("requesterId", r.ID).Str("resourceId", res.ID).Float64("score", r.score).Msg("engine: allocated fallback resource")
		return o
	}

	r.markWaitlisted()
	o.Phase = PhaseWaitlist
	log.Debug().Str("requesterId", r.ID).Float64("score", r.score).Msg("engine: waitlisted")
	return o
}

// tryAllocate checks space, then takes a place. Unknown ids are unavailable.
func (e *Engine) tryAllocate(r *Requester, resourceID string) bool {
	if !e.registry.HasSpace(resourceID) {
		return false
	}
	if err := e.registry.AllocateOne(resourceID); err != nil {
		log.Error().Err(err).Str("requesterId", r.ID).Str("resourceId", resourceID).Msg("engine: allocation refused after space check")
		return false
	}
	r.markAllocated(resourceID)
	return true
}
