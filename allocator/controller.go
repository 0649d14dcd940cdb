package allocator

import (
	"context"
	"time"

	"ranked-allocator/metrics"
	"ranked-allocator/queues"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Controller wires a batch to an allocation pass, records metrics and hands
// each outcome to the publisher. The publisher is optional.
type Controller struct {
	publisher queues.Publisher
}

func NewController(p queues.Publisher) *Controller {
	return &Controller{publisher: p}
}

// Execute runs one fresh pass of the roster against the registry. The report
// is always complete; a non-nil error only reports publishing failures.
func (c *Controller) Execute(ctx context.Context, roster *Roster, registry *Registry) (*Report, error) {
	start := time.Now()
	queue := roster.Queue()
	metrics.QueueDepth.Set(float64(queue.Len()))
	log.Info().Int("requesters", roster.Len()).Msg("controller: handling allocation batch")

	report := NewEngine(registry).Run(queue)

	duration := time.Since(start)
	metrics.PassDuration.Observe(duration.Seconds())
	for _, o := range report.Outcomes {
		metrics.AllocationsTotal.WithLabelValues(string(o.Phase)).Inc()
	}
	stats := report.Stats()
	if stats.TotalCapacity > 0 {
		metrics.Utilization.Set(float64(stats.TotalOccupied) / float64(stats.TotalCapacity))
	}

	if c.publisher == nil {
		log.Info().Str("runId", report.RunID).Dur("duration", duration).Msg("controller: no publisher configured; skipping result publishing")
		return report, nil
	}

	var firstErr error
	for _, o := range report.Outcomes {
		if err := c.publishOutcome(ctx, report.RunID, o); err != nil {
			metrics.PublishFailures.Inc()
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "publish result for %q", o.RequesterID)
			}
		}
	}
	if firstErr != nil {
		return report, firstErr
	}
	log.Info().Str("runId", report.RunID).Int("published", len(report.Outcomes)).Dur("duration", duration).Msg("controller: allocation results published")
	return report, nil
}

// publishOutcome builds the result envelope for one outcome and publishes it.
func (c *Controller) publishOutcome(ctx context.Context, runID string, o Outcome) error {
	res := &queues.AllocationResult{
		EnvelopeVersion: "1.0",
		Type:            "allocation-result",
		RunID:           runID,
		Sequence:        o.Sequence,
		RequesterID:     o.RequesterID,
		Status:          queues.StatusWaitlisted,
		Phase:           string(o.Phase),
		PriorityScore:   o.Score,
	}
	if o.Allocated() {
		resourceID := o.ResourceID
		res.Status = queues.StatusAllocated
		res.ResourceID = &resourceID
	}
	if o.PreferenceRank > 0 {
		rank := o.PreferenceRank
		res.PreferenceRank = &rank
	}
	if err := c.publisher.PublishResult(ctx, res); err != nil {
		log.Error().Err(err).Str("requesterId", o.RequesterID).Msg("controller: failed to publish result")
		return err
	}
	return nil
}
