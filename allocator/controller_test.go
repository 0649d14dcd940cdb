package allocator

import (
	"context"
	"testing"

	"ranked-allocator/metrics"
	"ranked-allocator/queues"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	err       error
	failFor   string
	published []*queues.AllocationResult
}

func (m *mockPublisher) PublishResult(ctx context.Context, res *queues.AllocationResult) error {
	if m.err != nil && (m.failFor == "" || m.failFor == res.RequesterID) {
		return m.err
	}
	m.published = append(m.published, res)
	return nil
}

func twoRoomBatch(t *testing.T) (*Roster, *Registry) {
	t.Helper()
	reg, err := NewRegistry(ResourceSpec{ID: "X", Capacity: 1}, ResourceSpec{ID: "Y", Capacity: 1, Occupancy: 1})
	require.NoError(t, err)
	ro, err := NewRoster(
		NewRequester("A", "Ann", 3.8, ClassAcademic, 100, []string{"X"}),
		NewRequester("B", "Ben", 3.2, ClassMedical, 200, []string{"X"}),
	)
	require.NoError(t, err)
	return ro, reg
}

func TestNewController(t *testing.T) {
	tests := []struct {
		name string
		p    queues.Publisher
	}{
		{name: "with publisher", p: &mockPublisher{}},
		{name: "without publisher", p: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewController(tt.p)
			if ctrl == nil || ctrl.publisher != tt.p {
				t.Errorf("NewController() mismatch\nctrl: %#v\np: %#v", ctrl, tt.p)
			}
		})
	}
}

func TestController_ExecutePublishesEveryOutcome(t *testing.T) {
	fixedRunID(t, "run-7")
	ro, reg := twoRoomBatch(t)
	pub := &mockPublisher{}
	preferred := testutil.ToFloat64(metrics.AllocationsTotal.WithLabelValues(string(PhasePreferred)))
	waitlisted := testutil.ToFloat64(metrics.AllocationsTotal.WithLabelValues(string(PhaseWaitlist)))

	report, err := NewController(pub).Execute(context.Background(), ro, reg)
	require.NoError(t, err)

	require.Len(t, pub.published, 2)
	first, second := pub.published[0], pub.published[1]

	assert.Equal(t, "run-7", first.RunID)
	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, "B", first.RequesterID)
	assert.Equal(t, queues.StatusAllocated, first.Status)
	require.NotNil(t, first.ResourceID)
	assert.Equal(t, "X", *first.ResourceID)
	require.NotNil(t, first.PreferenceRank)
	assert.Equal(t, 1, *first.PreferenceRank)

	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, "A", second.RequesterID)
	assert.Equal(t, queues.StatusWaitlisted, second.Status)
	assert.Equal(t, string(PhaseWaitlist), second.Phase)
	assert.Nil(t, second.ResourceID)
	assert.Nil(t, second.PreferenceRank)

	assert.Equal(t, []string{"A"}, report.Waitlist())
	assert.Equal(t, preferred+1, testutil.ToFloat64(metrics.AllocationsTotal.WithLabelValues(string(PhasePreferred))))
	assert.Equal(t, waitlisted+1, testutil.ToFloat64(metrics.AllocationsTotal.WithLabelValues(string(PhaseWaitlist))))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.QueueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Utilization))
}

func TestController_ExecutePublishFailure(t *testing.T) {
	tests := []struct {
		name      string
		failFor   string
		published int
		failures  float64
	}{
		{name: "every publish fails", published: 0, failures: 2},
		{name: "one publish fails", failFor: "A", published: 1, failures: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ro, reg := twoRoomBatch(t)
			pubErr := errors.New("topic unavailable")
			pub := &mockPublisher{err: pubErr, failFor: tt.failFor}
			before := testutil.ToFloat64(metrics.PublishFailures)

			report, err := NewController(pub).Execute(context.Background(), ro, reg)

			require.Error(t, err)
			assert.ErrorIs(t, err, pubErr)
			require.NotNil(t, report, "the report survives publish failures")
			assert.Len(t, report.Outcomes, 2)
			assert.Len(t, pub.published, tt.published)
			assert.Equal(t, before+tt.failures, testutil.ToFloat64(metrics.PublishFailures))
		})
	}
}

func TestController_ExecuteWithoutPublisher(t *testing.T) {
	ro, reg := twoRoomBatch(t)

	report, err := NewController(nil).Execute(context.Background(), ro, reg)

	require.NoError(t, err)
	assert.Equal(t, []Assignment{{RequesterID: "B", ResourceID: "X"}}, report.Assignments())
}
