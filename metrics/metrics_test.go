package metrics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/caseline/caseline/events"
)

func TestRecordRunCreated(t *testing.T) {
	runsBefore := testutil.ToFloat64(runsCreatedTotal)
	execsBefore := testutil.ToFloat64(executionsCreatedTotal)

	RecordRunCreated(4)

	assert.Equal(t, runsBefore+1, testutil.ToFloat64(runsCreatedTotal))
	assert.Equal(t, execsBefore+4, testutil.ToFloat64(executionsCreatedTotal))
}

func TestRecordRunFinished(t *testing.T) {
	before := testutil.ToFloat64(runsFinishedTotal)

	RecordRunFinished()

	assert.Equal(t, before+1, testutil.ToFloat64(runsFinishedTotal))
}

func TestRecordTransition(t *testing.T) {
	// Unique label pair so the counter starts at zero.
	RecordTransition("idle", "running")
	RecordTransition("idle", "running")
	RecordTransition("running", "passed")

	assert.Equal(t, float64(2), testutil.ToFloat64(transitionsTotal.WithLabelValues("idle", "running")))
	assert.Equal(t, float64(1), testutil.ToFloat64(transitionsTotal.WithLabelValues("running", "passed")))
}

func TestCollector_Handle(t *testing.T) {
	ctx := context.Background()
	c := NewCollector()

	t.Run("run created", func(t *testing.T) {
		runsBefore := testutil.ToFloat64(runsCreatedTotal)
		execsBefore := testutil.ToFloat64(executionsCreatedTotal)

		c.Handle(ctx, events.RunCreated{
			RunID:      uuid.New(),
			PlanID:     uuid.New(),
			Executions: 3,
		})

		assert.Equal(t, runsBefore+1, testutil.ToFloat64(runsCreatedTotal))
		assert.Equal(t, execsBefore+3, testutil.ToFloat64(executionsCreatedTotal))
	})

	t.Run("run finished", func(t *testing.T) {
		before := testutil.ToFloat64(runsFinishedTotal)

		c.Handle(ctx, events.RunFinished{RunID: uuid.New(), PlanID: uuid.New()})

		assert.Equal(t, before+1, testutil.ToFloat64(runsFinishedTotal))
	})

	t.Run("status changed", func(t *testing.T) {
		c.Handle(ctx, events.ExecutionStatusChanged{
			ExecutionID: uuid.New(),
			RunID:       uuid.New(),
			From:        "running",
			To:          "blocked",
		})

		assert.Equal(t, float64(1), testutil.ToFloat64(transitionsTotal.WithLabelValues("running", "blocked")))
	})
}
