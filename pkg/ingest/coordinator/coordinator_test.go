package coordinator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/tidewrite/pkg/ingest/coordinator"
	metrics "github.com/tigerroll/tidewrite/pkg/ingest/core/metrics"
	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	"github.com/tigerroll/tidewrite/pkg/ingest/queue/memqueue"
	"github.com/tigerroll/tidewrite/pkg/ingest/store/memstore"
)

func newTestCoordinator(primary *memstore.PrimaryStore, secondary *memstore.SecondaryStore, queue *memqueue.Queue) *coordinator.DualWriteCoordinator {
	return coordinator.NewDualWriteCoordinator(
		primary, secondary, queue,
		metrics.NewNoOpMetricRecorder(), metrics.NewNoOpTracer(),
		0,
	)
}

func testRecord(id string) model.Record {
	return model.Record{
		ID:     id,
		Status: "Active",
		Attributes: []model.Attribute{
			{Name: "name", Value: "alpha"},
		},
		ReceivedAt: time.Now(),
	}
}

func TestProcess_BothStoresSucceed(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	queue := memqueue.NewQueue()
	c := newTestCoordinator(primary, secondary, queue)

	result := c.Process(context.Background(), "batch-1", 0, testRecord("rec-1"))

	assert.Equal(t, model.StateConsistent, result.FinalState)
	assert.Equal(t, model.OutcomeWritten, result.Primary.Kind)
	assert.Equal(t, model.OutcomeWritten, result.Secondary.Kind)
	assert.Empty(t, result.Reason)
	assert.Empty(t, queue.Entries())

	row, ok := primary.Row("rec-1")
	require.True(t, ok)
	assert.Equal(t, "Active", row["status"])
	assert.Equal(t, "alpha", row["name"])

	doc, ok := secondary.Document("rec-1")
	require.True(t, ok)
	assert.Equal(t, "rec-1", doc["id"])
	assert.Equal(t, "Active", doc["status"])
}

func TestProcess_ResubmissionReportsUnchanged(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	c := newTestCoordinator(primary, secondary, memqueue.NewQueue())

	first := c.Process(context.Background(), "batch-1", 0, testRecord("rec-1"))
	assert.Equal(t, model.OutcomeWritten, first.Primary.Kind)

	second := c.Process(context.Background(), "batch-2", 0, testRecord("rec-1"))
	assert.Equal(t, model.StateConsistent, second.FinalState)
	assert.Equal(t, model.OutcomeUnchanged, second.Primary.Kind)
}

func TestProcess_PrimaryFailureRejectsWithoutSecondaryAttempt(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	queue := memqueue.NewQueue()
	c := newTestCoordinator(primary, secondary, queue)

	primary.FailWith(errors.New("connection refused"))

	result := c.Process(context.Background(), "batch-1", 0, testRecord("rec-1"))

	assert.Equal(t, model.StateRejected, result.FinalState)
	assert.Equal(t, model.OutcomeFailed, result.Primary.Kind)
	assert.Equal(t, model.ReasonStoreUnavailable, result.Primary.Reason)
	assert.Equal(t, model.ReasonStoreUnavailable, result.Reason)

	// Strict ordering: the secondary write is never issued and nothing is queued.
	assert.Equal(t, model.OutcomeNotAttempted, result.Secondary.Kind)
	assert.Equal(t, 0, secondary.UpsertCount())
	assert.Empty(t, queue.Entries())
}

func TestProcess_SecondaryFailurePendingWithQueueEntry(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	queue := memqueue.NewQueue()
	c := newTestCoordinator(primary, secondary, queue)

	secondary.FailWith(errors.New("index unavailable"))

	result := c.Process(context.Background(), "batch-1", 3, testRecord("rec-1"))

	assert.Equal(t, model.StatePendingReconciliation, result.FinalState)
	assert.Equal(t, model.OutcomeWritten, result.Primary.Kind)
	assert.Equal(t, model.OutcomeFailed, result.Secondary.Kind)
	assert.Equal(t, model.ReasonStoreUnavailable, result.Reason)

	// The primary write stands.
	_, ok := primary.Row("rec-1")
	assert.True(t, ok)

	entries := queue.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "rec-1", entries[0].ID)
	assert.Equal(t, "batch-1", entries[0].BatchID)
	assert.Equal(t, model.ReasonStoreUnavailable, entries[0].FailureReason)
	assert.False(t, entries[0].FailedAt.IsZero())

	// The entry carries the full projection so a retry never re-reads the primary.
	assert.Equal(t, "rec-1", entries[0].Document["id"])
	assert.Equal(t, "Active", entries[0].Document["status"])
	assert.Equal(t, "alpha", entries[0].Document["name"])
}

func TestProcess_PublishFailureStillPending(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	queue := memqueue.NewQueue()
	c := newTestCoordinator(primary, secondary, queue)

	secondary.FailWith(errors.New("index unavailable"))
	queue.FailWith(errors.New("queue down"))

	result := c.Process(context.Background(), "batch-1", 0, testRecord("rec-1"))

	// Publish is fire-and-forget: the record stays PendingReconciliation.
	assert.Equal(t, model.StatePendingReconciliation, result.FinalState)
	assert.Empty(t, queue.Entries())
}

func TestProcess_SecondaryTimeoutClassifiedStoreTimeout(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	c := newTestCoordinator(primary, secondary, memqueue.NewQueue())

	secondary.FailWith(context.DeadlineExceeded)

	result := c.Process(context.Background(), "batch-1", 0, testRecord("rec-1"))

	assert.Equal(t, model.StatePendingReconciliation, result.FinalState)
	assert.Equal(t, model.ReasonStoreTimeout, result.Secondary.Reason)
}

func TestProcess_BatchCancellationClassifiedTimeout(t *testing.T) {
	primary := memstore.NewPrimaryStore("primary")
	secondary := memstore.NewSecondaryStore("secondary")
	c := newTestCoordinator(primary, secondary, memqueue.NewQueue())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Process(ctx, "batch-1", 0, testRecord("rec-1"))

	assert.Equal(t, model.StateRejected, result.FinalState)
	assert.Equal(t, model.OutcomeFailed, result.Primary.Kind)
	assert.Equal(t, model.ReasonTimeout, result.Primary.Reason)
	assert.Equal(t, model.OutcomeNotAttempted, result.Secondary.Kind)
}

func TestProcess_ResultCarriesIndexAndID(t *testing.T) {
	c := newTestCoordinator(memstore.NewPrimaryStore("p"), memstore.NewSecondaryStore("s"), memqueue.NewQueue())

	result := c.Process(context.Background(), "batch-1", 7, testRecord("rec-42"))
	assert.Equal(t, "rec-42", result.ID)
	assert.Equal(t, 7, result.Index)
}
