package model_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
)

func TestWriteOutcome_Succeeded(t *testing.T) {
	assert.True(t, model.Written().Succeeded())
	assert.True(t, model.Unchanged().Succeeded())
	assert.False(t, model.FailedOutcome(model.ReasonStoreUnavailable).Succeeded())
	assert.False(t, model.NotAttempted().Succeeded())
}

func TestFailedOutcome_CarriesReason(t *testing.T) {
	o := model.FailedOutcome(model.ReasonStoreTimeout)
	assert.Equal(t, model.OutcomeFailed, o.Kind)
	assert.Equal(t, model.ReasonStoreTimeout, o.Reason)
}

func TestMissingRequiredFieldReason(t *testing.T) {
	assert.Equal(t, "MissingRequiredField(name)", model.MissingRequiredFieldReason("name"))
}

func TestSummaryBuilder_SealSortsByInputIndex(t *testing.T) {
	b := model.NewSummaryBuilder("batch-1", 3)
	b.Append(model.RecordResult{ID: "c", Index: 2, FinalState: model.StateConsistent})
	b.Append(model.RecordResult{ID: "a", Index: 0, FinalState: model.StateConsistent})
	b.Append(model.RecordResult{ID: "b", Index: 1, FinalState: model.StateConsistent})

	summary := b.Seal(false)

	assert.Len(t, summary.Results, 3)
	assert.Equal(t, "a", summary.Results[0].ID)
	assert.Equal(t, "b", summary.Results[1].ID)
	assert.Equal(t, "c", summary.Results[2].ID)
}

func TestSummaryBuilder_SealDerivesCounts(t *testing.T) {
	b := model.NewSummaryBuilder("batch-1", 4)
	b.Append(model.RecordResult{ID: "r1", Index: 0, FinalState: model.StateConsistent})
	b.Append(model.RecordResult{ID: "r2", Index: 1, FinalState: model.StatePendingReconciliation, Reason: model.ReasonStoreUnavailable})
	b.Append(model.RecordResult{ID: "r3", Index: 2, FinalState: model.StateRejected, Reason: model.ReasonMissingID})
	b.Append(model.RecordResult{ID: "r4", Index: 3, FinalState: model.StateConsistent})

	summary := b.Seal(false)

	assert.Equal(t, "batch-1", summary.BatchID)
	assert.Equal(t, 4, summary.Received)
	assert.Equal(t, 3, summary.Processed) // Consistent + PendingReconciliation
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Pending)
	assert.False(t, summary.TimedOut)
}

func TestSummaryBuilder_AppendAfterSealIgnored(t *testing.T) {
	b := model.NewSummaryBuilder("batch-1", 2)
	b.Append(model.RecordResult{ID: "r1", Index: 0, FinalState: model.StateConsistent})

	summary := b.Seal(true)
	assert.True(t, summary.TimedOut)
	assert.Len(t, summary.Results, 1)

	// A worker finishing after the timeout must not mutate the sealed summary.
	b.Append(model.RecordResult{ID: "r2", Index: 1, FinalState: model.StateConsistent})
	assert.Len(t, summary.Results, 1)

	resealed := b.Seal(true)
	assert.Len(t, resealed.Results, 1)
}

func TestSummaryBuilder_ConcurrentAppends(t *testing.T) {
	const n = 100
	b := model.NewSummaryBuilder("batch-1", n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			b.Append(model.RecordResult{Index: idx, FinalState: model.StateConsistent})
		}(i)
	}
	wg.Wait()

	summary := b.Seal(false)
	assert.Len(t, summary.Results, n)
	assert.Equal(t, n, summary.Processed)
	for i, r := range summary.Results {
		assert.Equal(t, i, r.Index)
	}
}
