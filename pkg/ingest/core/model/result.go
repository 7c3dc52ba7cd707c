package model

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// OutcomeKind represents the terminal state of a single store write.
type OutcomeKind string

const (
	// OutcomeWritten indicates the store accepted the write and the row or document did not previously exist.
	OutcomeWritten OutcomeKind = "WRITTEN"
	// OutcomeUnchanged indicates the store accepted the write for a key that already existed.
	OutcomeUnchanged OutcomeKind = "UNCHANGED"
	// OutcomeFailed indicates the store write failed; the reason is enumerated, not free text.
	OutcomeFailed OutcomeKind = "FAILED"
	// OutcomeNotAttempted indicates the write was never issued (validation failure, or primary failed first).
	OutcomeNotAttempted OutcomeKind = "NOT_ATTEMPTED"
)

// String returns the string representation of the OutcomeKind.
func (k OutcomeKind) String() string {
	return string(k)
}

// Enumerated failure reasons for store writes and rejections.
const (
	ReasonStoreUnavailable = "StoreUnavailable"
	ReasonStoreTimeout     = "StoreTimeout"
	ReasonTimeout          = "Timeout"
	ReasonMissingID        = "MissingId"
	ReasonInvalidID        = "InvalidId"
	ReasonInvalidStatus    = "InvalidStatus"
	ReasonBatchTooLarge    = "BatchTooLarge"
)

// MissingRequiredFieldReason formats the parameterized rejection reason for a missing required attribute.
func MissingRequiredFieldReason(field string) string {
	return fmt.Sprintf("MissingRequiredField(%s)", field)
}

// WriteOutcome is the per-store result of a single record write.
type WriteOutcome struct {
	// Kind is the terminal state of the write.
	Kind OutcomeKind `json:"kind"`
	// Reason is set only when Kind is OutcomeFailed.
	Reason string `json:"reason,omitempty"`
}

// Written returns the outcome for a newly created row or document.
func Written() WriteOutcome {
	return WriteOutcome{Kind: OutcomeWritten}
}

// Unchanged returns the outcome for an upsert against an existing key.
func Unchanged() WriteOutcome {
	return WriteOutcome{Kind: OutcomeUnchanged}
}

// FailedOutcome returns a failed outcome with the given enumerated reason.
func FailedOutcome(reason string) WriteOutcome {
	return WriteOutcome{Kind: OutcomeFailed, Reason: reason}
}

// NotAttempted returns the outcome for a write that was never issued.
func NotAttempted() WriteOutcome {
	return WriteOutcome{Kind: OutcomeNotAttempted}
}

// Succeeded reports whether the store accepted the write.
func (o WriteOutcome) Succeeded() bool {
	return o.Kind == OutcomeWritten || o.Kind == OutcomeUnchanged
}

// FinalState is the per-record classification after both store writes have been resolved.
type FinalState string

const (
	// StateConsistent indicates both stores accepted the record.
	StateConsistent FinalState = "Consistent"
	// StatePendingReconciliation indicates the primary accepted the record but the secondary did not.
	StatePendingReconciliation FinalState = "PendingReconciliation"
	// StateRejected indicates the record never reached a consistent primary state:
	// either validation failed or the primary write itself failed.
	StateRejected FinalState = "Rejected"
)

// String returns the string representation of the FinalState.
func (s FinalState) String() string {
	return string(s)
}

// RecordResult is the per-record outcome of a batch run.
// Invariant: FinalState is StateConsistent iff both outcomes succeeded,
// StatePendingReconciliation iff exactly the primary succeeded, and
// StateRejected iff no store holds the record authoritatively.
type RecordResult struct {
	// ID is the record id; empty when the raw record carried none.
	ID string `json:"id"`
	// Index is the record's position in the submitted batch.
	Index int `json:"index"`
	// Primary is the outcome of the relational store write.
	Primary WriteOutcome `json:"primaryOutcome"`
	// Secondary is the outcome of the document store write.
	Secondary WriteOutcome `json:"secondaryOutcome"`
	// FinalState is the resolved classification of the record.
	FinalState FinalState `json:"finalState"`
	// Reason carries the rejection or failure reason when the record did not end Consistent.
	Reason string `json:"reason,omitempty"`
}

// BatchSummary is the sealed, immutable result of a batch run.
// Results are ordered by original input index regardless of completion order.
type BatchSummary struct {
	// BatchID identifies this batch execution.
	BatchID string `json:"batchId"`
	// Received is the number of records submitted.
	Received int `json:"received"`
	// Processed counts records that ended Consistent or PendingReconciliation.
	Processed int `json:"processed"`
	// Failed counts records that ended Rejected.
	Failed int `json:"failed"`
	// Pending counts records that ended PendingReconciliation.
	Pending int `json:"pending"`
	// DurationMs is the wall-clock duration of the batch in milliseconds.
	DurationMs int64 `json:"durationMs"`
	// TimedOut indicates the batch was sealed by the batch timeout rather than completion.
	TimedOut bool `json:"timedOut"`
	// Results holds one entry per submitted record, in input order.
	Results []RecordResult `json:"results"`
}

// SummaryBuilder accumulates RecordResults while a batch is running and seals
// them into an immutable BatchSummary. It is the single accumulation point
// reached by completed workers; appends are serialized internally.
type SummaryBuilder struct {
	mu       sync.Mutex
	batchID  string
	received int
	started  time.Time
	results  []RecordResult
	sealed   bool
}

// NewSummaryBuilder creates a SummaryBuilder for a batch of the given size.
func NewSummaryBuilder(batchID string, received int) *SummaryBuilder {
	return &SummaryBuilder{
		batchID: batchID,
		received: received,
		started: time.Now(),
		results: make([]RecordResult, 0, received),
	}
}

// Append records one completed RecordResult. Appends after Seal are ignored;
// a worker finishing after the batch timeout must not mutate the sealed summary.
func (b *SummaryBuilder) Append(r RecordResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	b.results = append(b.results, r)
}

// Seal finishes the batch and returns the immutable summary.
// Results are sorted back to input order and the per-state counts are derived
// from the final states, so counts and results can never disagree.
func (b *SummaryBuilder) Seal(timedOut bool) BatchSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true

	results := make([]RecordResult, len(b.results))
	copy(results, b.results)
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	summary := BatchSummary{
		BatchID:    b.batchID,
		Received:   b.received,
		DurationMs: time.Since(b.started).Milliseconds(),
		TimedOut:   timedOut,
		Results:    results,
	}
	for _, r := range results {
		switch r.FinalState {
		case StateConsistent:
			summary.Processed++
		case StatePendingReconciliation:
			summary.Processed++
			summary.Pending++
		case StateRejected:
			summary.Failed++
		}
	}
	return summary
}
