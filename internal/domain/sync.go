package domain

import "time"

// SyncStatus is the scheduler's run state.
type SyncStatus string

const (
	// SyncIdle means no run is in progress.
	SyncIdle SyncStatus = "idle"

	// SyncSyncing means a run is in flight.
	SyncSyncing SyncStatus = "syncing"

	// SyncSucceeded is reported when a run finishes without error.
	SyncSucceeded SyncStatus = "succeeded"

	// SyncFailed is reported when a run fails upstream.
	SyncFailed SyncStatus = "failed"
)

// SyncState is the observable state of reconciliation.
// Only the scheduler writes it; everyone else receives copies.
type SyncState struct {
	Status SyncStatus `json:"status"`

	// RunID identifies the current or most recent run.
	RunID string `json:"runId,omitempty"`

	// LastAttempt is when the most recent run started.
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// LastSuccess is when a run last succeeded.
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`

	// LastOutcome is SyncSucceeded or SyncFailed for the most recent finished run.
	LastOutcome SyncStatus `json:"lastOutcome,omitempty"`

	// LastError is set when the most recent run failed.
	LastError string `json:"lastError,omitempty"`

	// LastResult is the merge summary of the most recent successful run.
	LastResult *MergeResult `json:"lastResult,omitempty"`
}

// StatusText renders the state as a short human-readable line.
func (s SyncState) StatusText() string {
	switch {
	case s.Status == SyncSyncing:
		return "Syncing with server…"
	case s.LastOutcome == SyncFailed:
		return "Sync failed. Will retry later."
	case s.LastSuccess != nil:
		return "Last sync: " + s.LastSuccess.Format(time.RFC3339)
	default:
		return "Ready. Will sync periodically."
	}
}
