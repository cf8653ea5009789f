package pipeline

// State is a pipeline run's position in the submission lifecycle
type State string

const (
	StateReceived          State = "received"
	StateAnalyticsRecorded State = "analytics_recorded"
	StateBlobStored        State = "blob_stored"
	StateBudgetCheck       State = "budget_check"
	StateClaimsGenerated   State = "claims_generated"
	StateVerified          State = "verified"
	StatePersisted         State = "persisted"
	StateNotified          State = "notified"
	StateFailed            State = "failed"
)

// Outcome summarizes a finished run
type Outcome struct {
	ID      string
	State   State // Last state reached; StateFailed when Err is a failure
	Records int
	Err     error // nil on success, model.ErrBudgetExceeded on the budget branch
}
