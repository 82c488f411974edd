package replication

import "time"

// BulkReport summarizes one run of the bulk path.
type BulkReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	InStock    int
	Created    int
	Updated    int
	Errors     int
	Skipped    int
}

// Elapsed is a convenience accessor for callers building the operator
// API's JSON response.
func (r BulkReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
