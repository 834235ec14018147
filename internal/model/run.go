package model

import "time"

// RunStatus represents the current state of a report run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusStaging     RunStatus = "staging"
	RunStatusExtracting  RunStatus = "extracting"
	RunStatusEnriching   RunStatus = "enriching"
	RunStatusClassifying RunStatus = "classifying"
	RunStatusExporting   RunStatus = "exporting"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single end-to-end report run.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Anomaly records a document-level oddity encountered during a run:
// a circuit token outside both vocabularies, an unreadable PDF, or a
// message that could not be unpacked. Anomalies never abort the batch.
type Anomaly struct {
	PON      string `json:"pon,omitempty"`
	Document string `json:"document,omitempty"`
	Detail   string `json:"detail"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Orders         int            `json:"orders"`
	BucketCounts   map[string]int `json:"bucket_counts"`
	SuspiciousPONs []string       `json:"suspicious_pons,omitempty"`
	Anomalies      []Anomaly      `json:"anomalies,omitempty"`
	DroppedNoDate  []string       `json:"dropped_no_date,omitempty"`
	Workbooks      []string       `json:"workbooks,omitempty"`
	Error          string         `json:"error,omitempty"`
}
