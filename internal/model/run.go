package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one execution of the curation pipeline. Only aggregate counts are
// kept; per-record decisions are not persisted.
type Run struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Report    *RunReport `json:"report,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunReport summarizes one run and is written to run_report.json.
type RunReport struct {
	RunID          string         `json:"run_id,omitempty"`
	TimestampUTC   string         `json:"timestamp_utc"`
	Feeds          []FeedReport   `json:"feeds"`
	DecisionsTotal map[string]int `json:"decisions_total"`
	RawItems       int            `json:"raw_items"`
	RelevantItems  int            `json:"relevant_items"`
	CuratedItems   int            `json:"curated_items"`
	Reconcile      ReconcileStats `json:"reconcile"`
	Dedup          DedupStats     `json:"dedup"`
	Phases         []PhaseResult  `json:"phases,omitempty"`
	OutputFile     string         `json:"output_file,omitempty"`
}

// PhaseStatus is the outcome of one pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult records how one pipeline phase went.
type PhaseResult struct {
	Name       string      `json:"name"`
	Status     PhaseStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// FeedReport holds per-feed counts.
type FeedReport struct {
	URL         string `json:"url"`
	FeedTitle   string `json:"feed_title"`
	ItemsInFeed int    `json:"items_in_feed"`
	RelevantYes int    `json:"relevant_yes"`
	Error       string `json:"error,omitempty"`
}

// ReconcileStats counts reconciliation outcomes across a batch.
type ReconcileStats struct {
	Records        int            `json:"records"`
	DOIExtracted   int            `json:"doi_extracted"`
	DOIRecovered   map[string]int `json:"doi_recovered,omitempty"`
	DOIMissing     int            `json:"doi_missing"`
	RegistryHits   int            `json:"registry_hits"`
	FullRecordHits int            `json:"full_record_hits"`
	AbstractFilled int            `json:"abstract_filled"`
}

// DedupStats counts records dropped by each duplicate key.
type DedupStats struct {
	Input   int `json:"input"`
	Kept    int `json:"kept"`
	ByDOI   int `json:"by_doi"`
	ByLink  int `json:"by_link"`
	ByTitle int `json:"by_title"`
}
