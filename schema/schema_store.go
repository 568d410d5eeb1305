package schema

import "time"

// RunRecord is one row of the run-history store.
type RunRecord struct {
	RunID            int64          `json:"run_id"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time,omitzero"`
	TotalGenes       int            `json:"total_genes"`
	SignificantGenes int            `json:"significant_genes"`
	Backend          ScoringBackend `json:"backend,omitempty"`
	Params           string         `json:"params,omitempty"`
	WarningCount     int            `json:"warning_count"`
}

// StoreStatus summarizes run-store health for status displays.
type StoreStatus struct {
	Backend   StoreBackend `json:"backend"`
	Connected bool         `json:"connected"`
	TotalRuns int64        `json:"total_runs"`
	Location  string       `json:"location,omitempty"`
}
