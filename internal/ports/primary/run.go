package primary

import "context"

// RunService defines the primary port for run inspection and the action log.
type RunService interface {
	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// TailRuns returns the most recently updated runs. limit must be 1..200.
	TailRuns(ctx context.Context, limit int) ([]*Run, error)

	// Metrics summarizes run outcomes and recorded error codes.
	Metrics(ctx context.Context) (*MetricsSummary, error)

	// RecordAction appends an entry to the action log.
	RecordAction(ctx context.Context, command, payload string) error
}

// Run is a stored run with its decoded metadata.
type Run struct {
	ID           string         `json:"id"`
	Command      string         `json:"command"`
	Status       string         `json:"status"`
	MetadataJSON string         `json:"metadata_json"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// MetricsSummary aggregates run outcomes.
type MetricsSummary struct {
	TotalRuns        int                       `json:"total_runs"`
	SuccessRuns      int                       `json:"success_runs"`
	FailedRuns       int                       `json:"failed_runs"`
	ByCommand        map[string]*CommandCounts `json:"by_command"`
	CommonErrorCodes []ErrorCodeCount          `json:"common_error_codes"`
}

// CommandCounts buckets one command's runs by outcome.
type CommandCounts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Other     int `json:"other"`
}

// ErrorCodeCount is one recorded error code with its frequency.
type ErrorCodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}
