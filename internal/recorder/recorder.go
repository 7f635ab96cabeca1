package recorder

import (
	"time"

	"StockInsight/internal/model"
)

// RunRecord holds everything persisted for one daily run.
type RunRecord struct {
	ID         string
	RunDate    string
	Status     model.RunStatus
	Model      string
	Records    []*model.FeatureRecord
	Advice     *model.Advice
	Skipped    []string
	ReportPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID         string
	RunDate    string
	Status     model.RunStatus
	Symbols    int
	Skipped    int
	ReportPath string
	FinishedAt time.Time
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
