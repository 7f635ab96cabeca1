package model

// RunStatus is the overall result of one daily run.
type RunStatus string

const (
	RunOK       RunStatus = "ok"
	RunDegraded RunStatus = "degraded" // no symbol had usable data, diagnostic report written
	RunSkipped  RunStatus = "skipped"  // weekend
)
