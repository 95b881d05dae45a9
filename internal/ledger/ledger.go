// Package ledger records seed and import runs, and the rows that failed
// during them, in PostgreSQL.
package ledger

import (
	"context"
	"time"
)

// Kind identifies what a run did.
type Kind string

const (
	KindSeed   Kind = "seed"
	KindImport Kind = "import"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one execution of a catalog command.
type Run struct {
	ID         string
	Kind       Kind
	Source     string
	Status     Status
	DryRun     bool
	Imported   int
	Skipped    int
	Errored    int
	Total      int
	Failure    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RowError is a CSV row that ended in the errored outcome.
type RowError struct {
	RunID     string
	Row       int
	SKU       string
	Message   string
	CreatedAt time.Time
}

// Recorder is what the catalog pipelines write run history through.
type Recorder interface {
	// Start opens a run in the running state.
	Start(ctx context.Context, kind Kind, source string, dryRun bool) (*Run, error)

	// RecordRowError appends a failed row to the run.
	RecordRowError(ctx context.Context, e RowError) error

	// Finish closes the run. A nil cause marks it completed, anything
	// else marks it failed with cause as the failure message.
	Finish(ctx context.Context, run *Run, cause error) error
}

// Nop is a Recorder that keeps runs in memory only. It is used when the
// ledger is disabled.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) Start(_ context.Context, kind Kind, source string, dryRun bool) (*Run, error) {
	return &Run{Kind: kind, Source: source, Status: StatusRunning, DryRun: dryRun, StartedAt: time.Now().UTC()}, nil
}

func (Nop) RecordRowError(context.Context, RowError) error { return nil }

func (Nop) Finish(_ context.Context, run *Run, cause error) error {
	finish(run, cause, time.Now().UTC())
	return nil
}

func finish(run *Run, cause error, at time.Time) {
	run.FinishedAt = &at
	run.Status = StatusCompleted
	run.Failure = ""
	if cause != nil {
		run.Status = StatusFailed
		run.Failure = cause.Error()
	}
}
