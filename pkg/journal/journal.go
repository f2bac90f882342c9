// Package journal records the outcome of every dispatch.
//
// The bridge calls Recorder.Record after each dispatch with the dispatch ID,
// the path, the final status and how the dispatch ended. Recording failures
// are logged by the bridge and never change the dispatch result.
//
// Two recorders are provided: Memory keeps the latest entries in a ring
// buffer and Postgres appends to the relay_dispatches table created by the
// migrations returned from Migrations.
package journal

import (
	"context"
	"embed"
	"io/fs"
	"time"
)

// Outcome classifies how a dispatch ended.
type Outcome string

const (
	// OutcomeOK means the router returned and the status was 200.
	OutcomeOK Outcome = "ok"
	// OutcomeProcessingError means the router returned with another status.
	OutcomeProcessingError Outcome = "processing_error"
	// OutcomeDispatchError means the router raised an error.
	OutcomeDispatchError Outcome = "dispatch_error"
)

// Entry is one journal record.
type Entry struct {
	CreatedAt  time.Time     `json:"created_at"`
	DispatchID string        `json:"dispatch_id"`
	Path       string        `json:"path"`
	Outcome    Outcome       `json:"outcome"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Status     int           `json:"status"`
}

// Recorder persists journal entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Entry) error

func (f RecorderFunc) Record(ctx context.Context, e Entry) error {
	return f(ctx, e)
}

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations creating the journal table,
// rooted so they can be passed to db.Migrate directly.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
