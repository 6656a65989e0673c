package repo

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a run already has a stored graph built from
// different input.
var ErrConflict = errors.New("conflict")

// GraphRecord is a persisted task graph. Digest is the sha256 of the run
// payload the graph was built from.
type GraphRecord struct {
	ID              string
	RunID           string
	Digest          string
	Graph           []byte
	TaskCount       int
	DependencyCount int
	CreatedAt       time.Time
}

// GraphRepository stores one graph per run.
type GraphRepository interface {
	UpsertGraph(ctx context.Context, record GraphRecord) (GraphRecord, bool, error)
	GetGraph(ctx context.Context, runID string) (GraphRecord, error)
}
