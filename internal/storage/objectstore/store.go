package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// Store is the part of an S3-compatible API the graph archive uses.
type Store interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Snapshot is a stored graph together with the run payload it was built from.
type Snapshot struct {
	RunID  string
	Digest string
	Format string
	Run    []byte
	Graph  []byte
}

// Archive writes graphs and their runs under run id and payload digest, so
// distinct inputs submitted for one run never overwrite each other.
type Archive struct {
	store       Store
	graphBucket string
	runBucket   string
}

func NewArchive(store Store, graphBucket, runBucket string) (*Archive, error) {
	switch {
	case store == nil:
		return nil, errors.New("object store is required")
	case strings.TrimSpace(graphBucket) == "":
		return nil, errors.New("graph bucket is required")
	case strings.TrimSpace(runBucket) == "":
		return nil, errors.New("run bucket is required")
	}
	return &Archive{store: store, graphBucket: graphBucket, runBucket: runBucket}, nil
}

// Save writes the graph and then the run.
func (a *Archive) Save(ctx context.Context, snap Snapshot) error {
	if snap.RunID == "" || snap.Digest == "" {
		return errors.New("snapshot needs run id and digest")
	}
	if err := a.store.PutObject(ctx, a.graphBucket, GraphKey(snap.RunID, snap.Digest), snap.Graph, "application/json"); err != nil {
		return fmt.Errorf("archive graph %s: %w", snap.RunID, err)
	}
	if err := a.store.PutObject(ctx, a.runBucket, RunKey(snap.RunID, snap.Digest, snap.Format), snap.Run, runContentType(snap.Format)); err != nil {
		return fmt.Errorf("archive run %s: %w", snap.RunID, err)
	}
	return nil
}

func (a *Archive) LoadGraph(ctx context.Context, runID, digest string) ([]byte, error) {
	return a.store.GetObject(ctx, a.graphBucket, GraphKey(runID, digest))
}

func (a *Archive) LoadRun(ctx context.Context, runID, digest, format string) ([]byte, error) {
	return a.store.GetObject(ctx, a.runBucket, RunKey(runID, digest, format))
}

func GraphKey(runID, digest string) string {
	return path.Join(runID, digest, "graph.json")
}

func RunKey(runID, digest, format string) string {
	if isYAML(format) {
		return path.Join(runID, digest, "run.yaml")
	}
	return path.Join(runID, digest, "run.json")
}

func runContentType(format string) string {
	if isYAML(format) {
		return "application/yaml"
	}
	return "application/json"
}

func isYAML(format string) bool {
	return format == "yaml" || format == "yml"
}
