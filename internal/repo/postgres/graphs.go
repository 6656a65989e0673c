package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/animus-labs/rungraph/internal/repo"
)

type GraphStore struct {
	db DB
}

const (
	insertGraphQuery = `INSERT INTO task_graphs (
		graph_id,
		run_id,
		digest,
		graph,
		task_count,
		dependency_count
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (run_id) DO NOTHING
	RETURNING graph_id, run_id, digest, graph, task_count, dependency_count, created_at`

	selectGraphByRunQuery = `SELECT graph_id, run_id, digest, graph, task_count, dependency_count, created_at
	 FROM task_graphs
	 WHERE run_id = $1`
)

func NewGraphStore(db DB) *GraphStore {
	if db == nil {
		return nil
	}
	return &GraphStore{db: db}
}

// UpsertGraph stores the graph of a run once. Storing the same digest again
// returns the existing record with created=false; a different digest for a run
// that already has a graph is repo.ErrConflict.
func (s *GraphStore) UpsertGraph(ctx context.Context, record repo.GraphRecord) (repo.GraphRecord, bool, error) {
	if s == nil || s.db == nil {
		return repo.GraphRecord{}, false, fmt.Errorf("graph store not initialized")
	}
	record.RunID = strings.TrimSpace(record.RunID)
	record.Digest = strings.TrimSpace(record.Digest)
	if record.RunID == "" {
		return repo.GraphRecord{}, false, fmt.Errorf("run id is required")
	}
	if record.Digest == "" {
		return repo.GraphRecord{}, false, fmt.Errorf("digest is required")
	}
	if len(record.Graph) == 0 {
		return repo.GraphRecord{}, false, fmt.Errorf("graph is required")
	}

	var stored repo.GraphRecord
	err := s.db.QueryRowContext(
		ctx,
		insertGraphQuery,
		uuid.NewString(),
		record.RunID,
		record.Digest,
		record.Graph,
		record.TaskCount,
		record.DependencyCount,
	).Scan(&stored.ID, &stored.RunID, &stored.Digest, &stored.Graph, &stored.TaskCount, &stored.DependencyCount, &stored.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return repo.GraphRecord{}, false, fmt.Errorf("insert graph: %w", err)
		}
		existing, err := s.GetGraph(ctx, record.RunID)
		if err != nil {
			return repo.GraphRecord{}, false, err
		}
		if existing.Digest != record.Digest {
			return repo.GraphRecord{}, false, fmt.Errorf("%w: run %s already has a graph with digest %s", repo.ErrConflict, record.RunID, existing.Digest)
		}
		return existing, false, nil
	}
	return stored, true, nil
}

func (s *GraphStore) GetGraph(ctx context.Context, runID string) (repo.GraphRecord, error) {
	if s == nil || s.db == nil {
		return repo.GraphRecord{}, fmt.Errorf("graph store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return repo.GraphRecord{}, fmt.Errorf("run id is required")
	}
	var record repo.GraphRecord
	row := s.db.QueryRowContext(ctx, selectGraphByRunQuery, runID)
	if err := row.Scan(&record.ID, &record.RunID, &record.Digest, &record.Graph, &record.TaskCount, &record.DependencyCount, &record.CreatedAt); err != nil {
		return repo.GraphRecord{}, handleNotFound(err)
	}
	return record, nil
}
