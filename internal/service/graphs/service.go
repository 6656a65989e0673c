package graphs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/animus-labs/rungraph/internal/execution/graph"
	"github.com/animus-labs/rungraph/internal/execution/runspec"
	"github.com/animus-labs/rungraph/internal/platform/auditlog"
	"github.com/animus-labs/rungraph/internal/platform/metrics"
	"github.com/animus-labs/rungraph/internal/repo"
	"github.com/animus-labs/rungraph/internal/storage/objectstore"
)

// ErrInvalidRun wraps every parse or validation failure of a submitted run.
var ErrInvalidRun = errors.New("invalid run")

const defaultCacheSize = 256

type AuditFunc func(ctx context.Context, event auditlog.Event) error

// Archiver keeps copies of newly stored graphs outside the database.
type Archiver interface {
	Save(ctx context.Context, snap objectstore.Snapshot) error
}

type Options struct {
	Logger  *slog.Logger
	Graphs  repo.GraphRepository
	Metrics *metrics.Metrics
	Audit   AuditFunc

	// Archive is optional. When set, every newly stored graph and its run
	// payload are saved to it.
	Archive Archiver

	CacheSize int
}

type Service struct {
	logger  *slog.Logger
	graphs  repo.GraphRepository
	metrics *metrics.Metrics
	audit   AuditFunc
	archive Archiver
	cache   *lru.Cache[string, Result]
}

type BuildRequest struct {
	RunID     string
	Payload   []byte
	Format    string
	Actor     string
	RequestID string
}

type Result struct {
	RunID        string
	Digest       string
	Graph        []byte
	Tasks        int
	Dependencies int
	// Unsupported lists instruction kinds that contributed no dependencies.
	Unsupported []string
	Created     bool
	Cached      bool
}

func New(opts Options) (*Service, error) {
	if opts.Graphs == nil {
		return nil, errors.New("graph repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}
	return &Service{
		logger:  logger,
		graphs:  opts.Graphs,
		metrics: opts.Metrics,
		audit:   opts.Audit,
		archive: opts.Archive,
		cache:   cache,
	}, nil
}

// Digest identifies a run independent of its encoding and of the run id it is
// submitted under. JSON and YAML forms of the same run share a digest.
func Digest(payload []byte, format string) (string, error) {
	canonical, err := runspec.Canonical(payload, format)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Build parses the payload, builds its task graph and stores it. Repeated
// submissions of the same payload for the same run are answered from the
// cache or from the stored record.
func (s *Service) Build(ctx context.Context, req BuildRequest) (Result, error) {
	start := time.Now()
	req.RunID = strings.TrimSpace(req.RunID)
	if req.RunID == "" {
		return Result{}, fmt.Errorf("%w: run id is required", ErrInvalidRun)
	}
	digest, err := Digest(req.Payload, req.Format)
	if err != nil {
		s.metrics.ObserveBuild(metrics.OutcomeInvalid, time.Since(start), 0, 0)
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRun, err)
	}
	cacheKey := req.RunID + "\x00" + digest

	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.ObserveBuild(metrics.OutcomeCached, time.Since(start), cached.Tasks, cached.Dependencies)
		cached.Cached = true
		cached.Created = false
		s.recordAudit(ctx, req, cached)
		return cached, nil
	}

	res, err := s.build(ctx, req, digest)
	if err != nil {
		s.metrics.ObserveBuild(outcomeOf(err), time.Since(start), 0, 0)
		return Result{}, err
	}
	if res.Created {
		s.metrics.ObserveBuild(metrics.OutcomeBuilt, time.Since(start), res.Tasks, res.Dependencies)
	} else {
		s.metrics.ObserveBuild(metrics.OutcomeCached, time.Since(start), res.Tasks, res.Dependencies)
	}
	s.cache.Add(cacheKey, res)
	return res, nil
}

func (s *Service) build(ctx context.Context, req BuildRequest, digest string) (Result, error) {
	run, err := runspec.Parse(req.Payload, req.Format)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRun, err)
	}
	switch {
	case run.ID == "":
		run.ID = req.RunID
	case run.ID != req.RunID:
		return Result{}, fmt.Errorf("%w: run id %q does not match %q", ErrInvalidRun, run.ID, req.RunID)
	}

	g, err := graph.Build(run)
	if err != nil {
		var verr *runspec.ValidationError
		if errors.As(err, &verr) {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidRun, err)
		}
		return Result{}, err
	}
	encoded, err := graph.Marshal(g)
	if err != nil {
		return Result{}, fmt.Errorf("encode graph: %w", err)
	}

	record, created, err := s.graphs.UpsertGraph(ctx, repo.GraphRecord{
		RunID:           run.ID,
		Digest:          digest,
		Graph:           encoded,
		TaskCount:       len(g.Order),
		DependencyCount: len(g.Dependencies),
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:        record.RunID,
		Digest:       record.Digest,
		Graph:        record.Graph,
		Tasks:        record.TaskCount,
		Dependencies: record.DependencyCount,
		Unsupported:  runspec.Unsupported(run),
		Created:      created,
	}
	if created {
		res.Graph = encoded
		if err := s.archiveGraph(ctx, req, digest, encoded); err != nil {
			s.logger.Warn("graph archive failed", "run_id", run.ID, "request_id", req.RequestID, "error", err)
		}
	}
	if len(res.Unsupported) > 0 {
		s.logger.Warn("instructions without reference rules", "run_id", run.ID, "ops", res.Unsupported)
	}
	s.recordAudit(ctx, req, res)
	return res, nil
}

func (s *Service) archiveGraph(ctx context.Context, req BuildRequest, digest string, encoded []byte) error {
	if s.archive == nil {
		return nil
	}
	return s.archive.Save(ctx, objectstore.Snapshot{
		RunID:  req.RunID,
		Digest: digest,
		Format: req.Format,
		Run:    req.Payload,
		Graph:  encoded,
	})
}

func (s *Service) recordAudit(ctx context.Context, req BuildRequest, res Result) {
	if s.audit == nil {
		return
	}
	action := auditlog.ActionGraphReused
	if res.Created {
		action = auditlog.ActionGraphBuilt
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = "anonymous"
	}
	err := s.audit(ctx, auditlog.Event{
		Actor:     actor,
		Action:    action,
		Subject:   res.RunID,
		RequestID: req.RequestID,
		Payload: map[string]any{
			"digest":       res.Digest,
			"tasks":        res.Tasks,
			"dependencies": res.Dependencies,
		},
	})
	if err != nil {
		s.logger.Warn("audit graph build failed", "run_id", res.RunID, "request_id", req.RequestID, "error", err)
	}
}

// Get returns the stored graph of a run.
func (s *Service) Get(ctx context.Context, runID string) (repo.GraphRecord, error) {
	return s.graphs.GetGraph(ctx, runID)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRun):
		return metrics.OutcomeInvalid
	case IsTimingError(err):
		return metrics.OutcomeTimingFail
	default:
		return metrics.OutcomeError
	}
}

// IsTimingError reports whether err came from an untranslatable time constraint.
func IsTimingError(err error) bool {
	return errors.Is(err, graph.ErrTimeConstraint)
}
