package auditlog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ActionGraphBuilt  = "graph.built"
	ActionGraphReused = "graph.reused"
)

// Event is one append-only audit record. Subject is a run id for graph actions
// and "METHOD path" for auth denials.
type Event struct {
	OccurredAt time.Time
	Actor      string
	Action     string
	Subject    string
	RequestID  string
	Payload    any
}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const insertEventQuery = `INSERT INTO graph_audit_events (
	occurred_at,
	actor,
	action,
	subject,
	request_id,
	payload,
	integrity_sha256
) VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING event_id`

// record is the stored form of an Event. Its JSON encoding is what the
// integrity hash covers.
type record struct {
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	Subject    string          `json:"subject"`
	RequestID  string          `json:"request_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

func (e Event) record(payloadJSON []byte) record {
	return record{
		OccurredAt: e.OccurredAt.UTC(),
		Actor:      strings.TrimSpace(e.Actor),
		Action:     strings.TrimSpace(e.Action),
		Subject:    strings.TrimSpace(e.Subject),
		RequestID:  strings.TrimSpace(e.RequestID),
		Payload:    payloadJSON,
	}
}

func (e Event) Validate() error {
	var missing []string
	if e.OccurredAt.IsZero() {
		missing = append(missing, "occurred_at")
	}
	for _, f := range []struct{ name, value string }{
		{"actor", e.Actor},
		{"action", e.Action},
		{"subject", e.Subject},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("audit event missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Insert appends event and returns its id. A zero OccurredAt is set to now.
func Insert(ctx context.Context, q QueryRower, event Event) (int64, error) {
	if q == nil {
		return 0, errors.New("queryer is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		return 0, err
	}

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	rec := event.record(payloadJSON)
	integrity, err := rec.integrity()
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx, insertEventQuery,
		rec.OccurredAt, rec.Actor, rec.Action, rec.Subject,
		sql.NullString{String: rec.RequestID, Valid: rec.RequestID != ""},
		[]byte(rec.Payload), integrity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit event %s: %w", rec.Action, err)
	}
	return id, nil
}

// ComputeIntegritySHA256 returns the hex digest stored next to the event.
func ComputeIntegritySHA256(event Event, payloadJSON []byte) (string, error) {
	return event.record(payloadJSON).integrity()
}

func (r record) integrity() (string, error) {
	blob, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal integrity: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
