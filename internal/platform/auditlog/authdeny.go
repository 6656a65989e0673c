package auditlog

import (
	"context"
	"strings"

	"github.com/animus-labs/rungraph/internal/platform/auth"
)

// AuthDenyRecorder adapts Insert to auth.Middleware's Audit hook.
func AuthDenyRecorder(q QueryRower, service string) auth.AuditFunc {
	return func(ctx context.Context, event auth.DenyEvent) error {
		_, err := Insert(ctx, q, authDenyEvent(service, event))
		return err
	}
}

func authDenyEvent(service string, event auth.DenyEvent) Event {
	actor := strings.TrimSpace(event.Subject)
	if actor == "" {
		actor = "anonymous"
	}
	return Event{
		OccurredAt: event.Time,
		Actor:      actor,
		Action:     "auth." + strings.TrimSpace(event.Reason),
		Subject:    event.Method + " " + event.Path,
		RequestID:  event.RequestID,
		Payload: map[string]any{
			"service": service,
			"status":  event.Status,
			"error":   event.Error,
		},
	}
}
