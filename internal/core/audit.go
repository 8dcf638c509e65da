package core

import (
	"context"
	"log/slog"
	"time"
)

// AuditAction is the kind of change being recorded.
type AuditAction string

const (
	ActionLoad   AuditAction = "load"
	ActionApply  AuditAction = "apply"
	ActionUndo   AuditAction = "undo"
	ActionRecipe AuditAction = "recipe"
	ActionExport AuditAction = "export"
)

// AuditEvent records which operation ran. Cell contents are never recorded.
type AuditEvent struct {
	SessionID    string
	Action       AuditAction
	FileName     string
	Column       string
	Operation    OpKind
	Detail       string // delimiter, expression or recipe name
	RowsAffected int
	IPAddress    string
	UserAgent    string
	At           time.Time
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// NopAuditRecorder discards every event.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(context.Context, AuditEvent) error { return nil }

// recordAudit fills request metadata from ctx and records ev. Failures are
// logged and otherwise ignored.
func recordAudit(ctx context.Context, rec AuditRecorder, ev AuditEvent) {
	if rec == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.IPAddress == "" {
		ev.IPAddress = GetIPAddressFromContext(ctx)
	}
	if ev.UserAgent == "" {
		ev.UserAgent = GetUserAgentFromContext(ctx)
	}
	if len(ev.Detail) > 1024 {
		ev.Detail = truncate(ev.Detail, 1024)
	}

	if err := rec.Record(ctx, ev); err != nil {
		slog.Warn("audit record failed",
			"session_id", ev.SessionID,
			"action", ev.Action,
			"error", err,
		)
	}
}
