// Package audit stores the editor's audit trail in PostgreSQL.
//
// Only which operation ran is recorded (session, action, column, operation,
// rows affected). Cell contents never leave the process.
package audit

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tabedit/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS editor_audit_log (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT NOT NULL,
	action        TEXT NOT NULL,
	file_name     TEXT,
	column_name   TEXT,
	operation     TEXT,
	detail        TEXT,
	rows_affected INTEGER NOT NULL DEFAULT 0,
	ip_address    INET,
	user_agent    TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS editor_audit_log_session_idx
	ON editor_audit_log (session_id, created_at DESC);
`

const insertSQL = `
INSERT INTO editor_audit_log
	(session_id, action, file_name, column_name, operation, detail,
	 rows_affected, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const listSQL = `
SELECT session_id, action, file_name, column_name, operation, detail,
       rows_affected, ip_address, user_agent, created_at
FROM editor_audit_log
WHERE session_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

// DBTX is the subset of pgx used by the recorder. Satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Recorder writes audit events. It implements core.AuditRecorder.
type Recorder struct {
	db   DBTX
	pool *pgxpool.Pool
}

var _ core.AuditRecorder = (*Recorder)(nil)

// NewRecorder wraps an existing connection. The schema must already exist;
// see EnsureSchema.
func NewRecorder(db DBTX) *Recorder {
	return &Recorder{db: db}
}

// Open connects to PostgreSQL, verifies the connection and creates the
// audit table if it is missing.
func Open(ctx context.Context, cfg PoolConfig) (*Recorder, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse audit database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	r := &Recorder{db: pool, pool: pool}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the audit table and index if they do not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts one event.
func (r *Recorder) Record(ctx context.Context, ev core.AuditEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, insertSQL,
		ev.SessionID,
		string(ev.Action),
		nullText(ev.FileName),
		nullText(ev.Column),
		nullText(string(ev.Operation)),
		nullText(ev.Detail),
		ev.RowsAffected,
		parseIP(ev.IPAddress),
		nullText(ev.UserAgent),
		pgtype.Timestamptz{Time: at, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns the most recent events of one session, newest first.
func (r *Recorder) List(ctx context.Context, sessionID string, limit int) ([]core.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, listSQL, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events, err := pgx.CollectRows(rows, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}

// Ping checks the connection.
func (r *Recorder) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

// Close releases the pool opened by Open.
func (r *Recorder) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func scanEvent(row pgx.CollectableRow) (core.AuditEvent, error) {
	var (
		ev                                         core.AuditEvent
		action                                     string
		fileName, column, operation, detail, agent pgtype.Text
		ip                                         *netip.Addr
		createdAt                                  pgtype.Timestamptz
	)
	err := row.Scan(
		&ev.SessionID, &action, &fileName, &column, &operation, &detail,
		&ev.RowsAffected, &ip, &agent, &createdAt,
	)
	if err != nil {
		return ev, err
	}

	ev.Action = core.AuditAction(action)
	ev.FileName = fileName.String
	ev.Column = column.String
	ev.Operation = core.OpKind(operation.String)
	ev.Detail = detail.String
	ev.UserAgent = agent.String
	ev.At = createdAt.Time
	if ip != nil {
		ev.IPAddress = ip.String()
	}
	return ev, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// parseIP returns nil for empty or malformed addresses so the column is
// stored as NULL.
func parseIP(s string) *netip.Addr {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil
	}
	return &addr
}
