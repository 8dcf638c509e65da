package audit

import (
	"context"
	"errors"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabedit/internal/core"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestRecorder_Record(t *testing.T) {
	db := &fakeDB{}
	r := NewRecorder(db)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := r.Record(context.Background(), core.AuditEvent{
		SessionID:    "s1",
		Action:       core.ActionApply,
		Column:       "email",
		Operation:    core.OpSplitByChar,
		Detail:       "@",
		RowsAffected: 3,
		IPAddress:    "10.1.2.3",
		At:           at,
	})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)

	args := db.calls[0].args
	require.Len(t, args, 10)
	assert.Equal(t, "s1", args[0])
	assert.Equal(t, "apply", args[1])
	assert.Equal(t, pgtype.Text{}, args[2], "empty file name is stored as NULL")
	assert.Equal(t, pgtype.Text{String: "email", Valid: true}, args[3])
	assert.Equal(t, pgtype.Text{String: "splitByChar", Valid: true}, args[4])
	assert.Equal(t, 3, args[6])
	ip := netip.MustParseAddr("10.1.2.3")
	assert.Equal(t, &ip, args[7])
	assert.Equal(t, pgtype.Timestamptz{Time: at, Valid: true}, args[9])
}

func TestRecorder_RecordError(t *testing.T) {
	r := NewRecorder(&fakeDB{err: errors.New("connection reset")})

	err := r.Record(context.Background(), core.AuditEvent{SessionID: "s", Action: core.ActionUndo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit event")
}

func TestRecorder_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewRecorder(db).EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS editor_audit_log")
}

func TestParseIP(t *testing.T) {
	assert.Nil(t, parseIP(""))
	assert.Nil(t, parseIP("not-an-ip"))
	require.NotNil(t, parseIP("::1"))
	assert.Equal(t, "::1", parseIP("::1").String())
}

// TestRecorder_Postgres runs against a real database when
// AUDIT_TEST_DATABASE_URL is set.
func TestRecorder_Postgres(t *testing.T) {
	url := os.Getenv("AUDIT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("AUDIT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	r, err := Open(ctx, PoolConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer r.Close()

	sessionID := "test-" + time.Now().Format("150405.000000000")
	for _, action := range []core.AuditAction{core.ActionLoad, core.ActionApply} {
		require.NoError(t, r.Record(ctx, core.AuditEvent{
			SessionID: sessionID,
			Action:    action,
			FileName:  "people.csv",
			IPAddress: "127.0.0.1",
		}))
	}

	events, err := r.List(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "people.csv", events[0].FileName)
	assert.Equal(t, "127.0.0.1", events[0].IPAddress)
}
