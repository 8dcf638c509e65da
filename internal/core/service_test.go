package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineDecoder reads one column named "line" with one row per input line.
type lineDecoder struct{ err error }

func (d lineDecoder) Decode(name string, r io.Reader, _ DecodeOptions) (*Table, error) {
	if d.err != nil {
		return nil, d.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var records [][]string
	for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		records = append(records, []string{l})
	}
	return NewTable([]string{"line"}, records), nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(cfg ServiceConfig, dec Decoder) (*Service, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(cfg, dec, nil)
	svc.now = clock.now
	return svc, clock
}

func TestService_SessionLifecycle(t *testing.T) {
	svc, _ := newTestService(ServiceConfig{}, lineDecoder{})

	sess := svc.CreateSession()
	got, err := svc.Session(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = svc.Session("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	same, created := svc.SessionOrCreate(sess.ID)
	assert.False(t, created)
	assert.Same(t, sess, same)

	other, created := svc.SessionOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, sess.ID, other.ID)
	assert.Equal(t, 2, svc.SessionCount())

	svc.DeleteSession(sess.ID)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestService_Sweep(t *testing.T) {
	svc, clock := newTestService(ServiceConfig{SessionTTL: time.Hour}, lineDecoder{})

	stale := svc.CreateSession()
	clock.advance(30 * time.Minute)
	fresh := svc.CreateSession()
	clock.advance(45 * time.Minute)

	assert.Equal(t, 1, svc.Sweep())
	_, err := svc.Session(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session(fresh.ID)
	assert.NoError(t, err)
}

func TestService_TouchKeepsSessionAlive(t *testing.T) {
	svc, clock := newTestService(ServiceConfig{SessionTTL: time.Hour}, lineDecoder{})

	sess := svc.CreateSession()
	clock.advance(50 * time.Minute)
	_, err := svc.Session(sess.ID)
	require.NoError(t, err)
	clock.advance(50 * time.Minute)

	assert.Equal(t, 0, svc.Sweep())
}

func TestService_EvictsLeastRecentlyUsed(t *testing.T) {
	svc, clock := newTestService(ServiceConfig{MaxSessions: 2}, lineDecoder{})

	a := svc.CreateSession()
	clock.advance(time.Minute)
	b := svc.CreateSession()
	clock.advance(time.Minute)
	_, err := svc.Session(a.ID)
	require.NoError(t, err)
	clock.advance(time.Minute)

	svc.CreateSession()

	assert.Equal(t, 2, svc.SessionCount())
	_, err = svc.Session(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session(a.ID)
	assert.NoError(t, err)
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(ServiceConfig{}, lineDecoder{})
	sess := svc.CreateSession()

	tbl, err := svc.Upload(ctx, sess, "notes.txt", strings.NewReader("a\nb\n"), DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Same(t, tbl, sess.Table())
	assert.Equal(t, "notes.txt", sess.Snapshot().FileName)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
}

func TestService_UploadFailureKeepsTable(t *testing.T) {
	ctx := context.Background()
	good, _ := newTestService(ServiceConfig{}, lineDecoder{})
	sess := good.CreateSession()
	_, err := good.Upload(ctx, sess, "a.csv", strings.NewReader("x"), DecodeOptions{})
	require.NoError(t, err)
	before := sess.Table()

	bad, _ := newTestService(ServiceConfig{}, lineDecoder{err: ErrUnsupportedFileType})
	_, err = bad.Upload(ctx, sess, "a.pdf", strings.NewReader("x"), DecodeOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFileType))
	assert.Contains(t, err.Error(), "load a.pdf")
	assert.Same(t, before, sess.Table())
}

func TestService_SweeperStopsOnCancel(t *testing.T) {
	svc, _ := newTestService(ServiceConfig{}, lineDecoder{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartSessionSweeper(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
