package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DecodeOptions tunes how an uploaded file is read.
type DecodeOptions struct {
	Charset string // CSV only: utf-8 (default), windows-1252 or latin1
	MaxSize int64  // bytes; 0 means unlimited
}

// Decoder turns an uploaded file into a table. The file name selects the
// format by extension.
type Decoder interface {
	Decode(name string, r io.Reader, opts DecodeOptions) (*Table, error)
}

// ServiceConfig holds session and editor limits. Zero values fall back to
// the package defaults; a negative UndoDepth disables undo.
type ServiceConfig struct {
	SessionTTL           time.Duration
	MaxSessions          int
	UndoDepth            int
	PreviewLimit         int
	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
	MaxFileSize          int64
}

const (
	DefaultSessionTTL  = 2 * time.Hour
	DefaultMaxSessions = 1000
)

// Service owns every editor session.
type Service struct {
	cfg     ServiceConfig
	decoder Decoder
	audit   AuditRecorder
	limiter *UploadLimiter
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service. audit may be nil.
func NewService(cfg ServiceConfig, decoder Decoder, audit AuditRecorder) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.UndoDepth == 0 {
		cfg.UndoDepth = DefaultUndoDepth
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = DefaultPreviewLimit
	}
	if audit == nil {
		audit = NopAuditRecorder{}
	}

	return &Service{
		cfg:      cfg,
		decoder:  decoder,
		audit:    audit,
		limiter:  NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.MaxUploadWait),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a new empty session. When the session cap is
// reached the least recently used session is evicted.
func (s *Service) CreateSession() *Session {
	now := s.now()
	sess := newSession(uuid.New().String(), s.cfg.UndoDepth, s.cfg.PreviewLimit, s.audit, now)

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.evictOldestLocked()
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Session returns the session with id and marks it as used.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.touch(s.now())
	return sess, nil
}

// SessionOrCreate returns the session with id, or a new one when id is
// unknown. created reports which.
func (s *Service) SessionOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, err := s.Session(id); err == nil {
			return sess, false
		}
	}
	return s.CreateSession(), true
}

// DeleteSession removes a session. Unknown IDs are ignored.
func (s *Service) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Upload decodes a file into sess, holding a limiter slot while decoding.
// On any error the session keeps its current table.
func (s *Service) Upload(ctx context.Context, sess *Session, fileName string, r io.Reader, opts DecodeOptions) (*Table, error) {
	if opts.MaxSize == 0 {
		opts.MaxSize = s.cfg.MaxFileSize
	}

	var t *Table
	err := s.limiter.Do(ctx, func() error {
		start := time.Now()
		decoded, err := s.decoder.Decode(fileName, r, opts)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "file decoded",
			"session_id", sess.ID,
			"file", fileName,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		t = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", fileName, err)
	}

	sess.Load(ctx, fileName, t)
	return t, nil
}

// Limiter exposes the decode limiter for health output and shutdown.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

func (s *Service) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		seen := sess.idleSince()
		if oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
		slog.Info("session evicted", "session_id", oldestID, "idle_since", oldest)
	}
}
