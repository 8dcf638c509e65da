package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter_RecordsStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusTeapot)
	n, err := w.Write([]byte("hello"))

	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if w.status != http.StatusCreated {
		t.Errorf("status = %d, want first WriteHeader to win", w.status)
	}
	if w.bytes != 5 {
		t.Errorf("bytes = %d, want 5", w.bytes)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("recorded code = %d", rec.Code)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/", http.StatusOK, slog.LevelInfo},
		{"/edit/x", http.StatusNotFound, slog.LevelWarn},
		{"/upload", http.StatusInternalServerError, slog.LevelError},
		{"/healthz", http.StatusOK, slog.LevelDebug},
		{"/static/app.css", http.StatusOK, slog.LevelDebug},
		{"/healthz", http.StatusServiceUnavailable, slog.LevelError},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := levelFor(r, tt.status); got != tt.want {
			t.Errorf("levelFor(%s, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/undo", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("code = %d", rec.Code)
	}
}
