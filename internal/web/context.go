package web

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabedit/internal/core"
)

// sessionCookie holds the editor session ID.
const sessionCookie = "tabedit_session"

type ctxKey struct{}

// WithRequestMetadata adds IP and User-Agent to ctx for the audit trail.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// sessionMiddleware resolves the session from its cookie, creating one and
// setting the cookie when the request has none or it expired.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}

		sess, created := s.service.SessionOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Security.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		ctx = core.ContextWithSessionID(ctx, sess.ID)
		ctx = WithRequestMetadata(ctx, r)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session set by sessionMiddleware, or nil.
func sessionFrom(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(ctxKey{}).(*core.Session)
	return sess
}

// clientIP is the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
