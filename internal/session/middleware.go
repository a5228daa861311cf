package session

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/auth"
	"healthgenie.io/assistant/internal/logging"
)

const (
	CookieName   = "healthgenie_session"
	cookieMaxAge = 24 * time.Hour
)

type contextKey int

const sessionKey contextKey = iota

// FromContext returns the session attached by Middleware.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok {
		return s
	}
	return nil
}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return logging.WithSessionID(ctx, sess.ID)
}

// Middleware resolves the session cookie to a live Session (starting one if
// needed), holds the session lock for the whole request and exposes the
// session through FromContext.
func Middleware(mgr *Manager, tokens *auth.SessionTokens, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(CookieName); err == nil {
				if sid, err := tokens.Validate(c.Value); err == nil {
					id = sid
				}
			}

			sess, started, err := mgr.Acquire(id)
			if err != nil {
				logging.Logger.Error("Failed to start session", zap.Error(err))
				http.Error(w, "Failed to start session", http.StatusInternalServerError)
				return
			}
			defer sess.Unlock()

			if started {
				token, err := tokens.Generate(sess.ID)
				if err != nil {
					logging.Logger.Error("Failed to sign session token", zap.Error(err))
					http.Error(w, "Failed to start session", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cookieMaxAge.Seconds()),
					Expires:  time.Now().Add(cookieMaxAge),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   secureCookie,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
