package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/fruitshop-backend/api/responses"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
)

// Session loads the visitor session named by the signed cookie and persists
// it before the response is committed. A new session that was never touched
// is not stored and gets no cookie.
func Session(manager *session.Manager, cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := manager.Load(ctx, sessionIDFromCookie(r, cfg))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}
			if logg != nil && !sess.IsNew() {
				ctx = logg.WithSessionID(ctx, sess.ID())
			}
			ctx = WithSession(ctx, sess)

			sw := &sessionWriter{ResponseWriter: w}
			sw.commit = func() { commitSession(ctx, manager, cfg, logg, sw.ResponseWriter, sess) }

			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.commitOnce()
		})
	}
}

func sessionIDFromCookie(r *http.Request, cfg config.SessionConfig) string {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	claims, err := auth.ParseSessionToken(cfg, cookie.Value)
	if err != nil {
		return ""
	}
	return claims.SessionID()
}

func commitSession(ctx context.Context, manager *session.Manager, cfg config.SessionConfig, logg *logger.Logger, w http.ResponseWriter, sess *session.Session) {
	saved, err := manager.Save(ctx, sess)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "session.save_failed", err)
		}
		return
	}
	if !saved {
		return
	}

	now := time.Now()
	token, err := auth.MintSessionToken(cfg, now, sess.ID())
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "session.token_failed", err)
		}
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(manager.TTL()),
		MaxAge:   int(manager.TTL().Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionWriter saves the session right before the first header or body
// byte goes out, while Set-Cookie can still be added.
type sessionWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *sessionWriter) commitOnce() {
	if w.committed {
		return
	}
	w.committed = true
	if w.commit != nil {
		w.commit()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commitOnce()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commitOnce()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
