package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/angelmondragon/fruitshop-backend/api/responses"
	internalauth "github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/internal/users"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
)

type userLookup interface {
	CurrentUser(ctx context.Context, id uint) (*users.UserDTO, error)
}

// CurrentUser resolves the account bound to the session. A binding to a
// deleted or disabled account is dropped and the visitor continues anonymously.
func CurrentUser(lookup userLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := SessionFromContext(ctx)
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			id, ok := sess.UserID()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := lookup.CurrentUser(ctx, id)
			switch {
			case err == nil:
				ctx = WithUser(ctx, user)
				if logg != nil {
					ctx = logg.WithUserID(ctx, strconv.FormatUint(uint64(user.ID), 10))
				}
			case pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized):
				sess.ClearUserID()
			default:
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperuser sends anyone but a superuser back to the catalog with a
// flash message.
func RequireSuperuser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user := UserFromContext(ctx)
			if user != nil && user.IsSuperuser {
				next.ServeHTTP(w, r)
				return
			}
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "path", r.URL.Path), "auth.superuser_required")
			}
			if sess := SessionFromContext(ctx); sess != nil {
				_ = sess.AddFlash(session.LevelError, internalauth.MsgAdminOnly)
			}
			responses.Redirect(w, r, "/")
		})
	}
}
