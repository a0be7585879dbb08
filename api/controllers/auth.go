package controllers

import (
	"net/http"

	"github.com/angelmondragon/fruitshop-backend/api/middleware"
	"github.com/angelmondragon/fruitshop-backend/api/responses"
	"github.com/angelmondragon/fruitshop-backend/api/validators"
	"github.com/angelmondragon/fruitshop-backend/api/views"
	"github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/metrics"
)

const (
	homePath   = "/"
	loginPath  = "/login/"
	signupPath = "/signup/"
)

// sessionRotator is the part of session.Manager the auth handlers need.
type sessionRotator interface {
	Cycle(sess *session.Session)
	Flush(sess *session.Session)
}

// SignupForm renders the signup page.
func SignupForm(carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.Render(r.Context(), logg, w, http.StatusOK, views.PageSignup, newPage(r, carts, "Sign up", nil))
	}
}

// Signup creates an account. Any rejection is flashed and the visitor is
// sent back to the signup form.
func Signup(svc auth.RegisterService, authMetrics *metrics.AuthMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req auth.SignupRequest
		err := validators.DecodeForm(r, &req)
		if err == nil {
			_, err = svc.Signup(ctx, req)
		}
		if err != nil {
			if msg, ok := flashable(err); ok {
				authMetrics.Inc("signup", "rejected")
				flash(ctx, logg, session.LevelError, msg)
				responses.Redirect(w, r, signupPath)
				return
			}
			authMetrics.Inc("signup", "error")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		authMetrics.Inc("signup", "success")
		if logg != nil {
			logg.Info(logg.WithField(ctx, "username", req.Username), "auth.signup")
		}
		flash(ctx, logg, session.LevelSuccess, auth.MsgSignupSuccess)
		responses.Redirect(w, r, loginPath)
	}
}

// LoginForm renders the login page.
func LoginForm(carts cartLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.Render(r.Context(), logg, w, http.StatusOK, views.PageLogin, newPage(r, carts, "Login", nil))
	}
}

// Login verifies the credentials and binds the account to a freshly rotated
// session. The cart survives the rotation.
func Login(svc auth.Service, sessions sessionRotator, authMetrics *metrics.AuthMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req auth.LoginRequest
		if err := validators.DecodeForm(r, &req); err != nil {
			if msg, ok := flashable(err); ok {
				flash(ctx, logg, session.LevelError, msg)
				responses.Redirect(w, r, loginPath)
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Authenticate(ctx, req.Username, req.Password)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
				authMetrics.Inc("login", "rejected")
				flash(ctx, logg, session.LevelError, auth.MsgInvalidCredentials)
				responses.Redirect(w, r, loginPath)
				return
			}
			authMetrics.Inc("login", "error")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess := middleware.SessionFromContext(ctx)
		if sess == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}
		sessions.Cycle(sess)
		if err := sess.SetUserID(user.ID); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bind session"))
			return
		}

		authMetrics.Inc("login", "success")
		if logg != nil {
			logg.Info(logg.WithField(ctx, "user_id", user.ID), "auth.login")
		}
		flash(ctx, logg, session.LevelSuccess, auth.WelcomeMessage(user.Username))
		responses.Redirect(w, r, homePath)
	}
}

// Logout drops everything in the session, cart included.
func Logout(sessions sessionRotator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sess := middleware.SessionFromContext(ctx); sess != nil {
			sessions.Flush(sess)
		}
		if logg != nil {
			logg.Info(ctx, "auth.logout")
		}
		flash(ctx, logg, session.LevelSuccess, auth.MsgLoggedOut)
		responses.Redirect(w, r, loginPath)
	}
}
