package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/fruitshop-backend/api/middleware"
	"github.com/angelmondragon/fruitshop-backend/api/views"
	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
)

type cartLoader interface {
	Load(store cart.Store) cart.Cart
}

// newPage assembles the data shared by every template: the signed-in user,
// pending flashes and the cart badge.
func newPage(r *http.Request, carts cartLoader, title string, data any) views.Page {
	ctx := r.Context()
	page := views.Page{
		Title: title,
		User:  middleware.UserFromContext(ctx),
		Data:  data,
	}
	if sess := middleware.SessionFromContext(ctx); sess != nil {
		page.Flashes = sess.PopFlashes()
		if carts != nil {
			page.CartCount = carts.Load(sess).TotalQuantity()
		}
	}
	return page
}

// sessionStore hands the visitor session to the cart service. A missing
// session becomes a nil interface, not a typed nil.
func sessionStore(ctx context.Context) cart.Store {
	if sess := middleware.SessionFromContext(ctx); sess != nil {
		return sess
	}
	return nil
}

func flash(ctx context.Context, logg *logger.Logger, level session.Level, text string) {
	sess := middleware.SessionFromContext(ctx)
	if sess == nil {
		return
	}
	if err := sess.AddFlash(level, text); err != nil && logg != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "flash.add_failed")
	}
}

// flashable reports whether err should go back to the form as a message
// instead of becoming an error page.
func flashable(err error) (string, bool) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "", false
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeConflict:
		return typed.Message(), true
	}
	return "", false
}
