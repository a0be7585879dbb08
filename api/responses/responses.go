package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/angelmondragon/fruitshop-backend/api/views"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
)

const fallbackErrorPage = `<!DOCTYPE html><html><body><h1>Something went wrong</h1><a href="/">Back to the shop</a></body></html>`

// Render writes an HTML page with status. Template failures fall back to the
// error page.
func Render(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, status int, name string, page views.Page) {
	renderer, err := views.Default()
	if err == nil {
		err = renderPage(w, renderer, status, name, page)
	}
	if err != nil {
		WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render page"))
	}
}

// Redirect sends the browser to target. Form posts get 303 so the follow-up
// request is a GET.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	status := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, target, status)
}

// WriteError maps err to a status code and renders the error page.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	if logg != nil {
		logCtx := logg.WithFields(ctx, pkgerrors.Dump(err).LogFields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(logCtx, "request.error", err)
		} else {
			logg.Warn(logCtx, "request.error")
		}
	}

	page := views.Page{
		Title: http.StatusText(meta.HTTPStatus),
		Data:  views.ErrorData{Status: meta.HTTPStatus, Message: msg},
	}
	renderer, rerr := views.Default()
	if rerr == nil {
		rerr = renderPage(w, renderer, meta.HTTPStatus, views.PageError, page)
	}
	if rerr != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(meta.HTTPStatus)
		_, _ = w.Write([]byte(fallbackErrorPage))
	}
}

// WriteJSON writes payload as JSON, used by the health endpoints.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type bufferedWriter struct {
	buf []byte
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func renderPage(w http.ResponseWriter, renderer *views.Renderer, status int, name string, page views.Page) error {
	var out bufferedWriter
	if err := renderer.Render(&out, name, page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(out.buf)
	return err
}
