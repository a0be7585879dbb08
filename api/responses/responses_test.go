package responses

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/fruitshop-backend/api/views"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
)

func TestRenderWritesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	Render(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil, w, http.StatusOK, views.PageLogin, views.Page{Title: "Login"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<title>Login | Fruit Shop</title>") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRenderUnknownPageFallsBackToError(t *testing.T) {
	w := httptest.NewRecorder()
	Render(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil, w, http.StatusOK, "missing.html", views.Page{})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "product not found") {
		t.Fatalf("expected message in body, got %s", w.Body.String())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil, w, errors.New("pq: password authentication failed"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "password authentication") {
		t.Fatalf("internal error leaked: %s", body)
	}
	if !strings.Contains(body, "internal server error") {
		t.Fatalf("expected public message, got %s", body)
	}
}

func TestRedirectStatus(t *testing.T) {
	get := httptest.NewRecorder()
	Redirect(get, httptest.NewRequest(http.MethodGet, "/add-to-cart/1/", nil), "/cart/")
	if get.Code != http.StatusFound || get.Header().Get("Location") != "/cart/" {
		t.Fatalf("unexpected GET redirect %d %s", get.Code, get.Header().Get("Location"))
	}

	post := httptest.NewRecorder()
	Redirect(post, httptest.NewRequest(http.MethodPost, "/login/", nil), "/")
	if post.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for POST, got %d", post.Code)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	if w.Header().Get("Content-Type") != "application/json" || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected json response %s", w.Body.String())
	}
}
