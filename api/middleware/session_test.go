package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionUntouchedIsNotPersisted(t *testing.T) {
	store := newMemorySessionStore()
	cfg := testSessionConfig()
	handler := Session(newTestSessionManager(t, store), cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotNil(t, SessionFromContext(r.Context()))
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 0, store.len())
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionRoundTripThroughCookie(t *testing.T) {
	store := newMemorySessionStore()
	cfg := testSessionConfig()
	manager := newTestSessionManager(t, store)

	write := Session(manager, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, SessionFromContext(r.Context()).Set("cart", map[string]int{"3": 2}))
		_, _ = w.Write([]byte("written"))
	}))
	rec := httptest.NewRecorder()
	write.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/add-to-cart/3/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, cfg.CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 1, store.len())

	var got map[string]int
	read := Session(manager, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		found, err := SessionFromContext(r.Context()).Get("cart", &got)
		require.NoError(t, err)
		require.True(t, found)
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	read.ServeHTTP(rec2, req)

	assert.Equal(t, map[string]int{"3": 2}, got)
	assert.Empty(t, rec2.Result().Cookies(), "unmodified session should not reissue the cookie")
}

func TestSessionCommitsWhenHandlerWritesNothing(t *testing.T) {
	store := newMemorySessionStore()
	handler := Session(newTestSessionManager(t, store), testSessionConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, SessionFromContext(r.Context()).Set("k", "v"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, store.len())
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestSessionIgnoresTamperedCookie(t *testing.T) {
	store := newMemorySessionStore()
	cfg := testSessionConfig()
	var isNew bool
	handler := Session(newTestSessionManager(t, store), cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isNew = SessionFromContext(r.Context()).IsNew()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "not-a-token"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, isNew)
}
