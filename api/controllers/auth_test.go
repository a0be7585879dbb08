package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/internal/cart"
	"github.com/angelmondragon/fruitshop-backend/pkg/auth/session"
)

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func flashTexts(sess *session.Session) []string {
	var out []string
	for _, f := range sess.PopFlashes() {
		out = append(out, f.Text)
	}
	return out
}

func signupValues(username, email, p1, p2 string) url.Values {
	return url.Values{"username": {username}, "email": {email}, "password1": {p1}, "password2": {p2}}
}

func TestSignupFlow(t *testing.T) {
	env := newTestEnv(t)
	handler := Signup(env.register, nil, nil)

	cases := []struct {
		name     string
		values   url.Values
		location string
		flash    string
	}{
		{name: "mismatch", values: signupValues("ana", "ana@example.com", "pw1", "pw2"), location: "/signup/", flash: auth.MsgPasswordMismatch},
		{name: "success", values: signupValues("ana", "ana@example.com", "pw", "pw"), location: "/login/", flash: auth.MsgSignupSuccess},
		{name: "duplicate username", values: signupValues("ana", "other@example.com", "pw", "pw"), location: "/signup/", flash: auth.MsgUsernameTaken},
		{name: "duplicate email", values: signupValues("bob", "ana@example.com", "pw", "pw"), location: "/signup/", flash: auth.MsgEmailTaken},
		{name: "missing username", values: signupValues("", "c@example.com", "pw", "pw"), location: "/signup/", flash: "Username is required."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := env.sessions.New()
			rec := serve(handler, formRequest("/signup/", tc.values), sess, nil)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
			assert.Equal(t, []string{tc.flash}, flashTexts(sess))
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.register.Signup(context.Background(), auth.SignupRequest{Username: "ana", Email: "ana@example.com", Password1: "pw", Password2: "pw"})
	require.NoError(t, err)

	for _, values := range []url.Values{
		{"username": {"ana"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"pw"}},
	} {
		sess := env.sessions.New()
		rec := serve(Login(env.auth, env.sessions, nil, nil), formRequest("/login/", values), sess, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login/", rec.Header().Get("Location"))
		assert.Equal(t, []string{auth.MsgInvalidCredentials}, flashTexts(sess))
		_, ok := sess.UserID()
		assert.False(t, ok)
	}
}

func TestLoginRotatesSessionAndKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	apple := env.createProduct(t, "Apple", "1.00")
	user, err := env.register.Signup(context.Background(), auth.SignupRequest{Username: "ana", Email: "ana@example.com", Password1: "pw", Password2: "pw"})
	require.NoError(t, err)

	sess := env.sessions.New()
	require.NoError(t, sess.Set(cart.SessionKey, cart.AddItem(cart.Cart{}, apple.ID)))
	before := sess.ID()

	rec := serve(Login(env.auth, env.sessions, nil, nil), formRequest("/login/", url.Values{"username": {"ana"}, "password": {"pw"}}), sess, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotEqual(t, before, sess.ID())
	id, ok := sess.UserID()
	require.True(t, ok)
	assert.Equal(t, user.ID, id)
	assert.True(t, env.carts.Load(sess).Has(apple.ID))
	assert.Equal(t, []string{"Welcome, ana!"}, flashTexts(sess))
}

func TestLogoutFlushesSession(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.New()
	require.NoError(t, sess.SetUserID(3))
	require.NoError(t, sess.Set(cart.SessionKey, cart.AddItem(cart.Cart{}, 1)))

	rec := serve(Logout(env.sessions, nil), httptest.NewRequest(http.MethodGet, "/logout/", nil), sess, nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))
	_, ok := sess.UserID()
	assert.False(t, ok)
	assert.Equal(t, 0, env.carts.Load(sess).Len())
	assert.Equal(t, []string{auth.MsgLoggedOut}, flashTexts(sess))
}

func TestLoginAndSignupFormsRender(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(LoginForm(env.carts, nil), httptest.NewRequest(http.MethodGet, "/login/", nil), env.sessions.New(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)

	rec = serve(SignupForm(env.carts, nil), httptest.NewRequest(http.MethodGet, "/signup/", nil), env.sessions.New(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password2"`)
}
