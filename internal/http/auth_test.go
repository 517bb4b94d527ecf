package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nittanymarket/internal/repos"
	"nittanymarket/internal/server"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	a := newTestApp(t, server.Limits{})
	var hashes []string
	require.NoError(t, a.store.DB().SelectContext(context.Background(), &hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes, "no users seeded")
	for _, h := range hashes {
		assert.NotContains(t, h, repos.DemoPassword)
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte(repos.DemoPassword)))
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	limits := server.DefaultLimits()
	limits.Login = 2
	a := newTestApp(t, limits)
	c := a.anon()

	resp := c.post("/login", url.Values{"email": {repos.DemoBuyer}, "password": {"wrongpass!"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Invalid email or password")
	assert.Empty(t, cookie(resp, "sid"))

	resp = c.post("/login", url.Values{"email": {repos.DemoBuyer}, "password": {repos.DemoPassword}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/buyer", resp.Header.Get("Location"))

	var sid *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			sid = ck
		}
	}
	require.NotNil(t, sid)
	assert.True(t, sid.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sid.SameSite)
	assert.True(t, sid.Expires.IsZero(), "without remember me the cookie ends with the browser")

	entries := captureLogs(t, func() {
		resp = c.post("/login", url.Values{"email": {repos.DemoBuyer}, "password": {"wrongpass!"}})
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	_, ok := findLog(entries, "rate.login.hit")
	assert.True(t, ok)
}

func TestLoginRememberMe(t *testing.T) {
	a := newTestApp(t, server.Limits{})
	resp := a.anon().post("/login", url.Values{
		"email": {repos.DemoSeller}, "password": {repos.DemoPassword}, "remember": {"on"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/seller", resp.Header.Get("Location"))
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			assert.True(t, ck.Expires.After(time.Now().Add(24*time.Hour)))
			return
		}
	}
	t.Fatal("sid cookie missing")
}

func TestAuthLogging(t *testing.T) {
	a := newTestApp(t, server.Limits{})
	c := a.anon()

	entries := captureLogs(t, func() {
		c.post("/login", url.Values{"email": {repos.DemoBuyer}, "password": {"badpass!"}})
	})
	e, ok := findLog(entries, "auth.login.fail")
	require.True(t, ok, "auth.login.fail log not found")
	assert.Equal(t, "security", e.Category)
	assert.Equal(t, repos.DemoBuyer, e.Fields["email"])
	assert.NotContains(t, e.Fields, "password")

	entries = captureLogs(t, func() {
		c.post("/login", url.Values{"email": {repos.DemoBuyer}, "password": {repos.DemoPassword}})
	})
	e, ok = findLog(entries, "auth.login.success")
	require.True(t, ok, "auth.login.success log not found")
	assert.Equal(t, "audit", e.Category)
	assert.Equal(t, repos.DemoBuyer, e.Fields["email"])
}

func TestLogoutEndsSession(t *testing.T) {
	a := newTestApp(t, server.Limits{})
	c := a.login(repos.DemoBuyer)
	require.Equal(t, http.StatusOK, c.get("/buyer").StatusCode)

	resp := c.post("/logout", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = c.get("/buyer")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRoleGuards(t *testing.T) {
	a := newTestApp(t, server.Limits{})

	resp := a.anon().get("/seller")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, "Please log in to continue.", flash(resp))

	cases := []struct {
		email string
		path  string
		want  int
	}{
		{repos.DemoBuyer, "/buyer", http.StatusOK},
		{repos.DemoBuyer, "/seller", http.StatusForbidden},
		{repos.DemoBuyer, "/helpdesk", http.StatusForbidden},
		{repos.DemoSeller, "/seller", http.StatusOK},
		{repos.DemoSeller, "/buyer", http.StatusForbidden},
		{repos.DemoSeller, "/checkout/1", http.StatusForbidden},
		{repos.DemoHelpdesk, "/helpdesk", http.StatusOK},
		{repos.DemoHelpdesk, "/payment/new", http.StatusForbidden},
	}
	clients := map[string]*client{}
	for _, tc := range cases {
		c, ok := clients[tc.email]
		if !ok {
			c = a.login(tc.email)
			clients[tc.email] = c
		}
		var resp *http.Response
		entries := captureLogs(t, func() { resp = c.get(tc.path) })
		assert.Equal(t, tc.want, resp.StatusCode, "%s %s", tc.email, tc.path)
		if tc.want == http.StatusForbidden {
			e, ok := findLog(entries, "access.denied.role")
			if assert.True(t, ok, "%s %s", tc.email, tc.path) {
				assert.Equal(t, tc.email, e.Fields["email"])
			}
		}
	}

	resp = clients[repos.DemoSeller].get("/dashboard")
	assert.Equal(t, "/seller", resp.Header.Get("Location"))
}

func TestSignupThenLogin(t *testing.T) {
	a := newTestApp(t, server.Limits{})
	c := a.anon()

	form := url.Values{
		"role": {"buyer"}, "email": {"New.Buyer@Example.com"}, "password": {"Str0ng!pass"}, "confirm": {"Str0ng!pass"},
		"business_name": {"Happy Valley Books"}, "zipcode": {"16801"}, "street_num": {"12"}, "street_name": {"Pugh St"},
		"card_number": {"4000 0566 5566 5556"}, "card_type": {"Visa"}, "expire_month": {"11"},
		"expire_year": {"2035"}, "cvv": {"123"},
	}
	resp := c.post("/signup", form)
	require.Equal(t, http.StatusFound, resp.StatusCode, body(t, resp))
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = c.post("/login", url.Values{"email": {"new.buyer@example.com"}, "password": {"Str0ng!pass"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = c.post("/signup", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "already exists")

	weak := url.Values{"role": {"helpdesk"}, "email": {"staff@example.com"}, "password": {"password"}, "confirm": {"password"}}
	resp = c.post("/signup", weak)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Please check the password field.")
}

func TestCSRFRequired(t *testing.T) {
	a := newTestApp(t, server.Limits{})
	req := a.anon().withCookies(newForm("/login", url.Values{"email": {repos.DemoBuyer}, "password": {repos.DemoPassword}}))

	var resp *http.Response
	entries := captureLogs(t, func() { resp = a.do(req) })
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_, ok := findLog(entries, "csrf.fail")
	assert.True(t, ok)
}
