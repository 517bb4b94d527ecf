package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"nittanymarket/internal/config"
	applog "nittanymarket/internal/log"
	"nittanymarket/internal/metrics"
	"nittanymarket/internal/repos"
	"nittanymarket/internal/server"
)

// Seeded ids: listings are created in this order by repos.Seed.
const (
	headphonesID = 1 // 49.99, 5 in stock
	laptopID     = 2 // 320.00, 2 in stock
	textbookID   = 3 // 25.00, 1 in stock

	buyerCard  = 1 // DemoBuyer's Visa
	buyer2Card = 2 // DemoBuyer2's MasterCard
)

type testApp struct {
	t     *testing.T
	app   *fiber.App
	store *repos.Store
	csrf  string
}

// client is one browser: it carries the csrf_ and sid cookies.
type client struct {
	a   *testApp
	sid string
}

func newTestApp(t *testing.T, limits server.Limits) *testApp {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := repos.NewStore(db)
	require.NoError(t, repos.Seed(ctx, store))

	cfg := config.Config{
		TemplatesDir: "../../web/templates",
		SessionTTL:   30 * time.Minute,
		RememberTTL:  720 * time.Hour,
	}
	a := &testApp{t: t, store: store}
	a.app = server.New(store, cfg, metrics.New(), server.Options{Limits: limits})

	resp := a.do(httptest.NewRequest("GET", "/login", nil))
	a.csrf = cookie(resp, "csrf_")
	require.NotEmpty(t, a.csrf, "csrf token missing")
	return a
}

func (a *testApp) do(req *http.Request) *http.Response {
	a.t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func (a *testApp) anon() *client { return &client{a: a} }

// login signs in with the seeded password and fails the test otherwise.
func (a *testApp) login(email string) *client {
	a.t.Helper()
	c := a.anon()
	resp := c.post("/login", url.Values{"email": {email}, "password": {repos.DemoPassword}})
	require.Equal(a.t, http.StatusFound, resp.StatusCode)
	c.sid = cookie(resp, "sid")
	require.NotEmpty(a.t, c.sid)
	return c
}

func (c *client) withCookies(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.a.csrf})
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	}
	return req
}

func (c *client) get(path string) *http.Response {
	return c.a.do(c.withCookies(httptest.NewRequest("GET", path, nil)))
}

func (c *client) post(path string, form url.Values) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", c.a.csrf)
	return c.a.do(c.withCookies(newForm(path, form)))
}

func newForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func flash(resp *http.Response) string {
	v, _ := url.QueryUnescape(cookie(resp, "flash"))
	return v
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return string(b)
}

type logEntry struct {
	Level    string         `json:"level"`
	Action   string         `json:"action"`
	Category string         `json:"category"`
	Fields   map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// captureLogs returns the structured entries written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	restore := applog.SetOutput(w)
	fn()
	restore()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
