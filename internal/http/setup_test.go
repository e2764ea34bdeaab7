package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"nittosodai/internal/config"
	"nittosodai/internal/http/handlers"
	applog "nittosodai/internal/log"
	"nittosodai/internal/metrics"
	"nittosodai/internal/repos"
	"nittosodai/internal/sheets"
	"nittosodai/internal/webhook"
)

var productHeader = []any{"Name", "Brand", "Weight", "Price", "Discount", "Image", "ID", "Tags"}

// fakeSheets serves the values API for a fixed set of spreadsheets.
type fakeSheets struct {
	mu   sync.Mutex
	rows map[string][][]any
	fail map[string]int
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		rows: map[string][][]any{
			"home": {
				{"Category", "Sheet", "Image"},
				{"Grocery", "feed-g", "http://img/g.jpg"},
				{"Snacks", "feed-s", "http://img/s.jpg"},
			},
			"feed-g": {
				productHeader,
				{"Miniket Rice", "Chashi", "5kg", "100", "75", "http://img/rice.jpg", "A", "grain staple"},
				{"Iodized Salt", "ACI", "1kg", "40", "", "http://img/salt.jpg", "B", "spice"},
				{"Red Lentil", "Fresh", "1kg", "", "", "http://img/dal.jpg", "C", "lentil"},
			},
			"feed-s": {
				productHeader,
				{"Rice Crackers", "Olympic", "100g", "30", "25", "http://img/cr.jpg", "S2", "snack"},
			},
		},
		fail: map[string]int{},
	}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// /v4/spreadsheets/{id}/values/{range}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) < 5 || parts[1] != "spreadsheets" {
		http.NotFound(w, r)
		return
	}
	id := parts[2]
	f.mu.Lock()
	code := f.fail[id]
	rows, ok := f.rows[id]
	f.mu.Unlock()
	if code != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"backend error"}}`, code)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"range": parts[4], "values": rows})
}

func (f *fakeSheets) failWith(id string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[id] = code
}

// fakeWebhook records every payload it receives.
type fakeWebhook struct {
	mu       sync.Mutex
	status   int
	payloads []webhook.Payload
}

func (f *fakeWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p webhook.Payload
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &p)
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	status := f.status
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

func (f *fakeWebhook) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type testApp struct {
	app    *fiber.App
	sheets *fakeSheets
	hook   *fakeWebhook
	sid    string
	csrf   string
}

// newTestApp wires the real routes against fake Sheets and webhook servers
// and an in-memory SQLite state store, optionally wrapped.
func newTestApp(t *testing.T, wrap ...func(repos.StateStore) repos.StateStore) *testApp {
	t.Helper()

	fs := newFakeSheets()
	sheetsSrv := httptest.NewServer(fs)
	t.Cleanup(sheetsSrv.Close)
	hook := &fakeWebhook{}
	hookSrv := httptest.NewServer(hook)
	t.Cleanup(hookSrv.Close)

	cfg := config.Config{
		DBDSN:             ":memory:",
		HomeSpreadsheetID: "home",
		CategorySheetName: "Sheet1",
		ProductSheetName:  "Sheet1",
		StoreName:         "Nitto Sodai",
		WebhookURL:        hookSrv.URL,
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows, err := sheets.New(context.Background(), sheets.Config{
		APIKey:     "test-key",
		Endpoint:   sheetsSrv.URL + "/",
		HTTPClient: sheetsSrv.Client(),
	})
	if err != nil {
		t.Fatalf("sheets client: %v", err)
	}
	sink := webhook.New(cfg.WebhookURL, hookSrv.Client(), cfg.StoreName)

	app := fiber.New(fiber.Config{
		Views:        handlers.NewViews("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	var state repos.StateStore = repos.NewSQLiteState(db)
	for _, w := range wrap {
		state = w(state)
	}
	deps := handlers.NewDeps(state, rows, sink, cfg, metrics.New(nil))
	deps.Register(app, 3)

	ta := &testApp{app: app, sheets: fs, hook: hook, sid: uuid.NewString()}
	ta.csrf = ta.fetchCSRF(t)
	return ta
}

func (ta *testApp) fetchCSRF(t *testing.T) string {
	t.Helper()
	resp := ta.get(t, "/cart")
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			return c.Value
		}
	}
	t.Fatal("csrf token missing")
	return ""
}

func (ta *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: "sid", Value: ta.sid})
	if ta.csrf != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL, err)
	}
	return resp
}

func (ta *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return ta.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form with the session's csrf token.
func (ta *testApp) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf") == "" {
		form.Set("csrf", ta.csrf)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ta.do(t, req)
}

func (ta *testApp) addToCart(t *testing.T, feed, id, qty string) {
	t.Helper()
	resp := ta.post(t, "/cart", url.Values{"feedId": {feed}, "productId": {id}, "qty": {qty}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("add %s: expected 302, got %d body=%s", id, resp.StatusCode, body(resp))
	}
}

type cartJSON struct {
	Items []struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Image    string  `json:"image"`
		Quantity int     `json:"quantity"`
	} `json:"items"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

func (ta *testApp) cart(t *testing.T) cartJSON {
	t.Helper()
	resp := ta.get(t, "/api/v1/cart")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cart api: %d", resp.StatusCode)
	}
	var cj cartJSON
	if err := json.NewDecoder(resp.Body).Decode(&cj); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	return cj
}

func body(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

type logEntry struct {
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs collects the JSON event lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(io.Discard)

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
