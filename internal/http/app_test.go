package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"saboraoclique/internal/config"
	"saboraoclique/internal/http/handlers"
	applog "saboraoclique/internal/log"
	"saboraoclique/internal/repos"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	sid  string
	csrf string
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:        ":memory:",
		MaxImage:     64 << 10,
		BodyLimit:    1 << 20,
		TemplatesDir: "../../web/templates",
		Env:          "test",
		MetricsNS:    "test",
	}
}

// newTestApp builds the full app over an in-memory database holding two
// categories and three products.
func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
	INSERT INTO categories(id,name) VALUES ('CAT01','Bolos'),('CAT02','Doces');
	INSERT INTO products(id,name,description,price,category_id) VALUES
	  ('PROD01','Bolo de Cenoura','Com cobertura de chocolate',10,'CAT01'),
	  ('PROD02','Brigadeiro','Unidade',5,'CAT02'),
	  ('PROD03','Beijinho','Unidade',4.5,'CAT02');
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	deps := handlers.NewDeps(db, cfg)
	return &testApp{app: handlers.NewApp(cfg, deps), db: db, deps: deps}
}

// do sends req with the session and csrf cookies, remembering newly issued ones.
func (a *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	if a.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: a.sid})
	}
	if a.csrf != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: a.csrf})
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			continue
		}
		switch c.Name {
		case "sid":
			a.sid = c.Value
		case "csrf_":
			a.csrf = c.Value
		}
	}
	return resp
}

// token returns the csrf token, loading a page first when none was issued yet.
func (a *testApp) token(t *testing.T) string {
	t.Helper()
	if a.csrf == "" {
		a.get(t, "/")
	}
	require.NotEmpty(t, a.csrf, "csrf cookie")
	return a.csrf
}

func (a *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits form the way a rendered page would, csrf field included.
func (a *testApp) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", a.token(t))
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// observeLogs routes the process logger into memory for the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := applog.L()
	applog.Use(zap.New(core))
	t.Cleanup(func() { applog.Use(prev) })
	return logs
}
