package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/TurahWilson/TubesIAE/apitest"
	"github.com/TurahWilson/TubesIAE/dashboard"
	"github.com/TurahWilson/TubesIAE/gateway"
	"github.com/TurahWilson/TubesIAE/middleware"
	"github.com/TurahWilson/TubesIAE/session"
	"github.com/TurahWilson/TubesIAE/util"
	"github.com/TurahWilson/TubesIAE/web"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testCookie   = "dashboard_session"
	adminEmail   = "admin@clinic.test"
	staffEmail   = "staff@clinic.test"
	testPassword = "s3cret"
	acceptJSON   = "application/json"
	acceptHTML   = "text/html"
	formEncoded  = "application/x-www-form-urlencoded"
	contentJSON  = "application/json"
)

type testEnv struct {
	api    *apitest.Server
	db     *gorm.DB
	engine *gin.Engine
	audit  *bytes.Buffer
}

// envOptions adjusts the dashboard built by setupDashboardWith.
type envOptions struct {
	secure bool
	// sessions wraps the real store, e.g. to inject failures.
	sessions func(Sessions) Sessions
}

func setupDashboard(t *testing.T) *testEnv {
	t.Helper()
	return setupDashboardWith(t, envOptions{})
}

func setupDashboardWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	audit := &bytes.Buffer{}
	prev := util.SetSecurityLoggerForTest(log.New(audit, "", 0))
	t.Cleanup(func() { util.SetSecurityLoggerForTest(prev) })

	api := apitest.NewServer()
	t.Cleanup(api.Close)
	api.AddUser(adminEmail, testPassword, "admin")
	api.AddUser(staffEmail, testPassword, "user")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, session.Migrate(db))

	gw := gateway.New(api.URL, 5*time.Second)
	store := session.NewStore(db, nil, gw)
	router := dashboard.NewRouter(dashboard.DefaultPanels(gw)...)
	var sessions Sessions = store
	if opts.sessions != nil {
		sessions = opts.sessions(store)
	}
	h := NewHandler(sessions, gw, router, CookieConfig{Name: testCookie, Retention: 24 * time.Hour, Secure: opts.secure})

	tmpl, err := web.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.LoadSession(store, testCookie))
	h.Routes(r, func(c *gin.Context) { c.Next() })

	return &testEnv{api: api, db: db, engine: r, audit: audit}
}

type requestSpec struct {
	method      string
	path        string
	cookie      string
	accept      string
	contentType string
	body        string
}

func (e *testEnv) perform(spec requestSpec) *httptest.ResponseRecorder {
	req := httptest.NewRequest(spec.method, spec.path, strings.NewReader(spec.body))
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	if spec.accept != "" {
		req.Header.Set("Accept", spec.accept)
	}
	if spec.cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: spec.cookie})
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path, cookie, accept string) *httptest.ResponseRecorder {
	return e.perform(requestSpec{method: http.MethodGet, path: path, cookie: cookie, accept: accept})
}

func (e *testEnv) postForm(path, cookie string, form url.Values) *httptest.ResponseRecorder {
	return e.perform(requestSpec{method: http.MethodPost, path: path, cookie: cookie, accept: acceptHTML, contentType: formEncoded, body: form.Encode()})
}

func (e *testEnv) postJSON(path, cookie string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return e.perform(requestSpec{method: http.MethodPost, path: path, cookie: cookie, accept: acceptJSON, contentType: contentJSON, body: string(b)})
}

// login signs in through the form and returns the session cookie value.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	w := e.postForm("/login", "", url.Values{"username": {email}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	c := findCookie(w, testCookie)
	require.NotNil(t, c)
	require.NotEmpty(t, c.Value)
	return c.Value
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) util.APIResponse {
	t.Helper()
	var resp util.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// summary returns the dashboard counts keyed by page name.
func (e *testEnv) summary(t *testing.T, cookie string) map[string]int {
	t.Helper()
	w := e.get("/dashboard", cookie, acceptJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data dashboard.PageView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	counts := map[string]int{}
	for _, c := range resp.Data.Summary {
		counts[c.Name] = c.Total
	}
	return counts
}

// rows returns the rows of an entity page as seen by a JSON client.
func (e *testEnv) rows(t *testing.T, cookie, page string) []dashboard.Row {
	t.Helper()
	w := e.get("/"+page, cookie, acceptJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data dashboard.PageView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Rows
}

var janeDoe = url.Values{
	"name":         {"Jane Doe"},
	"email":        {"jane@example.com"},
	"phone_number": {"08123456789"},
	"gender":       {"F"},
	"address":      {"Jl. Merdeka 1, Bandung"},
}
