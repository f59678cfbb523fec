package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/formsync"
	"github.com/asaidimu/go-filterable/core/schema"
)

func articlesDashboard() *Dashboard {
	return &Dashboard{
		Resource: "articles",
		Title:    "Articles",
		Schema: &schema.SchemaDefinition{
			Name: "articles",
			Fields: map[string]*schema.FieldDefinition{
				"id":           {Name: "id", Type: schema.FieldTypeInteger},
				"title":        {Name: "title", Type: schema.FieldTypeString},
				"status":       {Name: "status", Type: schema.FieldTypeEnum, Values: []any{"draft", "published", "archived"}},
				"published_on": {Name: "published_on", Type: schema.FieldTypeDate},
				"author_id":    {Name: "author_id", Type: schema.FieldTypeInteger},
				"featured":     {Name: "featured", Type: schema.FieldTypeBoolean},
			},
		},
		Attributes: []filter.Attribute{
			{Name: "title", Kind: filter.KindString},
			{Name: "status", Kind: filter.KindMulti},
			{Name: "published_on", Kind: filter.KindDate},
			{Name: "author", Kind: filter.KindAssociation},
			{Name: "featured", Kind: filter.KindExact},
		},
		Columns:  []string{"id", "title", "status"},
		PageSize: 3,
	}
}

func articleRows() []schema.Document {
	return []schema.Document{
		{"id": int64(1), "title": "Learning Go", "status": "published", "published_on": "2024-01-10", "author_id": int64(1), "featured": true},
		{"id": int64(2), "title": "Rust notes", "status": "draft", "published_on": "2024-02-15", "author_id": int64(2), "featured": false},
		{"id": int64(3), "title": "100% GO", "status": "published", "published_on": "2024-03-01", "author_id": int64(1), "featured": false},
		{"id": int64(4), "title": "snake_case tips", "status": "archived", "published_on": "2024-04-20", "author_id": int64(3), "featured": false},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry, err := NewRegistry(articlesDashboard())
	require.NoError(t, err)

	backend := NewMemoryBackend(nil)
	backend.Load("articles", articleRows())

	s, err := NewServer(registry, backend, NewCookieStore("test-secret-key-32-bytes-long!!"), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

type envelope struct {
	Success bool         `json:"success"`
	Data    ListResponse `json:"data"`
	Error   *APIError    `json:"error"`
}

func getJSON(t *testing.T, s *Server, target string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func ids(rows []schema.Document) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["id"].(float64))
	}
	return out
}

func TestAPIList(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		target   string
		total    int
		page     int
		pages    int
		expected []float64
	}{
		{"no filters", "/api/articles?order=id", 4, 1, 2, []float64{1, 2, 3}},
		{"second page", "/api/articles?order=id&page=2", 4, 2, 2, []float64{4}},
		{"descending order", "/api/articles?order=id&direction=desc", 4, 1, 2, []float64{4, 3, 2}},
		{"multi value", "/api/articles?status=draft&status=archived&order=id", 2, 1, 1, []float64{2, 4}},
		{"textual", "/api/articles?title=go&order=id", 2, 1, 1, []float64{1, 3}},
		{"date range", "/api/articles?published_on_from=2024-02-01&published_on_to=2024-03-31&order=id", 2, 1, 1, []float64{2, 3}},
		{"association", "/api/articles?author_id=1&order=id", 2, 1, 1, []float64{1, 3}},
		{"undeclared keys ignored", "/api/articles?body=x&id=2&order=id", 4, 1, 2, []float64{1, 2, 3}},
		{"unknown order ignored", "/api/articles?order=nope&title=rust", 1, 1, 1, []float64{2}},
		{"no matches", "/api/articles?title=zig", 0, 1, 1, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := getJSON(t, s, tt.target)
			require.Equal(t, http.StatusOK, code)
			assert.True(t, env.Success)
			assert.Nil(t, env.Error)
			assert.Equal(t, "articles", env.Data.Resource)
			assert.Equal(t, tt.total, env.Data.Total)
			assert.Equal(t, tt.page, env.Data.Page)
			assert.Equal(t, tt.pages, env.Data.Pages)
			assert.Equal(t, 3, env.Data.PageSize)
			assert.Equal(t, tt.expected, ids(env.Data.Rows))
		})
	}
}

func TestAPIList_Errors(t *testing.T) {
	s := newTestServer(t)

	code, env := getJSON(t, s, "/api/widgets")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RESOURCE_NOT_FOUND", env.Error.Code)

	code, env = getJSON(t, s, "/api/articles?published_on_from=last-tuesday")
	assert.Equal(t, http.StatusInternalServerError, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "QUERY_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "last-tuesday")
}

func TestListPage(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles?title=go&status=published&status=draft", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Learning Go")
	assert.Contains(t, body, "100% GO")
	assert.NotContains(t, body, "Rust notes")
	assert.Contains(t, body, "2 results")

	// The filter form reflects the query string.
	assert.Contains(t, body, `name="title" value="go"`)
	assert.Contains(t, body, `value="published" checked`)
	assert.Contains(t, body, `value="draft" checked`)
	assert.NotContains(t, body, `value="archived" checked`)
}

func TestListPage_UnknownResource(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPage_QueryError(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles?published_on_to=soon", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func postForm(s *Server, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestFilterSubmit(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		form     url.Values
		expected string
	}{
		{
			name: "form keys replaced, others kept",
			form: url.Values{
				"return_to": {"/articles?page=2&status=draft&title=old"},
				"status":    {"published"},
				"title":     {""},
			},
			expected: "/articles?page=2&status=published",
		},
		{
			name: "multi value and date range",
			form: url.Values{
				"return_to":         {"/articles"},
				"status":            {"draft", "archived"},
				"published_on_from": {"2024-01-01"},
			},
			expected: "/articles?published_on_from=2024-01-01&status=draft&status=archived",
		},
		{
			name:     "missing return_to falls back to the listing",
			form:     url.Values{"featured": {"true"}},
			expected: "/articles?featured=true",
		},
		{
			name:     "foreign return_to is ignored",
			form:     url.Values{"return_to": {"https://example.com/steal"}, "author_id": {"3"}},
			expected: "/articles?author_id=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(s, "/articles/filter", tt.form)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.expected, rec.Header().Get("Location"))
		})
	}
}

func TestFilterSubmit_BadForm(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/articles/filter", strings.NewReader("title=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterClear(t *testing.T) {
	s := newTestServer(t)

	q := url.Values{"return_to": {"/articles?status=draft&page=2"}}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles/filter/clear?"+q.Encode(), nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles/filter/clear", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
}

func TestToggle(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/toggle", url.Values{"return_to": {"/articles"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	page := httptest.NewRecorder()
	s.ServeHTTP(page, req)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `<body class="`+formsync.OpenClass+`">`)

	rec = postForm(s, "/toggle", url.Values{}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	page = httptest.NewRecorder()
	s.ServeHTTP(page, req)
	assert.Contains(t, page.Body.String(), `<body class="">`)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestFilterEvents(t *testing.T) {
	s := newTestServer(t)

	var mu sync.Mutex
	var seen []filter.Applied
	unsubscribe := s.Filterer().Subscribe(func(_ context.Context, e filter.Applied) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e)
		return nil
	})
	defer unsubscribe()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/articles?title=go&page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "articles", seen[0].Resource)
	assert.Equal(t, []string{"title"}, seen[0].Permitted)
	assert.Equal(t, []string{"page"}, seen[0].Dropped)
	assert.Equal(t, 1, seen[0].Clauses)
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(nil, NewMemoryBackend(nil), NewCookieStore("secret"), nil)
	assert.Error(t, err)
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"", "/fallback"},
		{"/articles?page=2", "/articles?page=2"},
		{"articles", "/fallback"},
		{"//evil.com/x", "/fallback"},
		{"/\\evil.com", "/fallback"},
		{"https://evil.com/x", "/fallback"},
		{"http://[::1", "/fallback"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, localPath(tt.raw, "/fallback"), tt.raw)
	}
}

func TestWithParams(t *testing.T) {
	u, err := url.Parse("/articles?status=draft&page=3")
	require.NoError(t, err)

	assert.Equal(t, "/articles?page=4&status=draft", withParams(u, map[string]string{ParamPage: "4"}))
	assert.Equal(t, "/articles?order=id&status=draft", withParams(u, map[string]string{ParamOrder: "id", ParamPage: ""}))
}
