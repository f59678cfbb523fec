package admin

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/asaidimu/go-filterable/core/formsync"
	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/core/schema"
)

// Window keys. They are read by the listing, never by the filter translator.
const (
	ParamPage      = "page"
	ParamOrder     = "order"
	ParamDirection = "direction"
)

// Column is a table header with the link that sorts by it.
type Column struct {
	Name      string
	SortURL   string
	Active    bool
	Direction query.SortDirection
}

// listing is one rendered page of a dashboard.
type listing struct {
	Resource string
	Filters  *FilterForm
	Columns  []Column
	Rows     []schema.Document
	Total    int
	Page     int
	Pages    int
	PageSize int
	PrevURL  string
	NextURL  string
}

// window is the sort and page requested in the query string.
type window struct {
	order     string
	direction query.SortDirection
	page      int
}

func readWindow(d *Dashboard, values url.Values) window {
	w := window{direction: query.SortDirectionAsc, page: 1}
	if order := values.Get(ParamOrder); order != "" && d.Schema.HasField(order) {
		w.order = order
	}
	if strings.EqualFold(values.Get(ParamDirection), string(query.SortDirectionDesc)) {
		w.direction = query.SortDirectionDesc
	}
	if p, err := strconv.Atoi(values.Get(ParamPage)); err == nil && p > 0 {
		w.page = p
	}
	return w
}

func (w window) sort() []query.SortConfiguration {
	if w.order == "" {
		return nil
	}
	return []query.SortConfiguration{{Field: w.order, Direction: w.direction}}
}

// list translates the request query into a narrowed collection and executes it.
func (s *Server) list(r *http.Request, d *Dashboard) (*listing, error) {
	ctx := r.Context()
	values := r.URL.Query()

	base, err := s.backend.Collection(d)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Resource, err)
	}
	narrowed, err := s.filterer.Apply(ctx, d.Resource, d.Attributes, values, base)
	if err != nil {
		return nil, err
	}
	coll, ok := narrowed.(Listing)
	if !ok {
		return nil, fmt.Errorf("%s: collection of type %T cannot be executed", d.Resource, narrowed)
	}

	total, err := coll.Count(ctx)
	if err != nil {
		return nil, err
	}

	win := readWindow(d, values)
	limit := d.Limit()
	offset := (win.page - 1) * limit
	rows, err := coll.Fetch(ctx, win.sort(), &query.PaginationOptions{Limit: limit, Offset: &offset})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []schema.Document{}
	}

	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}

	filters := NewFilterForm(d, r.URL.Query())
	formsync.Populate(filters.Form, r.URL.RawQuery)

	l := &listing{
		Resource: d.Resource,
		Filters:  filters,
		Rows:     rows,
		Total:    total,
		Page:     win.page,
		Pages:    pages,
		PageSize: limit,
	}
	for _, name := range d.VisibleColumns() {
		col := Column{Name: name, Direction: query.SortDirectionAsc}
		if name == win.order {
			col.Active = true
			col.Direction = win.direction
		}
		next := query.SortDirectionAsc
		if col.Active && win.direction == query.SortDirectionAsc {
			next = query.SortDirectionDesc
		}
		col.SortURL = withParams(r.URL, map[string]string{ParamOrder: name, ParamDirection: string(next), ParamPage: ""})
		l.Columns = append(l.Columns, col)
	}
	if win.page > 1 {
		l.PrevURL = withParams(r.URL, map[string]string{ParamPage: strconv.Itoa(win.page - 1)})
	}
	if win.page < pages {
		l.NextURL = withParams(r.URL, map[string]string{ParamPage: strconv.Itoa(win.page + 1)})
	}
	return l, nil
}

// withParams returns the path and query of u with params set. An empty value
// removes the key.
func withParams(u *url.URL, params map[string]string) string {
	q := u.Query()
	for k, v := range params {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}
	out := url.URL{Path: u.Path, RawQuery: q.Encode()}
	return out.String()
}

// localPath returns raw when it is a path on this server, else fallback.
func localPath(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return fallback
	}
	return raw
}
