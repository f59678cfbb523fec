// Package admin serves filterable listings of registered resources over HTTP.
//
// Each resource is described by a Dashboard: its schema, the attributes users
// may filter on and the columns shown. Listing handlers hand the request query
// to the filter translator explicitly and render the narrowed collection as an
// HTML page or a JSON envelope.
package admin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/schema"
)

// DefaultPageSize is used by dashboards that do not set one.
const DefaultPageSize = 25

var (
	// ErrUnknownResource is returned when no dashboard is registered under a name.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInvalidDashboard is returned for a dashboard that cannot be served.
	ErrInvalidDashboard = errors.New("invalid dashboard")
)

// Dashboard describes one listed resource.
type Dashboard struct {
	Resource   string
	Title      string
	Schema     *schema.SchemaDefinition
	Attributes []filter.Attribute
	// Columns shown in the listing, in order. Empty means every schema field.
	Columns  []string
	PageSize int
}

// Label returns the title, falling back to the resource name.
func (d *Dashboard) Label() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Resource
}

// VisibleColumns returns the columns shown in the listing.
func (d *Dashboard) VisibleColumns() []string {
	if len(d.Columns) > 0 {
		return d.Columns
	}
	return d.Schema.FieldNames()
}

// Limit returns the page size.
func (d *Dashboard) Limit() int {
	if d.PageSize > 0 {
		return d.PageSize
	}
	return DefaultPageSize
}

// Validate checks the dashboard against its schema. Every attribute and column
// must name a schema field.
func (d *Dashboard) Validate() error {
	if strings.TrimSpace(d.Resource) == "" {
		return fmt.Errorf("%w: empty resource name", ErrInvalidDashboard)
	}
	if d.Schema == nil {
		return fmt.Errorf("%w: %s has no schema", ErrInvalidDashboard, d.Resource)
	}
	if issues := d.Schema.Check(); len(issues) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDashboard, d.Resource, issues[0].Message)
	}
	for _, a := range d.Attributes {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("dashboard %s: %w", d.Resource, err)
		}
		if !d.Schema.HasField(a.Column()) {
			return fmt.Errorf("%w: %s filters on %q which is not a field", ErrInvalidDashboard, d.Resource, a.Column())
		}
	}
	for _, c := range d.Columns {
		if !d.Schema.HasField(c) {
			return fmt.Errorf("%w: %s shows %q which is not a field", ErrInvalidDashboard, d.Resource, c)
		}
	}
	return nil
}

// Registry holds the dashboards a server lists.
type Registry struct {
	mu         sync.RWMutex
	dashboards map[string]*Dashboard
}

// NewRegistry registers dashboards in order and fails on the first invalid one.
func NewRegistry(dashboards ...*Dashboard) (*Registry, error) {
	r := &Registry{dashboards: make(map[string]*Dashboard, len(dashboards))}
	for _, d := range dashboards {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates d and adds it. A second dashboard for the same resource
// is an error.
func (r *Registry) Register(d *Dashboard) error {
	if d == nil {
		return fmt.Errorf("%w: nil dashboard", ErrInvalidDashboard)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.dashboards[d.Resource]; exists {
		return fmt.Errorf("%w: %s registered twice", ErrInvalidDashboard, d.Resource)
	}
	r.dashboards[d.Resource] = d
	return nil
}

// Lookup returns the dashboard for resource.
func (r *Registry) Lookup(resource string) (*Dashboard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dashboards[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	return d, nil
}

// All returns the dashboards sorted by resource name.
func (r *Registry) All() []*Dashboard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Dashboard, 0, len(r.dashboards))
	for _, d := range r.dashboards {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}
