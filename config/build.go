package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/asaidimu/go-filterable/admin"
	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/schema"
)

// Schema builds the table definition of the dashboard.
func (d *DashboardConfig) Schema() (*schema.SchemaDefinition, error) {
	name := d.Table
	if name == "" {
		name = d.Resource
	}
	sc := &schema.SchemaDefinition{
		Name:    name,
		Version: "1",
		Fields:  make(map[string]*schema.FieldDefinition, len(d.Fields)),
	}

	names := make([]string, 0, len(d.Fields))
	for n := range d.Fields {
		names = append(names, n)
	}
	sort.Strings(names)

	var primary []string
	for _, n := range names {
		f := d.Fields[n]
		def := &schema.FieldDefinition{Name: n, Type: schema.FieldType(f.Type), Default: f.Default}
		if f.Required {
			def.Required = &f.Required
		}
		if f.Unique {
			def.Unique = &f.Unique
		}
		for _, v := range f.Values {
			def.Values = append(def.Values, v)
		}
		sc.Fields[n] = def

		if f.Primary {
			primary = append(primary, n)
		}
		if f.Index {
			sc.Indexes = append(sc.Indexes, schema.IndexDefinition{
				Name:   fmt.Sprintf("idx_%s_%s", name, n),
				Fields: []string{n},
				Type:   schema.IndexTypeNormal,
			})
		}
	}
	if len(primary) > 0 {
		sc.Indexes = append([]schema.IndexDefinition{{Name: "pk_" + name, Fields: primary, Type: schema.IndexTypePrimary}}, sc.Indexes...)
	}

	if issues := sc.Check(); len(issues) > 0 {
		return nil, fmt.Errorf("dashboard %s: %s", d.Resource, issues[0].Message)
	}
	return sc, nil
}

// Attributes parses the filter declarations.
func (d *DashboardConfig) Attributes() ([]filter.Attribute, error) {
	attrs := make([]filter.Attribute, 0, len(d.Filters))
	for _, f := range d.Filters {
		kind, err := filter.ParseKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("dashboard %s filter %q: %w", d.Resource, f.Name, err)
		}
		attrs = append(attrs, filter.Attribute{Name: f.Name, Kind: kind, ForeignKey: f.ForeignKey})
	}
	return attrs, nil
}

// Dashboard builds and validates the admin dashboard.
func (d *DashboardConfig) Dashboard() (*admin.Dashboard, error) {
	sc, err := d.Schema()
	if err != nil {
		return nil, err
	}
	attrs, err := d.Attributes()
	if err != nil {
		return nil, err
	}
	out := &admin.Dashboard{
		Resource:   d.Resource,
		Title:      d.Title,
		Schema:     sc,
		Attributes: attrs,
		Columns:    d.Columns,
		PageSize:   d.PageSize,
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Registry builds a registry holding every configured dashboard.
func (c *Config) Registry() (*admin.Registry, error) {
	registry, err := admin.NewRegistry()
	if err != nil {
		return nil, err
	}
	for i := range c.Dashboards {
		d, err := c.Dashboards[i].Dashboard()
		if err != nil {
			return nil, err
		}
		if err := registry.Register(d); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Documents converts the seed rows to the field types of sc and validates
// them. Every invalid row is reported.
func (d *DashboardConfig) Documents(sc *schema.SchemaDefinition) ([]schema.Document, error) {
	validator := schema.NewValidator(sc)
	docs := make([]schema.Document, 0, len(d.Seeds))
	for i, seed := range d.Seeds {
		doc := make(schema.Document, len(seed))
		for k, v := range seed {
			doc[k] = normalize(sc.FindField(k), v)
		}
		if ok, issues := validator.Validate(doc, false); !ok {
			return nil, fmt.Errorf("dashboard %s seed %d: %s: %s", d.Resource, i, issues[0].Path, issues[0].Message)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// normalize converts a decoded YAML value to the Go type used for the field.
func normalize(f *schema.FieldDefinition, v any) any {
	if f == nil || v == nil {
		return v
	}
	switch val := v.(type) {
	case time.Time:
		if f.Type == schema.FieldTypeDate {
			return val.Format(schema.DateLayout)
		}
		return val.UTC().Format(time.RFC3339)
	case string:
		if coerced, ok := schema.Coerce(val, f.Type); ok {
			return coerced
		}
	case int:
		switch f.Type {
		case schema.FieldTypeInteger:
			return int64(val)
		case schema.FieldTypeNumber, schema.FieldTypeDecimal:
			return float64(val)
		}
	case float64:
		if f.Type == schema.FieldTypeInteger && val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}
