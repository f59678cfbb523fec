package admin

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/formsync"
	"github.com/asaidimu/go-filterable/core/schema"
)

// FormField groups the controls rendered for one attribute.
type FormField struct {
	Label    string
	Kind     filter.Kind
	Controls []*formsync.Control
}

// FilterForm is the filter form of a dashboard. Fields reference the same
// controls as Form, so populating Form updates what Fields render.
type FilterForm struct {
	Form   *formsync.Form
	Fields []FormField
}

// NewFilterForm builds the empty filter form for d. Control names are the
// query keys the translator permits. current sizes the inputs of multi-value
// attributes without fixed choices: one per value it holds plus a blank one.
func NewFilterForm(d *Dashboard, current url.Values) *FilterForm {
	ff := &FilterForm{Form: formsync.NewForm()}
	for _, a := range d.Attributes {
		field := FormField{Label: a.Name, Kind: a.Kind}
		switch a.Kind {
		case filter.KindDate:
			field.Controls = []*formsync.Control{
				{Name: a.Name + filter.FromSuffix, Kind: formsync.KindDate},
				{Name: a.Name + filter.ToSuffix, Kind: formsync.KindDate},
			}
		case filter.KindMulti:
			field.Controls = checkboxes(a.Name, choices(d.Schema.FindField(a.Column())), current[a.Name])
		case filter.KindAssociation:
			field.Controls = []*formsync.Control{{Name: a.Column(), Kind: formsync.KindText}}
		default:
			field.Controls = []*formsync.Control{single(a.Name, d.Schema.FindField(a.Column()))}
		}
		ff.Fields = append(ff.Fields, field)
		ff.Form.Controls = append(ff.Form.Controls, field.Controls...)
	}
	return ff
}

// choices lists the values a field can take, or nil when it is open-ended.
func choices(f *schema.FieldDefinition) []string {
	if f == nil {
		return nil
	}
	switch f.Type {
	case schema.FieldTypeEnum:
		out := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			out = append(out, fmt.Sprint(v))
		}
		return out
	case schema.FieldTypeBoolean:
		return []string{"true", "false"}
	}
	return nil
}

func checkboxes(name string, values, current []string) []*formsync.Control {
	if len(values) == 0 {
		out := []*formsync.Control{{Name: name, Kind: formsync.KindText}}
		for _, v := range current {
			if strings.TrimSpace(v) != "" {
				out = append(out, &formsync.Control{Name: name, Kind: formsync.KindText})
			}
		}
		return out
	}
	out := make([]*formsync.Control, 0, len(values))
	for _, v := range values {
		out = append(out, &formsync.Control{Name: name, Kind: formsync.KindCheckbox, Value: v})
	}
	return out
}

func single(name string, f *schema.FieldDefinition) *formsync.Control {
	values := choices(f)
	if len(values) == 0 {
		return &formsync.Control{Name: name, Kind: formsync.KindText}
	}
	options := []formsync.Option{{Value: "", Label: "Any", Selected: true}}
	for _, v := range values {
		options = append(options, formsync.Option{Value: v, Label: v})
	}
	return &formsync.Control{Name: name, Kind: formsync.KindSelect, Options: options}
}
