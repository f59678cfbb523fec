// Package formsync keeps a filter form and a page URL's query string in step.
//
// Populate copies the query string into the form. Apply merges the form back
// into the URL, replacing only the keys the form owns. Clear drops the query
// string entirely. All functions are pure: they read a form model and URLs and
// return new URLs, leaving navigation to the caller.
package formsync

import "strings"

// ControlKind is the kind of a form control.
type ControlKind int

const (
	KindText ControlKind = iota
	KindCheckbox
	KindRadio
	KindSelect
	KindHidden
	KindDate
)

var kindNames = map[ControlKind]string{
	KindText:     "text",
	KindCheckbox: "checkbox",
	KindRadio:    "radio",
	KindSelect:   "select",
	KindHidden:   "hidden",
	KindDate:     "date",
}

func (k ControlKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Option is one choice of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Selector is a single-selection picker that replaces the native select list.
// When a control has one, its value is read and written through it.
type Selector interface {
	// SetValue selects value. When silent is set no change notification fires.
	SetValue(value string, silent bool)
	Value() string
}

// Control is one named field of the form.
type Control struct {
	Name    string
	Kind    ControlKind
	Value   string // text-like controls: current text; checkbox and radio: submitted value
	Checked bool
	Options []Option
	// Enhanced is the optional picker of a select control.
	Enhanced Selector
}

// Form is an ordered list of controls. Several controls may share a name.
type Form struct {
	Controls []*Control
}

// NewForm returns a form over controls.
func NewForm(controls ...*Control) *Form {
	return &Form{Controls: controls}
}

// Named returns the controls called name, in form order.
func (f *Form) Named(name string) []*Control {
	if f == nil {
		return nil
	}
	var out []*Control
	for _, c := range f.Controls {
		if c != nil && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Fields returns the distinct field names of the form, in form order.
func Fields(form *Form) []string {
	if form == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(form.Controls))
	var names []string
	for _, c := range form.Controls {
		if c == nil || c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		names = append(names, c.Name)
	}
	return names
}

// Selected returns the value of the selected option of a select control, or
// "" when none is selected.
func (c *Control) Selected() string {
	if c.Enhanced != nil {
		return c.Enhanced.Value()
	}
	for _, o := range c.Options {
		if o.Selected {
			return o.Value
		}
	}
	return ""
}

// submitted returns the value the control contributes, if any.
func (c *Control) submitted() (string, bool) {
	var v string
	switch c.Kind {
	case KindCheckbox, KindRadio:
		if !c.Checked {
			return "", false
		}
		v = c.Value
	case KindSelect:
		v = c.Selected()
	default:
		v = c.Value
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
