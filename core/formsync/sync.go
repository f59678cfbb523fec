package formsync

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// OpenClass is the body class that marks the navigation as visible.
const OpenClass = "filterable__open"

// ParseQuery decodes a query string, with or without its leading "?", into
// key -> ordered values. Repeated keys keep every value. Malformed pairs are
// skipped.
func ParseQuery(raw string) url.Values {
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if values == nil {
		values = url.Values{}
	}
	return values
}

// Populate sets the form's controls from a query string. Keys absent from the
// query leave their controls as they are. Text-like controls sharing a name
// take the key's values positionally. A nil form is a no-op.
func Populate(form *Form, rawQuery string) {
	if form == nil {
		return
	}
	PopulateValues(form, ParseQuery(rawQuery))
}

// PopulateValues is Populate over already decoded values.
func PopulateValues(form *Form, values url.Values) {
	if form == nil {
		return
	}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		first := vals[0]
		n := 0
		for _, c := range form.Named(key) {
			switch c.Kind {
			case KindCheckbox:
				c.Checked = contains(vals, c.Value)
			case KindRadio:
				c.Checked = c.Value == first
			case KindSelect:
				selectValue(c, first)
			default:
				// Inputs sharing a name take the values in order.
				c.Value = ""
				if n < len(vals) {
					c.Value = vals[n]
				}
				n++
			}
		}
	}
}

func selectValue(c *Control, value string) {
	if c.Enhanced != nil {
		c.Enhanced.SetValue(value, true)
	}
	for i := range c.Options {
		c.Options[i].Selected = c.Options[i].Value == value
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Values reads the form: field name -> trimmed non-empty values in form order.
// Fields without a value are absent.
func Values(form *Form) url.Values {
	out := url.Values{}
	if form == nil {
		return out
	}
	for _, c := range form.Controls {
		if c == nil || c.Name == "" {
			continue
		}
		if v, ok := c.submitted(); ok {
			out[c.Name] = append(out[c.Name], v)
		}
	}
	return out
}

// Apply merges the form into currentURL's query string and returns the URL to
// navigate to. Pairs whose key the form does not own are kept byte for byte,
// even when they do not decode. Keys it owns are replaced by its values, or
// removed when it has none. Pairs are ordered by key, the fragment is dropped
// and an empty query leaves no trailing "?". A nil form returns currentURL.
func Apply(form *Form, currentURL string) (string, error) {
	if form == nil {
		return currentURL, nil
	}
	u, err := url.Parse(currentURL)
	if err != nil {
		return "", fmt.Errorf("parse current url: %w", err)
	}

	owned := make(map[string]bool)
	for _, name := range Fields(form) {
		owned[name] = true
	}
	var pairs []pair
	for _, p := range splitQuery(u.RawQuery) {
		if !owned[p.key] {
			pairs = append(pairs, p)
		}
	}
	for name, vals := range Values(form) {
		for _, v := range vals {
			pairs = append(pairs, pair{key: name, raw: url.QueryEscape(name) + "=" + url.QueryEscape(v)})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	raw := make([]string, len(pairs))
	for i, p := range pairs {
		raw[i] = p.raw
	}
	u.RawQuery = strings.Join(raw, "&")
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// pair is one "&"-separated segment of a raw query and its decoded key.
type pair struct {
	key string
	raw string
}

// splitQuery splits a raw query on "&". A key that does not unescape is kept
// in its raw form.
func splitQuery(rawQuery string) []pair {
	var out []pair
	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			continue
		}
		key, _, _ := strings.Cut(seg, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		out = append(out, pair{key: key, raw: seg})
	}
	return out
}

// Clear returns currentURL reduced to its scheme, host and path.
func Clear(currentURL string) (string, error) {
	u, err := url.Parse(currentURL)
	if err != nil {
		return "", fmt.Errorf("parse current url: %w", err)
	}
	bare := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path, RawPath: u.RawPath}
	return bare.String(), nil
}

// Toggle flips OpenClass in a space-separated class list.
func Toggle(classes string) string {
	fields := strings.Fields(classes)
	out := make([]string, 0, len(fields)+1)
	found := false
	for _, c := range fields {
		if c == OpenClass {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, OpenClass)
	}
	return strings.Join(out, " ")
}

// IsOpen reports whether the class list carries OpenClass.
func IsOpen(classes string) bool {
	for _, c := range strings.Fields(classes) {
		if c == OpenClass {
			return true
		}
	}
	return false
}
