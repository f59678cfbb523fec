package filter

import "strings"

// Value is a permitted parameter value: either one string or an ordered
// sequence of strings.
type Value struct {
	values []string
	multi  bool
}

// Scalar returns a single-string value.
func Scalar(s string) Value {
	return Value{values: []string{s}}
}

// Sequence returns a multi-valued value.
func Sequence(vs ...string) Value {
	return Value{values: append([]string(nil), vs...), multi: true}
}

// IsMulti reports whether the value is a sequence.
func (v Value) IsMulti() bool { return v.multi }

// String returns the scalar, or the first element of a sequence.
func (v Value) String() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// Strings returns every element in order.
func (v Value) Strings() []string {
	return append([]string(nil), v.values...)
}

// NonBlank returns the elements that are not blank, in order.
func (v Value) NonBlank() []string {
	out := make([]string, 0, len(v.values))
	for _, s := range v.values {
		if !isBlank(s) {
			out = append(out, s)
		}
	}
	return out
}

// IsBlank reports whether the value imposes no filter: an empty string, an
// empty sequence, or a sequence of blanks.
func (v Value) IsBlank() bool {
	return len(v.NonBlank()) == 0
}

// Params maps a permitted key to its value.
type Params map[string]Value

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
