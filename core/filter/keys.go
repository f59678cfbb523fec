package filter

import (
	"net/url"
	"sort"
)

// Arity is the number of values a key accepts.
type Arity int

const (
	ArityScalar Arity = iota
	ArityMulti
)

// Role says which part of an attribute a key feeds.
type Role int

const (
	RoleValue Role = iota
	RoleFrom
	RoleTo
)

// KeySpec is one permitted query key.
type KeySpec struct {
	Key       string
	Arity     Arity
	Role      Role
	Attribute Attribute
}

// Column is the storage column the key narrows.
func (k KeySpec) Column() string {
	return k.Attribute.Column()
}

// KeySchema is the ordered set of permitted keys derived from attributes. Both
// the permit step and the predicate step read it.
type KeySchema []KeySpec

// Keys derives the key schema. Each attribute contributes its bare name, or its
// foreign key for associations; date attributes also contribute <name>_from and
// <name>_to. When two attributes yield the same key, a date range key wins over
// a plain one, otherwise the first declaration wins.
func Keys(attrs []Attribute) KeySchema {
	schema := make(KeySchema, 0, len(attrs)+2)
	index := make(map[string]int, len(attrs)+2)

	add := func(spec KeySpec) {
		if i, ok := index[spec.Key]; ok {
			if schema[i].Role == RoleValue && spec.Role != RoleValue {
				schema[i] = spec
			}
			return
		}
		index[spec.Key] = len(schema)
		schema = append(schema, spec)
	}

	for _, a := range attrs {
		arity := ArityScalar
		if a.Kind == KindMulti {
			arity = ArityMulti
		}
		key := a.Name
		if a.Kind == KindAssociation {
			key = a.Column()
		}
		add(KeySpec{Key: key, Arity: arity, Role: RoleValue, Attribute: a})
		if a.Kind == KindDate {
			add(KeySpec{Key: a.Name + FromSuffix, Arity: ArityScalar, Role: RoleFrom, Attribute: a})
			add(KeySpec{Key: a.Name + ToSuffix, Arity: ArityScalar, Role: RoleTo, Attribute: a})
		}
	}
	return schema
}

// Lookup returns the KeySpec declared for key.
func (ks KeySchema) Lookup(key string) (KeySpec, bool) {
	for _, spec := range ks {
		if spec.Key == key {
			return spec, true
		}
	}
	return KeySpec{}, false
}

// Names returns the permitted keys in schema order.
func (ks KeySchema) Names() []string {
	names := make([]string, len(ks))
	for i, spec := range ks {
		names[i] = spec.Key
	}
	return names
}

// Permit keeps only the keys of raw that the schema declares. Scalar keys keep
// their first value; multi keys keep every value in order.
func (ks KeySchema) Permit(raw url.Values) Params {
	params := make(Params)
	for _, spec := range ks {
		values, ok := raw[spec.Key]
		if !ok {
			continue
		}
		if spec.Arity == ArityMulti {
			params[spec.Key] = Sequence(values...)
			continue
		}
		if len(values) == 0 {
			params[spec.Key] = Scalar("")
			continue
		}
		params[spec.Key] = Scalar(values[0])
	}
	return params
}

// Dropped returns the keys of raw that the schema does not declare.
func (ks KeySchema) Dropped(raw url.Values) []string {
	var dropped []string
	for key := range raw {
		if _, ok := ks.Lookup(key); !ok {
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return dropped
}
