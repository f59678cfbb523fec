// Package filter translates request query parameters into predicates that
// narrow a resource collection.
//
// A dashboard declares its filterable attributes. Each attribute has a kind
// that decides which query keys it answers to and how its value narrows the
// collection. Keys that no attribute declares are dropped before any predicate
// is built.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of attribute filter kinds.
type Kind string

const (
	KindString      Kind = "string"      // substring match on textual columns
	KindExact       Kind = "exact"       // equality, except on string and enum columns which match by substring
	KindMulti       Kind = "multi"       // any of several values (checkbox group)
	KindDate        Kind = "date"        // inclusive range via <name>_from / <name>_to
	KindAssociation Kind = "association" // equality on the association's foreign key
)

// Suffixes of the range keys contributed by date attributes.
const (
	FromSuffix = "_from"
	ToSuffix   = "_to"
)

var (
	// ErrUnknownKind is returned for an attribute kind outside the closed set.
	ErrUnknownKind = errors.New("unknown filter kind")
	// ErrInvalidAttribute is returned for a descriptor that cannot be used.
	ErrInvalidAttribute = errors.New("invalid filter attribute")
)

var kindAliases = map[string]Kind{
	"string":      KindString,
	"text":        KindString,
	"textual":     KindString,
	"exact":       KindExact,
	"plain":       KindExact,
	"multi":       KindMulti,
	"multi-value": KindMulti,
	"checkbox":    KindMulti,
	"date":        KindDate,
	"datetime":    KindDate,
	"date-range":  KindDate,
	"association": KindAssociation,
	"belongs_to":  KindAssociation,
}

// ParseKind maps a configured kind name to a Kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindExact, KindMulti, KindDate, KindAssociation:
		return true
	}
	return false
}

// Attribute describes one filterable field of a resource.
type Attribute struct {
	Name string
	Kind Kind
	// ForeignKey is the column an association filters on. Empty means <Name>_id.
	ForeignKey string
}

// Column returns the storage column the attribute narrows.
func (a Attribute) Column() string {
	if a.Kind == KindAssociation {
		if a.ForeignKey != "" {
			return a.ForeignKey
		}
		return a.Name + "_id"
	}
	return a.Name
}

// Validate checks that the descriptor can be turned into keys.
func (a Attribute) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAttribute)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("attribute %q: %w: %q", a.Name, ErrUnknownKind, a.Kind)
	}
	if a.ForeignKey != "" && a.Kind != KindAssociation {
		return fmt.Errorf("%w: %q declares a foreign key but is not an association", ErrInvalidAttribute, a.Name)
	}
	return nil
}
