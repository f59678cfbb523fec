package filter

import (
	"context"
	"fmt"
	"net/url"
	"time"

	events "github.com/asaidimu/go-events"
	"go.uber.org/zap"
)

// Apply narrows base by the request parameters that attrs permit.
//
// Date bounds are applied first. Every other permitted key then narrows its
// column: a sequence by membership, a textual column by substring, anything
// else by equality. Blank values, unknown columns and undeclared keys impose
// nothing. When no declared key is present, base is returned unchanged.
func Apply(attrs []Attribute, raw url.Values, base Collection) (Collection, error) {
	out, _, err := apply(attrs, raw, base)
	return out, err
}

type report struct {
	permitted []string
	dropped   []string
	clauses   int
}

func apply(attrs []Attribute, raw url.Values, base Collection) (Collection, report, error) {
	var rep report
	for _, a := range attrs {
		if err := a.Validate(); err != nil {
			return nil, rep, err
		}
	}

	keys := Keys(attrs)
	params := keys.Permit(raw)
	rep.dropped = keys.Dropped(raw)
	if len(params) == 0 {
		return base, rep, nil
	}
	for _, spec := range keys {
		if _, ok := params[spec.Key]; ok {
			rep.permitted = append(rep.permitted, spec.Key)
		}
	}

	out := base
	for _, spec := range keys {
		if spec.Role == RoleValue {
			continue
		}
		v, ok := params[spec.Key]
		if !ok || v.IsBlank() {
			continue
		}
		if spec.Role == RoleFrom {
			out = out.WhereGte(spec.Column(), v.String())
		} else {
			out = out.WhereLte(spec.Column(), v.String())
		}
		rep.clauses++
	}

	for _, spec := range keys {
		if spec.Role != RoleValue {
			continue
		}
		v, ok := params[spec.Key]
		if !ok || v.IsBlank() {
			continue
		}
		column := spec.Column()
		if !out.HasColumn(column) {
			continue
		}
		switch {
		case v.IsMulti():
			out = out.WhereIn(column, v.NonBlank())
		case isTextual(out, column):
			out = out.WhereContains(column, v.String())
		default:
			out = out.WhereEq(column, v.String())
		}
		rep.clauses++
	}
	return out, rep, nil
}

func isTextual(c Collection, column string) bool {
	t, ok := c.ColumnType(column)
	return ok && t.IsTextual()
}

// EventApplied is the event name published after every translation.
const EventApplied = "filter.applied"

// Applied describes one translation.
type Applied struct {
	Resource  string    `json:"resource"`
	Permitted []string  `json:"permitted"`
	Dropped   []string  `json:"dropped"`
	Clauses   int       `json:"clauses"`
	At        time.Time `json:"at"`
}

// Filterer wraps Apply with logging and event publication for use by HTTP
// handlers.
type Filterer struct {
	logger *zap.Logger
	bus    *events.TypedEventBus[Applied]
}

// NewFilterer creates a Filterer. A nil logger is replaced by a no-op logger.
func NewFilterer(logger *zap.Logger) (*Filterer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[Applied](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	return &Filterer{logger: logger, bus: bus}, nil
}

// Subscribe registers fn for every Applied event and returns a function that
// removes it.
func (f *Filterer) Subscribe(fn func(ctx context.Context, e Applied) error) func() {
	return f.bus.Subscribe(EventApplied, fn)
}

// Apply narrows base for the named resource. See the package-level Apply.
func (f *Filterer) Apply(ctx context.Context, resource string, attrs []Attribute, raw url.Values, base Collection) (Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, rep, err := apply(attrs, raw, base)
	if err != nil {
		f.logger.Error("Invalid filter attributes", zap.String("resource", resource), zap.Error(err))
		return nil, fmt.Errorf("filter %s: %w", resource, err)
	}

	if len(rep.dropped) > 0 {
		f.logger.Debug("Dropped undeclared filter keys", zap.String("resource", resource), zap.Strings("keys", rep.dropped))
	}
	f.logger.Debug("Applied filters",
		zap.String("resource", resource),
		zap.Strings("permitted", rep.permitted),
		zap.Int("clauses", rep.clauses),
	)

	f.bus.EmitWithContext(ctx, EventApplied, Applied{
		Resource:  resource,
		Permitted: rep.permitted,
		Dropped:   rep.dropped,
		Clauses:   rep.clauses,
		At:        time.Now().UTC(),
	})
	return out, nil
}
