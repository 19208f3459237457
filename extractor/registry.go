package extractor

import (
	"slices"

	"github.com/miwtoo/credit-card-extraction/extractor/statement"
	"github.com/miwtoo/credit-card-extraction/extractor/ttb_cc"
)

// Layout is one supported statement layout.
type Layout struct {
	Name string
	// Detect reports whether the joined statement text belongs to the layout.
	Detect func(text string) bool
	// Rules builds the rule tables, applying config overrides.
	Rules func() *statement.Rules
}

// Registry maintains the available layouts in registration order.
type Registry struct {
	layouts map[string]Layout
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]Layout)}
}

// DefaultRegistry returns a registry with every built-in layout.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Layout{Name: ttb_cc.Name, Detect: ttb_cc.Detect, Rules: ttb_cc.LoadRules})
	return r
}

// Register adds a layout, replacing any layout with the same name.
func (r *Registry) Register(l Layout) {
	if _, ok := r.layouts[l.Name]; !ok {
		r.order = append(r.order, l.Name)
	}
	r.layouts[l.Name] = l
}

// Get returns a layout by name.
func (r *Registry) Get(name string) (Layout, bool) {
	l, ok := r.layouts[name]
	return l, ok
}

// List returns the registered layout names, sorted.
func (r *Registry) List() []string {
	names := slices.Clone(r.order)
	slices.Sort(names)
	return names
}

// Detect returns the first layout, in registration order, that claims text.
func (r *Registry) Detect(text string) (Layout, bool) {
	for _, name := range r.order {
		l := r.layouts[name]
		if l.Detect != nil && l.Detect(text) {
			return l, true
		}
	}
	return Layout{}, false
}

// Default returns the first registered layout.
func (r *Registry) Default() (Layout, bool) {
	if len(r.order) == 0 {
		return Layout{}, false
	}
	return r.layouts[r.order[0]], true
}
