package render

import (
	"strings"

	"github.com/vango-dev/jsonpage/pkg/document"
)

// Prop is a declared component prop and its default value.
type Prop struct {
	Name    string
	Default *document.Value
}

// Component is a named, pre-rendered template. Template holds ${prop}
// placeholders and optionally one ${children} slot.
type Component struct {
	Name     string
	Props    []Prop
	Template string
}

// Prop returns the declared prop with the given name.
func (c *Component) Prop(name string) (Prop, bool) {
	for _, p := range c.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

// HasSlot reports whether the template accepts children.
func (c *Component) HasSlot() bool {
	return strings.Contains(c.Template, SlotToken)
}

// Registry holds the components defined by one document.
// Components are added once during the registry build pass, then only looked
// up. A Registry is not safe for concurrent mutation; each render builds its own.
type Registry struct {
	components map[string]*Component
	order      []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]*Component),
	}
}

// Add stores c. It returns a DuplicateComponent error if the name is taken.
func (r *Registry) Add(c *Component) error {
	if r.Has(c.Name) {
		return newError(DuplicateComponent, "", nil, "component %q is already defined", c.Name)
	}
	r.components[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// Lookup returns the component registered under name. A nil Registry is empty.
func (r *Registry) Lookup(name string) (*Component, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.components[name]
	return c, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
