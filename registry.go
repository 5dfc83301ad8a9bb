package arbor

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrUnknownType is returned when a scene file names a node type the
// registry has no constructor for.
var ErrUnknownType = errors.New("arbor: unknown node type")

// Registry maps node type names to constructors for deserialization.
// There is no package-level registry; callers build one, register their
// node types, and pass it to LoadScene. The zero value is usable.
type Registry struct {
	factories map[string]func() Node
	names     map[reflect.Type]string
}

// NewRegistry returns an empty registry with the built-in node types
// (Group, Tween, FPSProbe) already registered.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register("Group", func() Node { return NewGroup("Group") })
	r.Register("Tween", func() Node { return NewTween("Tween") })
	r.Register("FPSProbe", func() Node { return NewFPSProbe("FPSProbe") })
	return r
}

// Register binds a type name to a constructor. The constructor is probed
// once so the concrete type can be mapped back to the name when saving.
// Panics on an empty name, a duplicate name, or a constructor returning
// nil. Registering one type under several names is allowed; saving uses
// the most recent registration.
func (r *Registry) Register(name string, factory func() Node) {
	if name == "" {
		panic("arbor: cannot register an empty type name")
	}
	if factory == nil {
		panic("arbor: nil constructor for node type " + name)
	}
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("arbor: node type %q registered twice", name))
	}
	probe := factory()
	if probe == nil {
		panic(fmt.Sprintf("arbor: constructor for node type %q returned nil", name))
	}
	if r.factories == nil {
		r.factories = make(map[string]func() Node)
		r.names = make(map[reflect.Type]string)
	}
	r.factories[name] = factory
	r.names[reflect.TypeOf(probe)] = name
}

// New constructs a fresh, detached node of the named type.
func (r *Registry) New(name string) (Node, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return factory(), nil
}

// Has reports whether the name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// NameOf returns the registered name for the node's concrete type.
func (r *Registry) NameOf(n Node) (string, bool) {
	name, ok := r.names[reflect.TypeOf(n)]
	return name, ok
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// nodeTypeName renders a node's concrete type for diagnostics and
// structural hashing, e.g. "arbor.Group".
func nodeTypeName(n Node) string {
	t := reflect.TypeOf(n)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
