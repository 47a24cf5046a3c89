// Package resource implements spec.md §6.4–§6.5's named, loadable root
// items and the multi-item Document they live in, on top of the ayu, tree,
// route, and scan packages, persisted as YAML (yamlcodec.go).
package resource

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ayu-lang/ayu-go/ayu"
	"github.com/ayu-lang/ayu-go/ayuerr"
	"github.com/ayu-lang/ayu-go/route"
	"github.com/ayu-lang/ayu-go/scan"
	"gopkg.in/yaml.v3"
)

// State is a Resource's lifecycle stage, per spec.md §6.4's resource state
// machine.
type State int

const (
	Unloaded State = iota
	Loaded
	LoadedConstructOnly
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loaded:
		return "Loaded"
	case LoadedConstructOnly:
		return "LoadedConstructOnly"
	}
	return "?"
}

// Resource is a named root item, addressable by its own Route independent
// of any file on disk (spec.md §6.4: "a Resource's identity is its name,
// not its backing store").
type Resource struct {
	mu    sync.Mutex
	name  string
	state State
	value ayu.AnyVal
	typ   ayu.Type
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Resource{}
)

func init() {
	scan.RegisterRootProvider(func() []scan.RootEntry {
		registryMu.Lock()
		defer registryMu.Unlock()
		entries := make([]scan.RootEntry, 0, len(registry))
		for name, res := range registry {
			res.mu.Lock()
			if res.state != Unloaded {
				entries = append(entries, scan.RootEntry{
					Route: route.NewResourceRoute(name),
					Value: ayu.TopReference(res.value.Ptr()),
				})
			}
			res.mu.Unlock()
		}
		return entries
	})
}

// New registers (or returns the existing) Resource for name, of static
// type t.
func New(name string, t ayu.Type) *Resource {
	registryMu.Lock()
	defer registryMu.Unlock()
	if r, ok := registry[name]; ok {
		return r
	}
	r := &Resource{name: name, typ: t, state: Unloaded}
	registry[name] = r
	return r
}

// Get returns the already-registered Resource named name, if any.
func Get(name string) (*Resource, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	r, ok := registry[name]
	return r, ok
}

func (r *Resource) Name() string  { return r.name }
func (r *Resource) State() State  { r.mu.Lock(); defer r.mu.Unlock(); return r.state }
func (r *Resource) Type() ayu.Type { return r.typ }

// Route returns the symbolic root route naming this resource.
func (r *Resource) Route() *route.Route { return route.NewResourceRoute(r.name) }

// SetValue installs v as this resource's loaded value (spec.md's
// set_value), transitioning it to Loaded.
func (r *Resource) SetValue(v ayu.AnyVal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = v
	r.state = Loaded
}

// Reference returns a live AnyRef to the resource's current value. Panics
// if the resource is Unloaded — callers must Load first, mirroring the
// original's "referencing an unloaded resource is a usage error".
func (r *Resource) Reference() ayu.AnyRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Unloaded {
		panic(fmt.Sprintf("ayu: resource %q is not loaded", r.name))
	}
	return ayu.TopReference(r.value.Ptr())
}

// LoadFrom reads YAML from rd, parses it into a Tree, and from-tree
// constructs the resource's value from it.
func (r *Resource) LoadFrom(rd io.Reader) error {
	var n yaml.Node
	dec := yaml.NewDecoder(rd)
	if err := dec.Decode(&n); err != nil {
		return ayuerr.Wrap(ayuerr.ParseFailed, err, "resource %q: decoding YAML", r.name)
	}
	t, err := yamlToTree(&n)
	if err != nil {
		return err
	}
	v, err := ayu.NewAnyVal(r.typ)
	if err != nil {
		return err
	}
	// Push this resource's own route as the current base for the duration
	// of the call, per spec.md §4.10, so any cross-reference attrs it
	// deserializes render/parse IRIs relative to it rather than repeating
	// the resource name on every nested route.
	defer route.PushBase(r.Route())()
	if err := ayu.FromTree(ayu.TopReference(v.Ptr()), t); err != nil {
		return ayuerr.Wrap(ayuerr.FromTreeValueNotFound, err, "resource %q", r.name)
	}
	r.SetValue(v)
	return nil
}

// SaveTo renders the resource's current value to a Tree and writes it out
// as YAML.
func (r *Resource) SaveTo(w io.Writer) error {
	r.mu.Lock()
	if r.state == Unloaded {
		r.mu.Unlock()
		return ayuerr.New(ayuerr.General, "resource %q is not loaded, nothing to save", r.name)
	}
	ref := ayu.TopReference(r.value.Ptr())
	r.mu.Unlock()

	defer route.PushBase(r.Route())()
	t, err := ayu.ToTreeValue(ref)
	if err != nil {
		return ayuerr.Wrap(ayuerr.ToTreeValueNotFound, err, "resource %q", r.name)
	}
	n, err := treeToYAML(t)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(n)
}

// Names returns every currently registered resource name, sorted.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
