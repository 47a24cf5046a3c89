// Package route implements spec.md §5's symbolic path type: a Route is a
// recursive, immutable description of how to reach a value from either a
// named resource or an anonymous reference by a chain of attr/elem steps,
// and can be round-tripped to and from an IRI-like string.
//
// The shape follows _examples/original_source/ayu/traversal/route.h's ADT
// comment almost verbatim ("data Route = RootRoute Resource | RefRoute
// AnyRef | KeyRoute Route AnyString | IndexRoute Route u32"), translated
// from a refcounted intrusive C++ object graph into a plain Go struct tree:
// Go's garbage collector already gives every Route the "shared, immutable,
// freed when unreferenced" property the original builds by hand with
// in::RCP, so there is no separate SharedRoute/RouteRef distinction here —
// a single *Route, always treated as immutable, plays both roles.
package route

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/ayu-lang/ayu-go/ayuerr"
)

// Form is the closed set of Route node kinds.
type Form uint8

const (
	FormResource Form = iota
	FormReference
	FormKey
	FormIndex
)

// Route is an immutable node in a route chain. Parent is nil for the two
// root forms (Resource, Reference).
type Route struct {
	Form Form

	Resource string // valid when Form == FormResource
	RefTag   string // valid when Form == FormReference: an opaque tag identifying the anonymous referent

	Parent *Route
	Key    string // valid when Form == FormKey
	Index  int    // valid when Form == FormIndex
}

// NewResourceRoute returns the root route for a named resource.
func NewResourceRoute(name string) *Route {
	return &Route{Form: FormResource, Resource: name}
}

// NewReferenceRoute returns the root route for an anonymous, non-resource
// item, identified only by an opaque tag (e.g. a pointer-derived id minted
// by the scan package). Its IRI form is "ayu-anonymous:" per route.h.
func NewReferenceRoute(tag string) *Route {
	return &Route{Form: FormReference, RefTag: tag}
}

// Child returns the route reached by stepping from r through a named
// attribute.
func (r *Route) Child(key string) *Route {
	return &Route{Form: FormKey, Parent: r, Key: key}
}

// Elem returns the route reached by stepping from r through a positional
// index.
func (r *Route) Elem(index int) *Route {
	return &Route{Form: FormIndex, Parent: r, Index: index}
}

// Root walks up to the resource/reference root of r's chain.
func (r *Route) Root() *Route {
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// IsRoot reports whether r is itself a root (Resource or Reference).
func (r *Route) IsRoot() bool {
	return r.Form == FormResource || r.Form == FormReference
}

const anonymousScheme = "ayu-anonymous:"

// ToIRI renders r as an absolute IRI string, per route.h's route_to_iri:
// the part before '#' is the resource name (or "ayu-anonymous:" for a
// reference root), and the fragment is built by walking from the root back
// down to r, appending "/key" for each Key step and "+index" for each
// Index step, percent-encoding any literal '/' or '+' within a key.
func ToIRI(r *Route) string {
	if r == nil {
		return ""
	}
	root := r.Root()
	base := root.Resource
	if root.Form == FormReference {
		base = anonymousScheme
	}
	frag := fragmentOf(r)
	return base + "#" + frag
}

func fragmentOf(r *Route) string {
	if r.IsRoot() {
		return ""
	}
	var segs []string
	for cur := r; !cur.IsRoot(); cur = cur.Parent {
		switch cur.Form {
		case FormKey:
			segs = append(segs, "/"+escapeSegment(cur.Key))
		case FormIndex:
			segs = append(segs, "+"+strconv.Itoa(cur.Index))
		}
	}
	// segs was built innermost-first; reverse it to outermost-first.
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "")
}

func escapeSegment(s string) string {
	r := strings.NewReplacer("/", "%2F", "+", "%2B")
	return r.Replace(s)
}

func unescapeSegment(s string) (string, error) {
	return url.QueryUnescape(strings.ReplaceAll(s, "+", "%2B"))
}

// FromIRI parses an IRI string back into a Route, per route.h's
// route_from_iri: everything up to '#' is the resource name (or the
// reference root if it equals "ayu-anonymous:"); the fragment is split
// into '/'-key and '+'-index steps; and a fragment beginning with neither
// '/' nor '+' — the "#shortcut" — is shorthand for "#/<name>+1", since (per
// route.h) "a lot of documents are a collection of named typed items."
func FromIRI(iri string) (*Route, error) {
	base, frag, hasFrag := strings.Cut(iri, "#")
	var root *Route
	if base == anonymousScheme {
		root = NewReferenceRoute("")
	} else {
		root = NewResourceRoute(base)
	}
	if !hasFrag || frag == "" {
		return root, nil
	}
	if frag[0] != '/' && frag[0] != '+' {
		// #shortcut rule: "#foo" means "#/foo+1".
		key, rest := frag, ""
		if end := strings.IndexAny(frag, "/+"); end >= 0 {
			key, rest = frag[:end], frag[end:]
		}
		unescaped, err := unescapeSegment(key)
		if err != nil {
			return nil, ayuerr.New(ayuerr.RouteIRIInvalid, "bad route fragment %q: %v", frag, err)
		}
		return parseSteps(root.Child(unescaped).Elem(1), rest)
	}
	return parseSteps(root, frag)
}

func parseSteps(r *Route, frag string) (*Route, error) {
	for len(frag) > 0 {
		switch frag[0] {
		case '/':
			rest := frag[1:]
			end := strings.IndexAny(rest, "/+")
			var seg string
			if end < 0 {
				seg, rest = rest, ""
			} else {
				seg, rest = rest[:end], rest[end:]
			}
			key, err := unescapeSegment(seg)
			if err != nil {
				return nil, ayuerr.New(ayuerr.RouteIRIInvalid, "bad route key %q: %v", seg, err)
			}
			r = r.Child(key)
			frag = rest
		case '+':
			rest := frag[1:]
			end := strings.IndexAny(rest, "/+")
			var seg string
			if end < 0 {
				seg, rest = rest, ""
			} else {
				seg, rest = rest[:end], rest[end:]
			}
			n, err := strconv.Atoi(seg)
			if err != nil || n < 0 {
				return nil, ayuerr.New(ayuerr.RouteIRIInvalid, "bad route index %q", seg)
			}
			r = r.Elem(n)
			frag = rest
		default:
			return nil, ayuerr.New(ayuerr.RouteIRIInvalid, "malformed route fragment near %q", frag)
		}
	}
	return r, nil
}

// baseStack is the base-route stack of route.h's PushBaseRoute: item
// to-tree/from-tree calls push the item's own root route as the base
// while they run, so that nested IRI-valued attributes can render/parse
// relative to it instead of repeating the full resource name every time.
var (
	baseMu    sync.Mutex
	baseStack []*Route
)

// CurrentBase returns the innermost currently-pushed base route, or nil if
// none is pushed.
func CurrentBase() *Route {
	baseMu.Lock()
	defer baseMu.Unlock()
	if len(baseStack) == 0 {
		return nil
	}
	return baseStack[len(baseStack)-1]
}

// PushBase pushes r as the current base route and returns a function that
// pops it back off — the Go analogue of PushBaseRoute's RAII destructor,
// meant to be used as `defer route.PushBase(r.Root())()`.
func PushBase(r *Route) func() {
	baseMu.Lock()
	baseStack = append(baseStack, r)
	baseMu.Unlock()
	return func() {
		baseMu.Lock()
		defer baseMu.Unlock()
		if n := len(baseStack); n > 0 {
			baseStack = baseStack[:n-1]
		}
	}
}

// Relativize renders target as an IRI relative to base when they share the
// same root, eliding the resource-name prefix the way current_base_iri's
// documented purpose intends; otherwise it falls back to the full
// absolute form.
func Relativize(base, target *Route) string {
	if base == nil || target == nil {
		return ToIRI(target)
	}
	if base.Root() != target.Root() && !sameRoot(base.Root(), target.Root()) {
		return ToIRI(target)
	}
	return "#" + fragmentOf(target)
}

func sameRoot(a, b *Route) bool {
	if a.Form != b.Form {
		return false
	}
	switch a.Form {
	case FormResource:
		return a.Resource == b.Resource
	case FormReference:
		return a.RefTag == b.RefTag
	}
	return false
}

func (r *Route) String() string {
	if r == nil {
		return "<nil route>"
	}
	return fmt.Sprintf("Route(%s)", ToIRI(r))
}
