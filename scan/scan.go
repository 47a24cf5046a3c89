// Package scan implements spec.md §6's pointer/route correspondence: given
// a live value somewhere inside a registered root, find the symbolic
// Route that reaches it (and back), by walking the whole reachable object
// graph from every known root and comparing addresses.
//
// scan cannot import the resource package (resource sits above scan: it
// depends on scan for RegisterRootProvider/RootEntry), so root discovery is
// inverted, the way the teacher's analyzer package never imports a
// specific language frontend directly but instead has each frontend
// register itself into common.Analyzer's registry (see
// _examples/uber-research-last-diff-analyzer/analyzer/common/types.go):
// here, resource.go registers a RootProvider with RegisterRootProvider
// during its package init, and scan only ever calls through that
// indirection.
package scan

import (
	"sync"
	"unsafe"

	"github.com/ayu-lang/ayu-go/ayu"
	"github.com/ayu-lang/ayu-go/ayuerr"
	"github.com/ayu-lang/ayu-go/route"
)

func uintptrOf(p unsafe.Pointer) uintptr { return uintptr(p) }

// RootEntry is one scannable root: a value reachable by route.Route from
// outside the object graph (a loaded Resource's root item, in practice).
type RootEntry struct {
	Route *route.Route
	Value ayu.AnyRef
}

// RootProvider supplies the current set of scan roots.
type RootProvider func() []RootEntry

var (
	providersMu sync.RWMutex
	providers   []RootProvider
)

// RegisterRootProvider adds a source of scan roots. Called once at
// package-init time by the resource package.
func RegisterRootProvider(p RootProvider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers = append(providers, p)
}

func allRoots() []RootEntry {
	providersMu.RLock()
	defer providersMu.RUnlock()
	var roots []RootEntry
	for _, p := range providers {
		roots = append(roots, p()...)
	}
	return roots
}

// scanning guards against re-entrant top-level scans, per spec.md's
// ScanWhileScanning error: the C++ original needs this because its scan
// holds process-wide locks a nested scan call would deadlock on; this port
// keeps the same restriction since a from-tree swizzle callback invoking
// FindReference while the outer from-tree call is itself mid-scan (e.g.
// inside ScanReferences) would otherwise be a surprising reentrant mutation
// hazard even though Go's GC removes the original's memory-safety reason
// for the guard.
var scanningHeld bool
var scanningMu sync.Mutex

func enterScan() error {
	scanningMu.Lock()
	defer scanningMu.Unlock()
	if scanningHeld {
		return ayuerr.New(ayuerr.ScanWhileScanning, "a scan is already in progress on this goroutine tree")
	}
	scanningHeld = true
	return nil
}

func exitScan() {
	scanningMu.Lock()
	scanningHeld = false
	scanningMu.Unlock()
}

// Visitor is called for every reachable (route, reference) pair during a
// scan, depth-first, attrs/elems in order.
type Visitor func(r *route.Route, ref ayu.AnyRef) error

// ScanPointers walks the full reachable graph from every registered root,
// invoking visit for each node, per spec.md's scan_pointers: unaddressable
// items and the descendants of a NoRefsToChildren-flagged item are skipped
// (spec.md §4.11's pruning rule).
func ScanPointers(visit Visitor) error {
	if err := enterScan(); err != nil {
		return err
	}
	defer exitScan()
	for _, root := range allRoots() {
		if err := walk(root.Route, root.Value, visit, true); err != nil {
			return err
		}
	}
	return nil
}

// ScanReferences walks the full reachable graph visiting every sub-item
// regardless of addressability, per spec.md's scan_references; unlike
// ScanPointers it never honors NoRefsToChildren (spec.md §4.11: "Pruning: a
// descriptor with NoRefsToChildren stops descent in pointer scans (not in
// reference scans)").
func ScanReferences(visit Visitor) error {
	if err := enterScan(); err != nil {
		return err
	}
	defer exitScan()
	for _, root := range allRoots() {
		if err := walk(root.Route, root.Value, visit, false); err != nil {
			return err
		}
	}
	return nil
}

func walk(r *route.Route, ref ayu.AnyRef, visit Visitor, pointersOnly bool) error {
	if pointersOnly {
		if _, ok := ref.Address(); !ok {
			return nil
		}
	}
	if err := visit(r, ref); err != nil {
		return err
	}
	if pointersOnly && ref.Type().HasNoRefsToChildren() {
		return nil
	}
	if keys, err := ayu.GetKeys(ref); err == nil {
		for _, key := range keys {
			child, err := ayu.Attr(ref, key)
			if err != nil {
				continue
			}
			if err := walk(r.Child(key), child, visit, pointersOnly); err != nil {
				return err
			}
		}
		return nil
	}
	if n, err := ayu.GetLength(ref); err == nil {
		for i := 0; i < n; i++ {
			child, err := ayu.Elem(ref, i)
			if err != nil {
				continue
			}
			if err := walk(r.Elem(i), child, visit, pointersOnly); err != nil {
				return err
			}
		}
	}
	return nil
}

// routeCache memoizes address -> route lookups within a KeepRouteCache
// scope, per spec.md's "pointer to route cache" optimization note: a full
// ScanPointers walk is $O(\text{graph size})$, so repeated FindPointer
// calls within one logical operation (e.g. serializing many
// cross-references out of the same document) are batched into a single
// walk instead of one walk per call.
type routeCache struct {
	byAddr    map[uintptr]*route.Route
	populated bool
}

var (
	cacheMu sync.Mutex
	cache   *routeCache
)

// KeepRouteCache runs fn with pointer->route memoization enabled: the first
// FindPointer call inside fn performs one full scan and populates the
// cache; subsequent calls reuse it. The cache is discarded when fn returns.
func KeepRouteCache(fn func() error) error {
	cacheMu.Lock()
	prev := cache
	cache = &routeCache{byAddr: map[uintptr]*route.Route{}}
	cacheMu.Unlock()
	defer func() {
		cacheMu.Lock()
		cache = prev
		cacheMu.Unlock()
	}()
	return fn()
}

func populateCache() error {
	cacheMu.Lock()
	c := cache
	cacheMu.Unlock()
	if c == nil || c.populated {
		return nil
	}
	err := ScanPointers(func(r *route.Route, ref ayu.AnyRef) error {
		p, ok := ref.Address()
		if !ok {
			return nil
		}
		addr, err := p.Addr()
		if err != nil {
			return nil
		}
		c.byAddr[uintptrOf(addr)] = r
		return nil
	})
	if err != nil {
		return err
	}
	c.populated = true
	return nil
}

// FindPointer returns the route reaching the same address as p, if any is
// reachable from a registered root.
func FindPointer(p ayu.AnyPtr) (*route.Route, bool, error) {
	target, err := p.Addr()
	if err != nil {
		return nil, false, err
	}
	cacheMu.Lock()
	c := cache
	cacheMu.Unlock()
	if c != nil {
		if err := populateCache(); err != nil {
			return nil, false, err
		}
		r, ok := c.byAddr[uintptrOf(target)]
		return r, ok, nil
	}

	var found *route.Route
	err = ScanPointers(func(r *route.Route, ref ayu.AnyRef) error {
		if found != nil {
			return nil
		}
		cp, ok := ref.Address()
		if !ok {
			return nil
		}
		addr, err := cp.Addr()
		if err != nil {
			return nil
		}
		if uintptrOf(addr) == uintptrOf(target) {
			found = r
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// FindReference locates the route that reaches the same value as ref,
// per spec.md's reference_to_route.
func FindReference(ref ayu.AnyRef) (*route.Route, bool, error) {
	p, ok := ref.Address()
	if !ok {
		return nil, false, ayuerr.New(ayuerr.ReferenceNotFound, "reference is not addressable, cannot locate its route")
	}
	return FindPointer(p)
}

// ReferenceFromRoute resolves r back to a live reference by walking its
// chain of steps from its root, per spec.md's reference_from_route. The
// root step itself (Resource/Reference form) must already be scannable,
// i.e. registered via RegisterRootProvider.
func ReferenceFromRoute(r *route.Route) (ayu.AnyRef, error) {
	root := r.Root()
	var base ayu.AnyRef
	found := false
	for _, entry := range allRoots() {
		if sameRoot(entry.Route, root) {
			base = entry.Value
			found = true
			break
		}
	}
	if !found {
		return ayu.AnyRef{}, ayuerr.New(ayuerr.ReferenceNotFound, "no scannable root for %v", root)
	}
	return followSteps(base, r)
}

func followSteps(base ayu.AnyRef, target *route.Route) (ayu.AnyRef, error) {
	if target.IsRoot() {
		return base, nil
	}
	parent, err := followSteps(base, target.Parent)
	if err != nil {
		return ayu.AnyRef{}, err
	}
	switch target.Form {
	case route.FormKey:
		return ayu.Attr(parent, target.Key)
	case route.FormIndex:
		return ayu.Elem(parent, target.Index)
	}
	return ayu.AnyRef{}, ayuerr.New(ayuerr.ReferenceNotFound, "malformed route step")
}

func sameRoot(a, b *route.Route) bool {
	if a.Form != b.Form {
		return false
	}
	switch a.Form {
	case route.FormResource:
		return a.Resource == b.Resource
	case route.FormReference:
		return a.RefTag == b.RefTag
	}
	return false
}
