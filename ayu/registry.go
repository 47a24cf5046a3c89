package ayu

import (
	"reflect"
	"sort"
	"sync"
)

// registry is the process-wide Description table of spec.md §4.1: a
// name-sorted slice searched by binary search for lookup-by-name (the Go
// analogue of the original's sorted-array-of-pointers Description
// registry), plus a reflect.Type-keyed map for the far more common
// lookup-by-Go-type path that every Type method goes through.
type registry struct {
	mu       sync.RWMutex
	byGoType map[reflect.Type]*Description
	byName   []*Description // kept sorted by resolveName()
}

var globalRegistry = &registry{byGoType: map[reflect.Type]*Description{}}

func register(d *Description) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byGoType[d.goType.rt] = d
	globalRegistry.byName = append(globalRegistry.byName, d)
	sort.Slice(globalRegistry.byName, func(i, j int) bool {
		return globalRegistry.byName[i].resolveName() < globalRegistry.byName[j].resolveName()
	})
}

// lookupDescriptionByGoType is the hot path: a plain map lookup, called
// from nearly every Type method.
func lookupDescriptionByGoType(rt reflect.Type) *Description {
	if rt == nil {
		return nil
	}
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return globalRegistry.byGoType[rt]
}

// TypeByName performs the binary search over the sorted registry described
// in spec.md §4.1, returning ayuerr.TypeNameNotFound if absent. It also
// checks each description's aliases linearly as a fallback, since aliases
// don't participate in the primary sort key.
func TypeByName(name string) (Type, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	names := globalRegistry.byName
	i := sort.Search(len(names), func(i int) bool { return names[i].resolveName() >= name })
	if i < len(names) && names[i].resolveName() == name {
		return names[i].goType, nil
	}
	for _, d := range names {
		for _, a := range d.aliases {
			if a == name {
				return d.goType, nil
			}
		}
	}
	return Zero, newErr(eTypeNameNotFound, "no type registered under name %q", name)
}

// RequireTypeByName is TypeByName but panics on failure, for use during
// package-level description registration where a forward reference to an
// unregistered name is a programming error, not a recoverable condition.
func RequireTypeByName(name string) Type {
	t, err := TypeByName(name)
	if err != nil {
		panic(err)
	}
	return t
}
