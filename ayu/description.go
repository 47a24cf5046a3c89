package ayu

import (
	"sync"

	"github.com/ayu-lang/ayu-go/tree"
)

// Description is the frozen, compile-time-declared table of facets for one
// Go type (spec.md §3.5): how to default-construct/destroy it, how to
// render it to/from a Tree, and how its children (attrs/elems/delegate)
// are reached. It plays the role the C++ original gives a byte-packed,
// variable-length struct computed by a constexpr macro; here it is simply
// built by Builder and stored in the Registry, since Go has no equivalent
// of constexpr struct layout and gains nothing by faking one.
// DescriptorFlags are type-level flags on a Description (spec.md §3.5).
type DescriptorFlags uint8

const (
	// NoRefsToChildren tells pointer scans (spec.md §4.11's
	// scan_pointers/ScanPointers) to stop descent at this node: none of its
	// children can themselves be addressed by a route a caller should
	// depend on. Reference scans (ScanReferences) ignore this flag and
	// always descend.
	NoRefsToChildren DescriptorFlags = 1 << iota
)

type Description struct {
	name    string
	goType  Type
	aliases []string
	flags   DescriptorFlags

	// computedName backs the ComputedName facet (spec.md §3.5): resolved
	// and cached at most once, the same "lazy name caching" spec.md §4.1
	// describes for computed-name types. The cache lives behind a pointer
	// (rather than a plain sync.Mutex field) because Builder.Build copies
	// its Description by value before registering it; a pointer field
	// copies cleanly where an embedded mutex would not.
	computedName func() (string, error)
	nameCache    *nameCache

	// Lifecycle facet.
	defaultConstruct func(AnyPtr) error
	destroy          func(AnyPtr) error

	// Rendering facets. to_tree/from_tree try them in a fixed order per
	// value (toTree/fromTree, then values, then delegate, then attrs, then
	// elems) rather than rejecting combinations at construction time, so a
	// type may offer both a values table and an attrs or elems facet and let
	// the runtime value decide (spec.md §3.5's "facets are tried in a fixed
	// priority order").
	toTree   func(AnyPtr) (tree.Tree, error)
	fromTree func(AnyPtr, tree.Tree) error

	values []ValueDescriptor

	delegate *Accessor

	attrs []AttrDescriptor
	// attrsByKey maps into attrs, sorted by Key, built once at Build() time.
	// attrs itself stays in declared order so GetKeys/to_tree preserve
	// spec.md §5's "object attributes serialize in declared order"
	// guarantee; this side table is what MaybeAttr binary-searches.
	attrsByKey   []int
	computedAttr func(parent AnyPtr, key string) (AnyRef, error)

	elems         []ElemDescriptor
	length        func(AnyPtr) (int, error)
	setLength     func(AnyPtr, int) error
	computedElem  func(parent AnyPtr, index int) (AnyRef, error)
	contiguousElem func(parent AnyPtr) (AnyPtr, error)
	contiguousElemType Type

	keys    func(AnyPtr) ([]string, error)
	setKeys func(AnyPtr, []string) error

	swizzle      func(AnyPtr, tree.Tree) error
	init         func(AnyPtr) error
	initPriority int
}

// nameCache holds a ComputedName description's lazily-resolved name plus
// the in-progress flag resolveName uses to detect self-recursive
// resolution (spec.md §4.1: "Implementations must detect cycles").
type nameCache struct {
	mu        sync.Mutex
	cached    string
	resolved  bool
	resolving bool
}

// ValueDescriptor is one entry of a values() facet (spec.md's enum-like
// Tree<->value table, e.g. for Go string-backed enum constants).
type ValueDescriptor struct {
	Name     string
	Tree     tree.Tree
	Accessor *Accessor // Constant or ConstantPtr accessor onto the Go value
}

// AttrDescriptor is one named child in an attrs() facet.
type AttrDescriptor struct {
	Key      string
	Accessor *Accessor
	Flags    AttrFlags
	// Default is the attr's declared default value, used by the
	// HasDefault flag (spec.md §3.5: "default value stored immediately
	// before the attr record"). Required when Flags.Has(HasDefault) is
	// set; to_tree drops the attr when its current value equals this.
	Default *tree.Tree
}

// ElemDescriptor is one positional child in a fixed-arity elems() facet.
type ElemDescriptor struct {
	Accessor *Accessor
	Flags    AttrFlags
}

// resolveName returns the description's registered name: a literal Name()
// if one was given, else a ComputedName() resolved and cached on first
// call, else the first alias, else its raw Go type string as a last-resort
// fallback — Name() on Type delegates here.
func (d *Description) resolveName() string {
	if d.name != "" {
		return d.name
	}
	if d.computedName != nil {
		c := d.nameCache
		c.mu.Lock()
		if c.resolved {
			c.mu.Unlock()
			return c.cached
		}
		if c.resolving {
			// A computed_name whose resolution recurses back into itself
			// (directly or through a peer type's own computed_name) falls
			// back to the raw Go name here rather than recursing forever.
			c.mu.Unlock()
			return d.goType.rt.String()
		}
		c.resolving = true
		c.mu.Unlock()
		name, err := d.computedName()
		c.mu.Lock()
		defer c.mu.Unlock()
		c.resolving = false
		if err != nil {
			return d.goType.rt.String()
		}
		c.cached = name
		c.resolved = true
		return name
	}
	if len(d.aliases) > 0 {
		return d.aliases[0]
	}
	return d.goType.rt.String()
}
