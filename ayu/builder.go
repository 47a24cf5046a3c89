package ayu

import (
	"reflect"
	"sort"

	"github.com/ayu-lang/ayu-go/tree"
)

// Builder assembles a Description for one Go type and registers it,
// mirroring the declarative AYU_DESCRIBE macro block from spec.md §3.5:
// each method call here corresponds to one of that macro's facet lines
// (name(...), attrs(...), elems(...), delegate(...), and so on), checked
// for the same mutual-exclusion rules at Build() time that the original
// enforces via static_assert at compile time (here, necessarily, at
// program-init time instead).
type Builder struct {
	d      Description
	sawDelegate, sawAttrs, sawElems, sawValues, sawPrimitive bool
	// sawFixedAttrs/sawComputedAttrs and their elems counterparts track
	// which *specific* facet among a mutually-exclusive group was called,
	// so validate can catch a DSL author who (illegally, per spec.md §3.5)
	// calls both halves of one group instead of just collapsing them into
	// the single sawAttrs/sawElems bool used for the delegate/attrs/elems
	// cross-group exclusivity check below.
	sawFixedAttrs, sawComputedAttrs                     bool
	sawFixedElems, sawComputedElems, sawContiguousElems bool
	sawName                                             bool
	err                                                 error
}

// Describe begins a Description for the Go type of the representative
// value sample (typically a nil typed pointer, e.g. (*Foo)(nil)).
func Describe(sample any) *Builder {
	rt := reflect.TypeOf(sample)
	if rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return &Builder{d: Description{goType: TypeOfGo(rt)}}
}

func (b *Builder) Name(name string) *Builder {
	b.sawName = true
	b.d.name = name
	return b
}

// ComputedName registers a lazily-resolved, cached name (spec.md §3.5's
// "Name: literal string, or a function returning a string (computed,
// cached on first use)"), for a type whose name depends on other types'
// names (e.g. a generic container named after its resolved element type).
// fn's result is cached after its first successful call (an error falls
// back to the raw Go name and is retried next time); a call to fn that
// re-enters the same type's
// own name resolution (spec.md §4.1's "implementations must detect
// cycles") falls back to the type's raw Go name instead of recursing.
func (b *Builder) ComputedName(fn func() (string, error)) *Builder {
	b.sawName = true
	b.d.computedName = fn
	b.d.nameCache = &nameCache{}
	return b
}

func (b *Builder) Alias(names ...string) *Builder {
	b.d.aliases = append(b.d.aliases, names...)
	return b
}

// Flags sets type-level Description flags (spec.md §3.5), e.g.
// ayu.NoRefsToChildren.
func (b *Builder) Flags(f DescriptorFlags) *Builder {
	b.d.flags |= f
	return b
}

func (b *Builder) DefaultConstruct(fn func(AnyPtr) error) *Builder {
	b.d.defaultConstruct = fn
	return b
}

func (b *Builder) Destroy(fn func(AnyPtr) error) *Builder {
	b.d.destroy = fn
	return b
}

// ToTree registers a direct, unconditional to-tree rendering (spec.md's
// to_tree facet) for primitive-ish types that need no attr/elem traversal
// (e.g. a custom scalar wrapper).
func (b *Builder) ToTree(fn func(AnyPtr) (tree.Tree, error)) *Builder {
	b.sawPrimitive = true
	b.d.toTree = fn
	return b
}

func (b *Builder) FromTree(fn func(AnyPtr, tree.Tree) error) *Builder {
	b.d.fromTree = fn
	return b
}

// Values registers the values() facet: a fixed Tree<->value lookup table,
// used for Go string/int enum types the way the original uses it for C++
// enums.
func (b *Builder) Values(vs ...ValueDescriptor) *Builder {
	b.sawValues = true
	b.d.values = vs
	return b
}

// Delegate registers the delegate() facet: a single accessor this type
// defers its entire to-tree/from-tree/attr/elem behavior to (spec.md's
// "transparent wrapper" case, e.g. a named type around a slice).
func (b *Builder) Delegate(acr *Accessor) *Builder {
	b.sawDelegate = true
	b.d.delegate = acr
	return b
}

// Attrs registers a fixed-name attrs() facet.
func (b *Builder) Attrs(attrs ...AttrDescriptor) *Builder {
	b.sawAttrs = true
	b.sawFixedAttrs = true
	b.d.attrs = attrs
	return b
}

// ComputedAttrs registers the computed_attrs() facet paired with keys(),
// used when attribute names are data-driven (e.g. a Go map[string]V).
func (b *Builder) ComputedAttrs(keys func(AnyPtr) ([]string, error), setKeys func(AnyPtr, []string) error,
	get func(parent AnyPtr, key string) (AnyRef, error)) *Builder {
	b.sawAttrs = true
	b.sawComputedAttrs = true
	b.d.keys = keys
	b.d.setKeys = setKeys
	b.d.computedAttr = get
	return b
}

// Elems registers a fixed-arity elems() facet (e.g. a Go array or a
// fixed-length tuple struct).
func (b *Builder) Elems(elems ...ElemDescriptor) *Builder {
	b.sawElems = true
	b.sawFixedElems = true
	b.d.elems = elems
	return b
}

// ComputedElems registers the length()+computed_elems() facet pair used by
// slices and other variable-length sequences.
func (b *Builder) ComputedElems(length func(AnyPtr) (int, error), setLength func(AnyPtr, int) error,
	get func(parent AnyPtr, index int) (AnyRef, error)) *Builder {
	b.sawElems = true
	b.sawComputedElems = true
	b.d.length = length
	b.d.setLength = setLength
	b.d.computedElem = get
	return b
}

// ContiguousElems registers length()+contiguous_elems(), the fast path for
// Go slices of a fixed element type where the traversal engine can use
// ChainDataFunc instead of per-index computed_elems indirection.
func (b *Builder) ContiguousElems(elemType Type, length func(AnyPtr) (int, error), setLength func(AnyPtr, int) error,
	data func(AnyPtr) (AnyPtr, error)) *Builder {
	b.sawElems = true
	b.sawContiguousElems = true
	b.d.length = length
	b.d.setLength = setLength
	b.d.contiguousElem = data
	b.d.contiguousElemType = elemType
	return b
}

// Swizzle registers a post-construction fixup callback run after every
// sibling in the same from-tree document has had its attrs/elems
// populated (spec.md §4.8's swizzle phase — e.g. resolving a reference by
// name once everything it could point to exists).
func (b *Builder) Swizzle(fn func(AnyPtr, tree.Tree) error) *Builder {
	b.d.swizzle = fn
	return b
}

// Init registers a final init callback run after all swizzles complete
// (spec.md §4.8's init phase), at priority 0. Use InitPriority for a
// callback that must run before or after other types' init callbacks.
func (b *Builder) Init(fn func(AnyPtr) error) *Builder {
	return b.InitPriority(0, fn)
}

// InitPriority registers an init callback at an explicit priority.
// spec.md §4.8: init callbacks run in descending priority order; within
// the same priority, in registration (bottom-up, document) order.
func (b *Builder) InitPriority(priority int, fn func(AnyPtr) error) *Builder {
	b.d.init = fn
	b.d.initPriority = priority
	return b
}

// Build finalizes, validates, and registers the description, returning its
// Type handle.
func (b *Builder) Build() Type {
	if err := b.validate(); err != nil {
		panic(err)
	}
	// attrs stays in declared order (spec.md §5: "object attributes
	// serialize in declared order"); attrsByKey is a separate sorted index
	// built here so MaybeAttr can binary-search by name without disturbing
	// that order.
	b.d.attrsByKey = make([]int, len(b.d.attrs))
	for i := range b.d.attrsByKey {
		b.d.attrsByKey[i] = i
	}
	sort.Slice(b.d.attrsByKey, func(i, j int) bool {
		return b.d.attrs[b.d.attrsByKey[i]].Key < b.d.attrs[b.d.attrsByKey[j]].Key
	})
	d := b.d
	register(&d)
	return d.goType
}

// validate enforces spec.md §3.5's facet-exclusivity rules: delegate is
// exclusive with attrs/elems/values/a direct to_tree, since a delegating
// type's entire shape comes from the thing it delegates to.
func (b *Builder) validate() error {
	if b.sawDelegate && (b.sawAttrs || b.sawElems || b.sawValues || b.sawPrimitive) {
		return newErr(eGeneral, "type %s: delegate() is exclusive with attrs/elems/values/to_tree", b.d.goType.Name())
	}
	if b.sawAttrs && b.sawElems {
		return newErr(eGeneral, "type %s: attrs() and elems() are mutually exclusive facets", b.d.goType.Name())
	}
	// spec.md §3.5: "Exactly one of attrs, (keys+computed_attrs) may be
	// present" — calling both Attrs() and ComputedAttrs() on one
	// descriptor leaves two rendering facets active at once, which
	// to_tree/from_tree's fixed priority order would then silently
	// resolve in favor of whichever one happens to be checked first.
	if b.sawFixedAttrs && b.sawComputedAttrs {
		return newErr(eGeneral, "type %s: Attrs() and ComputedAttrs() are mutually exclusive facets", b.d.goType.Name())
	}
	// spec.md §3.5: "Exactly one of elems, (length+computed_elems),
	// (length+contiguous_elems) may be present."
	elemFacets := 0
	for _, saw := range []bool{b.sawFixedElems, b.sawComputedElems, b.sawContiguousElems} {
		if saw {
			elemFacets++
		}
	}
	if elemFacets > 1 {
		return newErr(eGeneral, "type %s: Elems()/ComputedElems()/ContiguousElems() are mutually exclusive facets", b.d.goType.Name())
	}
	for _, flag := range []AttrFlags{Optional, Invisible, Ignored} {
		if !trailingSuffix(b.d.elems, flag) {
			return newErr(eGeneral, "type %s: elems() flag must occupy a contiguous trailing suffix", b.d.goType.Name())
		}
	}
	// spec.md §3.5: "A descriptor must specify either a Name or a
	// ComputedName." Without this check, resolveName's Go-type-string
	// fallback (description.go) would silently paper over a descriptor
	// that never named itself at all.
	if !b.sawName {
		return newErr(eGeneral, "type %s: must declare either Name() or ComputedName()", b.d.goType.rt.String())
	}
	return nil
}

// trailingSuffix reports whether every ElemDescriptor carrying flag forms a
// contiguous run at the end of elems, per spec.md §3.5's legality rule
// ("Elem flags Optional, Invisible, Ignored must each occupy a contiguous
// trailing suffix").
func trailingSuffix(elems []ElemDescriptor, flag AttrFlags) bool {
	seenFlagged := false
	for _, e := range elems {
		if e.Flags.Has(flag) {
			seenFlagged = true
		} else if seenFlagged {
			return false
		}
	}
	return true
}
