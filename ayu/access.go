package ayu

import "reflect"

// Mode is the access-protocol tag from spec.md §3.4. The numeric values are
// carried over unchanged from the C++ original's "weird values we selected
// to optimize this common operation" (access.h): Modify is 0 so that
// writeToModify (outer widening in Chain) is a single bitwise AND-NOT.
type Mode uint8

const (
	ModeRead   Mode = 0x1
	ModeWrite  Mode = 0x2
	ModeModify Mode = 0x0
)

// writeToModify widens a write request to a modify request, exactly as
// access.h's write_to_modify does, so that a Chain's outer accessor always
// observes a full read-modify-write even when the caller only wants to
// write the innermost child (preserving sibling fields).
func writeToModify(mode Mode) Mode {
	return Mode(uint8(mode) &^ uint8(ModeWrite))
}

// Caps are the capability bits an accessor carries (spec.md §3.4):
// Read/Write grant the corresponding Access modes, Address grants
// AnyPtr-producing addressability, and AddressChildren additionally lets an
// otherwise-unaddressable accessor's *children* be addressable (used by
// Chain composition).
type Caps uint8

const (
	CapRead Caps = 1 << iota
	CapWrite
	CapAddress
	CapAddressChildren
)

func (c Caps) Has(bit Caps) bool { return c&bit != 0 }

// intersect implements spec.md §4.2's Chain capability rule: "the
// intersection of the two components' caps except that AddressChildren on
// an outer permits children to be addressable even if the outer itself is
// not."
func intersectCaps(outer, inner Caps) Caps {
	c := outer & inner
	if outer.Has(CapAddressChildren) && inner.Has(CapAddress) {
		c |= CapAddress
	}
	return c
}

// AttrFlags are per-attr/per-elem flags (spec.md §3.5).
type AttrFlags uint16

const (
	Optional AttrFlags = 1 << iota
	Include
	Castable
	Invisible
	Ignored
	HasDefault
	CollapseOptional
)

func (f AttrFlags) Has(bit AttrFlags) bool { return f&bit != 0 }

// AccessForm is the closed enum of accessor kinds from spec.md §3.4's
// table. It exists purely for introspection/diagnostics (Equal, debug
// printing); dispatch itself goes through the accessFunc field below
// rather than a switch on Form, matching spec.md §4.2's "dispatch is via an
// indexed function table (not virtual methods) — form → access function":
// here each Accessor instance carries its own table entry directly instead
// of indexing into a single global table, since Go has no sum-of-closures
// global jump table idiom as lightweight as storing the closure per value.
type AccessForm uint8

const (
	FormIdentity AccessForm = iota
	FormReinterpret
	FormMember
	FormRefFunc
	FormConstRefFunc
	FormRefFuncs
	FormValueFunc
	FormValueFuncs
	FormMixedFuncs
	FormAssignable
	FormVariable
	FormConstant
	FormConstantPtr
	FormAnyRefFunc
	FormAnyPtrFunc
	FormChain
	FormChainAttrFunc
	FormChainElemFunc
	FormChainDataFunc
)

// AccessFunc is the callback passed to Accessor.Access: it receives an
// AnyPtr to the (possibly temporary) child value. Returning an error aborts
// the access and propagates through Access; this plays the role of a C++
// exception escaping the callback.
type AccessFunc func(child AnyPtr) error

// accessImpl is the per-instance access routine: given the access mode, the
// parent value, and the user's callback, it must materialize (or
// synthesize) a child AnyPtr, invoke fn on it, and commit back any write
// the callback performed, per the three-mode contract in spec.md §3.4.
type accessImpl func(mode Mode, from AnyPtr, fn AccessFunc) error

// Accessor is the immutable projection object of spec.md §3.4. Because Go
// has no constexpr/static-storage-duration objects with a meaningful
// "ref_count = 0 means never freed" trick, every Accessor here is simply a
// heap value with no reference counting at all: Go's own garbage collector
// already plays the role the C++ original's intrusive refcount + slab
// allocator played (spec.md §9's design notes call the slab allocator
// replaceable by "any small-object pool"; Go's GC is exactly such a pool,
// and simpler).
type Accessor struct {
	Form  AccessForm
	Caps  Caps
	TreeFlags  TreeRenderFlags
	AttrFlags  AttrFlags // per-attr/per-elem flags specific to one parent's use of this accessor

	access accessImpl

	// staticChildType is the Go type this accessor projects to; known at
	// construction time for every concrete form (it's the DSL author's
	// field type, getter return type, etc.).
	staticChildType Type

	// Chain-only: components, kept for structural Equal/Hash (spec.md
	// §4.2) and for to_reference's lazy wrap-in-Chain construction.
	outer, inner *Accessor
	// ChainAttrFunc/ChainElemFunc/ChainDataFunc-only payload.
	chainKey   string
	chainIndex int
}

// TreeRenderFlags mirrors tree.Flags but is redeclared here instead of
// importing the tree package from access.go, to keep the accessor algebra
// ignorant of the Tree model; to_tree.go's toTreeObject/toTreeArray OR these
// onto the produced tree.Tree's Flags directly (they share the same bit
// layout by construction, checked by the constants below matching
// tree.PreferHex/PreferCompact/PreferExpanded one-for-one).
type TreeRenderFlags uint16

const (
	PreferHex      TreeRenderFlags = 1 << 0
	PreferCompact  TreeRenderFlags = 1 << 1
	PreferExpanded TreeRenderFlags = 1 << 2
)

// WithTreeFlags sets a's rendering hints, chainable at the construction
// site (e.g. NewMember(t, idx).WithTreeFlags(PreferHex)), and returns a.
// spec.md §4.6: "Rendering hints (tree_flags) from the accessor are ORed
// onto the produced child tree."
func (a *Accessor) WithTreeFlags(f TreeRenderFlags) *Accessor {
	a.TreeFlags |= f
	return a
}

// Access runs the access protocol described in spec.md §3.4's table and
// §4.2's "Access protocol" paragraph.
func (a *Accessor) Access(mode Mode, from AnyPtr, fn AccessFunc) error {
	return a.access(mode, from, fn)
}

// Address attempts to obtain a genuine AnyPtr to the child without running
// a full access cycle's write-back, per spec.md §4.2: "acr.address(from) ->
// Option<AnyPtr> returns the address via a Read-mode access whose callback
// records the pointer and type; returns None if the accessor lacks the
// Address capability."
func (a *Accessor) Address(from AnyPtr) (AnyPtr, bool) {
	if !a.Caps.Has(CapAddress) {
		return AnyPtr{}, false
	}
	var out AnyPtr
	err := a.access(ModeRead, from, func(child AnyPtr) error {
		out = child
		return nil
	})
	if err != nil {
		return AnyPtr{}, false
	}
	return out, true
}

// Equal implements spec.md §4.2's equality rule: structural equality for
// Chain accessors, pointer identity otherwise (non-chain accessors are
// constructed once per declaration site, the Go analogue of the C++
// original's "statically interned by the description macro").
func Equal(a, b *Accessor) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Form != FormChain || b.Form != FormChain {
		return false
	}
	return Equal(a.outer, b.outer) && Equal(a.inner, b.inner)
}

///// FORM CONSTRUCTORS

// NewIdentity returns the accessor that projects a value to itself.
// Chain(Identity, a) == a == Chain(a, Identity) behaviorally (spec.md §8's
// accessor idempotence law); Chain special-cases Identity so the
// constructed chain is literally the other operand rather than a
// two-level wrapper.
func NewIdentity(t Type) *Accessor {
	return &Accessor{
		Form:            FormIdentity,
		Caps:            CapRead | CapWrite | CapAddress | CapAddressChildren,
		staticChildType: t,
		access: func(mode Mode, from AnyPtr, fn AccessFunc) error {
			return fn(from)
		},
	}
}

// NewReinterpret returns an accessor viewing the same address as a
// different Go type, via unsafe reinterpretation of the addressable
// reflect.Value. Only legal between types of identical size (panics
// otherwise are avoided by returning an error instead, since this port
// treats "attempted but invalid reinterpret" as a recoverable condition the
// C++ original would have caught at compile time via static_assert).
func NewReinterpret(t Type, from Type) *Accessor {
	return &Accessor{
		Form:            FormReinterpret,
		Caps:            CapRead | CapWrite | CapAddress | CapAddressChildren,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			if parent.Type.Size() != t.Size() {
				return newErr(eTypeCantCast, "Reinterpret: size mismatch %s(%d) -> %s(%d)",
					parent.Type.Name(), parent.Type.Size(), t.Name(), t.Size())
			}
			rv := reflect.NewAt(t.rt, unsafePointerOf(parent.value)).Elem()
			return fn(AnyPtr{Type: t, value: rv, ReadOnly: parent.ReadOnly})
		},
	}
}

// NewMember returns an accessor projecting to a struct field reached by a
// sequence of FieldByIndex-style offsets (spec.md's Member form).
func NewMember(t Type, index []int) *Accessor {
	return &Accessor{
		Form:            FormMember,
		Caps:            CapRead | CapWrite | CapAddress | CapAddressChildren,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			fv := parent.value.FieldByIndex(index)
			return fn(AnyPtr{Type: t, value: fv, ReadOnly: parent.ReadOnly})
		},
	}
}

// NewRefFunc returns the "&T returned by a user function" form. The
// function is given the live parent value and must return an addressable
// reflect.Value of type t.
func NewRefFunc(t Type, get func(parent AnyPtr) (reflect.Value, error)) *Accessor {
	return &Accessor{
		Form:            FormRefFunc,
		Caps:            CapRead | CapWrite | CapAddress,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			rv, err := get(parent)
			if err != nil {
				return err
			}
			return fn(AnyPtr{Type: t, value: rv})
		},
	}
}

// NewConstRefFunc is RefFunc's readonly counterpart.
func NewConstRefFunc(t Type, get func(parent AnyPtr) (reflect.Value, error)) *Accessor {
	return &Accessor{
		Form:            FormConstRefFunc,
		Caps:            CapRead | CapAddress,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			if mode == ModeWrite || mode == ModeModify {
				return newErr(eWriteReadonly, "ConstRefFunc is readonly")
			}
			rv, err := get(parent)
			if err != nil {
				return err
			}
			return fn(AnyPtr{Type: t, value: rv, ReadOnly: true})
		},
	}
}

// NewRefFuncs is the getter+setter pair form, neither of which hands back
// an address that outlives the callback (so Caps has no CapAddress).
func NewRefFuncs(t Type, get func(parent AnyPtr) (reflect.Value, error),
	set func(parent AnyPtr, val reflect.Value) error) *Accessor {
	return &Accessor{
		Form:            FormRefFuncs,
		Caps:            CapRead | CapWrite,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			return getSetAccess(t, mode, parent, get, set, fn)
		},
	}
}

// NewValueFunc is the by-value getter-only form.
func NewValueFunc(t Type, get func(parent AnyPtr) (reflect.Value, error)) *Accessor {
	return &Accessor{
		Form:            FormValueFunc,
		Caps:            CapRead,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			if mode != ModeRead {
				return newErr(eWriteReadonly, "ValueFunc is readonly")
			}
			rv, err := get(parent)
			if err != nil {
				return err
			}
			tmp := newTemp(t, rv)
			return fn(AnyPtr{Type: t, value: tmp, ReadOnly: true})
		},
	}
}

// NewValueFuncs is the by-value getter + by-value setter form.
func NewValueFuncs(t Type, get func(parent AnyPtr) (reflect.Value, error),
	set func(parent AnyPtr, val reflect.Value) error) *Accessor {
	return &Accessor{
		Form:            FormValueFuncs,
		Caps:            CapRead | CapWrite,
		staticChildType: t,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			return getSetAccess(t, mode, parent, get, set, fn)
		},
	}
}

// NewMixedFuncs is the by-value getter + by-const-ref setter form; in Go
// terms getter and setter both operate on values (reflect.Value is already
// a handle, not a reference), so it behaves identically to ValueFuncs here.
func NewMixedFuncs(t Type, get func(parent AnyPtr) (reflect.Value, error),
	set func(parent AnyPtr, val reflect.Value) error) *Accessor {
	a := NewValueFuncs(t, get, set)
	a.Form = FormMixedFuncs
	return a
}

func getSetAccess(t Type, mode Mode, parent AnyPtr,
	get func(parent AnyPtr) (reflect.Value, error),
	set func(parent AnyPtr, val reflect.Value) error,
	fn AccessFunc) error {
	var rv reflect.Value
	if mode == ModeRead || mode == ModeModify {
		v, err := get(parent)
		if err != nil {
			return err
		}
		rv = newTemp(t, v)
	} else {
		rv = reflect.New(t.rt).Elem()
	}
	child := AnyPtr{Type: t, value: rv}
	if err := fn(child); err != nil {
		return err
	}
	if mode == ModeWrite || mode == ModeModify {
		return set(parent, rv)
	}
	return nil
}

// NewAssignable is the "child = parent via assignment in both directions"
// form, used when a value type supports plain Go assignment (`=`) as both
// its read and write path but offers no addressable storage of its own.
func NewAssignable(t Type, get func(parent AnyPtr) (reflect.Value, error),
	set func(parent AnyPtr, val reflect.Value) error) *Accessor {
	a := NewValueFuncs(t, get, set)
	a.Form = FormAssignable
	return a
}

// NewVariable returns an accessor over an inline value moved into the
// accessor itself at construction time (spec.md's Variable form);
// typically used to give a from-tree call a detached scratch child.
func NewVariable(t Type, initial reflect.Value) *Accessor {
	holder := newTemp(t, initial)
	return &Accessor{
		Form:            FormVariable,
		Caps:            CapRead | CapWrite,
		staticChildType: t,
		access: func(mode Mode, _ AnyPtr, fn AccessFunc) error {
			return fn(AnyPtr{Type: t, value: holder})
		},
	}
}

// NewConstant returns an accessor over a fixed, readonly inline value.
func NewConstant(t Type, value reflect.Value) *Accessor {
	holder := newTemp(t, value)
	return &Accessor{
		Form:            FormConstant,
		Caps:            CapRead,
		staticChildType: t,
		access: func(mode Mode, _ AnyPtr, fn AccessFunc) error {
			if mode != ModeRead {
				return newErr(eWriteReadonly, "Constant is readonly")
			}
			return fn(AnyPtr{Type: t, value: holder, ReadOnly: true})
		},
	}
}

// NewConstantPtr returns an accessor pointing at an externally-owned
// readonly value (e.g. a package-level table).
func NewConstantPtr(t Type, rv reflect.Value) *Accessor {
	return &Accessor{
		Form:            FormConstantPtr,
		Caps:            CapRead | CapAddress,
		staticChildType: t,
		access: func(mode Mode, _ AnyPtr, fn AccessFunc) error {
			if mode != ModeRead {
				return newErr(eWriteReadonly, "ConstantPtr is readonly")
			}
			return fn(AnyPtr{Type: t, value: rv, ReadOnly: true})
		},
	}
}

// NewAnyRefFunc wraps a function returning a fully-formed AnyRef for the
// child; the accessor forwards to whatever access semantics that AnyRef
// itself has.
func NewAnyRefFunc(get func(parent AnyPtr) (AnyRef, error)) *Accessor {
	return &Accessor{
		Form: FormAnyRefFunc,
		Caps: CapRead | CapWrite,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			ref, err := get(parent)
			if err != nil {
				return err
			}
			return ref.access(mode, fn)
		},
	}
}

// NewAnyPtrFunc wraps a function returning an addressable AnyPtr for the
// child.
func NewAnyPtrFunc(get func(parent AnyPtr) (AnyPtr, error)) *Accessor {
	return &Accessor{
		Form: FormAnyPtrFunc,
		Caps: CapRead | CapWrite | CapAddress,
		access: func(mode Mode, parent AnyPtr, fn AccessFunc) error {
			p, err := get(parent)
			if err != nil {
				return err
			}
			return fn(p)
		},
	}
}

// Chain composes outer ∘ inner (spec.md §3.4/§4.2): accessing the chain
// means accessing outer (widened to Modify for any write, so sibling data
// in the outer's value survives), and from inside that callback, accessing
// inner in the caller's actual mode.
func Chain(outer, inner *Accessor) *Accessor {
	if outer.Form == FormIdentity {
		return inner
	}
	if inner.Form == FormIdentity {
		return outer
	}
	caps := intersectCaps(outer.Caps, inner.Caps)
	return &Accessor{
		Form:            FormChain,
		Caps:            caps,
		staticChildType: inner.staticChildType,
		outer:           outer,
		inner:           inner,
		access: func(mode Mode, from AnyPtr, fn AccessFunc) error {
			outerMode := mode
			if mode == ModeWrite {
				outerMode = writeToModify(mode)
			}
			return outer.access(outerMode, from, func(mid AnyPtr) error {
				return inner.access(mode, mid, fn)
			})
		},
	}
}

// ChainAttrFunc composes an outer accessor with a computed_attrs function
// keyed by name (spec.md's ChainAttrFunc form), as produced when the
// traversal engine needs to lazily materialize a reference through a
// keys+computed_attrs descriptor.
func ChainAttrFunc(outer *Accessor, key string, attrFunc func(parent AnyPtr, key string) (AnyRef, error)) *Accessor {
	return &Accessor{
		Form:       FormChainAttrFunc,
		Caps:       outer.Caps & (CapRead | CapWrite),
		chainKey:   key,
		outer:      outer,
		access: func(mode Mode, from AnyPtr, fn AccessFunc) error {
			outerMode := mode
			if mode == ModeWrite {
				outerMode = writeToModify(mode)
			}
			return outer.access(outerMode, from, func(mid AnyPtr) error {
				ref, err := attrFunc(mid, key)
				if err != nil {
					return err
				}
				return ref.access(mode, fn)
			})
		},
	}
}

// ChainElemFunc is ChainAttrFunc's positional analogue, for
// length+computed_elems descriptors.
func ChainElemFunc(outer *Accessor, index int, elemFunc func(parent AnyPtr, index int) (AnyRef, error)) *Accessor {
	return &Accessor{
		Form:       FormChainElemFunc,
		Caps:       outer.Caps & (CapRead | CapWrite),
		chainIndex: index,
		outer:      outer,
		access: func(mode Mode, from AnyPtr, fn AccessFunc) error {
			outerMode := mode
			if mode == ModeWrite {
				outerMode = writeToModify(mode)
			}
			return outer.access(outerMode, from, func(mid AnyPtr) error {
				ref, err := elemFunc(mid, index)
				if err != nil {
					return err
				}
				return ref.access(mode, fn)
			})
		},
	}
}

// ChainDataFunc composes an outer accessor with contiguous_elems(result) +
// index*sizeof (spec.md's ChainDataFunc form), for length+contiguous_elems
// descriptors.
func ChainDataFunc(outer *Accessor, t Type, index int, dataFunc func(parent AnyPtr) (AnyPtr, error)) *Accessor {
	return &Accessor{
		Form:            FormChainDataFunc,
		Caps:            (outer.Caps & (CapRead | CapWrite)) | CapAddress,
		chainIndex:      index,
		staticChildType: t,
		outer:           outer,
		access: func(mode Mode, from AnyPtr, fn AccessFunc) error {
			outerMode := mode
			if mode == ModeWrite {
				outerMode = writeToModify(mode)
			}
			return outer.access(outerMode, from, func(mid AnyPtr) error {
				base, err := dataFunc(mid)
				if err != nil {
					return err
				}
				elem := base.value.Index(index)
				return fn(AnyPtr{Type: t, value: elem, ReadOnly: base.ReadOnly})
			})
		},
	}
}

// newTemp returns an addressable reflect.Value of type t holding v's
// contents: a fresh copy the caller may mutate freely during a single
// callback without affecting the source. This is what backs the "temporary
// whose storage is valid only during the callback" language throughout
// spec.md §3.4 for getter/setter-backed accessors.
func newTemp(t Type, v reflect.Value) reflect.Value {
	nv := reflect.New(t.rt).Elem()
	if v.IsValid() {
		nv.Set(v)
	}
	return nv
}
