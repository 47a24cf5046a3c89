package ayu

import (
	"sort"

	"github.com/ayu-lang/ayu-go/ayuerr"
)

// This file implements spec.md §4.9's compound operations: the
// attr/elem/keys/length accessors that the traversal engine and
// route/scan packages use to walk a value's children without knowing
// whether its Description uses the fixed-attrs, computed-attrs,
// fixed-elems, computed-elems, or contiguous-elems facet.

// GetKeys returns the attribute names of r's value, per spec.md's
// ItemGetKeys. Works for both fixed attrs() (names are static) and
// computed_attrs() (names come from the keys() callback).
func GetKeys(r AnyRef) ([]string, error) {
	d, p, err := resolveDescription(r)
	if err != nil {
		return nil, err
	}
	if d.keys != nil {
		return d.keys(p)
	}
	if d.attrs != nil {
		names := make([]string, 0, len(d.attrs))
		for _, a := range d.attrs {
			if a.Flags.Has(Invisible) {
				continue
			}
			names = append(names, a.Key)
		}
		return names, nil
	}
	return nil, newErr(eAttrsNotSupported, "type %s has no attrs facet", r.Type().Name())
}

// SetKeys rewrites a computed-attrs value's key set, per spec.md's
// ItemSetKeys — used by from-tree when an object's keys don't already
// match what's present (e.g. populating a fresh Go map).
func SetKeys(r AnyRef, keys []string) error {
	d, p, err := resolveDescription(r)
	if err != nil {
		return err
	}
	if d.setKeys == nil {
		return newErr(eKeysTypeInvalid, "type %s has no settable keys facet", r.Type().Name())
	}
	return d.setKeys(p, keys)
}

// Attr resolves the child reference for a named attribute, per spec.md's
// ItemAttr. Returns ayuerr.AttrNotFound if no such attribute exists.
func Attr(r AnyRef, key string) (AnyRef, error) {
	ref, ok, err := MaybeAttr(r, key)
	if err != nil {
		return AnyRef{}, err
	}
	if !ok {
		return AnyRef{}, newErr(eAttrNotFound, "no attribute %q on type %s", key, r.Type().Name())
	}
	return ref, nil
}

// MaybeAttr is Attr but reports missing-ness via ok instead of an error,
// per spec.md's ItemMaybeAttr.
func MaybeAttr(r AnyRef, key string) (AnyRef, bool, error) {
	if dd := lookupDescriptionByGoType(r.Type().rt); dd != nil && dd.delegate != nil {
		return MaybeAttr(r.Child(dd.delegate), key)
	}
	d, p, err := resolveDescription(r)
	if err != nil {
		return AnyRef{}, false, err
	}
	if d.attrs != nil {
		i := sort.Search(len(d.attrsByKey), func(i int) bool { return d.attrs[d.attrsByKey[i]].Key >= key })
		if i < len(d.attrsByKey) && d.attrs[d.attrsByKey[i]].Key == key {
			return r.Child(d.attrs[d.attrsByKey[i]].Accessor), true, nil
		}
		return AnyRef{}, false, nil
	}
	if d.computedAttr != nil {
		child, err := d.computedAttr(p, key)
		if err != nil {
			if ayuerr.Is(err, eAttrNotFound) {
				return AnyRef{}, false, nil
			}
			return AnyRef{}, false, err
		}
		return child, true, nil
	}
	return AnyRef{}, false, newErr(eAttrsNotSupported, "type %s has no attrs facet", r.Type().Name())
}

// GetLength returns the element count of r's value, per spec.md's
// ItemGetLength. Works for fixed elems() (the static arity, len(elems)),
// and for computed_elems() and contiguous_elems() (which register a length
// callback in Description).
func GetLength(r AnyRef) (int, error) {
	d, p, err := resolveDescription(r)
	if err != nil {
		return 0, err
	}
	if d.length != nil {
		return d.length(p)
	}
	if d.elems != nil {
		return len(d.elems), nil
	}
	return 0, newErr(eElemsNotSupported, "type %s has no elems facet", r.Type().Name())
}

// maxArrayLength is spec.md §4.9's 0x7fff_ffff bound: item_set_length must
// reject anything larger without mutating the target (spec.md §8's "Length
// bounds" law).
const maxArrayLength = 0x7fffffff

// SetLength resizes r's value to n elements, per spec.md's ItemSetLength.
func SetLength(r AnyRef, n int) error {
	if n > maxArrayLength || n < 0 {
		return newErr(eLengthOverflow, "length %d exceeds maximum array size %d", n, maxArrayLength)
	}
	d, p, err := resolveDescription(r)
	if err != nil {
		return err
	}
	if d.setLength == nil {
		return newErr(eLengthRejected, "type %s has no settable length facet", r.Type().Name())
	}
	return d.setLength(p, n)
}

// Elem resolves the child reference at a positional index, per spec.md's
// ItemElem.
func Elem(r AnyRef, index int) (AnyRef, error) {
	ref, ok, err := MaybeElem(r, index)
	if err != nil {
		return AnyRef{}, err
	}
	if !ok {
		return AnyRef{}, newErr(eElemNotFound, "no element %d on type %s", index, r.Type().Name())
	}
	return ref, nil
}

// MaybeElem is Elem but reports out-of-range via ok, per spec.md's
// ItemMaybeElem.
func MaybeElem(r AnyRef, index int) (AnyRef, bool, error) {
	if dd := lookupDescriptionByGoType(r.Type().rt); dd != nil && dd.delegate != nil {
		return MaybeElem(r.Child(dd.delegate), index)
	}
	d, p, err := resolveDescription(r)
	if err != nil {
		return AnyRef{}, false, err
	}
	if d.elems != nil {
		if index < 0 || index >= len(d.elems) {
			return AnyRef{}, false, nil
		}
		return r.Child(d.elems[index].Accessor), true, nil
	}
	if d.contiguousElem != nil {
		n, err := d.length(p)
		if err != nil {
			return AnyRef{}, false, err
		}
		if index < 0 || index >= n {
			return AnyRef{}, false, nil
		}
		acr := ChainDataFunc(identityFor(r), d.contiguousElemType, index, d.contiguousElem)
		return AnyRef{Host: r.Host, Accessor: acr}, true, nil
	}
	if d.computedElem != nil {
		n, err := d.length(p)
		if err != nil {
			return AnyRef{}, false, err
		}
		if index < 0 || index >= n {
			return AnyRef{}, false, nil
		}
		child, err := d.computedElem(p, index)
		if err != nil {
			return AnyRef{}, false, err
		}
		return child, true, nil
	}
	return AnyRef{}, false, newErr(eElemsNotSupported, "type %s has no elems facet", r.Type().Name())
}

func resolveDescription(r AnyRef) (*Description, AnyPtr, error) {
	d := lookupDescriptionByGoType(r.Type().rt)
	if d == nil {
		return nil, AnyPtr{}, newErr(eGeneral, "type %s has no registered description", r.Type().Name())
	}
	if d.delegate != nil {
		inner := r.Child(d.delegate)
		return resolveDescription(inner)
	}
	var p AnyPtr
	err := r.access(ModeModify, func(child AnyPtr) error {
		p = child
		return nil
	})
	return d, p, err
}

// identityFor returns an accessor that projects r's current value to
// itself, used as the outer half of a ChainDataFunc built on the fly for
// contiguous_elems: r's own accessor when it has one, else an Identity
// accessor on the host's type.
func identityFor(r AnyRef) *Accessor {
	if r.Accessor != nil {
		return r.Accessor
	}
	return NewIdentity(r.Host.Type)
}

