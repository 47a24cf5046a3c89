package ayu

import (
	"sort"

	"github.com/ayu-lang/ayu-go/ayuerr"
	"github.com/ayu-lang/ayu-go/tree"
)

// fromTreeValue is the recursive worker behind FromTree (traversal.go),
// implementing spec.md §4.7's per-facet dispatch and §4.8's claim-list
// algorithm for attrs().
func fromTreeValue(ctx *traversalCtx, r AnyRef, t tree.Tree) error {
	d := lookupDescriptionByGoType(r.Type().rt)
	if d == nil {
		return newErr(eFromTreeNotSupported, "type %s has no registered description", r.Type().Name())
	}

	if err := applyFromTreeFacets(ctx, r, d, t); err != nil {
		return err
	}

	if d.swizzle != nil {
		tcopy := t
		rcopy := r
		ctx.enqueueSwizzle(func() error {
			var p AnyPtr
			err := rcopy.access(ModeModify, func(child AnyPtr) error { p = child; return nil })
			if err != nil {
				return err
			}
			return d.swizzle(p, tcopy)
		})
	}
	if d.init != nil {
		rcopy := r
		ctx.enqueueInit(d.initPriority, func() error {
			var p AnyPtr
			err := rcopy.access(ModeModify, func(child AnyPtr) error { p = child; return nil })
			if err != nil {
				return err
			}
			return d.init(p)
		})
	}
	return nil
}

func applyFromTreeFacets(ctx *traversalCtx, r AnyRef, d *Description, t tree.Tree) error {
	if d.fromTree != nil {
		var err error
		accessErr := r.access(ModeModify, func(child AnyPtr) error {
			err = d.fromTree(child, t)
			return err
		})
		if accessErr != nil {
			return accessErr
		}
		return err
	}

	if d.values != nil {
		if acr, ok := matchValuesTableReverse(d, t); ok {
			return r.access(ModeWrite, func(child AnyPtr) error {
				var val AnyPtr
				err := acr.Access(ModeRead, AnyPtr{}, func(v AnyPtr) error {
					val = v
					return nil
				})
				if err != nil {
					return err
				}
				return child.Set(val.value)
			})
		}
	}

	if d.delegate != nil {
		return fromTreeValue(ctx, r.Child(d.delegate), t)
	}

	switch t.FormOf() {
	case tree.Object:
		if d.attrs != nil || d.computedAttr != nil {
			return fromTreeObject(ctx, r, d, t)
		}
	case tree.Array:
		if d.elems != nil || d.computedElem != nil || d.contiguousElem != nil {
			return fromTreeArray(ctx, r, d, t)
		}
	}

	// spec.md §4.7 step 7: a type with no writer facet at all but a swizzle
	// or init callback is not an error — the callback is entirely
	// responsible for populating the value once the document finishes
	// constructing (spec.md §8's SwizzleTest scenario: a type described with
	// only a swizzle() facet must accept "{}" silently).
	if d.swizzle != nil || d.init != nil {
		return nil
	}

	return newErr(eFromTreeFormRejected, "type %s cannot be constructed from a %s", r.Type().Name(), t.FormOf())
}

func matchValuesTableReverse(d *Description, t tree.Tree) (*Accessor, bool) {
	for _, v := range d.values {
		if tree.Equal(v.Tree, t) {
			return v.Accessor, true
		}
	}
	return nil, false
}

// fromTreeObject implements spec.md §4.8's claim-list algorithm: every key
// present in the input object must be "claimed" by exactly one attr
// (fixed or computed); any input key left unclaimed after all attrs have
// had a chance to consume it is an AttrRejected error, and any
// non-Optional/non-HasDefault attr that never got claimed is an
// AttrMissing error.
func fromTreeObject(ctx *traversalCtx, r AnyRef, d *Description, t tree.Tree) error {
	pairs, err := t.AsObject()
	if err != nil {
		return err
	}
	claimed := make(map[string]bool, len(pairs))
	present := make(map[string]tree.Tree, len(pairs))
	for _, p := range pairs {
		present[p.Key] = p.Value
	}

	if d.attrs != nil {
		if err := claimAttrs(ctx, r, d, t, present, claimed); err != nil {
			return err
		}
	} else if d.computedAttr != nil {
		keys := make([]string, 0, len(pairs))
		for _, p := range pairs {
			keys = append(keys, p.Key)
			claimed[p.Key] = true
		}
		if d.setKeys != nil {
			var host AnyPtr
			if err := r.access(ModeModify, func(child AnyPtr) error { host = child; return nil }); err != nil {
				return err
			}
			if err := d.setKeys(host, keys); err != nil {
				return err
			}
		}
		for _, p := range pairs {
			child, err := Attr(r, p.Key)
			if err != nil {
				return wrapErr(eAttrRejected, err, "attribute %q", p.Key)
			}
			if err := fromTreeValue(ctx, child, p.Value); err != nil {
				return wrapErr(eFromTreeValueNotFound, err, "attribute %q", p.Key)
			}
		}
	}

	var badKeys []string
	for key := range present {
		if !claimed[key] {
			badKeys = append(badKeys, key)
		}
	}
	if len(badKeys) == 0 {
		return nil
	}
	// Every leftover key is reported at once via ayuerr.Combine rather than
	// stopping at the first one: a caller fixing up a hand-written document
	// wants the full list of typos in one pass, not one error per edit-run.
	sort.Strings(badKeys)
	rejected := make([]error, len(badKeys))
	for i, key := range badKeys {
		rejected[i] = newErr(eAttrRejected, "unrecognized attribute %q on type %s", key, r.Type().Name())
	}
	return ayuerr.Combine(rejected...)
}

// claimAttrs walks one attrs() facet's declared attrs in order against the
// shared present/claimed maps of the enclosing top-level object, per
// spec.md §4.8's claim-list algorithm:
//   - a key matching a.Key is claimed and written through directly;
//   - an Include attr with no matching key recurses into its child with
//     the *same* tree object, letting the child claim some subset of the
//     remaining entries from the shared maps;
//   - Optional/HasDefault/CollapseOptional attrs are left default-
//     constructed when absent;
//   - anything else absent is AttrMissing.
func claimAttrs(ctx *traversalCtx, r AnyRef, d *Description, t tree.Tree, present map[string]tree.Tree, claimed map[string]bool) error {
	for _, a := range d.attrs {
		val, ok := present[a.Key]
		if ok && !claimed[a.Key] {
			claimed[a.Key] = true
			child := r.Child(a.Accessor)
			wrapped := val
			if a.Flags.Has(CollapseOptional) {
				wrapped = tree.ArrayValueSlice([]tree.Tree{val})
			}
			if err := fromTreeValue(ctx, child, wrapped); err != nil {
				return wrapErr(eFromTreeValueNotFound, err, "attribute %q", a.Key)
			}
			continue
		}
		if a.Flags.Has(Include) {
			child := r.Child(a.Accessor)
			childDesc := lookupDescriptionByGoType(child.Type().rt)
			if childDesc == nil || childDesc.attrs == nil {
				return newErr(eFromTreeNotSupported, "attribute %q: Include target has no attrs() facet", a.Key)
			}
			if err := claimAttrs(ctx, child, childDesc, t, present, claimed); err != nil {
				return err
			}
			continue
		}
		if a.Flags.Has(Optional) || a.Flags.Has(HasDefault) || a.Flags.Has(CollapseOptional) {
			continue
		}
		return newErr(eAttrMissing, "missing required attribute %q on type %s", a.Key, r.Type().Name())
	}
	return nil
}

func fromTreeArray(ctx *traversalCtx, r AnyRef, d *Description, t tree.Tree) error {
	elems, err := t.AsArray()
	if err != nil {
		return err
	}
	if d.elems != nil {
		minRequired := len(d.elems)
		for minRequired > 0 && d.elems[minRequired-1].Flags.Has(Optional) {
			minRequired--
		}
		if len(elems) < minRequired || len(elems) > len(d.elems) {
			return newErr(eLengthRejected, "type %s expects %d-%d elements, got %d", r.Type().Name(), minRequired, len(d.elems), len(elems))
		}
	} else if d.setLength != nil {
		if len(elems) > maxArrayLength {
			return newErr(eLengthOverflow, "length %d exceeds maximum array size %d", len(elems), maxArrayLength)
		}
		var host AnyPtr
		if err := r.access(ModeModify, func(child AnyPtr) error { host = child; return nil }); err != nil {
			return err
		}
		if err := d.setLength(host, len(elems)); err != nil {
			return err
		}
	}
	for i, et := range elems {
		child, err := Elem(r, i)
		if err != nil {
			return wrapErr(eFromTreeValueNotFound, err, "element %d", i)
		}
		if err := fromTreeValue(ctx, child, et); err != nil {
			return wrapErr(eFromTreeValueNotFound, err, "element %d", i)
		}
	}
	return nil
}
