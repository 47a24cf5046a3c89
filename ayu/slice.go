package ayu

import "reflect"

// DescribeSlice registers (once) the Description for a Go slice type
// []T, using the contiguous_elems facet (spec.md's fast path for
// fixed-stride sequential storage) rather than describing each slice type
// field-by-field by hand. Composite types throughout this module (and
// schemaimport's subpackages) call this once per element type instead of
// writing out a ComputedElems closure at every []T field.
//
// It's generic so the same logic serves every element type without
// reflection-based code generation; the teacher's own core/mast package
// has no slice-of-describable-things need (Walk operates on an
// already-homogeneous Node interface), so this facility is grounded
// directly in spec.md §3.5's contiguous_elems facet rather than adapted
// from a teacher file — see DESIGN.md.
func DescribeSlice[T any](name string) Type {
	var zero []T
	rt := reflect.TypeOf(zero)
	if lookupDescriptionByGoType(rt) != nil {
		return TypeOfGo(rt)
	}
	elemType := TypeOf(*new(T))
	return Describe(zero).
		Name(name).
		ContiguousElems(elemType,
			func(p AnyPtr) (int, error) { return p.value.Len(), nil },
			func(p AnyPtr, n int) error {
				if !p.value.CanSet() {
					return newErr(eLengthRejected, "slice of type %s is not settable", name)
				}
				p.value.Set(reflect.MakeSlice(rt, n, n))
				return nil
			},
			func(p AnyPtr) (AnyPtr, error) { return p, nil },
		).
		Build()
}
