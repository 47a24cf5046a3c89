package ayu

import "reflect"

// AnyRef is the "living reference" of spec.md §3.3/§4.3: a host AnyPtr
// paired with the Accessor that projects from it to the referenced child.
// A bare AnyPtr (Accessor == nil) is the degenerate case of referencing the
// host value itself — this is what TopReference (traversal.go) constructs
// for the root of a to-tree/from-tree call.
type AnyRef struct {
	Host     AnyPtr
	Accessor *Accessor
}

// Ref wraps an AnyPtr as a direct (accessor-less) reference to itself.
func Ref(p AnyPtr) AnyRef { return AnyRef{Host: p} }

// Child returns the reference reached from r by following acr, composing
// accessors via Chain exactly as spec.md §4.2 describes for building
// multi-level references without re-walking from the root each time.
func (r AnyRef) Child(acr *Accessor) AnyRef {
	if r.Accessor == nil {
		return AnyRef{Host: r.Host, Accessor: acr}
	}
	return AnyRef{Host: r.Host, Accessor: Chain(r.Accessor, acr)}
}

// Type reports the static type this reference projects to.
func (r AnyRef) Type() Type {
	if r.Accessor == nil {
		return r.Host.Type
	}
	return r.Accessor.staticChildType
}

// access runs the access protocol for this reference: straight through to
// the host if there's no accessor, otherwise via the accessor against the
// host.
func (r AnyRef) access(mode Mode, fn AccessFunc) error {
	if r.Accessor == nil {
		return fn(r.Host)
	}
	return r.Accessor.Access(mode, r.Host, fn)
}

// Get reads the referenced value into dst (a pointer to a Go value of
// matching type), spec.md §4.3's read-only convenience entry point.
func (r AnyRef) Get(dst any) error {
	return r.access(ModeRead, func(child AnyPtr) error {
		dv := reflect.ValueOf(dst)
		if dv.Kind() != reflect.Ptr || dv.IsNil() {
			return newErr(eGeneral, "Get requires a non-nil pointer destination")
		}
		dv.Elem().Set(child.value)
		return nil
	})
}

// Set writes val through the reference, spec.md §4.3's write convenience
// entry point.
func (r AnyRef) Set(val any) error {
	return r.access(ModeWrite, func(child AnyPtr) error {
		return child.Set(reflect.ValueOf(val))
	})
}

// Modify runs fn against the live child value and writes back whatever fn
// left behind, spec.md §4.3's read-modify-write convenience form (the one
// that, per §4.2, is the only mode under which a Chain's outer component
// avoids clobbering sibling fields when the inner component lacks a true
// address).
func (r AnyRef) Modify(fn func(child AnyPtr) error) error {
	return r.access(ModeModify, fn)
}

// Address attempts to produce a genuine addressable AnyPtr for this
// reference without invoking a full access cycle, mirroring
// Accessor.Address but accounting for the accessor-less case.
func (r AnyRef) Address() (AnyPtr, bool) {
	if r.Accessor == nil {
		return r.Host, true
	}
	return r.Accessor.Address(r.Host)
}

// AnyVal is a detached, by-value holder for a Type'd value that owns its
// own storage (spec.md §3.3's AnyVal: "like AnyPtr but owns the referent").
// It backs the storage of a resource.Resource's root value and of each
// resource.Document item.
type AnyVal struct {
	Type Type

	value reflect.Value
}

// NewAnyVal default-constructs a detached value of type t.
func NewAnyVal(t Type) (AnyVal, error) {
	p, err := t.DefaultConstruct()
	if err != nil {
		return AnyVal{}, err
	}
	return AnyVal{Type: t, value: p.value}, nil
}

// Ptr returns an AnyPtr onto this AnyVal's storage.
func (v AnyVal) Ptr() AnyPtr {
	return AnyPtr{Type: v.Type, value: v.value}
}

// Interface copies out the held value.
func (v AnyVal) Interface() any {
	if !v.value.IsValid() {
		return nil
	}
	return v.value.Interface()
}
