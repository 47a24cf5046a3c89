package ayu

import (
	"reflect"
	"unsafe"
)

// AnyPtr is the typed, possibly-readonly pointer handle of spec.md §3.3:
// "a Type paired with an address; unlike a raw pointer it knows how to
// safely reinterpret, copy, and destroy the thing it points to." Here the
// address is carried as an addressable (or, for readonly/temporary values,
// merely inspectable) reflect.Value rather than a raw unsafe.Pointer, so
// that AnyPtr stays safe to use without manual size/alignment bookkeeping.
type AnyPtr struct {
	Type     Type
	ReadOnly bool

	value reflect.Value
}

// NewAnyPtr wraps an existing addressable reflect.Value as a writable
// AnyPtr. Panics if rv is not addressable, matching the C++ original's
// precondition that AnyPtr(nullptr) is a usage error, not a valid empty
// state to silently tolerate.
func NewAnyPtr(rv reflect.Value) AnyPtr {
	if rv.IsValid() && !rv.CanAddr() {
		panic("ayu: NewAnyPtr requires an addressable reflect.Value")
	}
	return AnyPtr{Type: TypeOfGo(rv.Type()), value: rv}
}

// IsValid reports whether p refers to an actual value.
func (p AnyPtr) IsValid() bool { return p.value.IsValid() }

// Value exposes the backing reflect.Value for interop with code (codecs,
// schemaimport) that must fall back to plain reflection.
func (p AnyPtr) Value() reflect.Value { return p.value }

// Interface returns the pointee as an any, copying it (spec.md's
// AnyPtr::operator* semantics minus the address-of).
func (p AnyPtr) Interface() any {
	if !p.value.IsValid() {
		return nil
	}
	return p.value.Interface()
}

// Set overwrites the pointee, rejecting the write if p is marked readonly
// (spec.md §3.4's "WriteReadonly" error case surfaces through here for any
// accessor form that materializes a readonly AnyPtr).
func (p AnyPtr) Set(v reflect.Value) error {
	if p.ReadOnly {
		return newErr(eWriteReadonly, "cannot write through a readonly AnyPtr of type %s", p.Type.Name())
	}
	if !p.value.CanSet() {
		return newErr(eAddressUnaddressable, "AnyPtr of type %s is not addressable", p.Type.Name())
	}
	p.value.Set(v)
	return nil
}

// Addr returns a real Go pointer to the pointee, erroring if p isn't
// addressable — the Go analogue of spec.md §3.3's "address() returns
// nullptr for a non-addressable AnyPtr".
func (p AnyPtr) Addr() (unsafe.Pointer, error) {
	if !p.value.IsValid() || !p.value.CanAddr() {
		return nil, newErr(eAddressUnaddressable, "value of type %s is not addressable", p.Type.Name())
	}
	return unsafePointerOf(p.value), nil
}

// unsafePointerOf extracts the address backing an addressable reflect.Value.
// Centralized here so NewReinterpret and Addr share one unsafe call site.
func unsafePointerOf(rv reflect.Value) unsafe.Pointer {
	return unsafe.Pointer(rv.UnsafeAddr())
}
