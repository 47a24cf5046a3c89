// Package ayuerr implements the stable, wire-identified error taxonomy used
// throughout the ayu module (spec.md §7). The C++ original throws typed
// exceptions carrying structured details and, when raised from inside a
// traversal, a route; since Go has no exceptions, every operation that can
// fail returns an error built with New/Wrap here, and a caller that has a
// route in hand can attach it to an un-routed one with WithRoute.
package ayuerr

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Kind is one of the stable string codes from spec.md §7. These are part of
// this module's wire-stable contract: callers may compare Kind values across
// versions.
type Kind string

// Tree-level.
const (
	TreeWrongForm     Kind = "e_TreeWrongForm"
	TreeCantRepresent Kind = "e_TreeCantRepresent"
	ParseFailed       Kind = "e_ParseFailed"
)

// Type registry.
const (
	TypeNameNotFound     Kind = "e_TypeNameNotFound"
	TypeCantDefaultConst Kind = "e_TypeCantDefaultConstruct"
	TypeCantDestroy      Kind = "e_TypeCantDestroy"
	TypeCantCast         Kind = "e_TypeCantCast"
)

// Access.
const (
	WriteReadonly      Kind = "e_WriteReadonly"
	AddressUnaddressable Kind = "e_AddressUnaddressable"
	AccessDenied       Kind = "e_AccessDenied"
)

// Compound ops.
const (
	AttrMissing      Kind = "e_AttrMissing"
	AttrRejected     Kind = "e_AttrRejected"
	AttrNotFound     Kind = "e_AttrNotFound"
	AttrsNotSupported Kind = "e_AttrsNotSupported"
	ElemNotFound     Kind = "e_ElemNotFound"
	ElemsNotSupported Kind = "e_ElemsNotSupported"
	LengthRejected   Kind = "e_LengthRejected"
	LengthTypeInvalid Kind = "e_LengthTypeInvalid"
	LengthOverflow   Kind = "e_LengthOverflow"
	KeysTypeInvalid  Kind = "e_KeysTypeInvalid"
)

// Serialization.
const (
	FromTreeNotSupported   Kind = "e_FromTreeNotSupported"
	FromTreeFormRejected   Kind = "e_FromTreeFormRejected"
	FromTreeValueNotFound  Kind = "e_FromTreeValueNotFound"
	ToTreeNotSupported     Kind = "e_ToTreeNotSupported"
	ToTreeValueNotFound    Kind = "e_ToTreeValueNotFound"
)

// Routes.
const (
	RouteIRIInvalid   Kind = "e_RouteIRIInvalid"
	ReferenceNotFound Kind = "e_ReferenceNotFound"
)

// Scanning.
const (
	ScanWhileScanning Kind = "e_ScanWhileScanning"
)

// Document.
const (
	DocumentItemNameInvalid    Kind = "e_DocumentItemNameInvalid"
	DocumentItemNameDuplicate  Kind = "e_DocumentItemNameDuplicate"
	DocumentItemNotFound       Kind = "e_DocumentItemNotFound"
)

// Misc.
const (
	General  Kind = "e_General"
	External Kind = "e_External"
)

// Error is the single error type raised by every operation in this module.
// It carries a stable Kind, a human-readable message, an optional route
// (a plain IRI-ish string attached with WithRoute, so this package need not
// import the route package), and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Route   string // empty if no route has been attached yet
	Cause   error
}

func (e *Error) Error() string {
	if e.Route != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Route, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Route, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an un-routed Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an un-routed Error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithRoute returns a copy of e with Route set, unless one is already set,
// in which case e is returned unchanged, mirroring the C++ wrap_exception's
// "only if the exception has not already been tagged with a route" rule.
func (e *Error) WithRoute(route string) *Error {
	if e.Route != "" {
		return e
	}
	cp := *e
	cp.Route = route
	return &cp
}

// HasRoute reports whether e (or an *Error wrapped somewhere in its chain)
// already carries a route.
func HasRoute(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Route != ""
	}
	return false
}

// Is reports whether err is an *Error of the given kind, looking through
// wrapped causes the same way errors.Is does.
func Is(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Combine aggregates independent, non-fatal errors (e.g. multiple bad schema
// files in one import run, or the leftover-key diagnostics from-tree
// collects for one object) the same way analyzer.go's attemptHeaderRead
// combines a parse error with a scanner error: via go.uber.org/multierr
// rather than by picking just the first failure.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// Append adds err onto the accumulated multierror into, returning the result.
func Append(into error, err error) error {
	return multierr.Append(into, err)
}
