// Package tree implements ayu's self-describing textual data model
// (spec.md §3.1): an immutable, cheaply-copyable tagged union of
// Undefined, Null, Bool, Number (int64 or float64), String, Array, Object,
// and Error forms. A Tree's backing storage (string bytes, the Tree/Pair
// slices) is never mutated after construction, which is what lets a Tree be
// passed around and copied as casually as the reference-counted C++
// original: Go's slice/string headers already share the backing array on
// copy, so the only thing this package adds on top is the discipline of
// never writing through one.
//
// The textual lexer/printer that turns a Tree into and out of source text is
// an external collaborator per spec.md §6.1; this package only defines the
// value model and its in-memory algebra.
package tree

import (
	"fmt"
	"math"

	"github.com/ayu-lang/ayu-go/ayuerr"
)

// Form identifies which alternative of the Tree union is populated.
type Form uint8

const (
	Undefined Form = iota
	Null
	Bool
	Number
	String
	Array
	Object
	Error
)

func (f Form) String() string {
	switch f {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Flags are rendering hints (spec.md §3.1). They never affect equality and
// the printer (an external collaborator) is the only consumer.
type Flags uint16

const (
	PreferHex      Flags = 1 << 0
	PreferCompact  Flags = 1 << 1
	PreferExpanded Flags = 1 << 2
)

// Pair is an Object entry. Key uniqueness is enforced by Object's
// constructor (spec.md §3.1); order is preserved but not significant to
// equality.
type Pair struct {
	Key   string
	Value Tree
}

// numOrigin distinguishes an integer-origin Number from a float-origin one,
// so that round-tripping "3" through a Tree doesn't silently become "3.0"
// and so From/to-tree can reject "3.5 as int" unambiguously (spec.md §4.4).
type numOrigin uint8

const (
	originInt numOrigin = iota
	originFloat
)

// Tree is the immutable tagged union described above. The zero Tree is
// Undefined, matching spec.md's "only legal operation is has_value()".
type Tree struct {
	form  Form
	flags Flags

	origin numOrigin // meaningful only when form == Number
	i      int64
	f      float64
	s      string
	arr    []Tree
	obj    []Pair
	err    error
}

// HasValue reports whether t is anything other than Undefined.
func (t Tree) HasValue() bool { return t.form != Undefined }

// FormOf returns the Tree's form.
func (t Tree) FormOf() Form { return t.form }

// Flags returns the rendering hints attached to t.
func (t Tree) Flags() Flags { return t.flags }

// WithFlags returns a copy of t with the given flags OR'd in. Flags are the
// only thing about a Tree that may differ after construction (spec.md
// I-T2): this still returns a copy rather than mutating, so aliasing a Tree
// value never surprises a caller holding another copy.
func (t Tree) WithFlags(f Flags) Tree {
	t.flags |= f
	return t
}

///// CONSTRUCTION

// NullValue is the Null-form Tree.
func NullValue() Tree { return Tree{form: Null} }

// BoolValue builds a Bool-form Tree.
func BoolValue(b bool) Tree {
	var i int64
	if b {
		i = 1
	}
	return Tree{form: Bool, i: i}
}

// IntValue builds an integer-origin Number Tree.
func IntValue(v int64) Tree {
	return Tree{form: Number, origin: originInt, i: v}
}

// FloatValue builds a float-origin Number Tree.
func FloatValue(v float64) Tree {
	return Tree{form: Number, origin: originFloat, f: v}
}

// StringValue builds a String-form Tree.
func StringValue(s string) Tree {
	return Tree{form: String, s: s}
}

// ArrayValue builds an Array-form Tree. The slice is taken by reference: the
// caller must not mutate it afterwards (I-T2).
func ArrayValue(elems ...Tree) Tree {
	return Tree{form: Array, arr: elems}
}

// ArrayValueSlice is like ArrayValue but takes an existing slice directly,
// for callers building up elements incrementally.
func ArrayValueSlice(elems []Tree) Tree {
	return Tree{form: Array, arr: elems}
}

// ObjectValue builds an Object-form Tree from key/value pairs, in the given
// order. It returns a TreeCantRepresent error if two pairs share a key
// (spec.md §3.1: "key uniqueness is required on construction").
func ObjectValue(pairs ...Pair) (Tree, error) {
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.Key]; dup {
			return Tree{}, ayuerr.New(ayuerr.TreeCantRepresent, "duplicate object key %q", p.Key)
		}
		seen[p.Key] = struct{}{}
	}
	return Tree{form: Object, obj: pairs}, nil
}

// MustObjectValue is ObjectValue but panics on a duplicate key; for use in
// tests and literal construction sites where the key set is statically
// known not to collide.
func MustObjectValue(pairs ...Pair) Tree {
	t, err := ObjectValue(pairs...)
	if err != nil {
		panic(err)
	}
	return t
}

// ErrorValue wraps a stored error as an Error-form Tree (spec.md §3.1): any
// operation other than discarding it or re-raising it will rethrow the
// stored error.
func ErrorValue(err error) Tree {
	return Tree{form: Error, err: err}
}

///// CONVERSION FROM TREE

// rethrowIfError returns the stored error if t is an Error-form Tree; every
// conversion method calls this first.
func (t Tree) rethrowIfError() error {
	if t.form == Error {
		return t.err
	}
	return nil
}

func (t Tree) wrongForm(want Form) error {
	return ayuerr.New(ayuerr.TreeWrongForm, "expected %s, got %s", want, t.form)
}

// AsBool converts a Bool-form Tree to bool.
func (t Tree) AsBool() (bool, error) {
	if err := t.rethrowIfError(); err != nil {
		return false, err
	}
	if t.form != Bool {
		return false, t.wrongForm(Bool)
	}
	return t.i != 0, nil
}

// AsInt64 converts a Number-form Tree to int64. Converting a float that
// isn't exactly representable as an integer fails with TreeCantRepresent
// (spec.md §3.1).
func (t Tree) AsInt64() (int64, error) {
	if err := t.rethrowIfError(); err != nil {
		return 0, err
	}
	if t.form != Number {
		return 0, t.wrongForm(Number)
	}
	if t.origin == originInt {
		return t.i, nil
	}
	if t.f != math.Trunc(t.f) || math.IsInf(t.f, 0) || math.IsNaN(t.f) {
		return 0, ayuerr.New(ayuerr.TreeCantRepresent, "float %v has no exact int64 representation", t.f)
	}
	if t.f >= math.MaxInt64 || t.f < math.MinInt64 {
		return 0, ayuerr.New(ayuerr.TreeCantRepresent, "float %v out of int64 range", t.f)
	}
	return int64(t.f), nil
}

// AsIntRange converts to int64 and additionally verifies the result fits in
// [min,max], for callers converting to narrower integer types (uint8 etc.).
func (t Tree) AsIntRange(min, max int64) (int64, error) {
	v, err := t.AsInt64()
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, ayuerr.New(ayuerr.TreeCantRepresent, "%d out of range [%d,%d]", v, min, max)
	}
	return v, nil
}

// AsFloat64 converts a Number-form Tree to float64. Converting Null to
// float64 yields +NaN for JSON compatibility, per spec.md §3.1.
func (t Tree) AsFloat64() (float64, error) {
	if err := t.rethrowIfError(); err != nil {
		return 0, err
	}
	switch t.form {
	case Null:
		return math.NaN(), nil
	case Number:
		if t.origin == originFloat {
			return t.f, nil
		}
		return float64(t.i), nil
	default:
		return 0, t.wrongForm(Number)
	}
}

// AsString converts a String-form Tree to string.
func (t Tree) AsString() (string, error) {
	if err := t.rethrowIfError(); err != nil {
		return "", err
	}
	if t.form != String {
		return "", t.wrongForm(String)
	}
	return t.s, nil
}

// AsArray converts an Array-form Tree to its element slice. The returned
// slice must not be mutated by the caller (it aliases t's storage).
func (t Tree) AsArray() ([]Tree, error) {
	if err := t.rethrowIfError(); err != nil {
		return nil, err
	}
	if t.form != Array {
		return nil, t.wrongForm(Array)
	}
	return t.arr, nil
}

// AsObject converts an Object-form Tree to its pair slice, in declared
// order. The returned slice must not be mutated by the caller.
func (t Tree) AsObject() ([]Pair, error) {
	if err := t.rethrowIfError(); err != nil {
		return nil, err
	}
	if t.form != Object {
		return nil, t.wrongForm(Object)
	}
	return t.obj, nil
}

// AsError returns the stored error of an Error-form Tree without rethrowing
// it ("discard" per spec.md §3.1).
func (t Tree) AsError() (error, bool) {
	if t.form != Error {
		return nil, false
	}
	return t.err, true
}

///// CONVENIENCE

// Attr returns the value for key if t is an Object containing it, else
// (Tree{}, false). It does not rethrow stored errors, matching the C++
// "Returns null if the invocant is not an OBJECT" convenience accessor,
// which is non-throwing even on an Error-form tree.
func (t Tree) Attr(key string) (Tree, bool) {
	if t.form != Object {
		return Tree{}, false
	}
	for _, p := range t.obj {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Tree{}, false
}

// Elem returns the value at index if t is an Array with that many elements,
// else (Tree{}, false).
func (t Tree) Elem(index int) (Tree, bool) {
	if t.form != Array || index < 0 || index >= len(t.arr) {
		return Tree{}, false
	}
	return t.arr[index], true
}

func (t Tree) String() string {
	switch t.form {
	case Undefined:
		return "<undefined>"
	case Null:
		return "null"
	case Bool:
		b, _ := t.AsBool()
		return fmt.Sprintf("%v", b)
	case Number:
		if t.origin == originInt {
			return fmt.Sprintf("%d", t.i)
		}
		return fmt.Sprintf("%g", t.f)
	case String:
		return fmt.Sprintf("%q", t.s)
	case Array:
		return fmt.Sprintf("<array[%d]>", len(t.arr))
	case Object:
		return fmt.Sprintf("<object[%d]>", len(t.obj))
	case Error:
		return fmt.Sprintf("<error: %v>", t.err)
	default:
		return "<?>"
	}
}
