package tree

import "math"

// Equal implements spec.md §3.1's equality law: forms must match; NaN
// compares equal to NaN; -0.0 equals +0.0; objects compare equal iff they
// have the same set of (key,value) pairs regardless of order. Error-form
// trees compare equal iff they are the same Go error value (by ==); this is
// an implementation choice since the C++ original never compares stored
// exceptions for equality either.
func Equal(a, b Tree) bool {
	if a.form != b.form {
		return false
	}
	switch a.form {
	case Undefined, Null:
		return true
	case Bool:
		return a.i == b.i
	case Number:
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		// -0.0 == +0.0 falls out of plain float comparison; integer-origin
		// numbers compare via AsFloat64 too so that IntValue(3) ==
		// FloatValue(3.0), matching the C++ Tree's numeric-value equality
		// (origin only affects round-tripping, not equality).
		return af == bf
	case String:
		return a.s == b.s
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for _, pa := range a.obj {
			pb, ok := b.Attr(pa.Key)
			if !ok || !Equal(pa.Value, pb) {
				return false
			}
		}
		return true
	case Error:
		return a.err == b.err
	default:
		return false
	}
}
