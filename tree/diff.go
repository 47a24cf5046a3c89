package tree

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// treeView is the shape go-cmp actually compares: Tree's real fields are
// unexported (deliberately — Tree is meant to be immutable and constructed
// only through the functions in tree.go), so Diff projects it into a
// comparable, form-tagged view instead of reaching for cmp.AllowUnexported,
// which would let a future test accidentally assert on internal encoding
// details like numeric origin.
type treeView struct {
	Form  Form
	Bool  bool
	Num   float64
	Str   string
	Arr   []treeView
	Obj   map[string]treeView
	HasErr bool
}

func view(t Tree) treeView {
	v := treeView{Form: t.form}
	switch t.form {
	case Bool:
		v.Bool, _ = t.AsBool()
	case Number:
		v.Num, _ = t.AsFloat64()
	case String:
		v.Str, _ = t.AsString()
	case Array:
		elems, _ := t.AsArray()
		v.Arr = make([]treeView, len(elems))
		for i, e := range elems {
			v.Arr[i] = view(e)
		}
	case Object:
		pairs, _ := t.AsObject()
		v.Obj = make(map[string]treeView, len(pairs))
		for _, p := range pairs {
			v.Obj[p.Key] = view(p.Value)
		}
	case Error:
		v.HasErr = true
	}
	return v
}

// Diff renders a human-readable structural difference between two Trees
// using go-cmp, honoring this package's equality law (NaN==NaN, object
// order-independence) rather than a naive field-by-field struct diff. It
// returns "" if the trees are Equal. Intended for test failure messages and
// interactive debugging, not for the hot traversal path.
func Diff(a, b Tree) string {
	return cmp.Diff(view(a), view(b), cmpopts.EquateNaNs())
}
