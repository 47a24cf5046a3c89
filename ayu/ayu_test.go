package ayu

import (
	"reflect"
	"testing"

	"github.com/ayu-lang/ayu-go/ayuerr"
	"github.com/ayu-lang/ayu-go/tree"
	"github.com/stretchr/testify/require"
)

// ptrValue returns the addressable reflect.Value for *p, the shape every
// AnyPtr in this file's tests needs; it exists only to keep the test bodies
// below focused on the scenario being exercised rather than reflect
// boilerplate.
func ptrValue(p any) reflect.Value {
	return reflect.ValueOf(p).Elem()
}

// memberTest mirrors spec.md §8's concrete MemberTest scenarios: a plain
// struct described with a fixed attrs() facet.
type memberTest struct {
	A int
	B int
}

func init() {
	Describe((*memberTest)(nil)).Name("ayu.test.memberTest").
		Attrs(
			AttrDescriptor{Key: "a", Accessor: NewMember(TypeOf(int(0)), []int{0})},
			AttrDescriptor{Key: "b", Accessor: NewMember(TypeOf(int(0)), []int{1})},
		).
		Build()
}

func TestAttrsToTree(t *testing.T) {
	v := memberTest{A: 3, B: 4}
	ref := TopReference(AnyPtr{Type: TypeOf(v), value: ptrValue(&v)})
	tr, err := ToTreeValue(ref)
	require.NoError(t, err)
	pairs, err := tr.AsObject()
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, "a", pairs[0].Key)
	require.Equal(t, "b", pairs[1].Key)
	a, _ := pairs[0].Value.AsInt64()
	b, _ := pairs[1].Value.AsInt64()
	require.Equal(t, int64(3), a)
	require.Equal(t, int64(4), b)
}

func TestAttrsFromTreeOutOfOrder(t *testing.T) {
	var v memberTest
	ref := TopReference(AnyPtr{Type: TypeOf(v), value: ptrValue(&v)})
	obj := tree.MustObjectValue(
		tree.Pair{Key: "b", Value: tree.IntValue(92)},
		tree.Pair{Key: "a", Value: tree.IntValue(47)},
	)
	require.NoError(t, FromTree(ref, obj))
	require.Equal(t, 47, v.A)
	require.Equal(t, 92, v.B)
}

func TestAttrMissingAndRejected(t *testing.T) {
	var v memberTest
	ref := TopReference(AnyPtr{Type: TypeOf(v), value: ptrValue(&v)})

	err := FromTree(ref, tree.MustObjectValue(tree.Pair{Key: "a", Value: tree.IntValue(16)}))
	require.Error(t, err)
	require.True(t, ayuerr.Is(err, ayuerr.AttrMissing), "expected AttrMissing, got %v", err)

	err = FromTree(ref, tree.MustObjectValue(
		tree.Pair{Key: "a", Value: tree.IntValue(0)},
		tree.Pair{Key: "b", Value: tree.IntValue(1)},
		tree.Pair{Key: "c", Value: tree.IntValue(60)},
	))
	require.Error(t, err)
	require.True(t, ayuerr.Is(err, ayuerr.AttrRejected), "expected AttrRejected, got %v", err)
}

// elemTest mirrors spec.md §8's ElemTest scenario: a fixed elems() facet.
type elemTest struct {
	X, Y, Z float64
}

func init() {
	Describe((*elemTest)(nil)).Name("ayu.test.elemTest").
		Elems(
			ElemDescriptor{Accessor: NewMember(TypeOf(float64(0)), []int{0})},
			ElemDescriptor{Accessor: NewMember(TypeOf(float64(0)), []int{1})},
			ElemDescriptor{Accessor: NewMember(TypeOf(float64(0)), []int{2})},
		).
		Build()
}

func TestElemsToTree(t *testing.T) {
	v := elemTest{X: 0.5, Y: 1.5, Z: 2.5}
	ref := TopReference(AnyPtr{Type: TypeOf(v), value: ptrValue(&v)})
	tr, err := ToTreeValue(ref)
	require.NoError(t, err)
	elems, err := tr.AsArray()
	require.NoError(t, err)
	require.Len(t, elems, 3)
	x, _ := elems[0].AsFloat64()
	require.Equal(t, 0.5, x)
}

func TestElemsLengthRejected(t *testing.T) {
	var v elemTest
	ref := TopReference(AnyPtr{Type: TypeOf(v), value: ptrValue(&v)})
	err := FromTree(ref, tree.ArrayValue(tree.FloatValue(6.5), tree.FloatValue(7.5)))
	require.Error(t, err)
	require.True(t, ayuerr.Is(err, ayuerr.LengthRejected), "expected LengthRejected, got %v", err)
}

// swizzleTest mirrors spec.md §8 scenario 6: a type described with *only* a
// swizzle() facet must accept an empty object without error, with the
// swizzle callback running only after the whole top-level call completes.
type swizzleTest struct {
	Swizzled bool
}

func init() {
	Describe((*swizzleTest)(nil)).Name("ayu.test.swizzleTest").
		Swizzle(func(p AnyPtr, _ tree.Tree) error {
			p.value.FieldByIndex([]int{0}).SetBool(true)
			return nil
		}).
		Build()
}

func TestSwizzleOnlyTypeAcceptsEmptyObject(t *testing.T) {
	items := make([]swizzleTest, 6)
	slot := DescribeSlice[swizzleTest]("ayu.test.swizzleTestSlice")
	ref := TopReference(AnyPtr{Type: slot, value: ptrValue(&items)})

	arr := make([]tree.Tree, 6)
	for i := range arr {
		arr[i] = tree.MustObjectValue()
	}
	require.NoError(t, FromTree(ref, tree.ArrayValueSlice(arr)))

	for i, it := range items {
		require.True(t, it.Swizzled, "element %d was not swizzled", i)
	}
}

// TestInitPriorityOrdering checks spec.md §4.8: init callbacks run in
// descending priority order, so a child's higher-priority init runs before
// its parent's lower-priority one.
type initOrderTest struct {
	Inner initOrderInner
}

type initOrderInner struct{}

func TestInitPriorityOrdering(t *testing.T) {
	var order []string
	innerT := Describe((*initOrderInner)(nil)).Name("ayu.test.initOrderInner").
		InitPriority(5, func(AnyPtr) error {
			order = append(order, "inner-high")
			return nil
		}).
		Build()
	outerT := Describe((*initOrderTest)(nil)).Name("ayu.test.initOrderTest").
		Attrs(AttrDescriptor{Key: "inner", Accessor: NewMember(innerT, []int{0})}).
		InitPriority(1, func(AnyPtr) error {
			order = append(order, "outer-low")
			return nil
		}).
		Build()

	var v initOrderTest
	ref := TopReference(AnyPtr{Type: outerT, value: ptrValue(&v)})
	require.NoError(t, FromTree(ref, tree.MustObjectValue(
		tree.Pair{Key: "inner", Value: tree.MustObjectValue()},
	)))
	require.Equal(t, []string{"inner-high", "outer-low"}, order)
}

func TestAccessorIdempotence(t *testing.T) {
	a := NewMember(TypeOf(int(0)), []int{0})
	id := NewIdentity(TypeOf(memberTest{}))
	require.True(t, Equal(Chain(id, a), a), "Chain(Identity, a) should behave as a")
	require.True(t, Equal(Chain(a, id), a), "Chain(a, Identity) should behave as a")
}

func TestKeysDeterminism(t *testing.T) {
	v1 := memberTest{A: 1, B: 2}
	v2 := memberTest{A: 100, B: -5}
	r1 := TopReference(AnyPtr{Type: TypeOf(v1), value: ptrValue(&v1)})
	r2 := TopReference(AnyPtr{Type: TypeOf(v2), value: ptrValue(&v2)})
	k1, err := GetKeys(r1)
	require.NoError(t, err)
	k2, err := GetKeys(r2)
	require.NoError(t, err)
	require.Equal(t, k1, k2, "declared attrs() keys must not depend on the current value")
	require.Equal(t, []string{"a", "b"}, k1)
}

func TestSetLengthOverflow(t *testing.T) {
	sliceType := DescribeSlice[int]("ayu.test.intSlice")
	var s []int
	ref := TopReference(AnyPtr{Type: sliceType, value: ptrValue(&s)})
	err := SetLength(ref, 0x7fffffff+1)
	require.Error(t, err)
	require.True(t, ayuerr.Is(err, ayuerr.LengthOverflow))
	require.Nil(t, s, "a rejected SetLength must not mutate the target")
}

func TestTypeIdempotent(t *testing.T) {
	a := TypeOf(memberTest{})
	b := TypeOf(memberTest{})
	require.Equal(t, a, b)
	require.True(t, a == b)
}

func TestSliceRoundTrip(t *testing.T) {
	sliceType := DescribeSlice[int]("ayu.test.intSlice2")
	src := []int{1, 2, 3}
	ref := TopReference(AnyPtr{Type: sliceType, value: ptrValue(&src)})
	tr, err := ToTreeValue(ref)
	require.NoError(t, err)
	elems, err := tr.AsArray()
	require.NoError(t, err)
	require.Len(t, elems, 3)

	var dst []int
	dstRef := TopReference(AnyPtr{Type: sliceType, value: ptrValue(&dst)})
	require.NoError(t, FromTree(dstRef, tr))
	require.Equal(t, src, dst)
}
