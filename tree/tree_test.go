package tree

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualityLaws(t *testing.T) {
	require.True(t, Equal(FloatValue(math.NaN()), FloatValue(math.NaN())), "NaN should equal NaN")
	require.True(t, Equal(FloatValue(0), FloatValue(math.Copysign(0, -1))), "-0.0 should equal +0.0")
	require.True(t, Equal(IntValue(3), FloatValue(3.0)), "numeric value equality ignores origin")

	a := MustObjectValue(Pair{"x", IntValue(1)}, Pair{"y", IntValue(2)})
	b := MustObjectValue(Pair{"y", IntValue(2)}, Pair{"x", IntValue(1)})
	require.True(t, Equal(a, b), "object equality should ignore attribute order")

	require.False(t, Equal(IntValue(1), StringValue("1")), "different forms never compare equal")
}

func TestObjectDuplicateKeyRejected(t *testing.T) {
	_, err := ObjectValue(Pair{"x", IntValue(1)}, Pair{"x", IntValue(2)})
	require.Error(t, err)
}

func TestNumberConversions(t *testing.T) {
	v, err := IntValue(42).AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	_, err = FloatValue(3.5).AsInt64()
	require.Error(t, err, "3.5 cannot be represented as an int")

	f, err := NullValue().AsFloat64()
	require.NoError(t, err)
	require.True(t, math.IsNaN(f), "Null converts to float64 as +NaN")
}

func TestErrorFormRethrows(t *testing.T) {
	cause := errors.New("boom")
	et := ErrorValue(cause)
	_, err := et.AsBool()
	require.ErrorIs(t, err, cause)

	got, ok := et.AsError()
	require.True(t, ok)
	require.Equal(t, cause, got)
}

func TestAttrElemConvenience(t *testing.T) {
	obj := MustObjectValue(Pair{"a", IntValue(1)})
	v, ok := obj.Attr("a")
	require.True(t, ok)
	i, _ := v.AsInt64()
	require.Equal(t, int64(1), i)

	_, ok = obj.Attr("missing")
	require.False(t, ok)

	arr := ArrayValue(IntValue(1), IntValue(2))
	v, ok = arr.Elem(1)
	require.True(t, ok)
	i, _ = v.AsInt64()
	require.Equal(t, int64(2), i)

	_, ok = arr.Elem(5)
	require.False(t, ok)
}

func TestDiff(t *testing.T) {
	a := MustObjectValue(Pair{"x", IntValue(1)})
	b := MustObjectValue(Pair{"x", IntValue(2)})
	require.Empty(t, Diff(a, a))
	require.NotEmpty(t, Diff(a, b))
}
