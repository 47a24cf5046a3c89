package ayu

import (
	"reflect"

	"github.com/ayu-lang/ayu-go/tree"
)

// This file registers Descriptions for Go's built-in scalar kinds, the
// port's answer to spec.md §3.5's built-in AYU_DESCRIBE specializations for
// every primitive numeric/bool/string type: without these, no composite
// type could ever serialize a single leaf field. Go has no compile-time
// hook to auto-generate these the way C++ template specialization does, so
// they're registered explicitly here, once, at package init.
func init() {
	describeBool()
	describeString()
	describeInt[int]()
	describeInt[int8]()
	describeInt[int16]()
	describeInt[int32]()
	describeInt[int64]()
	describeUint[uint]()
	describeUint[uint8]()
	describeUint[uint16]()
	describeUint[uint32]()
	describeUint[uint64]()
	describeFloat[float32]()
	describeFloat[float64]()
}

func describeBool() {
	Describe((*bool)(nil)).Name("bool").
		ToTree(func(p AnyPtr) (tree.Tree, error) {
			return tree.BoolValue(p.value.Bool()), nil
		}).
		FromTree(func(p AnyPtr, t tree.Tree) error {
			b, err := t.AsBool()
			if err != nil {
				return err
			}
			p.value.SetBool(b)
			return nil
		}).
		Build()
}

func describeString() {
	Describe((*string)(nil)).Name("string").
		ToTree(func(p AnyPtr) (tree.Tree, error) {
			return tree.StringValue(p.value.String()), nil
		}).
		FromTree(func(p AnyPtr, t tree.Tree) error {
			s, err := t.AsString()
			if err != nil {
				return err
			}
			p.value.SetString(s)
			return nil
		}).
		Build()
}

func describeInt[T ~int | ~int8 | ~int16 | ~int32 | ~int64]() {
	var zero T
	Describe((*T)(nil)).Name(reflect.TypeOf(zero).String()).
		ToTree(func(p AnyPtr) (tree.Tree, error) {
			return tree.IntValue(p.value.Int()), nil
		}).
		FromTree(func(p AnyPtr, t tree.Tree) error {
			i, err := t.AsInt64()
			if err != nil {
				return err
			}
			p.value.SetInt(i)
			return nil
		}).
		Build()
}

func describeUint[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64]() {
	var zero T
	Describe((*T)(nil)).Name(reflect.TypeOf(zero).String()).
		ToTree(func(p AnyPtr) (tree.Tree, error) {
			return tree.IntValue(int64(p.value.Uint())), nil
		}).
		FromTree(func(p AnyPtr, t tree.Tree) error {
			i, err := t.AsInt64()
			if err != nil {
				return err
			}
			if i < 0 {
				return newErr(eFromTreeFormRejected, "negative number cannot fit in %s", reflect.TypeOf(zero).String())
			}
			p.value.SetUint(uint64(i))
			return nil
		}).
		Build()
}

func describeFloat[T ~float32 | ~float64]() {
	var zero T
	Describe((*T)(nil)).Name(reflect.TypeOf(zero).String()).
		ToTree(func(p AnyPtr) (tree.Tree, error) {
			return tree.FloatValue(p.value.Float()), nil
		}).
		FromTree(func(p AnyPtr, t tree.Tree) error {
			f, err := t.AsFloat64()
			if err != nil {
				return err
			}
			p.value.SetFloat(f)
			return nil
		}).
		Build()
}
