package resource

import (
	"bytes"
	"testing"

	"github.com/ayu-lang/ayu-go/ayu"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string
	Count int
}

func init() {
	ayu.Describe((*widget)(nil)).
		Name("resource_test.widget").
		Attrs(
			ayu.AttrDescriptor{Key: "name", Accessor: ayu.NewMember(ayu.TypeOf(""), []int{0})},
			ayu.AttrDescriptor{Key: "count", Accessor: ayu.NewMember(ayu.TypeOf(0), []int{1})},
		).
		Build()
}

func TestDocumentNamedAndAnonymousRoundTrip(t *testing.T) {
	doc := NewDocument()
	wt := ayu.TypeOf(widget{})

	ref, err := doc.NewNamed(wt, "first")
	require.NoError(t, err)
	require.NoError(t, ref.Set(widget{Name: "a", Count: 1}))

	_, err = doc.New(wt)
	require.NoError(t, err)

	_, err = doc.NewNamed(wt, "first")
	require.Error(t, err, "duplicate name must be rejected")

	_, err = doc.NewNamed(wt, "_bad")
	require.Error(t, err, "user names cannot start with _")

	var buf bytes.Buffer
	require.NoError(t, doc.SaveTo(&buf))

	doc2 := NewDocument()
	// FromTree fills existing items in place, so allocate them first.
	_, err = doc2.NewNamed(wt, "first")
	require.NoError(t, err)
	_, err = doc2.New(wt)
	require.NoError(t, err)
	require.NoError(t, doc2.LoadFrom(&buf))

	found, ok := doc2.FindWithName("first")
	require.True(t, ok)
	var w widget
	require.NoError(t, found.Get(&w))
	require.Equal(t, "a", w.Name)
	require.Equal(t, 1, w.Count)

	_, ok = doc2.FindWithName("_0")
	require.True(t, ok)
}
