package route

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIRIRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		iri  string
	}{
		{"resource root", "foo#"},
		{"key step", "foo#/bar"},
		{"index step", "foo#/bar+3"},
		{"nested", "foo#/bar+3/qux"},
		{"anonymous", "ayu-anonymous:#/x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := FromIRI(c.iri)
			require.NoError(t, err)
			require.Equal(t, c.iri, ToIRI(r))
		})
	}
}

func TestShortcutFragment(t *testing.T) {
	r, err := FromIRI("foo#bar")
	require.NoError(t, err)
	require.Equal(t, "foo#/bar+1", ToIRI(r))
}

func TestEscaping(t *testing.T) {
	r := NewResourceRoute("foo").Child("a/b+c")
	iri := ToIRI(r)
	back, err := FromIRI(iri)
	require.NoError(t, err)
	require.Equal(t, "a/b+c", back.Key)
}

func TestBaseStack(t *testing.T) {
	require.Nil(t, CurrentBase())
	r := NewResourceRoute("foo")
	pop := PushBase(r)
	require.Same(t, r, CurrentBase())
	pop()
	require.Nil(t, CurrentBase())
}

func TestRelativize(t *testing.T) {
	root := NewResourceRoute("foo")
	target := root.Child("bar").Elem(2)
	require.Equal(t, "#/bar+2", Relativize(root, target))

	other := NewResourceRoute("other").Child("bar")
	require.Equal(t, "other#/bar", Relativize(root, other))
}
