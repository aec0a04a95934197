package voc_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/voc"
)

func TestShortIRIAndFullIRIRoundTrip(t *testing.T) {
	voc.RegisterPrefix("ex:", "http://example.com/")

	require.Equal(t, "http://example.com/name", voc.FullIRI("http://example.com/name"))
	short := voc.ShortIRI("http://example.com/name")
	require.Equal(t, "ex:name", short)
	require.Equal(t, "http://example.com/name", voc.FullIRI(short))
}

func TestShortIRILeavesUnknownIRIUnchanged(t *testing.T) {
	require.Equal(t, "http://unregistered.example/x", voc.ShortIRI("http://unregistered.example/x"))
}

func TestListIncludesEveryRegisteredPrefix(t *testing.T) {
	voc.RegisterPrefix("exlist:", "http://example.com/list/")

	var found bool
	for _, ns := range voc.List() {
		if ns.Prefix == "exlist:" && ns.Full == "http://example.com/list/" {
			found = true
		}
	}
	require.True(t, found)
}

func TestByFullNameSortsNamespaces(t *testing.T) {
	ns := []voc.Namespace{
		{Prefix: "b:", Full: "http://b.example/"},
		{Prefix: "a:", Full: "http://a.example/"},
	}
	sort.Sort(voc.ByFullName(ns))
	require.Equal(t, "http://a.example/", ns[0].Full)
	require.Equal(t, "http://b.example/", ns[1].Full)
}

func TestNamespacesRegisterIsIndependentOfGlobal(t *testing.T) {
	var local voc.Namespaces
	local.Register(voc.Namespace{Prefix: "loc:", Full: "http://local.example/"})

	require.Equal(t, "loc:thing", local.ShortIRI("http://local.example/thing"))
	require.Equal(t, "http://local.example/thing", voc.ShortIRI("http://local.example/thing"))
}
