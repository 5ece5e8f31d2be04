// SPDX-License-Identifier: MPL-2.0

package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/yang-datatree/data/tree"
)

func TestParsePathSegments(t *testing.T) {
	segs, err := tree.ParsePath("/tm:testcont/servers[name='a/b']/port")
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.Equal(t, "tm", segs[0].Module)
	assert.Equal(t, "testcont", segs[0].Name)

	assert.Equal(t, "servers", segs[1].Name)
	require.Len(t, segs[1].Predicates, 1)
	assert.Equal(t, [2]string{"name", "a/b"}, segs[1].Predicates[0])

	assert.Equal(t, "port", segs[2].Name)
}

func TestParsePathErrors(t *testing.T) {
	for _, bad := range []string{
		"",
		"/c/l[key]",
		"/c/l[key=value]",
		"/c/l[key='v'",
	} {
		_, err := tree.ParsePath(bad)
		assert.Error(t, err, "path %q", bad)
	}
}

func TestNewPathCreatesIntermediates(t *testing.T) {
	ms := compileTestSchema(t, mutateSnippet)
	root := tree.NewRootNode(ms, nil)

	leaf, err := tree.NewPath(root, ms,
		"/testcont/servers[name='srv1']/port", "8080")
	require.NoError(t, err)
	require.NotNil(t, leaf)

	assert.Equal(t, "8080", leaf.CanonicalValue())
	assert.Equal(t,
		[]string{"testcont", "servers", "srv1", "port"},
		leaf.InstancePath())

	// The entry's key leaf was created, in key-prefix position.
	entry := leaf.Parent()
	assert.Equal(t, []string{"name", "port"}, childNames(entry))

	// Creating along the same path reuses existing nodes and just
	// changes the leaf.
	again, err := tree.NewPath(root, ms,
		"/testcont/servers[name='srv1']/port", "9090")
	require.NoError(t, err)
	assert.Equal(t, leaf, again)
	assert.Equal(t, "9090", leaf.CanonicalValue())
	assert.Equal(t, 1, root.NumChildren())
}

func TestNewPathLeafList(t *testing.T) {
	ms := compileTestSchema(t, mutateSnippet)
	root := tree.NewRootNode(ms, nil)

	inst, err := tree.NewPath(root, ms, "/testcont/addrs", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", inst.CanonicalValue())

	inst2, err := tree.NewPath(root, ms, "/testcont/addrs[.='10.0.0.2']", "")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", inst2.CanonicalValue())
}

func TestNewPathMissingKeyPredicate(t *testing.T) {
	ms := compileTestSchema(t, mutateSnippet)
	root := tree.NewRootNode(ms, nil)

	_, err := tree.NewPath(root, ms, "/testcont/servers/port", "80")
	assert.Error(t, err)
}

func TestChangeLeafUpdatesIndexIdentity(t *testing.T) {
	ms := compileTestSchema(t, mutateSnippet)
	_, cont := newTestCont(t, ms)

	sn := cont.Schema.Child("addrs")
	for _, v := range []string{"a", "b", "c", "d"} {
		inst, err := tree.NewLeafListEntry(sn, v, false)
		require.NoError(t, err)
		_, err = tree.InsertAsChild(cont, inst)
		require.NoError(t, err)
	}

	target := cont.FindChild(sn, "b")
	require.NotNil(t, target)
	require.NoError(t, tree.ChangeLeaf(target, "z"))

	assert.Nil(t, cont.FindChild(sn, "b"))
	assert.Equal(t, target, cont.FindChild(sn, "z"))
}
