// SPDX-License-Identifier: MPL-2.0

package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/yang-datatree/data/datanode"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
)

func dataChild(n datanode.DataNode, name string) datanode.DataNode {
	for _, c := range n.YangDataChildrenNoSorting() {
		if c.YangDataName() == name {
			return c
		}
	}
	return nil
}

func TestToDataNodeShape(t *testing.T) {
	ms := compileTestSchema(t, mutateSnippet)
	root, cont := newTestCont(t, ms)

	addLeaf(t, cont, "one", "1")
	for _, v := range []string{"10.0.0.1", "10.0.0.2"} {
		addr, err := tree.NewLeafListEntry(cont.Schema.Child("addrs"), v, false)
		require.NoError(t, err)
		_, err = tree.InsertAsChild(cont, addr)
		require.NoError(t, err)
	}
	entry := addServer(t, cont, "srv1")
	addLeaf(t, entry, "port", "80")

	dn := root.ToDataNode()
	dc := dataChild(dn, "testcont")
	require.NotNil(t, dc)

	// Leaf: single canonical value.
	one := dataChild(dc, "one")
	require.NotNil(t, one)
	assert.Equal(t, []string{"1"}, one.YangDataValuesNoSorting())

	// Leaf-list instances collapse into one node carrying all values.
	addrs := dataChild(dc, "addrs")
	require.NotNil(t, addrs)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"},
		addrs.YangDataValuesNoSorting())

	// List instances group under a wrapper; each entry is named by its
	// first key value and still contains the key leaf.
	servers := dataChild(dc, "servers")
	require.NotNil(t, servers)
	require.Len(t, servers.YangDataChildrenNoSorting(), 1)
	srv := dataChild(servers, "srv1")
	require.NotNil(t, srv)
	assert.Equal(t, []string{"srv1"},
		dataChild(srv, "name").YangDataValuesNoSorting())
	assert.Equal(t, []string{"80"},
		dataChild(srv, "port").YangDataValuesNoSorting())
}

// The snapshot feeds the schema-facing validator directly.
func TestToDataNodeDrivesSchemaValidator(t *testing.T) {
	ms := compileTestSchema(t, mutateSnippet)
	root, cont := newTestCont(t, ms)
	addLeaf(t, cont, "one", "1")

	_, errs, ok := schema.ValidateSchema(ms, root.ToDataNode(), false)
	assert.True(t, ok, "valid tree must pass the schema validator: %v", errs)
}

func TestToDataNodeSchemaValidatorCatchesMandatory(t *testing.T) {
	ms := compileTestSchema(t, `
	container mc {
		presence "explicit";
		leaf req { type string; mandatory true; }
	}`)
	root := tree.NewRootNode(ms, nil)
	mc := tree.NewContainer(ms.Child("mc"), true)
	_, err := tree.InsertAsChild(root, mc)
	require.NoError(t, err)

	_, errs, ok := schema.ValidateSchema(ms, root.ToDataNode(), false)
	assert.False(t, ok)
	assert.NotEmpty(t, errs)
}
