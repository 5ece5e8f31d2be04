// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"strconv"

	"github.com/sdcio/yang-datatree/data/datanode"
)

// ToDataNode snapshots the subtree rooted at n into the schema-facing
// datanode.DataNode shape, bridging a data tree to consumers of that
// interface (schema.NewSchemaValidator, schema.ConvertToXpathNode, the
// datanode-level Marshaller): list instances grouped under a wrapper
// named after the list with each entry named by its first key value,
// leaf-list instances collapsed into one node carrying all values,
// leaves carrying their canonical value.  The snapshot is a read-only
// view; mutations to the tree after conversion are not reflected.
func (n *Node) ToDataNode() datanode.DataNode {
	switch n.Kind {
	case KindLeaf:
		return datanode.CreateDataNode(n.Schema.Name(), nil, leafValues(n))
	case KindLeafList:
		return datanode.CreateDataNode(n.Schema.Name(), nil, []string{n.CanonicalValue()})
	case KindAnydata, KindAnyxml:
		return datanode.CreateDataNode(n.Schema.Name(), nil, []string{n.CanonicalValue()})
	case KindList:
		entry := convertChildren(n)
		return datanode.CreateDataNode(entryName(n, 0), entry, nil)
	default:
		return datanode.CreateDataNode(n.Schema.Name(), convertChildren(n), nil)
	}
}

func leafValues(n *Node) []string {
	if n.Value == nil {
		return nil
	}
	return []string{n.CanonicalValue()}
}

// entryName derives the datanode name of a list instance: the first
// key's canonical value, or a positional tag for keyless state lists.
func entryName(n *Node, position int) string {
	if keys := listKeys(n.Schema); len(keys) > 0 {
		for c := n.firstChild; c != nil; c = c.next {
			if keyPosition(n.Schema, c.Schema) == 0 {
				return c.CanonicalValue()
			}
		}
	}
	return n.Schema.Name() + "#" + strconv.Itoa(position)
}

func convertChildren(n *Node) []datanode.DataNode {
	var out []datanode.DataNode
	seen := make(map[interface{}]bool)
	for c := n.firstChild; c != nil; c = c.next {
		if seen[c.Schema] {
			continue
		}
		switch c.Kind {
		case KindLeafList:
			seen[c.Schema] = true
			var vals []string
			for s := c; s != nil; s = s.next {
				if s.Schema == c.Schema {
					vals = append(vals, s.CanonicalValue())
				}
			}
			out = append(out, datanode.CreateDataNode(c.Schema.Name(), nil, vals))
		case KindList:
			seen[c.Schema] = true
			var entries []datanode.DataNode
			i := 0
			for s := c; s != nil; s = s.next {
				if s.Schema == c.Schema {
					entries = append(entries,
						datanode.CreateDataNode(entryName(s, i), convertChildren(s), nil))
					i++
				}
			}
			out = append(out, datanode.CreateDataNode(c.Schema.Name(), entries, nil))
		default:
			out = append(out, c.ToDataNode())
		}
	}
	return out
}
