// SPDX-License-Identifier: MPL-2.0

// Package validate implements the data-tree validator: the pipeline
// that takes a freshly parsed or mutated data tree from "structurally
// plausible" to "valid instance".  XPath evaluation for
// when/must/leafref reuses the xpath machine compiled into the schema,
// driven through the XpathNode adapter in this file.
package validate

import (
	"encoding/xml"
	"sort"

	"github.com/danos/utils/natsort"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/schema"
	"github.com/sdcio/yang-datatree/xpath/xutils"
)

// xnode adapts a structural tree node (container, list entry, rpc-like)
// to the XPath document model: list wrapper levels do not exist (the
// tree stores entries directly as siblings), leaves and leaf-lists
// appear as value nodes produced by xleaf.
type xnode struct {
	n      *tree.Node
	parent *xnode

	// ephemeral marks a node fabricated to evaluate must statements on
	// unconfigured non-presence containers; it exists only for the
	// duration of that evaluation.
	ephemeral bool
}

// xleaf is the value-node view of a leaf or leaf-list instance; XPath
// treats values as text-carrying child nodes of the enclosing container.
type xleaf struct {
	n      *tree.Node
	parent *xnode
}

func newXRoot(n *tree.Node) *xnode {
	return &xnode{n: n}
}

// xnodeFor builds the adapter chain from the root down to n, returning
// the context node for XPath evaluation on n: the value node for
// leaf-like nodes, the structural node otherwise.
func xnodeFor(root *xnode, n *tree.Node) xutils.XpathNode {
	if n == root.n {
		return root
	}
	parentX := xnodeFor(root, n.Parent())
	px, ok := parentX.(*xnode)
	if !ok {
		return parentX
	}
	switch n.Kind {
	case tree.KindLeaf, tree.KindLeafList:
		return &xleaf{n: n, parent: px}
	default:
		return &xnode{n: n, parent: px}
	}
}

func (x *xnode) XParent() xutils.XpathNode {
	if x.parent == nil {
		return nil
	}
	return x.parent
}

func (x *xnode) XRoot() xutils.XpathNode {
	cur := x
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (x *xnode) XName() string  { return x.n.Schema.Name() }
func (x *xnode) XValue() string {
	if x.n.Kind == tree.KindList {
		// First key value, matching the xpath adapter's single-key
		// ListEntry value convention.
		for c := x.n.FirstChild(); c != nil; c = c.Next() {
			if _, ok := c.Schema.(schema.Leaf); ok {
				return c.CanonicalValue()
			}
			break
		}
	}
	return ""
}

func (x *xnode) XPath() xutils.PathType {
	if x.parent == nil {
		return xutils.PathType([]string{"/"})
	}
	return append(x.parent.XPath(), x.XName())
}

func (x *xnode) XIsLeaf() bool     { return false }
func (x *xnode) XIsLeafList() bool { return false }

func (x *xnode) XIsNonPresCont() bool {
	c, ok := x.n.Schema.(schema.Container)
	return ok && !c.Presence()
}

func (x *xnode) XIsEphemeral() bool { return x.ephemeral }

func (x *xnode) XListKeyMatches(testKey xml.Name, val string) bool {
	if x.n.Kind != tree.KindList {
		return false
	}
	if x.n.Schema.Namespace() != testKey.Space {
		return false
	}
	for c := x.n.FirstChild(); c != nil; c = c.Next() {
		if c.Schema.Name() == testKey.Local && c.CanonicalValue() == val {
			if isKeyOf(x.n, c) {
				return true
			}
		}
	}
	return false
}

func (x *xnode) XListKeys() []xutils.NodeRefKey {
	if x.n.Kind != tree.KindList {
		return nil
	}
	le, ok := x.n.Schema.(schema.ListEntry)
	if !ok {
		return nil
	}
	var keys []xutils.NodeRefKey
	for _, key := range le.Keys() {
		for c := x.n.FirstChild(); c != nil; c = c.Next() {
			if c.Schema.Name() == key {
				keys = append(keys, xutils.NewNodeRefKey(key, c.CanonicalValue()))
				break
			}
		}
	}
	return keys
}

func isKeyOf(entry, leaf *tree.Node) bool {
	le, ok := entry.Schema.(schema.ListEntry)
	if !ok {
		return false
	}
	for _, k := range le.Keys() {
		if leaf.Schema.Name() == k {
			return true
		}
	}
	return false
}

func (x *xnode) XChildren(
	filter xutils.XFilter,
	sortSpec xutils.SortSpec,
) []xutils.XpathNode {

	var out []xutils.XpathNode
	var raw []xutils.XpathNode
	for c := x.n.FirstChild(); c != nil; c = c.Next() {
		targetType := xutils.NotConfigOrOpdTarget
		if c.Schema.Config() {
			targetType = xutils.ConfigTarget
		}
		if !xutils.MatchFilter(filter,
			xutils.NewXTarget(
				xml.Name{Space: c.Schema.Namespace(), Local: c.Schema.Name()},
				targetType)) {
			continue
		}
		switch c.Kind {
		case tree.KindLeaf, tree.KindLeafList:
			raw = append(raw, &xleaf{n: c, parent: x})
		default:
			raw = append(raw, &xnode{n: c, parent: x})
		}
	}
	out = raw

	if sortSpec == xutils.Sorted && len(out) > 1 {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].XName() != out[j].XName() {
				return natsort.Less(out[i].XName(), out[j].XName())
			}
			return natsort.Less(instanceSortValue(out[i]), instanceSortValue(out[j]))
		})
	}

	if len(out) == 0 {
		// nil, not an empty slice: the xpath engine distinguishes them.
		return nil
	}
	return out
}

func instanceSortValue(x xutils.XpathNode) string {
	switch v := x.(type) {
	case *xleaf:
		if v.n.OrderedByUser() {
			return ""
		}
		return v.n.CanonicalValue()
	case *xnode:
		if v.n.Kind == tree.KindList && !v.n.OrderedByUser() {
			return v.XValue()
		}
	}
	return ""
}

func (x *xleaf) XParent() xutils.XpathNode { return x.parent }
func (x *xleaf) XRoot() xutils.XpathNode   { return x.parent.XRoot() }
func (x *xleaf) XName() string             { return x.n.Schema.Name() }
func (x *xleaf) XValue() string            { return x.n.CanonicalValue() }

func (x *xleaf) XPath() xutils.PathType {
	return append(x.parent.XPath(), x.XName())
}

func (x *xleaf) XIsLeaf() bool { return x.n.Kind == tree.KindLeaf }
func (x *xleaf) XIsLeafList() bool {
	return x.n.Kind == tree.KindLeafList
}
func (x *xleaf) XIsNonPresCont() bool { return false }
func (x *xleaf) XIsEphemeral() bool   { return false }

func (x *xleaf) XChildren(xutils.XFilter, xutils.SortSpec) []xutils.XpathNode {
	return nil
}

func (x *xleaf) XListKeyMatches(xml.Name, string) bool { return false }
func (x *xleaf) XListKeys() []xutils.NodeRefKey        { return nil }
