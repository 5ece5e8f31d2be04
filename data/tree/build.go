// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"github.com/sdcio/yang-datatree/data/dict"
	"github.com/sdcio/yang-datatree/data/value"
	"github.com/sdcio/yang-datatree/schema"
)

// NewRootNode creates a detached Node that will serve as the root of a
// tree, attaching fresh Root bookkeeping (Dictionary handle, generation
// counter, module revision table).
func NewRootNode(sn schema.Node, d *dict.Dictionary) *Node {
	n := newBare(sn, kindOf(sn))
	n.root = NewRoot(d)
	return n
}

func newBare(sn schema.Node, k Kind) *Node {
	return &Node{Schema: sn, Kind: k}
}

// NewContainer creates a detached Container node. presence marks it as
// an explicit-presence container; non-presence containers start
// default (a non-presence container is default iff every descendant
// is, and an empty container vacuously satisfies that).
func NewContainer(sn schema.Node, presence bool) *Node {
	n := newBare(sn, KindContainer)
	n.presence = presence
	n.isDefault = !presence
	return n
}

// NewListEntry creates a detached List node representing one list
// instance. Callers insert the key leaves first (via InsertAsChild),
// which the inserter routes into the leading key prefix.
func NewListEntry(sn schema.Node) *Node {
	return newBare(sn, KindList)
}

// NewLeaf creates a detached Leaf node, parsing raw through the Value
// Store. trusted skips re-validating a value already known to be valid
// (e.g. round-tripping a canonical form).
func NewLeaf(sn schema.Node, raw string, trusted bool) (*Node, error) {
	v, err := value.ParseValue(sn.Type(), raw, trusted)
	if err != nil {
		return nil, err
	}
	n := newBare(sn, KindLeaf)
	n.Value = v
	return n, nil
}

// NewLeafListEntry creates one detached LeafList instance carrying a
// single value (the data model treats a leaf-list's multiple values as
// multiple sibling Nodes of the same schema, matching the JSON/XML array
// encodings).
func NewLeafListEntry(sn schema.Node, raw string, trusted bool) (*Node, error) {
	v, err := value.ParseValue(sn.Type(), raw, trusted)
	if err != nil {
		return nil, err
	}
	n := newBare(sn, KindLeafList)
	n.Value = v
	return n, nil
}

// NewLeafNoValue creates a detached Leaf whose value type is unknown:
// the edit-config delete/remove form, for which validation is
// suppressed.
func NewLeafNoValue(sn schema.Node) *Node {
	n := newBare(sn, KindLeaf)
	n.Value = &value.Value{Kind: value.KindUnknown}
	return n
}

// NewAnydata creates a detached Anydata/Anyxml node carrying an opaque
// string-form payload (DataTree/JSON/XML/String/SXML/LYB modes are all
// represented as their serialized text at this layer; richer in-memory
// forms are a caller concern).
func NewAnydata(sn schema.Node, raw string, anyxml bool) *Node {
	k := KindAnydata
	if anyxml {
		k = KindAnyxml
	}
	n := newBare(sn, k)
	n.Value = &value.Value{Kind: value.KindString, Canonical: raw, Raw: raw}
	return n
}

// NewOperationRoot creates a detached structural root for an RPC, Action
// or Notification payload.
func NewOperationRoot(sn schema.Node, k Kind) *Node {
	return newBare(sn, k)
}

// NewOperationRootNode is NewOperationRoot plus tree-root bookkeeping,
// for operation payloads parsed as standalone documents.
func NewOperationRootNode(sn schema.Node, k Kind, d *dict.Dictionary) *Node {
	n := newBare(sn, k)
	n.root = NewRoot(d)
	return n
}

// SetRawValue sets a leaf-like node's value directly, bypassing
// Value Store parsing - used by merge/diff code that already holds a
// validated *value.Value from another tree.
func (n *Node) SetRawValue(v *value.Value) { n.Value = v }

// Free releases subtree n: children first, then attributes, then the
// node itself.  Hash-index removal is suppressed for interior nodes
// since the whole table dies with the subtree root.  n must already be
// unlinked from any parent; Unlink removes n from its parent's sibling
// ring and index before a caller frees it.
func Free(n *Node) {
	if n == nil {
		return
	}
	for c := n.firstChild; c != nil; {
		next := c.next
		c.parent = nil // detach without re-touching n's (about to be discarded) index/ring
		Free(c)
		c = next
	}
	if n.Value != nil {
		n.Value.Interned.Release()
	}
	n.firstChild = nil
	n.index = nil
	n.attrs = nil
	n.parent = nil
	n.next = nil
	n.prev = nil
}

// FreeWithSiblings frees n and every one of its siblings, unlinking
// each from the shared parent first. If n has no parent (a lone or
// list-head root chain), it walks the sibling ring directly via
// prev/next.
func FreeWithSiblings(n *Node) {
	if n == nil {
		return
	}

	head := n
	if n.parent != nil {
		head = n.parent.firstChild
	} else {
		for head.prev != nil && head.prev.next != nil {
			head = head.prev
		}
	}

	var all []*Node
	for c := head; c != nil; c = c.next {
		all = append(all, c)
	}
	for _, c := range all {
		Unlink(c)
		Free(c)
	}
}
